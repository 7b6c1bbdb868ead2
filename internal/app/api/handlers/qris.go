package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/warungpay/qrispay/pkg/logctx"
	"github.com/warungpay/qrispay/pkg/qris"
	"github.com/warungpay/qrispay/pkg/response"
)

type MakeDynamicQRRequest struct {
	Payload  string  `json:"payload" binding:"required"`
	Amount   float64 `json:"amount" binding:"required"`
	FeeType  string  `json:"fee_type" enums:"fixed,percent"`
	FeeValue float64 `json:"fee_value"`
}

type DynamicQRResponse struct {
	Payload      string `json:"payload"`
	MerchantName string `json:"merchant_name"`
}

type ValidateQRRequest struct {
	Payload string `json:"payload" binding:"required"`
}

type ValidateQRResponse struct {
	Valid        bool   `json:"valid"`
	MerchantName string `json:"merchant_name"`
}

// @Summary      Make Dynamic QRIS
// @Description  Converts a static merchant QRIS payload into a dynamic one carrying the transaction amount and an optional service fee.
// @Tags         QRIS
// @Accept       json
// @Produce      json
// @Param        request body handlers.MakeDynamicQRRequest true "Static payload and amount"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/qris/dynamic [post]
func ApiMakeDynamicQR(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req MakeDynamicQRRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		var opts []qris.DynamicOption
		if req.FeeType != "" {
			opts = append(opts, qris.WithFee(qris.FeeType(req.FeeType), req.FeeValue))
		}

		out, err := qris.MakeDynamic(req.Payload, req.Amount, opts...)
		if err != nil {
			if errors.Is(err, qris.ErrInvalidFormat) || errors.Is(err, qris.ErrInvalidAmount) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}

		logctx.FromGin(c, log).Infow("dynamic_qr_generated",
			"amount", req.Amount,
			"fee_type", req.FeeType,
		)
		c.JSON(http.StatusOK, response.OKT(&DynamicQRResponse{
			Payload:      out,
			MerchantName: qris.MerchantName(out),
		}))
	}
}

// @Summary      Validate QRIS
// @Description  Checks payload structure and CRC and extracts the merchant name.
// @Tags         QRIS
// @Accept       json
// @Produce      json
// @Param        request body handlers.ValidateQRRequest true "Payload to validate"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/qris/validate [post]
func ApiValidateQR() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ValidateQRRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&ValidateQRResponse{
			Valid:        qris.Validate(req.Payload),
			MerchantName: qris.MerchantName(req.Payload),
		}))
	}
}

func RegisterQRISRoutes(r gin.IRouter, log *zap.SugaredLogger) {
	r.POST("/qris/dynamic", ApiMakeDynamicQR(log))
	r.POST("/qris/validate", ApiValidateQR())
}

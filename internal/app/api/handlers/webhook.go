package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/warungpay/qrispay/internal/app/service/mutationlog"
	"github.com/warungpay/qrispay/internal/app/service/reconcile"
	"github.com/warungpay/qrispay/internal/app/service/settings"
	"github.com/warungpay/qrispay/internal/models"
	"github.com/warungpay/qrispay/internal/platform/bankfeed"
	"github.com/warungpay/qrispay/pkg/logctx"
	"github.com/warungpay/qrispay/pkg/response"
	"github.com/warungpay/qrispay/pkg/tool"
)

// SignatureHeader carries the shared secret configured at the banking
// aggregator. Verification happens inside the reconcile service.
const SignatureHeader = "X-Callback-Signature"

// @Summary      Bank Mutation Webhook
// @Description  Receives pushed bank mutations from the aggregator and settles matching orders. Authenticated by shared secret header.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        X-Callback-Signature header string true "Shared secret"
// @Param        request body []bankfeed.Mutation true "Mutation batch"
// @Success      200  {object}  reconcile.WebhookResult
// @Failure      401  {object}  handlers.RespErr
// @Router       /api/v1/webhook/mutation [post]
func ApiBankMutationWebhook(rec *reconcile.Service, logSvc *mutationlog.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		reqLog := logctx.FromGin(c, log)

		var mutations []bankfeed.Mutation
		if err := c.ShouldBindJSON(&mutations); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		traceID := ""
		if tid, ok := c.Get("traceID"); ok {
			traceID, _ = tid.(string)
		}
		raw, _ := json.Marshal(mutations)
		row := &models.BankMutationLog{
			ID:            tool.GenerateUUIDV7(),
			TraceID:       traceID,
			MutationCount: len(mutations),
			Data:          datatypes.JSON(raw),
			Status:        models.BankMutationLogStatusReceived,
			ReceivedAt:    time.Now(),
		}

		res, err := rec.HandleWebhook(ctx, mutations, c.GetHeader(SignatureHeader))
		if err != nil {
			row.Status = models.BankMutationLogStatusHandleFailed
			result := datatypes.JSON([]byte(`{"error":` + jsonQuote(err.Error()) + `}`))
			row.Result = &result
			logSvc.Save(ctx, row)

			switch {
			case errors.Is(err, reconcile.ErrInvalidSignature):
				c.JSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, err.Error()))
			case errors.Is(err, settings.ErrNotConfigured):
				c.JSON(http.StatusServiceUnavailable, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			default:
				reqLog.Errorw("webhook_handling_failed", "error", err.Error())
				c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			}
			return
		}

		row.Status = models.BankMutationLogStatusHandled
		if rr, merr := json.Marshal(res); merr == nil {
			result := datatypes.JSON(rr)
			row.Result = &result
		}
		logSvc.Save(ctx, row)

		c.JSON(http.StatusOK, res)
	}
}

func jsonQuote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func RegisterWebhookRoutes(r gin.IRouter, rec *reconcile.Service, logSvc *mutationlog.Service, log *zap.SugaredLogger) {
	r.POST("/webhook/mutation", ApiBankMutationWebhook(rec, logSvc, log))
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	ordersvc "github.com/warungpay/qrispay/internal/app/service/order"
	"github.com/warungpay/qrispay/internal/app/service/settings"
	"github.com/warungpay/qrispay/internal/models"
	"github.com/warungpay/qrispay/internal/platform/bankfeed"
	"github.com/warungpay/qrispay/pkg/response"
)

type SaveBankSettingsRequest struct {
	ID              string `json:"id"`
	BankAccountID   string `json:"bank_account_id" binding:"required"`
	BankAccountName string `json:"bank_account_name"`
	AccountNumber   string `json:"account_number"`
	BankType        string `json:"bank_type"`
	AccessToken     string `json:"access_token" binding:"required"`
	SecretToken     string `json:"secret_token" binding:"required"`
	UniqueCodeStart int    `json:"unique_code_start"`
	UniqueCodeEnd   int    `json:"unique_code_end"`
	IsActive        bool   `json:"is_active"`
}

// @Summary      Save Bank Settings
// @Description  Creates or updates a bank account configuration. Marking it active deactivates all others.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body handlers.SaveBankSettingsRequest true "Settings"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/settings [post]
func ApiSaveBankSettings(settingsSvc *settings.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SaveBankSettingsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		row := &models.BankAccountSettings{
			ID:              req.ID,
			BankAccountID:   req.BankAccountID,
			BankAccountName: req.BankAccountName,
			AccountNumber:   req.AccountNumber,
			BankType:        req.BankType,
			AccessToken:     req.AccessToken,
			SecretToken:     req.SecretToken,
			UniqueCodeStart: req.UniqueCodeStart,
			UniqueCodeEnd:   req.UniqueCodeEnd,
			IsActive:        req.IsActive,
		}
		if err := settingsSvc.Save(c.Request.Context(), row); err != nil {
			if errors.Is(err, settings.ErrInvalidCodeRange) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(row))
	}
}

// @Summary      List Bank Settings
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/settings [get]
func ApiListBankSettings(settingsSvc *settings.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := settingsSvc.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(rows))
	}
}

// @Summary      Activate Bank Settings
// @Description  Makes one configuration the active issuer and deactivates the rest.
// @Tags         Admin
// @Produce      json
// @Param        id path string true "Settings ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/settings/{id}/activate [post]
func ApiActivateBankSettings(settingsSvc *settings.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := settingsSvc.Activate(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(gin.H{"id": c.Param("id")}))
	}
}

// @Summary      Scan Orders
// @Description  Paginated, filterable listing of payment orders for back-office use.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body order.ScanOrdersRequest true "Filters and pagination"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/orders/scan [post]
func ApiScanOrders(orderSvc *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ordersvc.ScanOrdersRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := orderSvc.Scan(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      List Aggregator Bank Accounts
// @Description  Lists bank accounts as seen by the banking aggregator, using the active configuration's token.
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/bank/accounts [get]
func ApiListBankAccounts(settingsSvc *settings.Service, feed *bankfeed.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := settingsSvc.Active(c.Request.Context())
		if err != nil {
			if errors.Is(err, settings.ErrNotConfigured) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		accounts, err := feed.Accounts(c.Request.Context(), st.AccessToken)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(accounts))
	}
}

// @Summary      List Bank Mutations
// @Description  Lists recent bank mutations from the aggregator for manual reconciliation.
// @Tags         Admin
// @Produce      json
// @Param        bank       query string false "Bank account ID"
// @Param        type       query string false "credit or debit"
// @Param        amount     query int    false "Exact amount filter"
// @Param        page       query int    false "Page"
// @Param        page_size  query int    false "Page size"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/bank/mutations [get]
func ApiListBankMutations(settingsSvc *settings.Service, feed *bankfeed.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := settingsSvc.Active(c.Request.Context())
		if err != nil {
			if errors.Is(err, settings.ErrNotConfigured) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}

		q := bankfeed.MutationQuery{
			BankAccountID: c.Query("bank"),
			Type:          bankfeed.MutationType(c.Query("type")),
		}
		q.Amount, _ = strconv.ParseInt(c.Query("amount"), 10, 64)
		q.Page, _ = strconv.Atoi(c.Query("page"))
		q.PageSize, _ = strconv.Atoi(c.Query("page_size"))

		muts, err := feed.Mutations(c.Request.Context(), st.AccessToken, q)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(muts))
	}
}

func RegisterAdminRoutes(r gin.IRouter, settingsSvc *settings.Service, orderSvc *ordersvc.Service, feed *bankfeed.Client) {
	r.POST("/admin/settings", ApiSaveBankSettings(settingsSvc))
	r.GET("/admin/settings", ApiListBankSettings(settingsSvc))
	r.POST("/admin/settings/:id/activate", ApiActivateBankSettings(settingsSvc))
	r.POST("/admin/orders/scan", ApiScanOrders(orderSvc))
	r.GET("/admin/bank/accounts", ApiListBankAccounts(settingsSvc, feed))
	r.GET("/admin/bank/mutations", ApiListBankMutations(settingsSvc, feed))
}

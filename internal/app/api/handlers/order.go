package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	ordersvc "github.com/warungpay/qrispay/internal/app/service/order"
	"github.com/warungpay/qrispay/internal/app/service/reconcile"
	"github.com/warungpay/qrispay/pkg/response"
)

// @Summary      Create Payment Order
// @Description  Issues a bank-transfer payment order with a daily-unique code added to the amount.
// @Tags         Order
// @Accept       json
// @Produce      json
// @Param        request body order.CreateRequest true "Order creation request"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/orders [post]
func ApiCreateOrder(orderSvc *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ordersvc.CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}

		row, err := orderSvc.Create(c.Request.Context(), &req)
		if err != nil {
			switch {
			case errors.Is(err, ordersvc.ErrInvalidAmount),
				errors.Is(err, ordersvc.ErrDuplicateOrder),
				errors.Is(err, ordersvc.ErrRangeExhausted):
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			default:
				// includes no-active-settings; a config problem, not the caller's
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			}
			return
		}
		c.JSON(http.StatusOK, response.OKT(row))
	}
}

// @Summary      Check Payment Status
// @Description  Polls the reconciliation engine; a pending order moves to checking and is matched against fresh bank mutations.
// @Tags         Order
// @Produce      json
// @Param        order_id path string true "Order ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/orders/{order_id}/status [get]
func ApiCheckOrderStatus(rec *reconcile.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := rec.CheckPayment(c.Request.Context(), c.Param("order_id"))
		if err != nil {
			if errors.Is(err, ordersvc.ErrOrderNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Confirm Transfer
// @Description  Customer reports the transfer was sent; the order moves from pending to checking.
// @Tags         Order
// @Produce      json
// @Param        order_id path string true "Order ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/orders/{order_id}/confirm [post]
func ApiConfirmTransfer(orderSvc *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		row, err := orderSvc.ConfirmTransfer(c.Request.Context(), c.Param("order_id"))
		if err != nil {
			switch {
			case errors.Is(err, ordersvc.ErrOrderNotFound),
				errors.Is(err, ordersvc.ErrOrderExpired),
				errors.Is(err, ordersvc.ErrInvalidTransition):
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			default:
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			}
			return
		}
		c.JSON(http.StatusOK, response.OKT(row))
	}
}

// @Summary      Cancel Order
// @Description  Operator cancels a non-terminal order.
// @Tags         Order
// @Produce      json
// @Param        order_id path string true "Order ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/orders/{order_id}/cancel [post]
func ApiCancelOrder(orderSvc *ordersvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		row, err := orderSvc.Cancel(c.Request.Context(), c.Param("order_id"))
		if err != nil {
			switch {
			case errors.Is(err, ordersvc.ErrOrderNotFound),
				errors.Is(err, ordersvc.ErrInvalidTransition):
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			default:
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			}
			return
		}
		c.JSON(http.StatusOK, response.OKT(row))
	}
}

func RegisterOrderRoutes(r gin.IRouter, orderSvc *ordersvc.Service, rec *reconcile.Service) {
	r.POST("/orders", ApiCreateOrder(orderSvc))
	r.GET("/orders/:order_id/status", ApiCheckOrderStatus(rec))
	r.POST("/orders/:order_id/confirm", ApiConfirmTransfer(orderSvc))
	r.POST("/orders/:order_id/cancel", ApiCancelOrder(orderSvc))
}

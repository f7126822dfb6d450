package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reviewly-backend-go/internal/core"
	"reviewly-backend-go/internal/models"
)

// PaymentHandler runs checkout: order creation, confirmation and history.
type PaymentHandler struct {
	payments *core.PaymentService
	logger   *zap.Logger
}

func NewPaymentHandler(payments *core.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, logger: logger}
}

// CreateOrder handles POST /payment/orders
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.payments.CreateOrder(c.Request.Context(), uid, req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// Confirm handles POST /payment/confirm. A payment that was captured but
// could not be applied answers 202 with the captured order.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req models.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.payments.Confirm(c.Request.Context(), uid, req)
	if err != nil {
		if errors.Is(err, core.ErrFulfilmentFailed) && order != nil {
			h.logger.Error("Payment captured but not fulfilled", zap.String("orderID", order.ID), zap.Error(err))
			c.JSON(http.StatusAccepted, ConfirmPaymentResponse{Order: order, Pending: true, Error: core.ErrFulfilmentFailed.Error()})
			return
		}
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, ConfirmPaymentResponse{Order: order})
}

// History handles GET /payment/history
func (h *PaymentHandler) History(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	orders, err := h.payments.History(c.Request.Context(), uid)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

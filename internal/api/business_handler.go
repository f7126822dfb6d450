package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reviewly-backend-go/internal/core"
	"reviewly-backend-go/internal/middleware"
	"reviewly-backend-go/internal/models"
)

// BusinessHandler serves the signed-in owner's business profile.
type BusinessHandler struct {
	businesses *core.BusinessService
	credits    *core.CreditService
	logger     *zap.Logger
}

func NewBusinessHandler(businesses *core.BusinessService, credits *core.CreditService, logger *zap.Logger) *BusinessHandler {
	return &BusinessHandler{businesses: businesses, credits: credits, logger: logger}
}

// Register handles POST /businesses/register. Registering twice returns the
// existing business with 200.
func (h *BusinessHandler) Register(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req models.RegisterBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	b, created, err := h.businesses.Register(c.Request.Context(), uid, middleware.UserEmail(c), req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, RegisterBusinessResponse{Business: b, Created: created})
}

// Get handles GET /businesses/me
func (h *BusinessHandler) Get(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	b, err := h.businesses.Get(c.Request.Context(), uid)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Update handles PUT /businesses/me
func (h *BusinessHandler) Update(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req models.UpdateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.businesses.UpdateProfile(c.Request.Context(), uid, req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Subscription handles GET /businesses/me/subscription
func (h *BusinessHandler) Subscription(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	st, err := h.businesses.Subscription(c.Request.Context(), uid)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// Credits handles GET /businesses/me/credits
func (h *BusinessHandler) Credits(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	credits, err := h.credits.Balance(c.Request.Context(), uid)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, credits)
}

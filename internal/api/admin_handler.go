package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reviewly-backend-go/internal/core"
	"reviewly-backend-go/internal/models"
)

// AdminHandler serves the platform admin console. Routes are gated by
// middleware.RequireAdmin.
type AdminHandler struct {
	admin   *core.AdminService
	support *core.SupportService
	logger  *zap.Logger
}

func NewAdminHandler(admin *core.AdminService, support *core.SupportService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, support: support, logger: logger}
}

// ListBusinesses handles GET /admin/businesses?plan=&limit=
func (h *AdminHandler) ListBusinesses(c *gin.Context) {
	filter := models.BusinessFilter{Plan: c.Query("plan")}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters", Details: "limit must be a non-negative integer"})
			return
		}
		filter.Limit = n
	}
	list, err := h.admin.ListBusinesses(c.Request.Context(), filter)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetBusiness handles GET /admin/businesses/:uid
func (h *AdminHandler) GetBusiness(c *gin.Context) {
	detail, err := h.admin.GetBusiness(c.Request.Context(), c.Param("uid"))
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// SetPlan handles PUT /admin/businesses/:uid/plan
func (h *AdminHandler) SetPlan(c *gin.Context) {
	actor, ok := requireUser(c)
	if !ok {
		return
	}
	var req models.SetPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.admin.SetPlan(c.Request.Context(), actor, c.Param("uid"), req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// SetLimits handles PUT /admin/businesses/:uid/limits
func (h *AdminHandler) SetLimits(c *gin.Context) {
	actor, ok := requireUser(c)
	if !ok {
		return
	}
	var req models.SetLimitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.admin.SetCustomLimits(c.Request.Context(), actor, c.Param("uid"), req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GrantCredits handles POST /admin/businesses/:uid/credits
func (h *AdminHandler) GrantCredits(c *gin.Context) {
	actor, ok := requireUser(c)
	if !ok {
		return
	}
	var req models.GrantCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	credits, err := h.admin.GrantCredits(c.Request.Context(), actor, c.Param("uid"), req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, credits)
}

// GetSettings handles GET /admin/settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.admin.GetSettings(c.Request.Context())
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings handles PUT /admin/settings
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	actor, ok := requireUser(c)
	if !ok {
		return
	}
	var req models.UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	settings, err := h.admin.UpdateSettings(c.Request.Context(), actor, req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// ListSupport handles GET /admin/support?status=
func (h *AdminHandler) ListSupport(c *gin.Context) {
	list, err := h.support.ListRequests(c.Request.Context(), c.Query("status"))
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UpdateSupport handles PATCH /admin/support/:id
func (h *AdminHandler) UpdateSupport(c *gin.Context) {
	actor, ok := requireUser(c)
	if !ok {
		return
	}
	var req models.UpdateSupportStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := h.support.UpdateStatus(c.Request.Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// ListDemos handles GET /admin/demos
func (h *AdminHandler) ListDemos(c *gin.Context) {
	list, err := h.support.ListDemoBookings(c.Request.Context())
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// ReconcilePayments handles POST /admin/payments/reconcile
func (h *AdminHandler) ReconcilePayments(c *gin.Context) {
	actor, ok := requireUser(c)
	if !ok {
		return
	}
	result, err := h.admin.ReconcilePayments(c.Request.Context(), actor)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SweepExpired handles POST /admin/subscriptions/sweep
func (h *AdminHandler) SweepExpired(c *gin.Context) {
	n, err := h.admin.SweepExpired(c.Request.Context())
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Expired subscriptions closed", Data: gin.H{"expired": n}})
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reviewly-backend-go/internal/core"
	"reviewly-backend-go/internal/models"
)

// BranchHandler manages branches and their share links.
type BranchHandler struct {
	branches *core.BranchService
	logger   *zap.Logger
}

func NewBranchHandler(branches *core.BranchService, logger *zap.Logger) *BranchHandler {
	return &BranchHandler{branches: branches, logger: logger}
}

// List handles GET /businesses/me/branches
func (h *BranchHandler) List(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	branches, err := h.branches.List(c.Request.Context(), uid)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, branches)
}

// Create handles POST /businesses/me/branches
func (h *BranchHandler) Create(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req models.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	branch, err := h.branches.Add(c.Request.Context(), uid, req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, branch)
}

// Update handles PUT /businesses/me/branches/:branchId
func (h *BranchHandler) Update(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req models.UpdateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	branch, err := h.branches.Update(c.Request.Context(), uid, c.Param("branchId"), req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, branch)
}

// Delete handles DELETE /businesses/me/branches/:branchId
func (h *BranchHandler) Delete(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.branches.Remove(c.Request.Context(), uid, c.Param("branchId")); err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateShareLink handles POST /businesses/me/branches/:branchId/share
func (h *BranchHandler) CreateShareLink(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	link, err := h.branches.CreateShareLink(c.Request.Context(), uid, c.Param("branchId"))
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

// ListShareLinks handles GET /businesses/me/links
func (h *BranchHandler) ListShareLinks(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	links, err := h.branches.ListShareLinks(c.Request.Context(), uid)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, links)
}

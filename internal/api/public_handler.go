package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reviewly-backend-go/internal/core"
	"reviewly-backend-go/internal/middleware"
	"reviewly-backend-go/internal/models"
)

// PublicHandler serves unauthenticated customer-facing endpoints.
type PublicHandler struct {
	businesses *core.BusinessService
	branches   *core.BranchService
	reviews    *core.ReviewService
	pricing    *core.PricingService
	logger     *zap.Logger
}

func NewPublicHandler(services *core.Services, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{
		businesses: services.Businesses,
		branches:   services.Branches,
		reviews:    services.Reviews,
		pricing:    services.Pricing,
		logger:     logger,
	}
}

// Business handles GET /public/businesses/:slug
func (h *PublicHandler) Business(c *gin.Context) {
	p, err := h.businesses.PublicProfile(c.Request.Context(), c.Param("slug"))
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// SubmitReview handles POST /public/businesses/:slug/reviews
func (h *PublicHandler) SubmitReview(c *gin.Context) {
	var req models.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	review, err := h.reviews.Submit(c.Request.Context(), c.Param("slug"), req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": review.ID, "branchId": review.BranchID, "createdAt": review.CreatedAt})
}

// ShareLink handles GET /public/links/:linkId. With ?redirect=true the
// client is sent straight to the review form.
func (h *PublicHandler) ShareLink(c *gin.Context) {
	link, err := h.branches.ResolveShareLink(c.Request.Context(), c.Param("linkId"))
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	if c.Query("redirect") == "true" {
		c.Redirect(http.StatusFound, link.ReviewLink)
		return
	}
	c.JSON(http.StatusOK, link)
}

// Pricing handles GET /pricing. Authentication is optional; when present
// the caller's current plan is flagged.
func (h *PublicHandler) Pricing(c *gin.Context) {
	quote, err := h.pricing.Quote(c.Request.Context(), middleware.UserID(c), c.ClientIP(), c.Query("currency"))
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

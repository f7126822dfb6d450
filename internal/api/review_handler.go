package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reviewly-backend-go/internal/core"
	"reviewly-backend-go/internal/models"
)

// ReviewHandler serves the owner's review dashboard.
type ReviewHandler struct {
	reviews *core.ReviewService
	logger  *zap.Logger
}

func NewReviewHandler(reviews *core.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

// List handles GET /businesses/me/reviews
//
// Query: branchId, minRating, replied, from, to (RFC 3339), limit and
// period (current, previous or all).
func (h *ReviewHandler) List(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	q, err := parseReviewQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid query parameters", Details: err.Error()})
		return
	}
	reviews, err := h.reviews.List(c.Request.Context(), uid, q)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// Stats handles GET /businesses/me/reviews/stats
func (h *ReviewHandler) Stats(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	stats, err := h.reviews.Stats(c.Request.Context(), uid)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Reply handles POST /businesses/me/reviews/:reviewId/reply
func (h *ReviewHandler) Reply(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	var req models.ReplyReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	review, err := h.reviews.Reply(c.Request.Context(), uid, c.Param("reviewId"), req.Reply)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

// Delete handles DELETE /businesses/me/reviews/:reviewId
func (h *ReviewHandler) Delete(c *gin.Context) {
	uid, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.reviews.Delete(c.Request.Context(), uid, c.Param("reviewId")); err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseReviewQuery(c *gin.Context) (core.ReviewQuery, error) {
	q := core.ReviewQuery{Period: c.Query("period")}
	q.BranchID = c.Query("branchId")

	if v := c.Query("minRating"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 5 {
			return q, fmt.Errorf("minRating must be between 1 and 5")
		}
		q.MinRating = n
	}
	if v := c.Query("replied"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return q, fmt.Errorf("replied must be true or false")
		}
		q.Replied = &b
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, fmt.Errorf("limit must be a non-negative integer")
		}
		q.Limit = n
	}
	for name, dst := range map[string]**time.Time{"from": &q.From, "to": &q.To} {
		v := c.Query(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return q, fmt.Errorf("%s must be an RFC 3339 timestamp", name)
		}
		*dst = &t
	}
	return q, nil
}

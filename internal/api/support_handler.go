package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reviewly-backend-go/internal/core"
	"reviewly-backend-go/internal/middleware"
	"reviewly-backend-go/internal/models"
)

// SupportHandler serves the contact form, demo booking and chat widget.
type SupportHandler struct {
	support *core.SupportService
	logger  *zap.Logger
}

func NewSupportHandler(support *core.SupportService, logger *zap.Logger) *SupportHandler {
	return &SupportHandler{support: support, logger: logger}
}

// CreateRequest handles POST /support/requests. Signed-in callers are linked
// to the request.
func (h *SupportHandler) CreateRequest(c *gin.Context) {
	var in models.SupportRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	req, err := h.support.CreateRequest(c.Request.Context(), middleware.UserID(c), in)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// BookDemo handles POST /support/demo
func (h *SupportHandler) BookDemo(c *gin.Context) {
	var req models.DemoBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	booking, err := h.support.BookDemo(c.Request.Context(), req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// ChatMessage handles POST /support/chat/messages
func (h *SupportHandler) ChatMessage(c *gin.Context) {
	var req models.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	msg, err := h.support.SaveChatMessage(c.Request.Context(), req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// ChatTranscript handles GET /support/chat/:sessionId
func (h *SupportHandler) ChatTranscript(c *gin.Context) {
	msgs, err := h.support.ChatTranscript(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// ChatFeedback handles POST /support/chat/feedback
func (h *SupportHandler) ChatFeedback(c *gin.Context) {
	var req models.ChatFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	fb, err := h.support.SubmitChatFeedback(c.Request.Context(), req)
	if err != nil {
		mapServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

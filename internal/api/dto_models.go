package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"reviewly-backend-go/internal/core"
	"reviewly-backend-go/internal/middleware"
)

// ErrorResponse is a generic structure for returning errors via API.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is a generic structure for simple success messages.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// RegisterBusinessResponse tells the form whether a new business was created.
type RegisterBusinessResponse struct {
	Business interface{} `json:"business"`
	Created  bool        `json:"created"`
}

// ConfirmPaymentResponse is returned when a captured payment could not be
// applied yet. The order stays captured until reconciled.
type ConfirmPaymentResponse struct {
	Order   interface{} `json:"order"`
	Pending bool        `json:"pending"`
	Error   string      `json:"error,omitempty"`
}

var errorStatuses = []struct {
	err    error
	status int
}{
	{core.ErrBusinessNotFound, http.StatusNotFound},
	{core.ErrBranchNotFound, http.StatusNotFound},
	{core.ErrShareLinkNotFound, http.StatusNotFound},
	{core.ErrReviewNotFound, http.StatusNotFound},
	{core.ErrOrderNotFound, http.StatusNotFound},
	{core.ErrSupportNotFound, http.StatusNotFound},
	{core.ErrChatSessionNotFound, http.StatusNotFound},
	{core.ErrSlugUnavailable, http.StatusConflict},
	{core.ErrLastBranch, http.StatusConflict},
	{core.ErrBranchLimitReached, http.StatusPaymentRequired},
	{core.ErrReviewLimitReached, http.StatusPaymentRequired},
	{core.ErrSubscriptionInactive, http.StatusPaymentRequired},
	{core.ErrInsufficientCredits, http.StatusPaymentRequired},
	{core.ErrFeatureNotInPlan, http.StatusForbidden},
	{core.ErrChatDisabled, http.StatusForbidden},
	{core.ErrInvalidSignature, http.StatusBadRequest},
	{core.ErrInvalidCreditKind, http.StatusBadRequest},
	{core.ErrInvalidQuantity, http.StatusBadRequest},
	{core.ErrInvalidOrder, http.StatusBadRequest},
	{core.ErrInvalidStatus, http.StatusBadRequest},
	{core.ErrInvalidInput, http.StatusBadRequest},
	{core.ErrCurrencyUnavailable, http.StatusServiceUnavailable},
}

// statusFor maps a service error to an HTTP status code.
func statusFor(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// mapServiceError writes err as an ErrorResponse with the mapped status.
// Unknown errors are logged and hidden from the client.
func mapServiceError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("Internal Server Error",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		c.JSON(status, ErrorResponse{Error: "An unexpected internal server error occurred."})
		return
	}
	c.JSON(status, ErrorResponse{Error: rootMessage(err), Details: err.Error()})
}

// rootMessage returns the message of the sentinel err wraps, if any.
func rootMessage(err error) string {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.err.Error()
		}
	}
	return err.Error()
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request payload", Details: err.Error()})
}

// requireUser returns the authenticated UID or writes a 401.
func requireUser(c *gin.Context) (string, bool) {
	uid := middleware.UserID(c)
	if uid == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "User ID not found in context"})
		return "", false
	}
	return uid, true
}

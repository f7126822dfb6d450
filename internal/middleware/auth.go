package middleware

import (
	"context"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Keys set on the gin context by the auth middleware.
const (
	ContextUserID    = "userID"
	ContextUserEmail = "userEmail"
	ContextClaims    = "claims"
)

// ErrorResponse mirrors api.ErrorResponse; it is redeclared here so this
// package does not import api.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// TokenVerifier checks a Firebase ID token. *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AdminChecker decides whether an authenticated user has admin access.
type AdminChecker interface {
	IsAdmin(ctx context.Context, uid string, claims map[string]interface{}) (bool, error)
}

// AuthMiddleware authenticates requests with Firebase ID tokens.
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

func NewAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	if verifier == nil {
		panic("AuthMiddleware requires a token verifier")
	}
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// VerifyToken rejects requests without a valid bearer token and stores the
// caller's UID, email and claims on the context.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		idToken, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
			return
		}
		token, err := m.verifier.VerifyIDToken(c.Request.Context(), idToken)
		if err != nil {
			m.logger.Warn("Failed to verify ID token", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
			return
		}
		setIdentity(c, token)
		c.Next()
	}
}

// OptionalToken identifies the caller when a valid token is sent and lets
// anonymous requests through.
func (m *AuthMiddleware) OptionalToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		idToken, ok := bearerToken(c.GetHeader("Authorization"))
		if ok {
			if token, err := m.verifier.VerifyIDToken(c.Request.Context(), idToken); err == nil {
				setIdentity(c, token)
			} else {
				m.logger.Debug("Ignoring invalid optional token", zap.Error(err))
			}
		}
		c.Next()
	}
}

// RequireAdmin must run after VerifyToken.
func RequireAdmin(checker AdminChecker, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := UserID(c)
		if uid == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authentication required"})
			return
		}
		ok, err := checker.IsAdmin(c.Request.Context(), uid, Claims(c))
		if err != nil {
			logger.Error("Admin check failed", zap.String("uid", uid), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Could not verify admin access"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{Error: "Admin access required"})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func setIdentity(c *gin.Context, token *auth.Token) {
	c.Set(ContextUserID, token.UID)
	if email, ok := token.Claims["email"].(string); ok {
		c.Set(ContextUserEmail, email)
	}
	c.Set(ContextClaims, token.Claims)
}

// UserID returns the authenticated UID, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}

func UserEmail(c *gin.Context) string {
	return c.GetString(ContextUserEmail)
}

func Claims(c *gin.Context) map[string]interface{} {
	if v, ok := c.Get(ContextClaims); ok {
		if claims, ok := v.(map[string]interface{}); ok {
			return claims
		}
	}
	return nil
}

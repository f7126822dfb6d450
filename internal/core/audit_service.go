package core

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"reviewly-backend-go/internal/db"
	"reviewly-backend-go/internal/models"
)

// Audit actions.
const (
	ActionBusinessRegister = "BUSINESS_REGISTER"
	ActionPlanActivate     = "PLAN_ACTIVATE"
	ActionPlanCancel       = "PLAN_CANCEL"
	ActionPlanExpire       = "PLAN_EXPIRE"
	ActionPlanAdminSet     = "PLAN_ADMIN_SET"
	ActionLimitsSet        = "LIMITS_SET"
	ActionCreditsGrant     = "CREDITS_GRANT"
	ActionCreditsConsume   = "CREDITS_CONSUME"
	ActionPaymentFulfil    = "PAYMENT_FULFIL"
	ActionPaymentReconcile = "PAYMENT_RECONCILE"
	ActionSettingsUpdate   = "SETTINGS_UPDATE"
	ActionSupportStatus    = "SUPPORT_STATUS"

	TargetBusiness = "business"
	TargetOrder    = "order"
	TargetSettings = "settings"
	TargetSupport  = "support_request"

	// ActorSystem marks changes not made by a signed-in user.
	ActorSystem = "system"
)

// AuditService writes the audit trail.
type AuditService struct {
	repo   db.AuditRepository
	logger *zap.Logger
}

func NewAuditService(repo db.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{repo: repo, logger: logger}
}

// CreateAuditLog stores an entry and returns any storage error.
func (s *AuditService) CreateAuditLog(ctx context.Context, entry models.AuditLog) error {
	if err := s.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to create audit log via repository: %w", err)
	}
	return nil
}

// Record is best effort: a failed write is logged and swallowed.
func (s *AuditService) Record(ctx context.Context, actor, action, targetType, targetID string, details map[string]interface{}) {
	entry := models.AuditLog{
		ActorUID:   actor,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    details,
	}
	if err := s.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("Audit log write failed",
			zap.String("action", action),
			zap.String("targetId", targetID),
			zap.Error(err))
	}
}

// ForTarget returns the newest entries about one target.
func (s *AuditService) ForTarget(ctx context.Context, targetType, targetID string, limit int) ([]*models.AuditLog, error) {
	return s.repo.ListByTarget(ctx, targetType, targetID, limit)
}

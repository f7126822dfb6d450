package core

import (
	"context"
	"fmt"

	"reviewly-backend-go/internal/db"
	"reviewly-backend-go/internal/metrics"
	"reviewly-backend-go/internal/models"
	"reviewly-backend-go/internal/plans"
)

// CreditService keeps add-on credit balances. Credits never go negative.
type CreditService struct {
	businesses db.BusinessRepository
	audit      *AuditService
}

func NewCreditService(businesses db.BusinessRepository, audit *AuditService) *CreditService {
	return &CreditService{businesses: businesses, audit: audit}
}

// Balance returns the business's remaining add-on credits.
func (s *CreditService) Balance(ctx context.Context, uid string) (models.AddonCredits, error) {
	b, err := s.businesses.Get(ctx, uid)
	if err != nil {
		return models.AddonCredits{}, wrapBusinessErr(err, uid)
	}
	return b.AddonCredits, nil
}

// Grant adds qty credits of kind.
func (s *CreditService) Grant(ctx context.Context, actor, uid, kind string, qty int, reason string) (models.AddonCredits, error) {
	b, err := s.businesses.Mutate(ctx, uid, func(b *models.Business) error {
		return grantCredits(b, kind, qty)
	})
	if err != nil {
		return models.AddonCredits{}, wrapBusinessErr(err, uid)
	}
	metrics.CreditsChanged.WithLabelValues(kind, metrics.DirectionGranted).Add(float64(qty))
	s.audit.Record(ctx, actor, ActionCreditsGrant, TargetBusiness, uid, map[string]interface{}{
		"kind": kind, "quantity": qty, "reason": reason,
	})
	return b.AddonCredits, nil
}

// Consume removes qty credits of kind, failing with ErrInsufficientCredits
// when the balance is too low.
func (s *CreditService) Consume(ctx context.Context, actor, uid, kind string, qty int) (models.AddonCredits, error) {
	b, err := s.businesses.Mutate(ctx, uid, func(b *models.Business) error {
		return consumeCredits(b, kind, qty)
	})
	if err != nil {
		return models.AddonCredits{}, wrapBusinessErr(err, uid)
	}
	metrics.CreditsChanged.WithLabelValues(kind, metrics.DirectionConsumed).Add(float64(qty))
	s.audit.Record(ctx, actor, ActionCreditsConsume, TargetBusiness, uid, map[string]interface{}{
		"kind": kind, "quantity": qty,
	})
	return b.AddonCredits, nil
}

func creditField(b *models.Business, kind string) (*int, error) {
	switch kind {
	case plans.CreditReviews:
		return &b.AddonCredits.Reviews, nil
	case plans.CreditBranches:
		return &b.AddonCredits.Branches, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidCreditKind, kind)
	}
}

func grantCredits(b *models.Business, kind string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	field, err := creditField(b, kind)
	if err != nil {
		return err
	}
	*field += qty
	return nil
}

func consumeCredits(b *models.Business, kind string, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	field, err := creditField(b, kind)
	if err != nil {
		return err
	}
	if *field < qty {
		return fmt.Errorf("%w: have %d %s, need %d", ErrInsufficientCredits, *field, kind, qty)
	}
	*field -= qty
	return nil
}

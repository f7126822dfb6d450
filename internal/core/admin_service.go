package core

import (
	"context"
	"fmt"
	"time"

	"reviewly-backend-go/internal/db"
	"reviewly-backend-go/internal/models"
	"reviewly-backend-go/internal/plans"
)

const adminAuditLimit = 20

// BusinessSummary is one row of the admin business listing.
type BusinessSummary struct {
	UID          string              `json:"uid"`
	BusinessName string              `json:"businessName"`
	Email        string              `json:"email"`
	Slug         string              `json:"slug"`
	Plan         string              `json:"plan"`
	State        string              `json:"state"`
	EndsAt       *time.Time          `json:"endsAt,omitempty"`
	Branches     int                 `json:"branches"`
	Credits      models.AddonCredits `json:"credits"`
	CreatedAt    time.Time           `json:"createdAt"`
}

// BusinessDetail is the admin view of one tenant.
type BusinessDetail struct {
	Business     *models.Business    `json:"business"`
	Subscription SubscriptionStatus  `json:"subscription"`
	Limits       models.PlanLimits   `json:"limits"`
	Capacity     int                 `json:"branchCapacity"`
	Reviews      *ReviewStats        `json:"reviews"`
	Orders       []*models.Order     `json:"orders"`
	Audit        []*models.AuditLog  `json:"audit"`
	Credits      models.AddonCredits `json:"credits"`
}

// AdminService backs the admin console. Every mutation is audited.
type AdminService struct {
	store      *db.Store
	catalog    *plans.Catalog
	businesses *BusinessService
	subs       *SubscriptionService
	credits    *CreditService
	reviews    *ReviewService
	payments   *PaymentService
	settings   *SettingsService
	audit      *AuditService
	now        func() time.Time
}

func NewAdminService(store *db.Store, catalog *plans.Catalog, businesses *BusinessService, subs *SubscriptionService, credits *CreditService, reviews *ReviewService, payments *PaymentService, settings *SettingsService, audit *AuditService, now func() time.Time) *AdminService {
	return &AdminService{
		store:      store,
		catalog:    catalog,
		businesses: businesses,
		subs:       subs,
		credits:    credits,
		reviews:    reviews,
		payments:   payments,
		settings:   settings,
		audit:      audit,
		now:        now,
	}
}

// IsAdmin reports whether uid carries the admin custom claim or is listed
// in admin/roles.
func (s *AdminService) IsAdmin(ctx context.Context, uid string, claims map[string]interface{}) (bool, error) {
	if v, ok := claims["admin"].(bool); ok && v {
		return true, nil
	}
	uids, err := s.settings.AdminUIDs(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range uids {
		if id == uid {
			return true, nil
		}
	}
	return false, nil
}

func (s *AdminService) ListBusinesses(ctx context.Context, filter models.BusinessFilter) ([]BusinessSummary, error) {
	list, err := s.store.Businesses.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	now := s.now()
	out := make([]BusinessSummary, 0, len(list))
	for _, b := range list {
		st := s.subs.Status(b, now)
		out = append(out, BusinessSummary{
			UID:          b.UID,
			BusinessName: b.BusinessName,
			Email:        b.Email,
			Slug:         b.Slug,
			Plan:         b.Plan,
			State:        st.State,
			EndsAt:       st.EndsAt,
			Branches:     len(b.Branches),
			Credits:      b.AddonCredits,
			CreatedAt:    b.CreatedAt,
		})
	}
	return out, nil
}

// GetBusiness returns profile, subscription, usage, orders and recent audit
// entries of one business.
func (s *AdminService) GetBusiness(ctx context.Context, uid string) (*BusinessDetail, error) {
	b, err := s.businesses.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	stats, err := s.reviews.Stats(ctx, uid)
	if err != nil {
		return nil, err
	}
	orders, err := s.payments.History(ctx, uid)
	if err != nil {
		return nil, err
	}
	entries, err := s.audit.ForTarget(ctx, TargetBusiness, uid, adminAuditLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit trail: %w", err)
	}
	return &BusinessDetail{
		Business:     b,
		Subscription: s.subs.Status(b, s.now()),
		Limits:       s.catalog.LimitsFor(b),
		Capacity:     branchCapacity(s.catalog, b),
		Reviews:      stats,
		Orders:       orders,
		Audit:        entries,
		Credits:      b.AddonCredits,
	}, nil
}

// SetPlan grants planID for a number of days without payment.
func (s *AdminService) SetPlan(ctx context.Context, actor, uid string, req models.SetPlanRequest) (*models.Business, error) {
	if req.Days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive", ErrInvalidInput)
	}
	if _, err := s.catalog.Get(req.PlanID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	now := s.now()
	dur := time.Duration(req.Days) * 24 * time.Hour
	b, err := s.store.Businesses.Mutate(ctx, uid, func(b *models.Business) error {
		activatePlan(b, req.PlanID, "", dur, now)
		return nil
	})
	if err != nil {
		return nil, wrapBusinessErr(err, uid)
	}
	s.audit.Record(ctx, actor, ActionPlanAdminSet, TargetBusiness, uid, map[string]interface{}{
		"plan": req.PlanID, "days": req.Days, "endsAt": b.SubscriptionEndDate,
	})
	return b, nil
}

// SetCustomLimits stores per-business limits used by the custom plan.
func (s *AdminService) SetCustomLimits(ctx context.Context, actor, uid string, req models.SetLimitsRequest) (*models.Business, error) {
	if req.ReviewLimit < 0 || req.MaxBranches < 1 {
		return nil, fmt.Errorf("%w: reviewLimit must be >= 0 and maxBranches >= 1", ErrInvalidInput)
	}
	limits := models.PlanLimits{ReviewLimit: req.ReviewLimit, MaxBranches: req.MaxBranches}
	b, err := s.store.Businesses.Mutate(ctx, uid, func(b *models.Business) error {
		l := limits
		b.CustomLimits = &l
		return nil
	})
	if err != nil {
		return nil, wrapBusinessErr(err, uid)
	}
	s.audit.Record(ctx, actor, ActionLimitsSet, TargetBusiness, uid, map[string]interface{}{
		"reviewLimit": req.ReviewLimit, "maxBranches": req.MaxBranches,
	})
	return b, nil
}

func (s *AdminService) GrantCredits(ctx context.Context, actor, uid string, req models.GrantCreditsRequest) (models.AddonCredits, error) {
	return s.credits.Grant(ctx, actor, uid, req.Kind, req.Quantity, req.Reason)
}

func (s *AdminService) GetSettings(ctx context.Context) (*models.PlatformSettings, error) {
	return s.settings.Get(ctx)
}

func (s *AdminService) UpdateSettings(ctx context.Context, actor string, req models.UpdateSettingsRequest) (*models.PlatformSettings, error) {
	return s.settings.Update(ctx, actor, req)
}

func (s *AdminService) ReconcilePayments(ctx context.Context, actor string) (*ReconcileResult, error) {
	return s.payments.Reconcile(ctx, actor)
}

// SweepExpired closes elapsed plan periods across all businesses and
// returns how many changed.
func (s *AdminService) SweepExpired(ctx context.Context) (int, error) {
	list, err := s.store.Businesses.List(ctx, models.BusinessFilter{})
	if err != nil {
		return 0, fmt.Errorf("failed to list businesses: %w", err)
	}
	now := s.now()
	n := 0
	for _, b := range list {
		if !needsExpiry(b, now) {
			continue
		}
		if _, changed, err := s.subs.Expire(ctx, b.UID); err != nil {
			return n, err
		} else if changed {
			n++
		}
	}
	return n, nil
}

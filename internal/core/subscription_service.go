package core

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"reviewly-backend-go/internal/db"
	"reviewly-backend-go/internal/models"
	"reviewly-backend-go/internal/plans"
)

// Subscription states reported by Status.
const (
	StateActive       = "active"
	StateTrial        = "trial"
	StateExpired      = "expired"
	StateTrialExpired = "trial_expired"
	StateInactive     = "inactive"
)

// SubscriptionStatus describes where a business stands right now.
type SubscriptionStatus struct {
	State         string     `json:"state"`
	Plan          string     `json:"plan"`
	PlanName      string     `json:"planName"`
	BillingCycle  string     `json:"billingCycle,omitempty"`
	StartsAt      *time.Time `json:"startsAt,omitempty"`
	EndsAt        *time.Time `json:"endsAt,omitempty"`
	DaysRemaining int        `json:"daysRemaining"`
	CanCollect    bool       `json:"canCollect"`
}

// SubscriptionService owns plan activation, cancellation and expiry.
type SubscriptionService struct {
	businesses db.BusinessRepository
	catalog    *plans.Catalog
	audit      *AuditService
	now        func() time.Time
	logger     *zap.Logger
}

func NewSubscriptionService(businesses db.BusinessRepository, catalog *plans.Catalog, audit *AuditService, now func() time.Time, logger *zap.Logger) *SubscriptionService {
	return &SubscriptionService{businesses: businesses, catalog: catalog, audit: audit, now: now, logger: logger}
}

// Status computes the subscription state of b at now.
func (s *SubscriptionService) Status(b *models.Business, now time.Time) SubscriptionStatus {
	st := SubscriptionStatus{Plan: b.Plan, PlanName: s.catalog.PlanFor(b).Name, BillingCycle: b.BillingCycle}
	switch {
	case b.SubscriptionActive:
		st.StartsAt, st.EndsAt = b.SubscriptionStartDate, b.SubscriptionEndDate
		st.State = StateExpired
		if b.SubscriptionEndDate != nil && now.Before(*b.SubscriptionEndDate) {
			st.State = StateActive
		}
	case b.TrialActive:
		st.StartsAt, st.EndsAt = b.TrialStartDate, b.TrialEndDate
		st.State = StateTrialExpired
		if b.TrialEndDate != nil && now.Before(*b.TrialEndDate) {
			st.State = StateTrial
		}
	default:
		st.State = StateInactive
		if n := len(b.PlanHistory); n > 0 {
			last := b.PlanHistory[n-1]
			switch {
			case last.Reason == models.CloseCancelled:
			case last.Kind == models.PeriodKindTrial:
				st.State = StateTrialExpired
			default:
				st.State = StateExpired
			}
		}
	}
	if st.EndsAt != nil && now.Before(*st.EndsAt) {
		st.DaysRemaining = int(math.Ceil(st.EndsAt.Sub(now).Hours() / 24))
	}
	st.CanCollect = st.State == StateActive || st.State == StateTrial
	return st
}

// CanCollect reports whether b may receive reviews at now.
func (s *SubscriptionService) CanCollect(b *models.Business, now time.Time) bool {
	return s.Status(b, now).CanCollect
}

// Activate starts or renews a plan for duration of cycle.
func (s *SubscriptionService) Activate(ctx context.Context, actor, uid, planID, cycle string) (*models.Business, error) {
	dur, err := plans.CycleDuration(cycle)
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.Get(planID); err != nil {
		return nil, err
	}
	now := s.now()
	b, err := s.businesses.Mutate(ctx, uid, func(b *models.Business) error {
		activatePlan(b, planID, cycle, dur, now)
		return nil
	})
	if err != nil {
		return nil, wrapBusinessErr(err, uid)
	}
	s.audit.Record(ctx, actor, ActionPlanActivate, TargetBusiness, uid, map[string]interface{}{
		"plan": planID, "cycle": cycle, "endsAt": b.SubscriptionEndDate,
	})
	return b, nil
}

// Cancel closes the live subscription, or the trial if no subscription is running.
func (s *SubscriptionService) Cancel(ctx context.Context, actor, uid string) (*models.Business, error) {
	now := s.now()
	b, err := s.businesses.Mutate(ctx, uid, func(b *models.Business) error {
		if !cancelPlan(b, now) {
			return ErrSubscriptionInactive
		}
		return nil
	})
	if err != nil {
		return nil, wrapBusinessErr(err, uid)
	}
	s.audit.Record(ctx, actor, ActionPlanCancel, TargetBusiness, uid, nil)
	return b, nil
}

// Expire closes an elapsed subscription or trial. It reports whether anything changed.
func (s *SubscriptionService) Expire(ctx context.Context, uid string) (*models.Business, bool, error) {
	now := s.now()
	changed := false
	b, err := s.businesses.Mutate(ctx, uid, func(b *models.Business) error {
		changed = expirePlan(b, now)
		return nil
	})
	if err != nil {
		return nil, false, wrapBusinessErr(err, uid)
	}
	if changed {
		s.audit.Record(ctx, ActorSystem, ActionPlanExpire, TargetBusiness, uid, nil)
		s.logger.Info("Expired elapsed plan period", zap.String("uid", uid))
	}
	return b, changed, nil
}

// activatePlan applies a plan purchase or grant to b. Renewing the running
// plan extends it; any other plan closes the running period first. A running
// trial is always closed.
func activatePlan(b *models.Business, planID, cycle string, dur time.Duration, now time.Time) {
	expirePlan(b, now)
	if b.TrialActive {
		closeTrial(b, now, models.CloseReplaced)
	}
	renewing := b.SubscriptionActive && b.Plan == planID &&
		b.SubscriptionEndDate != nil && now.Before(*b.SubscriptionEndDate)
	if renewing {
		b.RenewalStarts = append(b.RenewalStarts, *b.SubscriptionEndDate)
		end := b.SubscriptionEndDate.Add(dur)
		b.SubscriptionEndDate = &end
		if cycle != "" {
			b.BillingCycle = cycle
		}
		return
	}
	if b.SubscriptionActive {
		closeSubscription(b, now, models.CloseReplaced)
	}
	start, end := now, now.Add(dur)
	b.Plan = planID
	b.BillingCycle = cycle
	b.SubscriptionActive = true
	b.SubscriptionStartDate = &start
	b.SubscriptionEndDate = &end
	b.RenewalStarts = nil
	b.TrialActive = false
}

func cancelPlan(b *models.Business, now time.Time) bool {
	switch {
	case b.SubscriptionActive:
		closeSubscription(b, now, models.CloseCancelled)
	case b.TrialActive:
		closeTrial(b, now, models.CloseCancelled)
	default:
		return false
	}
	return true
}

// expirePlan closes flagged periods whose end has passed.
func expirePlan(b *models.Business, now time.Time) bool {
	changed := false
	if b.SubscriptionActive && b.SubscriptionEndDate != nil && !now.Before(*b.SubscriptionEndDate) {
		closeSubscription(b, now, models.CloseElapsed)
		changed = true
	}
	if b.TrialActive && b.TrialEndDate != nil && !now.Before(*b.TrialEndDate) {
		closeTrial(b, now, models.CloseElapsed)
		changed = true
	}
	return changed
}

// needsExpiry reports whether expirePlan would change b.
func needsExpiry(b *models.Business, now time.Time) bool {
	return (b.SubscriptionActive && b.SubscriptionEndDate != nil && !now.Before(*b.SubscriptionEndDate)) ||
		(b.TrialActive && b.TrialEndDate != nil && !now.Before(*b.TrialEndDate))
}

// closeSubscription moves the running subscription into history ending at
// the earlier of now and its scheduled end.
func closeSubscription(b *models.Business, now time.Time, reason string) {
	if b.SubscriptionStartDate != nil && b.SubscriptionEndDate != nil {
		b.PlanHistory = append(b.PlanHistory, models.PlanPeriod{
			Plan:   b.Plan,
			Kind:   models.PeriodKindSubscription,
			Start:  *b.SubscriptionStartDate,
			End:    earlier(now, *b.SubscriptionEndDate),
			Reason: reason,
		})
	}
	b.SubscriptionActive = false
	b.SubscriptionStartDate = nil
	b.SubscriptionEndDate = nil
	b.RenewalStarts = nil
}

func closeTrial(b *models.Business, now time.Time, reason string) {
	if b.TrialStartDate != nil && b.TrialEndDate != nil {
		b.PlanHistory = append(b.PlanHistory, models.PlanPeriod{
			Plan:   plans.TrialPlanID,
			Kind:   models.PeriodKindTrial,
			Start:  *b.TrialStartDate,
			End:    earlier(now, *b.TrialEndDate),
			Reason: reason,
		})
	}
	b.TrialActive = false
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// wrapBusinessErr turns a storage not-found into ErrBusinessNotFound and
// passes service errors through.
func wrapBusinessErr(err error, uid string) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: '%s'", ErrBusinessNotFound, uid)
	}
	return err
}

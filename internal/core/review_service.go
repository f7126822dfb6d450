package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"reviewly-backend-go/internal/db"
	"reviewly-backend-go/internal/events"
	"reviewly-backend-go/internal/metrics"
	"reviewly-backend-go/internal/models"
	"reviewly-backend-go/internal/plans"
	"reviewly-backend-go/internal/usage"
)

// Review listing periods.
const (
	PeriodCurrent  = "current"
	PeriodPrevious = "previous"
	PeriodAll      = "all"
)

const defaultReviewSource = "link"

// ReviewQuery is a review listing request.
type ReviewQuery struct {
	models.ReviewFilter
	Period string
}

// ReviewStats aggregates a business's reviews.
type ReviewStats struct {
	Total     int                 `json:"total"`
	Average   float64             `json:"average"`
	ByRating  map[int]int         `json:"byRating"`
	ByBranch  map[string]int      `json:"byBranch"`
	Replied   int                 `json:"replied"`
	Periods   usage.Summary       `json:"periods"`
	PlanUsage models.PeriodUsage  `json:"planUsage"`
	Credits   models.AddonCredits `json:"credits"`
}

// ReviewService collects and manages customer reviews.
type ReviewService struct {
	reviews    db.ReviewRepository
	businesses db.BusinessRepository
	slugs      db.SlugRepository
	catalog    *plans.Catalog
	profiles   *BusinessService
	publisher  events.Publisher
	now        func() time.Time
	logger     *zap.Logger
}

func NewReviewService(reviews db.ReviewRepository, businesses db.BusinessRepository, slugs db.SlugRepository, catalog *plans.Catalog, profiles *BusinessService, publisher events.Publisher, now func() time.Time, logger *zap.Logger) *ReviewService {
	return &ReviewService{
		reviews:    reviews,
		businesses: businesses,
		slugs:      slugs,
		catalog:    catalog,
		profiles:   profiles,
		publisher:  publisher,
		now:        now,
		logger:     logger,
	}
}

// Submit stores a review posted on the public form of slug. The business is
// charged one plan review while under its limit, otherwise one add-on review
// credit.
func (s *ReviewService) Submit(ctx context.Context, slug string, req models.SubmitReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	uid, err := s.slugs.Resolve(ctx, slug)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: slug '%s'", ErrBusinessNotFound, slug)
		}
		return nil, err
	}

	now := s.now()
	var (
		chargedTo string
		branch    models.Branch
	)
	b, err := s.businesses.Mutate(ctx, uid, func(b *models.Business) error {
		chargedTo = ""
		expirePlan(b, now)
		if !s.profiles.subs.CanCollect(b, now) {
			return ErrSubscriptionInactive
		}
		br := pickBranch(b, req.BranchID)
		if br == nil {
			return fmt.Errorf("%w: '%s'", ErrBranchNotFound, req.BranchID)
		}
		branch = *br
		syncUsagePeriod(b, now)
		charged, err := chargeReview(b, s.catalog.LimitsFor(b).ReviewLimit)
		if err != nil {
			return err
		}
		chargedTo = charged
		return nil
	})
	if err != nil {
		metrics.ReviewsRejected.WithLabelValues(rejectReason(err)).Inc()
		return nil, wrapBusinessErr(err, uid)
	}

	source := req.Source
	if source == "" {
		source = defaultReviewSource
	}
	review := &models.Review{
		BusinessUID:   uid,
		BranchID:      branch.ID,
		Rating:        req.Rating,
		Comment:       strings.TrimSpace(req.Comment),
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Source:        source,
		ChargedTo:     chargedTo,
		CreatedAt:     now,
	}
	id, err := s.reviews.Create(ctx, review)
	if err != nil {
		s.refund(ctx, uid, chargedTo)
		metrics.ReviewsRejected.WithLabelValues("storage").Inc()
		return nil, fmt.Errorf("failed to store review: %w", err)
	}
	review.ID = id

	metrics.ReviewsSubmitted.WithLabelValues(chargedTo).Inc()
	if chargedTo == models.ChargedToAddon {
		metrics.CreditsChanged.WithLabelValues(plans.CreditReviews, metrics.DirectionConsumed).Inc()
	}
	publish(ctx, s.publisher, s.logger, events.TypeReviewSubmitted, uid, events.ReviewSubmitted{
		ReviewID:     id,
		BusinessName: b.BusinessName,
		OwnerEmail:   b.Email,
		BranchName:   branch.Name,
		Rating:       review.Rating,
		Comment:      review.Comment,
		CustomerName: review.CustomerName,
		ChargedTo:    chargedTo,
	}, now)
	return review, nil
}

// refund gives back a charge whose review could not be stored.
func (s *ReviewService) refund(ctx context.Context, uid, chargedTo string) {
	_, err := s.businesses.Mutate(ctx, uid, func(b *models.Business) error {
		refundReview(b, chargedTo)
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to refund review charge", zap.String("uid", uid), zap.String("charged_to", chargedTo), zap.Error(err))
		return
	}
	if chargedTo == models.ChargedToAddon {
		metrics.CreditsChanged.WithLabelValues(plans.CreditReviews, metrics.DirectionRefunded).Inc()
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrSubscriptionInactive):
		return "inactive"
	case errors.Is(err, ErrReviewLimitReached):
		return "limit"
	case errors.Is(err, ErrBranchNotFound):
		return "branch"
	case isNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}

// pickBranch returns the requested active branch, or the first active one
// when id is empty.
func pickBranch(b *models.Business, id string) *models.Branch {
	for i := range b.Branches {
		br := &b.Branches[i]
		if !br.Active {
			continue
		}
		if id == "" || br.ID == id {
			return br
		}
	}
	return nil
}

// syncUsagePeriod resets the usage counters when a new allowance window began.
func syncUsagePeriod(b *models.Business, now time.Time) {
	w, ok := usage.Window(b, now)
	if !ok || w.Start.Equal(b.Usage.PeriodStart) {
		return
	}
	b.Usage = models.PeriodUsage{PeriodStart: w.Start}
}

// chargeReview books one review against the plan allowance or an add-on
// credit. A limit of 0 is unlimited.
func chargeReview(b *models.Business, limit int) (string, error) {
	switch {
	case limit == 0 || b.Usage.PlanReviews < limit:
		b.Usage.PlanReviews++
		return models.ChargedToPlan, nil
	case b.AddonCredits.Reviews > 0:
		b.AddonCredits.Reviews--
		b.Usage.AddonReviews++
		return models.ChargedToAddon, nil
	default:
		return "", fmt.Errorf("%w: %d of %d used", ErrReviewLimitReached, b.Usage.PlanReviews, limit)
	}
}

func refundReview(b *models.Business, chargedTo string) {
	switch chargedTo {
	case models.ChargedToPlan:
		if b.Usage.PlanReviews > 0 {
			b.Usage.PlanReviews--
		}
	case models.ChargedToAddon:
		b.AddonCredits.Reviews++
		if b.Usage.AddonReviews > 0 {
			b.Usage.AddonReviews--
		}
	}
}

// List returns the business's reviews newest first.
func (s *ReviewService) List(ctx context.Context, uid string, q ReviewQuery) ([]*models.Review, error) {
	filter := q.ReviewFilter
	switch q.Period {
	case "", PeriodAll:
	case PeriodCurrent, PeriodPrevious:
		b, err := s.profiles.Get(ctx, uid)
		if err != nil {
			return nil, err
		}
		from, to, ok := usage.Bounds(usage.Attribution(q.Period), b, s.now())
		if !ok {
			return []*models.Review{}, nil
		}
		filter.From, filter.To = &from, &to
	default:
		return nil, fmt.Errorf("%w: unknown period %q", ErrInvalidInput, q.Period)
	}
	reviews, err := s.reviews.ListByBusiness(ctx, uid, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews for '%s': %w", uid, err)
	}
	return reviews, nil
}

// Reply sets the owner's public reply. The plan must include review replies.
func (s *ReviewService) Reply(ctx context.Context, uid, reviewID, text string) (*models.Review, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: reply cannot be empty", ErrInvalidInput)
	}
	b, err := s.profiles.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if plan := s.catalog.PlanFor(b); !plan.HasFeature(plans.FeatureReviewReplies) {
		return nil, fmt.Errorf("%w: %s on plan %s", ErrFeatureNotInPlan, plans.FeatureReviewReplies, plan.ID)
	}
	r, err := s.owned(ctx, uid, reviewID)
	if err != nil {
		return nil, err
	}
	at := s.now()
	r.Reply = text
	r.RepliedAt = &at
	if err := s.reviews.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save reply: %w", err)
	}
	return r, nil
}

// Delete removes a review. The charge is not refunded.
func (s *ReviewService) Delete(ctx context.Context, uid, reviewID string) error {
	if _, err := s.owned(ctx, uid, reviewID); err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		return fmt.Errorf("failed to delete review '%s': %w", reviewID, err)
	}
	return nil
}

func (s *ReviewService) owned(ctx context.Context, uid, reviewID string) (*models.Review, error) {
	r, err := s.reviews.Get(ctx, reviewID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: '%s'", ErrReviewNotFound, reviewID)
		}
		return nil, err
	}
	if r.BusinessUID != uid {
		return nil, fmt.Errorf("%w: '%s'", ErrReviewNotFound, reviewID)
	}
	return r, nil
}

// Stats aggregates every review of the business.
func (s *ReviewService) Stats(ctx context.Context, uid string) (*ReviewStats, error) {
	b, err := s.profiles.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByBusiness(ctx, uid, models.ReviewFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews for '%s': %w", uid, err)
	}
	return buildStats(b, reviews, s.catalog.LimitsFor(b).ReviewLimit, s.now()), nil
}

// buildStats reports usage as of now. b is a read copy, so stale counters
// from an earlier window are reset on it and not persisted.
func buildStats(b *models.Business, reviews []*models.Review, limit int, now time.Time) *ReviewStats {
	syncUsagePeriod(b, now)
	st := &ReviewStats{
		ByRating:  map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		ByBranch:  map[string]int{},
		PlanUsage: b.Usage,
		Credits:   b.AddonCredits,
	}
	times := make([]time.Time, 0, len(reviews))
	sum := 0
	for _, r := range reviews {
		st.Total++
		sum += r.Rating
		st.ByRating[r.Rating]++
		st.ByBranch[r.BranchID]++
		if r.Reply != "" {
			st.Replied++
		}
		times = append(times, r.CreatedAt)
	}
	if st.Total > 0 {
		st.Average = round2(float64(sum) / float64(st.Total))
	}
	st.Periods = usage.Summarize(times, b, limit, now)
	return st
}

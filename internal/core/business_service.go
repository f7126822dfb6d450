package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"reviewly-backend-go/internal/db"
	"reviewly-backend-go/internal/events"
	"reviewly-backend-go/internal/models"
	"reviewly-backend-go/internal/plans"
)

const (
	maxSlugLength   = 60
	maxSlugAttempts = 50
	defaultBranch   = "Main"
)

// PublicBusiness is the card shown on a business's public review page.
type PublicBusiness struct {
	Name             string         `json:"name"`
	Slug             string         `json:"slug"`
	Category         string         `json:"category,omitempty"`
	LogoURL          string         `json:"logoUrl,omitempty"`
	GoogleReviewURL  string         `json:"googleReviewUrl,omitempty"`
	Branches         []PublicBranch `json:"branches"`
	AcceptingReviews bool           `json:"acceptingReviews"`
}

// PublicBranch is the public view of an active branch.
type PublicBranch struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
}

// BusinessService handles tenant registration and profiles.
type BusinessService struct {
	businesses db.BusinessRepository
	slugs      db.SlugRepository
	settings   *SettingsService
	subs       *SubscriptionService
	publisher  events.Publisher
	baseURL    string
	now        func() time.Time
	logger     *zap.Logger
}

func NewBusinessService(businesses db.BusinessRepository, slugs db.SlugRepository, settings *SettingsService, subs *SubscriptionService, publisher events.Publisher, opts Options, now func() time.Time, logger *zap.Logger) *BusinessService {
	return &BusinessService{
		businesses: businesses,
		slugs:      slugs,
		settings:   settings,
		subs:       subs,
		publisher:  publisher,
		baseURL:    opts.PublicBaseURL,
		now:        now,
		logger:     logger,
	}
}

// Register creates the business document for uid with a unique slug, a trial
// and a default branch. If uid is already registered the stored profile is
// returned with created=false.
func (s *BusinessService) Register(ctx context.Context, uid, email string, req models.RegisterBusinessRequest) (*models.Business, bool, error) {
	existing, err := s.businesses.Get(ctx, uid)
	if err == nil {
		return existing, false, nil
	}
	if !isNotFound(err) {
		return nil, false, fmt.Errorf("failed to look up business '%s': %w", uid, err)
	}

	name := strings.TrimSpace(req.BusinessName)
	if name == "" {
		return nil, false, fmt.Errorf("%w: business name is required", ErrInvalidInput)
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, false, err
	}
	slug, fresh, err := s.reserveSlug(ctx, name, uid)
	if err != nil {
		return nil, false, err
	}

	now := s.now()
	branchID := newID()
	b := &models.Business{
		UID:          uid,
		Email:        email,
		BusinessName: name,
		Slug:         slug,
		Phone:        req.Phone,
		Address:      req.Address,
		Category:     req.Category,
		Plan:         plans.TrialPlanID,
		Branches: []models.Branch{{
			ID:         branchID,
			Name:       defaultBranch,
			Address:    req.Address,
			Active:     true,
			ReviewLink: reviewLink(s.baseURL, slug, branchID),
			CreatedAt:  now,
		}},
		Usage: models.PeriodUsage{PeriodStart: now},
	}
	if settings.TrialDays > 0 {
		end := now.Add(time.Duration(settings.TrialDays) * 24 * time.Hour)
		start := now
		b.TrialActive = true
		b.TrialStartDate = &start
		b.TrialEndDate = &end
	}

	if err := s.businesses.Create(ctx, b); err != nil {
		// A concurrent registration of uid won; the slug may be its own.
		if errors.Is(err, db.ErrAlreadyExists) {
			existing, getErr := s.businesses.Get(ctx, uid)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		if fresh {
			if relErr := s.slugs.Release(ctx, slug); relErr != nil {
				s.logger.Warn("Failed to release slug after failed registration", zap.String("slug", slug), zap.Error(relErr))
			}
		}
		return nil, false, fmt.Errorf("failed to create business '%s': %w", uid, err)
	}

	s.subs.audit.Record(ctx, uid, ActionBusinessRegister, TargetBusiness, uid, map[string]interface{}{"slug": slug})
	var trialEnd time.Time
	if b.TrialEndDate != nil {
		trialEnd = *b.TrialEndDate
	}
	publish(ctx, s.publisher, s.logger, events.TypeBusinessRegistered, uid, events.BusinessRegistered{
		BusinessName: name, OwnerEmail: email, Slug: slug, TrialEndsAt: trialEnd,
	}, now)
	return b, true, nil
}

// reserveSlug claims the first free slug among base, base-2, base-3...
// A slug already mapped to uid is reused, and fresh is false for it.
func (s *BusinessService) reserveSlug(ctx context.Context, name, uid string) (slug string, fresh bool, err error) {
	base := Slugify(name)
	for i := 1; i <= maxSlugAttempts; i++ {
		candidate := base
		if i > 1 {
			candidate = base + "-" + strconv.Itoa(i)
		}
		err := s.slugs.Reserve(ctx, candidate, uid)
		if err == nil {
			return candidate, true, nil
		}
		if !errors.Is(err, db.ErrAlreadyExists) {
			return "", false, fmt.Errorf("failed to reserve slug '%s': %w", candidate, err)
		}
		if owner, rerr := s.slugs.Resolve(ctx, candidate); rerr == nil && owner == uid {
			return candidate, false, nil
		}
	}
	return "", false, fmt.Errorf("%w for %q", ErrSlugUnavailable, name)
}

// foldMarks decomposes accented letters and drops the combining marks, so
// "é" becomes "e".
func foldMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slugify turns a business name into a URL-safe lowercase slug. Latin
// diacritics are folded to their base letters; other non-ASCII letters are
// dropped.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(foldMarks(name)) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		slug = "business"
	}
	return slug
}

// Get returns the business, closing any elapsed plan period first.
func (s *BusinessService) Get(ctx context.Context, uid string) (*models.Business, error) {
	b, err := s.businesses.Get(ctx, uid)
	if err != nil {
		return nil, wrapBusinessErr(err, uid)
	}
	if needsExpiry(b, s.now()) {
		expired, _, err := s.subs.Expire(ctx, uid)
		if err != nil {
			s.logger.Warn("Lazy expiry failed", zap.String("uid", uid), zap.Error(err))
			return b, nil
		}
		return expired, nil
	}
	return b, nil
}

// UpdateProfile edits profile fields. The slug is not changed so existing
// review links keep working.
func (s *BusinessService) UpdateProfile(ctx context.Context, uid string, req models.UpdateBusinessRequest) (*models.Business, error) {
	b, err := s.businesses.Mutate(ctx, uid, func(b *models.Business) error {
		if req.BusinessName != nil {
			name := strings.TrimSpace(*req.BusinessName)
			if name == "" {
				return fmt.Errorf("%w: business name cannot be empty", ErrInvalidInput)
			}
			b.BusinessName = name
		}
		if req.Phone != nil {
			b.Phone = *req.Phone
		}
		if req.Address != nil {
			b.Address = *req.Address
		}
		if req.Category != nil {
			b.Category = *req.Category
		}
		if req.LogoURL != nil {
			b.LogoURL = *req.LogoURL
		}
		if req.GoogleReviewURL != nil {
			b.GoogleReviewURL = *req.GoogleReviewURL
		}
		return nil
	})
	if err != nil {
		return nil, wrapBusinessErr(err, uid)
	}
	return b, nil
}

// BySlug resolves a public slug to its business.
func (s *BusinessService) BySlug(ctx context.Context, slug string) (*models.Business, error) {
	uid, err := s.slugs.Resolve(ctx, slug)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: slug '%s'", ErrBusinessNotFound, slug)
		}
		return nil, err
	}
	return s.Get(ctx, uid)
}

// PublicProfile returns the public card for slug with active branches only.
func (s *BusinessService) PublicProfile(ctx context.Context, slug string) (*PublicBusiness, error) {
	b, err := s.BySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	p := &PublicBusiness{
		Name:             b.BusinessName,
		Slug:             b.Slug,
		Category:         b.Category,
		LogoURL:          b.LogoURL,
		GoogleReviewURL:  b.GoogleReviewURL,
		Branches:         []PublicBranch{},
		AcceptingReviews: s.subs.CanCollect(b, s.now()),
	}
	for _, br := range b.Branches {
		if br.Active {
			p.Branches = append(p.Branches, PublicBranch{ID: br.ID, Name: br.Name, Address: br.Address, City: br.City})
		}
	}
	return p, nil
}

// Subscription reports the subscription state of the caller's business.
func (s *BusinessService) Subscription(ctx context.Context, uid string) (*SubscriptionStatus, error) {
	b, err := s.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	st := s.subs.Status(b, s.now())
	return &st, nil
}

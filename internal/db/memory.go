package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"reviewly-backend-go/internal/models"
)

// NewMemoryStore returns repositories that keep everything in process memory.
// Values are copied on the way in and out, so callers never share state with
// the store.
func NewMemoryStore() *Store {
	return &Store{
		Businesses: &memoryBusinessRepository{items: map[string]*models.Business{}},
		Slugs:      &memorySlugRepository{items: map[string]string{}},
		Reviews:    &memoryReviewRepository{items: map[string]*models.Review{}},
		Payments:   &memoryPaymentRepository{items: map[string]*models.Order{}},
		ShareLinks: &memoryShareLinkRepository{items: map[string]*models.ShareLink{}},
		Support: &memorySupportRepository{
			requests: map[string]*models.SupportRequest{},
			demos:    map[string]*models.DemoBooking{},
		},
		Settings: &memorySettingsRepository{},
		Audit:    &memoryAuditRepository{},
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneBusiness(b *models.Business) *models.Business {
	c := *b
	c.Branches = append([]models.Branch(nil), b.Branches...)
	c.PlanHistory = append([]models.PlanPeriod(nil), b.PlanHistory...)
	c.FulfilledOrders = append([]string(nil), b.FulfilledOrders...)
	c.RenewalStarts = append([]time.Time(nil), b.RenewalStarts...)
	c.SubscriptionStartDate = cloneTime(b.SubscriptionStartDate)
	c.SubscriptionEndDate = cloneTime(b.SubscriptionEndDate)
	c.TrialStartDate = cloneTime(b.TrialStartDate)
	c.TrialEndDate = cloneTime(b.TrialEndDate)
	if b.CustomLimits != nil {
		l := *b.CustomLimits
		c.CustomLimits = &l
	}
	return &c
}

func cloneReview(r *models.Review) *models.Review {
	c := *r
	c.RepliedAt = cloneTime(r.RepliedAt)
	return &c
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.FulfilledAt = cloneTime(o.FulfilledAt)
	return &c
}

type memoryBusinessRepository struct {
	mu    sync.Mutex
	items map[string]*models.Business
}

func (r *memoryBusinessRepository) Create(_ context.Context, b *models.Business) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[b.UID]; ok {
		return fmt.Errorf("business '%s': %w", b.UID, ErrAlreadyExists)
	}
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	r.items[b.UID] = cloneBusiness(b)
	return nil
}

func (r *memoryBusinessRepository) Get(_ context.Context, uid string) (*models.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[uid]
	if !ok {
		return nil, fmt.Errorf("business '%s' not found: %w", uid, ErrNotFound)
	}
	return cloneBusiness(b), nil
}

func (r *memoryBusinessRepository) Mutate(_ context.Context, uid string, fn BusinessMutation) (*models.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[uid]
	if !ok {
		return nil, fmt.Errorf("business '%s' not found: %w", uid, ErrNotFound)
	}
	b := cloneBusiness(stored)
	if err := fn(b); err != nil {
		return nil, err
	}
	b.UID = uid
	b.UpdatedAt = time.Now().UTC()
	r.items[uid] = cloneBusiness(b)
	return b, nil
}

func (r *memoryBusinessRepository) List(_ context.Context, filter models.BusinessFilter) ([]*models.Business, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Business, 0, len(r.items))
	for _, b := range r.items {
		if filter.Plan != "" && b.Plan != filter.Plan {
			continue
		}
		out = append(out, cloneBusiness(b))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].UID < out[j].UID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

type memorySlugRepository struct {
	mu    sync.Mutex
	items map[string]string
}

func (r *memorySlugRepository) Reserve(_ context.Context, slug, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[slug]; ok {
		return fmt.Errorf("slug '%s': %w", slug, ErrAlreadyExists)
	}
	r.items[slug] = uid
	return nil
}

func (r *memorySlugRepository) Resolve(_ context.Context, slug string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	uid, ok := r.items[slug]
	if !ok {
		return "", fmt.Errorf("slug '%s' not found: %w", slug, ErrNotFound)
	}
	return uid, nil
}

func (r *memorySlugRepository) Release(_ context.Context, slug string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, slug)
	return nil
}

type memoryReviewRepository struct {
	mu    sync.Mutex
	items map[string]*models.Review
}

func (r *memoryReviewRepository) Create(_ context.Context, review *models.Review) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	review.ID = uuid.NewString()
	r.items[review.ID] = cloneReview(review)
	return review.ID, nil
}

func (r *memoryReviewRepository) Get(_ context.Context, id string) (*models.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rv, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("review '%s' not found: %w", id, ErrNotFound)
	}
	return cloneReview(rv), nil
}

func (r *memoryReviewRepository) Update(_ context.Context, review *models.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[review.ID] = cloneReview(review)
	return nil
}

func (r *memoryReviewRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

func (r *memoryReviewRepository) ListByBusiness(_ context.Context, uid string, filter models.ReviewFilter) ([]*models.Review, error) {
	r.mu.Lock()
	var all []*models.Review
	for _, rv := range r.items {
		if rv.BusinessUID == uid {
			all = append(all, cloneReview(rv))
		}
	}
	r.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return applyReviewFilter(all, filter), nil
}

type memoryPaymentRepository struct {
	mu    sync.Mutex
	items map[string]*models.Order
}

func (r *memoryPaymentRepository) Create(_ context.Context, o *models.Order) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o.ID = uuid.NewString()
	r.items[o.ID] = cloneOrder(o)
	return o.ID, nil
}

func (r *memoryPaymentRepository) Get(_ context.Context, id string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("order '%s' not found: %w", id, ErrNotFound)
	}
	return cloneOrder(o), nil
}

func (r *memoryPaymentRepository) Mutate(_ context.Context, id string, fn OrderMutation) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("order '%s' not found: %w", id, ErrNotFound)
	}
	o := cloneOrder(stored)
	if err := fn(o); err != nil {
		return nil, err
	}
	o.ID = id
	r.items[id] = cloneOrder(o)
	return o, nil
}

func (r *memoryPaymentRepository) ListByStatus(_ context.Context, status string) ([]*models.Order, error) {
	return r.list(func(o *models.Order) bool { return o.Status == status }), nil
}

func (r *memoryPaymentRepository) ListByBusiness(_ context.Context, uid string) ([]*models.Order, error) {
	return r.list(func(o *models.Order) bool { return o.BusinessUID == uid }), nil
}

func (r *memoryPaymentRepository) list(keep func(*models.Order) bool) []*models.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Order
	for _, o := range r.items {
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

type memoryShareLinkRepository struct {
	mu    sync.Mutex
	items map[string]*models.ShareLink
}

func (r *memoryShareLinkRepository) Create(_ context.Context, l *models.ShareLink) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.ID = uuid.NewString()
	c := *l
	r.items[l.ID] = &c
	return l.ID, nil
}

func (r *memoryShareLinkRepository) Get(_ context.Context, id string) (*models.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok {
		return nil, fmt.Errorf("share link '%s' not found: %w", id, ErrNotFound)
	}
	c := *l
	return &c, nil
}

func (r *memoryShareLinkRepository) IncrementClicks(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.items[id]
	if !ok {
		return fmt.Errorf("share link '%s': %w", id, ErrNotFound)
	}
	l.Clicks++
	return nil
}

func (r *memoryShareLinkRepository) ListByBusiness(_ context.Context, uid string) ([]*models.ShareLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ShareLink
	for _, l := range r.items {
		if l.BusinessUID == uid {
			c := *l
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type memorySupportRepository struct {
	mu       sync.Mutex
	requests map[string]*models.SupportRequest
	demos    map[string]*models.DemoBooking
	messages []*models.ChatMessage
	feedback []*models.ChatFeedback
}

func (r *memorySupportRepository) CreateRequest(_ context.Context, req *models.SupportRequest) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.ID = uuid.NewString()
	c := *req
	r.requests[req.ID] = &c
	return req.ID, nil
}

func (r *memorySupportRepository) GetRequest(_ context.Context, id string) (*models.SupportRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, fmt.Errorf("support request '%s' not found: %w", id, ErrNotFound)
	}
	c := *req
	return &c, nil
}

func (r *memorySupportRepository) UpdateRequestStatus(_ context.Context, id, status string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return fmt.Errorf("support request '%s': %w", id, ErrNotFound)
	}
	req.Status = status
	req.UpdatedAt = at
	return nil
}

func (r *memorySupportRepository) ListRequests(_ context.Context, status string) ([]*models.SupportRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.SupportRequest
	for _, req := range r.requests {
		if status != "" && req.Status != status {
			continue
		}
		c := *req
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memorySupportRepository) CreateDemoBooking(_ context.Context, d *models.DemoBooking) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d.ID = uuid.NewString()
	c := *d
	r.demos[d.ID] = &c
	return d.ID, nil
}

func (r *memorySupportRepository) ListDemoBookings(_ context.Context) ([]*models.DemoBooking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.DemoBooking, 0, len(r.demos))
	for _, d := range r.demos {
		c := *d
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memorySupportRepository) AddChatMessage(_ context.Context, m *models.ChatMessage) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m.ID = uuid.NewString()
	c := *m
	r.messages = append(r.messages, &c)
	return m.ID, nil
}

func (r *memorySupportRepository) ListChatMessages(_ context.Context, sessionID string) ([]*models.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ChatMessage
	for _, m := range r.messages {
		if m.SessionID == sessionID {
			c := *m
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memorySupportRepository) CreateChatFeedback(_ context.Context, f *models.ChatFeedback) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f.ID = uuid.NewString()
	c := *f
	r.feedback = append(r.feedback, &c)
	return f.ID, nil
}

type memorySettingsRepository struct {
	mu       sync.Mutex
	platform *models.PlatformSettings
	roles    *models.AdminRoles
}

// SetAdminRoles seeds the admin/roles document. Only the memory backend
// exposes it; in Firestore the document is managed out of band.
func (r *memorySettingsRepository) SetAdminRoles(roles models.AdminRoles) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := models.AdminRoles{UIDs: append([]string(nil), roles.UIDs...)}
	r.roles = &c
}

func (r *memorySettingsRepository) GetPlatform(_ context.Context) (*models.PlatformSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.platform == nil {
		return nil, fmt.Errorf("settings 'platform' not found: %w", ErrNotFound)
	}
	c := *r.platform
	return &c, nil
}

func (r *memorySettingsRepository) SavePlatform(_ context.Context, s *models.PlatformSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *s
	r.platform = &c
	return nil
}

func (r *memorySettingsRepository) GetAdminRoles(_ context.Context) (*models.AdminRoles, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.roles == nil {
		return nil, fmt.Errorf("admin 'roles' not found: %w", ErrNotFound)
	}
	c := models.AdminRoles{UIDs: append([]string(nil), r.roles.UIDs...)}
	return &c, nil
}

// AdminRoleSeeder is implemented by settings backends that can be seeded in process.
type AdminRoleSeeder interface {
	SetAdminRoles(roles models.AdminRoles)
}

type memoryAuditRepository struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (r *memoryAuditRepository) Create(_ context.Context, entry models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.NewString()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memoryAuditRepository) ListByTarget(_ context.Context, targetType, targetID string, limit int) ([]*models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AuditLog
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if e.TargetType != targetType || e.TargetID != targetID {
			continue
		}
		out = append(out, &e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

package db

import (
	"context"
	"time"

	"reviewly-backend-go/internal/models"
)

// BusinessMutation edits a business inside a transaction. It may run more
// than once when the transaction is retried, so it must only touch b.
type BusinessMutation func(b *models.Business) error

// BusinessRepository stores tenant documents in the "users" collection.
type BusinessRepository interface {
	Get(ctx context.Context, uid string) (*models.Business, error)
	Create(ctx context.Context, b *models.Business) error
	// Mutate reads the business, applies fn and writes the result atomically.
	// An error from fn aborts the write and is returned unchanged.
	Mutate(ctx context.Context, uid string, fn BusinessMutation) (*models.Business, error)
	List(ctx context.Context, filter models.BusinessFilter) ([]*models.Business, error)
}

// SlugRepository maps public slugs to business UIDs ("slug_to_uid").
type SlugRepository interface {
	// Reserve fails with ErrAlreadyExists when the slug is taken.
	Reserve(ctx context.Context, slug, uid string) error
	Resolve(ctx context.Context, slug string) (string, error)
	Release(ctx context.Context, slug string) error
}

// ReviewRepository stores customer reviews.
type ReviewRepository interface {
	Create(ctx context.Context, r *models.Review) (string, error)
	Get(ctx context.Context, id string) (*models.Review, error)
	Update(ctx context.Context, r *models.Review) error
	Delete(ctx context.Context, id string) error
	// ListByBusiness returns reviews newest first.
	ListByBusiness(ctx context.Context, uid string, filter models.ReviewFilter) ([]*models.Review, error)
}

// OrderMutation edits a payment order inside a transaction.
type OrderMutation func(o *models.Order) error

// PaymentRepository stores payment orders.
type PaymentRepository interface {
	Create(ctx context.Context, o *models.Order) (string, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	Mutate(ctx context.Context, id string, fn OrderMutation) (*models.Order, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Order, error)
	// ListByBusiness returns orders newest first.
	ListByBusiness(ctx context.Context, uid string) ([]*models.Order, error)
}

// ShareLinkRepository stores short links to branch review forms.
type ShareLinkRepository interface {
	Create(ctx context.Context, l *models.ShareLink) (string, error)
	Get(ctx context.Context, id string) (*models.ShareLink, error)
	IncrementClicks(ctx context.Context, id string) error
	ListByBusiness(ctx context.Context, uid string) ([]*models.ShareLink, error)
}

// SupportRepository stores contact requests, demo bookings and chat data.
type SupportRepository interface {
	CreateRequest(ctx context.Context, r *models.SupportRequest) (string, error)
	GetRequest(ctx context.Context, id string) (*models.SupportRequest, error)
	UpdateRequestStatus(ctx context.Context, id, status string, at time.Time) error
	// ListRequests returns requests newest first; an empty status matches all.
	ListRequests(ctx context.Context, status string) ([]*models.SupportRequest, error)

	CreateDemoBooking(ctx context.Context, d *models.DemoBooking) (string, error)
	ListDemoBookings(ctx context.Context) ([]*models.DemoBooking, error)

	AddChatMessage(ctx context.Context, m *models.ChatMessage) (string, error)
	// ListChatMessages returns a session transcript oldest first.
	ListChatMessages(ctx context.Context, sessionID string) ([]*models.ChatMessage, error)
	CreateChatFeedback(ctx context.Context, f *models.ChatFeedback) (string, error)
}

// SettingsRepository reads and writes platform-wide documents.
type SettingsRepository interface {
	// GetPlatform returns ErrNotFound until settings are first saved.
	GetPlatform(ctx context.Context) (*models.PlatformSettings, error)
	SavePlatform(ctx context.Context, s *models.PlatformSettings) error
	GetAdminRoles(ctx context.Context) (*models.AdminRoles, error)
}

// AuditRepository stores audit trail entries.
type AuditRepository interface {
	Create(ctx context.Context, entry models.AuditLog) error
	// ListByTarget returns entries newest first.
	ListByTarget(ctx context.Context, targetType, targetID string, limit int) ([]*models.AuditLog, error)
}

// Store groups the repositories of one backend.
type Store struct {
	Businesses BusinessRepository
	Slugs      SlugRepository
	Reviews    ReviewRepository
	Payments   PaymentRepository
	ShareLinks ShareLinkRepository
	Support    SupportRepository
	Settings   SettingsRepository
	Audit      AuditRepository
}

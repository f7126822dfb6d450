// Package core holds the business rules of the platform. Services read and
// write through db repositories and never talk HTTP.
package core

import (
	"time"

	"go.uber.org/zap"

	"reviewly-backend-go/internal/crypto"
	"reviewly-backend-go/internal/db"
	"reviewly-backend-go/internal/events"
	"reviewly-backend-go/internal/geo"
	"reviewly-backend-go/internal/plans"
)

// Options carries configuration shared by services.
type Options struct {
	TrialDays     int
	PublicBaseURL string
	BaseCurrency  string
	SupportEmail  string
	// Now overrides the clock. Defaults to time.Now in UTC.
	Now func() time.Time
}

// Services is the wired service layer.
type Services struct {
	Audit         *AuditService
	Settings      *SettingsService
	Subscriptions *SubscriptionService
	Credits       *CreditService
	Businesses    *BusinessService
	Branches      *BranchService
	Reviews       *ReviewService
	Payments      *PaymentService
	Pricing       *PricingService
	Support       *SupportService
	Admin         *AdminService
}

// Lookups are the external currency dependencies.
type Lookups struct {
	Locator geo.Locator
	Rates   geo.RateSource
}

// NewServices builds every service over one store.
func NewServices(store *db.Store, catalog *plans.Catalog, signer *crypto.Signer, lookups Lookups, publisher events.Publisher, opts Options, logger *zap.Logger) *Services {
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if publisher == nil {
		publisher = events.Noop{}
	}

	audit := NewAuditService(store.Audit, logger)
	settings := NewSettingsService(store.Settings, audit, opts, now)
	subs := NewSubscriptionService(store.Businesses, catalog, audit, now, logger)
	credits := NewCreditService(store.Businesses, audit)
	businesses := NewBusinessService(store.Businesses, store.Slugs, settings, subs, publisher, opts, now, logger)
	branches := NewBranchService(store.Businesses, store.ShareLinks, catalog, businesses, opts, now, logger)
	reviews := NewReviewService(store.Reviews, store.Businesses, store.Slugs, catalog, businesses, publisher, now, logger)
	payments := NewPaymentService(store.Payments, store.Businesses, catalog, signer, lookups.Rates, audit, publisher, opts, now, logger)
	pricing := NewPricingService(store.Businesses, catalog, lookups.Locator, lookups.Rates, opts, now, logger)
	support := NewSupportService(store.Support, settings, audit, publisher, now, logger)
	admin := NewAdminService(store, catalog, businesses, subs, credits, reviews, payments, settings, audit, now)

	return &Services{
		Audit:         audit,
		Settings:      settings,
		Subscriptions: subs,
		Credits:       credits,
		Businesses:    businesses,
		Branches:      branches,
		Reviews:       reviews,
		Payments:      payments,
		Pricing:       pricing,
		Support:       support,
		Admin:         admin,
	}
}

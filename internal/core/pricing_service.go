package core

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"reviewly-backend-go/internal/db"
	"reviewly-backend-go/internal/geo"
	"reviewly-backend-go/internal/models"
	"reviewly-backend-go/internal/plans"
)

// PlanQuote is a plan priced in the quote currency.
type PlanQuote struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Limits       models.PlanLimits `json:"limits"`
	Features     []string          `json:"features"`
	MonthlyPrice float64           `json:"monthlyPrice"`
	YearlyPrice  float64           `json:"yearlyPrice"`
	Current      bool              `json:"current"`
}

// AddonQuote is an add-on priced in the quote currency.
type AddonQuote struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	UnitQuantity int     `json:"unitQuantity"`
	Price        float64 `json:"price"`
}

// Quote is the pricing page for one caller. Fallback is set when the
// requested or detected currency could not be priced and base currency was
// used instead.
type Quote struct {
	Currency     string       `json:"currency"`
	BaseCurrency string       `json:"baseCurrency"`
	Rate         float64      `json:"rate"`
	Fallback     bool         `json:"fallback"`
	Plans        []PlanQuote  `json:"plans"`
	Addons       []AddonQuote `json:"addons"`
}

// PricingService builds localized price quotes.
type PricingService struct {
	businesses   db.BusinessRepository
	catalog      *plans.Catalog
	locator      geo.Locator
	rates        geo.RateSource
	baseCurrency string
	now          func() time.Time
	logger       *zap.Logger
}

func NewPricingService(businesses db.BusinessRepository, catalog *plans.Catalog, locator geo.Locator, rates geo.RateSource, opts Options, now func() time.Time, logger *zap.Logger) *PricingService {
	return &PricingService{
		businesses:   businesses,
		catalog:      catalog,
		locator:      locator,
		rates:        rates,
		baseCurrency: strings.ToUpper(opts.BaseCurrency),
		now:          now,
		logger:       logger,
	}
}

// Quote prices the purchasable plans and add-ons. The currency is the
// explicit one if given, else the one of the client IP's country, else the
// base currency. uid may be empty for anonymous callers.
func (s *PricingService) Quote(ctx context.Context, uid, clientIP, currency string) (*Quote, error) {
	currency = s.resolveCurrency(ctx, clientIP, currency)
	q := &Quote{Currency: currency, BaseCurrency: s.baseCurrency, Rate: 1}
	if currency != s.baseCurrency {
		rate, err := s.rate(ctx, currency)
		if err != nil {
			s.logger.Warn("Falling back to base currency", zap.String("currency", currency), zap.Error(err))
			q.Currency = s.baseCurrency
			q.Fallback = true
		} else {
			q.Rate = rate
		}
	}

	var b *models.Business
	if uid != "" {
		found, err := s.businesses.Get(ctx, uid)
		switch {
		case err == nil:
			b = found
		case !isNotFound(err):
			return nil, wrapBusinessErr(err, uid)
		}
	}

	now := s.now()
	q.Plans = []PlanQuote{}
	for _, p := range s.catalog.Purchasable() {
		q.Plans = append(q.Plans, PlanQuote{
			ID:           p.ID,
			Name:         p.Name,
			Limits:       p.Limits,
			Features:     p.Features,
			MonthlyPrice: round2(p.MonthlyPrice * q.Rate),
			YearlyPrice:  round2(p.YearlyPrice * q.Rate),
			Current:      b != nil && IsCurrentPlan(b, p.ID, now),
		})
	}
	q.Addons = []AddonQuote{}
	for _, a := range s.catalog.Addons() {
		q.Addons = append(q.Addons, AddonQuote{
			ID: a.ID, Name: a.Name, Kind: a.Kind, UnitQuantity: a.UnitQuantity,
			Price: round2(a.Price * q.Rate),
		})
	}
	return q, nil
}

func (s *PricingService) resolveCurrency(ctx context.Context, clientIP, currency string) string {
	if c := strings.ToUpper(strings.TrimSpace(currency)); c != "" {
		return c
	}
	if clientIP != "" && s.locator != nil {
		c, err := s.locator.Currency(ctx, clientIP)
		if err == nil && c != "" {
			return strings.ToUpper(c)
		}
		s.logger.Debug("Currency detection failed", zap.String("ip", clientIP), zap.Error(err))
	}
	return s.baseCurrency
}

func (s *PricingService) rate(ctx context.Context, currency string) (float64, error) {
	if s.rates == nil {
		return 0, ErrCurrencyUnavailable
	}
	return s.rates.Rate(ctx, s.baseCurrency, currency)
}

// IsCurrentPlan reports whether b holds an active subscription to planID
// that ends after now.
func IsCurrentPlan(b *models.Business, planID string, now time.Time) bool {
	return b.SubscriptionActive && b.Plan == planID &&
		b.SubscriptionEndDate != nil && now.Before(*b.SubscriptionEndDate)
}

package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"reviewly-backend-go/internal/crypto"
	"reviewly-backend-go/internal/db"
	"reviewly-backend-go/internal/events"
	"reviewly-backend-go/internal/geo"
	"reviewly-backend-go/internal/metrics"
	"reviewly-backend-go/internal/models"
	"reviewly-backend-go/internal/plans"
)

// maxFulfilledOrders bounds the replay guard kept on the business document.
const maxFulfilledOrders = 50

// ReconcileResult reports a reconciliation run.
type ReconcileResult struct {
	Fulfilled []string          `json:"fulfilled"`
	Failed    map[string]string `json:"failed"`
}

// PaymentService prices, confirms and fulfils payment orders.
//
// An order moves created -> captured -> fulfilled. Capture records that the
// provider took the money; fulfilment applies the plan or credits to the
// business. A captured order that failed to fulfil is picked up by Reconcile.
type PaymentService struct {
	orders       db.PaymentRepository
	businesses   db.BusinessRepository
	catalog      *plans.Catalog
	signer       *crypto.Signer
	rates        geo.RateSource
	audit        *AuditService
	publisher    events.Publisher
	baseCurrency string
	now          func() time.Time
	logger       *zap.Logger
}

func NewPaymentService(orders db.PaymentRepository, businesses db.BusinessRepository, catalog *plans.Catalog, signer *crypto.Signer, rates geo.RateSource, audit *AuditService, publisher events.Publisher, opts Options, now func() time.Time, logger *zap.Logger) *PaymentService {
	return &PaymentService{
		orders:       orders,
		businesses:   businesses,
		catalog:      catalog,
		signer:       signer,
		rates:        rates,
		audit:        audit,
		publisher:    publisher,
		baseCurrency: strings.ToUpper(opts.BaseCurrency),
		now:          now,
		logger:       logger,
	}
}

// CreateOrder prices a plan or add-on purchase and stores it as created.
func (s *PaymentService) CreateOrder(ctx context.Context, uid string, req models.CreateOrderRequest) (*models.Order, error) {
	if _, err := s.businesses.Get(ctx, uid); err != nil {
		return nil, wrapBusinessErr(err, uid)
	}

	o := &models.Order{BusinessUID: uid, Kind: req.Kind, BaseCurrency: s.baseCurrency}
	switch req.Kind {
	case models.OrderKindPlan:
		plan, err := s.catalog.Get(req.PlanID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
		}
		if !plan.Purchasable {
			return nil, fmt.Errorf("%w: plan %s cannot be bought", ErrInvalidOrder, plan.ID)
		}
		cycle := req.Cycle
		if cycle == "" {
			cycle = plans.CycleMonthly
		}
		price, err := plan.Price(cycle)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
		}
		o.PlanID, o.Cycle, o.BaseAmount = plan.ID, cycle, price
	case models.OrderKindAddon:
		addon, err := s.catalog.Addon(req.AddonID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOrder, err)
		}
		qty := req.Quantity
		if qty == 0 {
			qty = 1
		}
		if qty < 0 {
			return nil, ErrInvalidQuantity
		}
		o.AddonID, o.Quantity, o.BaseAmount = addon.ID, qty, round2(addon.Price*float64(qty))
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidOrder, req.Kind)
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.baseCurrency
	}
	amount, err := s.convert(ctx, o.BaseAmount, currency)
	if err != nil {
		return nil, err
	}
	now := s.now()
	o.Amount, o.Currency = amount, currency
	o.Status = models.OrderStatusCreated
	o.CreatedAt, o.UpdatedAt = now, now

	id, err := s.orders.Create(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	o.ID = id
	metrics.Payments.WithLabelValues(models.OrderStatusCreated).Inc()
	s.logger.Info("Payment order created", zap.String("order_id", id), zap.String("uid", uid),
		zap.Float64("amount", amount), zap.String("currency", currency))
	return o, nil
}

func (s *PaymentService) convert(ctx context.Context, amount float64, currency string) (float64, error) {
	if currency == s.baseCurrency {
		return amount, nil
	}
	if s.rates == nil {
		return 0, fmt.Errorf("%w: %s", ErrCurrencyUnavailable, currency)
	}
	rate, err := s.rates.Rate(ctx, s.baseCurrency, currency)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCurrencyUnavailable, err)
	}
	return round2(amount * rate), nil
}

// Confirm verifies the provider signature and fulfils the order. Confirming
// an already fulfilled order returns it unchanged.
func (s *PaymentService) Confirm(ctx context.Context, uid string, req models.ConfirmPaymentRequest) (*models.Order, error) {
	o, err := s.get(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if o.BusinessUID != uid {
		return nil, fmt.Errorf("%w: '%s'", ErrOrderNotFound, req.OrderID)
	}
	if !s.signer.Verify(req.OrderID, req.ProviderPaymentID, req.Signature) {
		metrics.Payments.WithLabelValues("rejected").Inc()
		s.logger.Warn("Payment signature mismatch", zap.String("order_id", req.OrderID), zap.String("uid", uid))
		return nil, ErrInvalidSignature
	}
	if o.Status == models.OrderStatusFulfilled {
		return o, nil
	}

	o, err = s.orders.Mutate(ctx, req.OrderID, func(o *models.Order) error {
		switch o.Status {
		case models.OrderStatusCreated:
			o.Status = models.OrderStatusCaptured
			o.ProviderPaymentID = req.ProviderPaymentID
			o.UpdatedAt = s.now()
		case models.OrderStatusCaptured:
			if o.ProviderPaymentID != req.ProviderPaymentID {
				return fmt.Errorf("%w: order already captured with another payment", ErrInvalidOrder)
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.wrapOrderErr(err, req.OrderID)
	}
	if o.Status == models.OrderStatusFulfilled {
		return o, nil
	}
	metrics.Payments.WithLabelValues(models.OrderStatusCaptured).Inc()
	return s.fulfil(ctx, uid, o)
}

// fulfil applies a captured order to its business and marks it fulfilled.
// On failure the order stays captured and the captured order is returned
// alongside ErrFulfilmentFailed.
func (s *PaymentService) fulfil(ctx context.Context, actor string, o *models.Order) (*models.Order, error) {
	now := s.now()
	b, err := s.businesses.Mutate(ctx, o.BusinessUID, func(b *models.Business) error {
		return applyOrder(b, o, s.catalog, now)
	})
	if err != nil {
		metrics.Payments.WithLabelValues("fulfil_failed").Inc()
		s.logger.Error("Failed to apply payment", zap.String("order_id", o.ID), zap.String("uid", o.BusinessUID), zap.Error(err))
		reason := err.Error()
		if marked, merr := s.orders.Mutate(ctx, o.ID, func(o *models.Order) error {
			o.FailureReason = reason
			o.UpdatedAt = now
			return nil
		}); merr == nil {
			o = marked
		}
		return o, fmt.Errorf("%w: %w", ErrFulfilmentFailed, err)
	}

	fulfilled, err := s.orders.Mutate(ctx, o.ID, func(o *models.Order) error {
		at := now
		o.Status = models.OrderStatusFulfilled
		o.FulfilledAt = &at
		o.FailureReason = ""
		o.UpdatedAt = now
		return nil
	})
	if err != nil {
		// The business already carries the order in its replay guard, so a
		// reconcile run only flips the status.
		s.logger.Error("Payment applied but order not marked fulfilled", zap.String("order_id", o.ID), zap.Error(err))
		return o, fmt.Errorf("%w: %w", ErrFulfilmentFailed, err)
	}

	metrics.Payments.WithLabelValues(models.OrderStatusFulfilled).Inc()
	if fulfilled.Kind == models.OrderKindAddon {
		if addon, err := s.catalog.Addon(fulfilled.AddonID); err == nil {
			metrics.CreditsChanged.WithLabelValues(addon.Kind, metrics.DirectionGranted).Add(float64(addon.UnitQuantity * fulfilled.Quantity))
		}
	}
	s.audit.Record(ctx, actor, ActionPaymentFulfil, TargetOrder, fulfilled.ID, map[string]interface{}{
		"uid": fulfilled.BusinessUID, "kind": fulfilled.Kind, "planId": fulfilled.PlanID,
		"addonId": fulfilled.AddonID, "quantity": fulfilled.Quantity,
		"amount": fulfilled.Amount, "currency": fulfilled.Currency,
	})
	publish(ctx, s.publisher, s.logger, events.TypePaymentFulfilled, fulfilled.BusinessUID, events.PaymentFulfilled{
		OrderID:    fulfilled.ID,
		OwnerEmail: b.Email,
		Kind:       fulfilled.Kind,
		PlanID:     fulfilled.PlanID,
		AddonID:    fulfilled.AddonID,
		Quantity:   fulfilled.Quantity,
		Amount:     fulfilled.Amount,
		Currency:   fulfilled.Currency,
	}, now)
	return fulfilled, nil
}

// applyOrder activates the plan or grants the credits bought by o. An order
// already listed in FulfilledOrders is skipped.
func applyOrder(b *models.Business, o *models.Order, catalog *plans.Catalog, now time.Time) error {
	for _, id := range b.FulfilledOrders {
		if id == o.ID {
			return nil
		}
	}
	switch o.Kind {
	case models.OrderKindPlan:
		if _, err := catalog.Get(o.PlanID); err != nil {
			return err
		}
		dur, err := plans.CycleDuration(o.Cycle)
		if err != nil {
			return err
		}
		activatePlan(b, o.PlanID, o.Cycle, dur, now)
	case models.OrderKindAddon:
		addon, err := catalog.Addon(o.AddonID)
		if err != nil {
			return err
		}
		if err := grantCredits(b, addon.Kind, addon.UnitQuantity*o.Quantity); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidOrder, o.Kind)
	}
	b.FulfilledOrders = append(b.FulfilledOrders, o.ID)
	if n := len(b.FulfilledOrders); n > maxFulfilledOrders {
		b.FulfilledOrders = b.FulfilledOrders[n-maxFulfilledOrders:]
	}
	return nil
}

// Reconcile retries fulfilment of every captured order.
func (s *PaymentService) Reconcile(ctx context.Context, actor string) (*ReconcileResult, error) {
	captured, err := s.orders.ListByStatus(ctx, models.OrderStatusCaptured)
	if err != nil {
		return nil, fmt.Errorf("failed to list captured orders: %w", err)
	}
	res := &ReconcileResult{Fulfilled: []string{}, Failed: map[string]string{}}
	for _, o := range captured {
		if _, err := s.fulfil(ctx, actor, o); err != nil {
			res.Failed[o.ID] = err.Error()
			continue
		}
		res.Fulfilled = append(res.Fulfilled, o.ID)
	}
	s.audit.Record(ctx, actor, ActionPaymentReconcile, TargetOrder, "", map[string]interface{}{
		"fulfilled": len(res.Fulfilled), "failed": len(res.Failed),
	})
	return res, nil
}

// History lists the business's orders newest first.
func (s *PaymentService) History(ctx context.Context, uid string) ([]*models.Order, error) {
	orders, err := s.orders.ListByBusiness(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for '%s': %w", uid, err)
	}
	return orders, nil
}

func (s *PaymentService) get(ctx context.Context, id string) (*models.Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, s.wrapOrderErr(err, id)
	}
	return o, nil
}

func (s *PaymentService) wrapOrderErr(err error, id string) error {
	if isNotFound(err) {
		return fmt.Errorf("%w: '%s'", ErrOrderNotFound, id)
	}
	return err
}

package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewly-backend-go/internal/events"
	"reviewly-backend-go/internal/models"
	"reviewly-backend-go/internal/plans"
)

func (e *testEnv) confirm(t *testing.T, uid, orderID string) (*models.Order, error) {
	t.Helper()
	return e.svc.Payments.Confirm(context.Background(), uid, models.ConfirmPaymentRequest{
		OrderID:           orderID,
		ProviderPaymentID: "pay_" + orderID,
		Signature:         e.signer.Sign(orderID, "pay_"+orderID),
	})
}

func TestCreateOrder_Pricing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "u1", "My Cafe")

	o, err := env.svc.Payments.CreateOrder(ctx, "u1", models.CreateOrderRequest{Kind: models.OrderKindPlan, PlanID: plans.StarterPlanID})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCreated, o.Status)
	assert.Equal(t, plans.CycleMonthly, o.Cycle)
	assert.Equal(t, 999.0, o.Amount)
	assert.Equal(t, "INR", o.Currency)
	assert.NotEmpty(t, o.ID)

	o, err = env.svc.Payments.CreateOrder(ctx, "u1", models.CreateOrderRequest{Kind: models.OrderKindPlan, PlanID: plans.StarterPlanID, Currency: "usd"})
	require.NoError(t, err)
	assert.Equal(t, "USD", o.Currency)
	assert.Equal(t, 11.99, o.Amount)
	assert.Equal(t, 999.0, o.BaseAmount)

	o, err = env.svc.Payments.CreateOrder(ctx, "u1", models.CreateOrderRequest{Kind: models.OrderKindAddon, AddonID: "review_pack", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 1497.0, o.Amount)
	assert.Equal(t, 3, o.Quantity)
}

func TestCreateOrder_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "u1", "My Cafe")

	tests := []struct {
		name string
		req  models.CreateOrderRequest
		want error
	}{
		{"custom plan", models.CreateOrderRequest{Kind: models.OrderKindPlan, PlanID: plans.CustomPlanID}, ErrInvalidOrder},
		{"unknown plan", models.CreateOrderRequest{Kind: models.OrderKindPlan, PlanID: "gold"}, ErrInvalidOrder},
		{"bad cycle", models.CreateOrderRequest{Kind: models.OrderKindPlan, PlanID: plans.StarterPlanID, Cycle: "weekly"}, ErrInvalidOrder},
		{"unknown addon", models.CreateOrderRequest{Kind: models.OrderKindAddon, AddonID: "nope"}, ErrInvalidOrder},
		{"negative quantity", models.CreateOrderRequest{Kind: models.OrderKindAddon, AddonID: "review_pack", Quantity: -1}, ErrInvalidQuantity},
		{"unknown kind", models.CreateOrderRequest{Kind: "gift"}, ErrInvalidOrder},
		{"unpriced currency", models.CreateOrderRequest{Kind: models.OrderKindPlan, PlanID: plans.StarterPlanID, Currency: "EUR"}, ErrCurrencyUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Payments.CreateOrder(ctx, "u1", tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := env.svc.Payments.CreateOrder(ctx, "ghost", models.CreateOrderRequest{Kind: models.OrderKindPlan, PlanID: plans.StarterPlanID})
	assert.ErrorIs(t, err, ErrBusinessNotFound)
}

func TestConfirm_ActivatesPlanOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "u1", "My Cafe")
	o, err := env.svc.Payments.CreateOrder(ctx, "u1", models.CreateOrderRequest{Kind: models.OrderKindPlan, PlanID: plans.StarterPlanID})
	require.NoError(t, err)

	_, err = env.svc.Payments.Confirm(ctx, "u1", models.ConfirmPaymentRequest{OrderID: o.ID, ProviderPaymentID: "pay_x", Signature: "deadbeef"})
	assert.ErrorIs(t, err, ErrInvalidSignature)
	stored, err := env.store.Payments.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCreated, stored.Status)

	_, err = env.confirm(t, "u2", o.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	done, err := env.confirm(t, "u1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFulfilled, done.Status)
	assert.Equal(t, "pay_"+o.ID, done.ProviderPaymentID)
	require.NotNil(t, done.FulfilledAt)

	b := env.business(t, "u1")
	assert.True(t, b.SubscriptionActive)
	assert.False(t, b.TrialActive)
	assert.Equal(t, plans.StarterPlanID, b.Plan)
	end := *b.SubscriptionEndDate
	assert.Equal(t, []string{o.ID}, b.FulfilledOrders)

	env.clock.Advance(time.Hour)
	again, err := env.confirm(t, "u1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusFulfilled, again.Status)
	assert.Equal(t, end, *env.business(t, "u1").SubscriptionEndDate, "a replayed confirmation must not extend the plan")

	fulfilled := env.events.OfType(events.TypePaymentFulfilled)
	require.Len(t, fulfilled, 1)
	logs, err := env.svc.Audit.ForTarget(ctx, TargetOrder, o.ID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, ActionPaymentFulfil, logs[0].Action)

	_, err = env.confirm(t, "u1", "missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestConfirm_AddonGrantsCredits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "u1", "My Cafe")
	o, err := env.svc.Payments.CreateOrder(ctx, "u1", models.CreateOrderRequest{Kind: models.OrderKindAddon, AddonID: "review_pack", Quantity: 2})
	require.NoError(t, err)

	_, err = env.confirm(t, "u1", o.ID)
	require.NoError(t, err)
	assert.Equal(t, 200, env.business(t, "u1").AddonCredits.Reviews)
}

func TestConfirm_FulfilmentFailureLeavesCaptured(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "u1", "My Cafe")
	id, err := env.store.Payments.Create(ctx, &models.Order{
		BusinessUID: "u1", Kind: models.OrderKindPlan, PlanID: "retired", Cycle: plans.CycleMonthly,
		Status: models.OrderStatusCreated, Currency: "INR", CreatedAt: t0,
	})
	require.NoError(t, err)

	o, err := env.confirm(t, "u1", id)
	assert.ErrorIs(t, err, ErrFulfilmentFailed)
	assert.ErrorIs(t, err, plans.ErrUnknownPlan)
	require.NotNil(t, o)
	assert.Equal(t, models.OrderStatusCaptured, o.Status)
	assert.NotEmpty(t, o.FailureReason)

	res, err := env.svc.Payments.Reconcile(ctx, "admin")
	require.NoError(t, err)
	assert.Empty(t, res.Fulfilled)
	assert.Contains(t, res.Failed, id)
}

func TestReconcile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "u1", "My Cafe")

	okID, err := env.store.Payments.Create(ctx, &models.Order{
		BusinessUID: "u1", Kind: models.OrderKindAddon, AddonID: "extra_branch", Quantity: 1,
		Status: models.OrderStatusCaptured, ProviderPaymentID: "pay_1", CreatedAt: t0,
	})
	require.NoError(t, err)
	ghostID, err := env.store.Payments.Create(ctx, &models.Order{
		BusinessUID: "ghost", Kind: models.OrderKindAddon, AddonID: "extra_branch", Quantity: 1,
		Status: models.OrderStatusCaptured, CreatedAt: t0,
	})
	require.NoError(t, err)

	res, err := env.svc.Payments.Reconcile(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, []string{okID}, res.Fulfilled)
	assert.Contains(t, res.Failed, ghostID)
	assert.Equal(t, 1, env.business(t, "u1").AddonCredits.Branches)

	res, err = env.svc.Payments.Reconcile(ctx, "admin")
	require.NoError(t, err)
	assert.Empty(t, res.Fulfilled)
	assert.Equal(t, 1, env.business(t, "u1").AddonCredits.Branches)

	history, err := env.svc.Payments.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.OrderStatusFulfilled, history[0].Status)
}

func TestApplyOrder_SkipsReplays(t *testing.T) {
	catalog := plans.Default()
	b := &models.Business{}
	o := &models.Order{ID: "o1", Kind: models.OrderKindAddon, AddonID: "review_pack", Quantity: 1}

	require.NoError(t, applyOrder(b, o, catalog, t0))
	require.NoError(t, applyOrder(b, o, catalog, t0))
	assert.Equal(t, 100, b.AddonCredits.Reviews)

	for i := 0; i < maxFulfilledOrders+5; i++ {
		b.FulfilledOrders = append(b.FulfilledOrders, "old")
	}
	require.NoError(t, applyOrder(b, &models.Order{ID: "o2", Kind: models.OrderKindAddon, AddonID: "extra_branch", Quantity: 1}, catalog, t0))
	assert.Len(t, b.FulfilledOrders, maxFulfilledOrders)
	assert.Equal(t, "o2", b.FulfilledOrders[maxFulfilledOrders-1])
}

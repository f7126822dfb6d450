package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewly-backend-go/internal/db"
	"reviewly-backend-go/internal/events"
	"reviewly-backend-go/internal/models"
	"reviewly-backend-go/internal/plans"
)

type failingReviews struct {
	db.ReviewRepository
}

func (failingReviews) Create(context.Context, *models.Review) (string, error) {
	return "", errors.New("firestore unavailable")
}

func submit(t *testing.T, env *testEnv, slug string, rating int) (*models.Review, error) {
	t.Helper()
	return env.svc.Reviews.Submit(context.Background(), slug, models.SubmitReviewRequest{Rating: rating, Comment: "ok"})
}

func TestSubmit_ChargesPlanThenAddon(t *testing.T) {
	env := newTestEnv(t, withCatalog(smallCatalog(t)))
	ctx := context.Background()
	b := env.register(t, "u1", "My Cafe")

	for i := 0; i < 2; i++ {
		r, err := submit(t, env, "my-cafe", 5)
		require.NoError(t, err)
		assert.Equal(t, models.ChargedToPlan, r.ChargedTo)
		assert.Equal(t, b.Branches[0].ID, r.BranchID, "empty branch picks the first active one")
		assert.Equal(t, "link", r.Source)
	}

	_, err := submit(t, env, "my-cafe", 4)
	assert.ErrorIs(t, err, ErrReviewLimitReached)

	_, err = env.svc.Credits.Grant(ctx, "admin", "u1", plans.CreditReviews, 1, "")
	require.NoError(t, err)
	r, err := submit(t, env, "my-cafe", 4)
	require.NoError(t, err)
	assert.Equal(t, models.ChargedToAddon, r.ChargedTo)

	stored := env.business(t, "u1")
	assert.Equal(t, 0, stored.AddonCredits.Reviews)
	assert.Equal(t, 2, stored.Usage.PlanReviews)
	assert.Equal(t, 1, stored.Usage.AddonReviews)

	_, err = submit(t, env, "my-cafe", 4)
	assert.ErrorIs(t, err, ErrReviewLimitReached)

	submitted := env.events.OfType(events.TypeReviewSubmitted)
	require.Len(t, submitted, 3)
	var payload events.ReviewSubmitted
	require.NoError(t, submitted[2].Decode(&payload))
	assert.Equal(t, models.ChargedToAddon, payload.ChargedTo)
	assert.Equal(t, "u1@owner.test", payload.OwnerEmail)
	assert.Equal(t, "Main", payload.BranchName)
}

func TestSubmit_Rejections(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "u1", "My Cafe")

	_, err := submit(t, env, "unknown", 5)
	assert.ErrorIs(t, err, ErrBusinessNotFound)

	_, err = submit(t, env, "my-cafe", 0)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = env.svc.Reviews.Submit(context.Background(), "my-cafe", models.SubmitReviewRequest{Rating: 5, BranchID: "nope"})
	assert.ErrorIs(t, err, ErrBranchNotFound)

	env.clock.Advance(15 * 24 * time.Hour)
	_, err = submit(t, env, "my-cafe", 5)
	assert.ErrorIs(t, err, ErrSubscriptionInactive)
}

func TestSubmit_RefundsWhenStoreFails(t *testing.T) {
	env := newTestEnv(t, withStore(func(s *db.Store) {
		s.Reviews = failingReviews{s.Reviews}
	}))
	env.register(t, "u1", "My Cafe")

	_, err := submit(t, env, "my-cafe", 5)
	require.Error(t, err)
	assert.Equal(t, 0, env.business(t, "u1").Usage.PlanReviews)
	assert.Empty(t, env.events.OfType(events.TypeReviewSubmitted))
}

func TestRefundReview(t *testing.T) {
	b := &models.Business{
		AddonCredits: models.AddonCredits{Reviews: 1},
		Usage:        models.PeriodUsage{PlanReviews: 3, AddonReviews: 2},
	}
	refundReview(b, models.ChargedToAddon)
	assert.Equal(t, 2, b.AddonCredits.Reviews)
	assert.Equal(t, 1, b.Usage.AddonReviews)

	refundReview(b, models.ChargedToPlan)
	assert.Equal(t, 2, b.Usage.PlanReviews)

	b.Usage.PlanReviews = 0
	refundReview(b, models.ChargedToPlan)
	assert.Equal(t, 0, b.Usage.PlanReviews)
}

func TestSubmit_NewPeriodResetsUsage(t *testing.T) {
	env := newTestEnv(t, withCatalog(smallCatalog(t)))
	ctx := context.Background()
	env.register(t, "u1", "My Cafe")
	for i := 0; i < 2; i++ {
		_, err := submit(t, env, "my-cafe", 5)
		require.NoError(t, err)
	}

	env.clock.Advance(time.Hour)
	_, err := env.svc.Subscriptions.Activate(ctx, "u1", "u1", plans.StarterPlanID, plans.CycleMonthly)
	require.NoError(t, err)
	_, err = submit(t, env, "my-cafe", 5)
	require.NoError(t, err)

	u := env.business(t, "u1").Usage
	assert.Equal(t, env.clock.Now(), u.PeriodStart)
	assert.Equal(t, 1, u.PlanReviews)
}

func fillAllowance(t *testing.T, env *testEnv, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := submit(t, env, "my-cafe", 5)
		require.NoError(t, err)
	}
	_, err := submit(t, env, "my-cafe", 5)
	require.ErrorIs(t, err, ErrReviewLimitReached)
}

func TestSubmit_YearlyPlanRefillsEveryWindow(t *testing.T) {
	env := newTestEnv(t, withCatalog(smallCatalog(t)))
	ctx := context.Background()
	env.register(t, "u1", "My Cafe")
	_, err := env.svc.Subscriptions.Activate(ctx, "u1", "u1", plans.StarterPlanID, plans.CycleYearly)
	require.NoError(t, err)
	fillAllowance(t, env, 3)

	env.clock.Advance(60 * 24 * time.Hour)
	_, err = submit(t, env, "my-cafe", 5)
	require.NoError(t, err)

	u := env.business(t, "u1").Usage
	assert.Equal(t, t0.Add(60*24*time.Hour), u.PeriodStart)
	assert.Equal(t, 1, u.PlanReviews)
}

func TestSubmit_RenewalRefillsAllowance(t *testing.T) {
	env := newTestEnv(t, withCatalog(smallCatalog(t)))
	ctx := context.Background()
	env.register(t, "u1", "My Cafe")
	_, err := env.svc.Subscriptions.Activate(ctx, "u1", "u1", plans.StarterPlanID, plans.CycleMonthly)
	require.NoError(t, err)
	fillAllowance(t, env, 3)

	env.clock.Advance(25 * 24 * time.Hour)
	renewed, err := env.svc.Subscriptions.Activate(ctx, "u1", "u1", plans.StarterPlanID, plans.CycleMonthly)
	require.NoError(t, err)
	require.Len(t, renewed.RenewalStarts, 1)
	assert.Equal(t, t0.Add(30*24*time.Hour), renewed.RenewalStarts[0])

	_, err = submit(t, env, "my-cafe", 5)
	assert.ErrorIs(t, err, ErrReviewLimitReached, "the renewed month has not started yet")

	env.clock.Advance(10 * 24 * time.Hour)
	_, err = submit(t, env, "my-cafe", 5)
	require.NoError(t, err)
	u := env.business(t, "u1").Usage
	assert.Equal(t, t0.Add(30*24*time.Hour), u.PeriodStart)
	assert.Equal(t, 1, u.PlanReviews)
}

func TestReviewStats_DeletedReviewsStayCharged(t *testing.T) {
	env := newTestEnv(t, withCatalog(smallCatalog(t)))
	ctx := context.Background()
	env.register(t, "u1", "My Cafe")
	first, err := submit(t, env, "my-cafe", 5)
	require.NoError(t, err)
	_, err = submit(t, env, "my-cafe", 4)
	require.NoError(t, err)
	require.NoError(t, env.svc.Reviews.Delete(ctx, "u1", first.ID))

	st, err := env.svc.Reviews.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Periods.InWindow)
	assert.Equal(t, 2, st.Periods.Used)
	assert.Equal(t, 0, st.Periods.Remaining)

	_, err = submit(t, env, "my-cafe", 5)
	assert.ErrorIs(t, err, ErrReviewLimitReached)
}

func TestListReviews_ByPeriod(t *testing.T) {
	env := newTestEnv(t, withCatalog(smallCatalog(t)))
	ctx := context.Background()
	env.register(t, "u1", "My Cafe")
	_, err := submit(t, env, "my-cafe", 5)
	require.NoError(t, err)
	env.clock.Advance(time.Minute)
	_, err = submit(t, env, "my-cafe", 2)
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	_, err = env.svc.Subscriptions.Activate(ctx, "u1", "u1", plans.StarterPlanID, plans.CycleMonthly)
	require.NoError(t, err)
	env.clock.Advance(time.Hour)
	_, err = submit(t, env, "my-cafe", 4)
	require.NoError(t, err)

	current, err := env.svc.Reviews.List(ctx, "u1", ReviewQuery{Period: PeriodCurrent})
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, 4, current[0].Rating)

	previous, err := env.svc.Reviews.List(ctx, "u1", ReviewQuery{Period: PeriodPrevious})
	require.NoError(t, err)
	assert.Len(t, previous, 2)

	all, err := env.svc.Reviews.List(ctx, "u1", ReviewQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 4, all[0].Rating, "newest first")

	high, err := env.svc.Reviews.List(ctx, "u1", ReviewQuery{ReviewFilter: models.ReviewFilter{MinRating: 4}, Period: PeriodAll})
	require.NoError(t, err)
	assert.Len(t, high, 2)

	_, err = env.svc.Reviews.List(ctx, "u1", ReviewQuery{Period: "last-week"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestReplyAndDelete(t *testing.T) {
	env := newTestEnv(t, withCatalog(smallCatalog(t)))
	ctx := context.Background()
	env.register(t, "u1", "My Cafe")
	env.register(t, "u2", "Other Shop")
	r, err := submit(t, env, "my-cafe", 3)
	require.NoError(t, err)

	_, err = env.svc.Reviews.Reply(ctx, "u1", r.ID, "Thanks!")
	assert.ErrorIs(t, err, ErrFeatureNotInPlan, "the trial in this catalog has no replies")

	_, err = env.svc.Subscriptions.Activate(ctx, "u1", "u1", plans.StarterPlanID, plans.CycleMonthly)
	require.NoError(t, err)
	replied, err := env.svc.Reviews.Reply(ctx, "u1", r.ID, " Thanks! ")
	require.NoError(t, err)
	assert.Equal(t, "Thanks!", replied.Reply)
	require.NotNil(t, replied.RepliedAt)

	_, err = env.svc.Reviews.Reply(ctx, "u1", r.ID, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.ErrorIs(t, env.svc.Reviews.Delete(ctx, "u2", r.ID), ErrReviewNotFound, "other tenants cannot touch the review")

	before := env.business(t, "u1").Usage
	require.NoError(t, env.svc.Reviews.Delete(ctx, "u1", r.ID))
	assert.Equal(t, before, env.business(t, "u1").Usage, "deleting does not refund")
	assert.ErrorIs(t, env.svc.Reviews.Delete(ctx, "u1", r.ID), ErrReviewNotFound)
}

func TestReviewStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "u1", "My Cafe")
	for _, rating := range []int{5, 4, 2} {
		_, err := submit(t, env, "my-cafe", rating)
		require.NoError(t, err)
	}

	st, err := env.svc.Reviews.Stats(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 3.67, st.Average)
	assert.Equal(t, 1, st.ByRating[5])
	assert.Equal(t, 0, st.ByRating[1])
	assert.Equal(t, 3, st.ByBranch[env.business(t, "u1").Branches[0].ID])
	assert.Equal(t, 3, st.Periods.Current)
	assert.Equal(t, 50, st.Periods.Limit)
	assert.Equal(t, 47, st.Periods.Remaining)
	assert.Equal(t, 3, st.PlanUsage.PlanReviews)
}

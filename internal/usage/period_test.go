package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewly-backend-go/internal/models"
)

var (
	jan1 = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	feb1 = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mar1 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	apr1 = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
)

func ptr(t time.Time) *time.Time { return &t }

// subscribedBusiness had a January trial, a Starter February, and is on Professional in March.
func subscribedBusiness() *models.Business {
	return &models.Business{
		Plan:                  "professional",
		SubscriptionActive:    true,
		SubscriptionStartDate: ptr(mar1),
		SubscriptionEndDate:   ptr(apr1),
		PlanHistory: []models.PlanPeriod{
			{Plan: "trial", Kind: models.PeriodKindTrial, Start: jan1, End: feb1},
			{Plan: "starter", Kind: models.PeriodKindSubscription, Start: feb1, End: mar1},
		},
	}
}

func TestTimeline_OrdersAndMarksLive(t *testing.T) {
	now := mar1.Add(10 * 24 * time.Hour)
	tl := Timeline(subscribedBusiness(), now)

	require.Len(t, tl, 3)
	assert.Equal(t, "trial", tl[0].Plan)
	assert.Equal(t, "starter", tl[1].Plan)
	assert.Equal(t, "professional", tl[2].Plan)
	assert.False(t, tl[0].Live)
	assert.False(t, tl[1].Live)
	assert.True(t, tl[2].Live)
}

func TestTimeline_TrialIsLiveOnlyWithoutSubscription(t *testing.T) {
	b := &models.Business{
		Plan:           "trial",
		TrialActive:    true,
		TrialStartDate: ptr(jan1),
		TrialEndDate:   ptr(feb1),
	}
	p, ok := Live(b, jan1.Add(time.Hour))
	require.True(t, ok)
	assert.Equal(t, models.PeriodKindTrial, p.Kind)

	_, ok = Live(b, feb1)
	assert.False(t, ok, "trial end is exclusive")
}

func TestClassify(t *testing.T) {
	b := subscribedBusiness()
	now := mar1.Add(10 * 24 * time.Hour)
	tl := Timeline(b, now)

	tests := []struct {
		name string
		at   time.Time
		want Attribution
	}{
		{"inside current", mar1.Add(time.Hour), Current},
		{"current start is inclusive", mar1, Current},
		{"previous plan", feb1.Add(48 * time.Hour), Previous},
		{"just before current start", mar1.Add(-time.Nanosecond), Previous},
		{"older trial", jan1.Add(time.Hour), Older},
		{"before any period", jan1.Add(-time.Hour), Outside},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.at, tl, now))
		})
	}
}

func TestClassify_ElapsedSubscriptionBecomesPrevious(t *testing.T) {
	b := subscribedBusiness()
	now := apr1.Add(24 * time.Hour) // professional elapsed but flag not yet cleared
	tl := Timeline(b, now)

	assert.Equal(t, Previous, Classify(mar1.Add(time.Hour), tl, now))
	assert.Equal(t, Older, Classify(feb1.Add(time.Hour), tl, now))
}

func TestSummarize(t *testing.T) {
	b := subscribedBusiness()
	b.Usage = models.PeriodUsage{PeriodStart: mar1, PlanReviews: 3}
	now := mar1.Add(10 * 24 * time.Hour)
	times := []time.Time{
		mar1.Add(time.Hour),
		mar1.Add(2 * time.Hour),
		mar1.Add(3 * time.Hour),
		feb1.Add(time.Hour),
		jan1.Add(time.Hour),
		jan1.Add(-time.Hour),
	}

	s := Summarize(times, b, 5, now)
	assert.Equal(t, 3, s.Current)
	assert.Equal(t, 1, s.Previous)
	assert.Equal(t, 1, s.Older)
	assert.Equal(t, 1, s.Outside)
	assert.Equal(t, 2, s.Remaining)
	assert.Equal(t, 3, s.Used)
	assert.Equal(t, 3, s.InWindow)
	require.NotNil(t, s.CurrentPeriod)
	assert.Equal(t, "professional", s.CurrentPeriod.Plan)
	require.NotNil(t, s.PreviousPeriod)
	assert.Equal(t, "starter", s.PreviousPeriod.Plan)
}

func TestSummarize_LimitReachedAndUnlimited(t *testing.T) {
	b := subscribedBusiness()
	b.Usage = models.PeriodUsage{PeriodStart: mar1, PlanReviews: 3}
	now := mar1.Add(time.Hour * 5)
	times := []time.Time{mar1, mar1.Add(time.Minute), mar1.Add(2 * time.Minute)}

	capped := Summarize(times, b, 2, now)
	assert.Equal(t, 0, capped.Remaining)
	assert.False(t, capped.Unlimited)

	unlimited := Summarize(times, b, 0, now)
	assert.True(t, unlimited.Unlimited)
	assert.Equal(t, 3, unlimited.Current)
}

func TestSummarize_NoLivePeriod(t *testing.T) {
	b := &models.Business{
		Plan: "starter",
		PlanHistory: []models.PlanPeriod{
			{Plan: "starter", Kind: models.PeriodKindSubscription, Start: feb1, End: mar1},
		},
	}
	s := Summarize([]time.Time{feb1.Add(time.Hour)}, b, 10, apr1)
	assert.Nil(t, s.CurrentPeriod)
	assert.Equal(t, 0, s.Current)
	assert.Equal(t, 1, s.Previous)
	assert.Equal(t, 0, s.Remaining)
}

func TestSummarize_RemainingFollowsChargedUsage(t *testing.T) {
	b := subscribedBusiness()
	now := mar1.Add(48 * time.Hour)

	// Two reviews were charged; one of them has since been deleted.
	b.Usage = models.PeriodUsage{PeriodStart: mar1, PlanReviews: 2, AddonReviews: 4}
	s := Summarize([]time.Time{mar1.Add(time.Hour)}, b, 2, now)
	assert.Equal(t, 1, s.InWindow)
	assert.Equal(t, 0, s.Remaining)

	// Counters from an earlier window do not count against this one.
	b.Usage = models.PeriodUsage{PeriodStart: feb1, PlanReviews: 2}
	s = Summarize(nil, b, 2, now)
	assert.Equal(t, 0, s.Used)
	assert.Equal(t, 2, s.Remaining)
}

func TestWindow(t *testing.T) {
	day := 24 * time.Hour
	yearly := &models.Business{
		Plan:                  "starter",
		SubscriptionActive:    true,
		SubscriptionStartDate: ptr(jan1),
		SubscriptionEndDate:   ptr(jan1.Add(365 * day)),
	}
	renewed := &models.Business{
		Plan:                  "starter",
		SubscriptionActive:    true,
		SubscriptionStartDate: ptr(jan1),
		SubscriptionEndDate:   ptr(jan1.Add(60 * day)),
		RenewalStarts:         []time.Time{jan1.Add(30 * day)},
	}
	renewedYearly := &models.Business{
		Plan:                  "starter",
		SubscriptionActive:    true,
		SubscriptionStartDate: ptr(jan1),
		SubscriptionEndDate:   ptr(jan1.Add(730 * day)),
		RenewalStarts:         []time.Time{jan1.Add(365 * day)},
	}
	trial := &models.Business{
		Plan:           "trial",
		TrialActive:    true,
		TrialStartDate: ptr(jan1),
		TrialEndDate:   ptr(jan1.Add(14 * day)),
	}

	tests := []struct {
		name      string
		b         *models.Business
		at        time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"first window of a year", yearly, jan1.Add(10 * day), jan1, jan1.Add(30 * day)},
		{"third window of a year", yearly, jan1.Add(60 * day), jan1.Add(60 * day), jan1.Add(90 * day)},
		{"last window is cut at the period end", yearly, jan1.Add(362 * day), jan1.Add(360 * day), jan1.Add(365 * day)},
		{"before the renewal", renewed, jan1.Add(29 * day), jan1, jan1.Add(30 * day)},
		{"renewal starts a new window", renewed, jan1.Add(35 * day), jan1.Add(30 * day), jan1.Add(60 * day)},
		{"window stops at the renewal", renewedYearly, jan1.Add(362 * day), jan1.Add(360 * day), jan1.Add(365 * day)},
		{"windows restart after the renewal", renewedYearly, jan1.Add(400 * day), jan1.Add(395 * day), jan1.Add(425 * day)},
		{"trial is one window", trial, jan1.Add(3 * day), jan1, jan1.Add(14 * day)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := Window(tt.b, tt.at)
			require.True(t, ok)
			assert.Equal(t, tt.wantStart, w.Start)
			assert.Equal(t, tt.wantEnd, w.End)
		})
	}

	_, ok := Window(trial, jan1.Add(20*day))
	assert.False(t, ok, "no window without a live period")
}

func TestBounds(t *testing.T) {
	b := subscribedBusiness()
	now := mar1.Add(time.Hour)

	from, to, ok := Bounds(Current, b, now)
	require.True(t, ok)
	assert.Equal(t, mar1, from)
	assert.Equal(t, apr1, to)

	from, to, ok = Bounds(Previous, b, now)
	require.True(t, ok)
	assert.Equal(t, feb1, from)
	assert.Equal(t, mar1, to)

	_, _, ok = Bounds(Current, &models.Business{}, now)
	assert.False(t, ok)
}

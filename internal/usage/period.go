// Package usage attributes reviews to subscription periods.
//
// A business moves through a sequence of periods: the trial, one or more
// subscriptions, possibly gaps between them. Closed periods live in the
// business's PlanHistory; the running one is described by the subscription
// or trial fields. Periods are half-open, [Start, End).
package usage

import (
	"sort"
	"time"

	"reviewly-backend-go/internal/models"
)

// Attribution says which period a point in time falls into.
type Attribution string

const (
	Current  Attribution = "current"
	Previous Attribution = "previous"
	Older    Attribution = "older"
	Outside  Attribution = "outside"
)

// Period is one stretch of a plan or the trial.
type Period struct {
	Plan  string    `json:"plan"`
	Kind  string    `json:"kind"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Live  bool      `json:"live"`
}

// Contains reports whether t lies in [Start, End).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Timeline returns every known period of the business sorted by start time.
// At most one period is marked Live: the flagged subscription or trial that
// has not yet elapsed at now. An active subscription takes precedence over a
// trial that is still flagged.
func Timeline(b *models.Business, now time.Time) []Period {
	periods := make([]Period, 0, len(b.PlanHistory)+2)
	for _, h := range b.PlanHistory {
		periods = append(periods, Period{Plan: h.Plan, Kind: h.Kind, Start: h.Start, End: h.End})
	}

	liveTaken := false
	if b.SubscriptionActive && b.SubscriptionStartDate != nil && b.SubscriptionEndDate != nil {
		p := Period{Plan: b.Plan, Kind: models.PeriodKindSubscription, Start: *b.SubscriptionStartDate, End: *b.SubscriptionEndDate}
		p.Live = p.Contains(now)
		liveTaken = p.Live
		periods = append(periods, p)
	}
	if b.TrialActive && !b.SubscriptionActive && b.TrialStartDate != nil && b.TrialEndDate != nil {
		p := Period{Plan: "trial", Kind: models.PeriodKindTrial, Start: *b.TrialStartDate, End: *b.TrialEndDate}
		p.Live = !liveTaken && p.Contains(now)
		periods = append(periods, p)
	}

	sort.SliceStable(periods, func(i, j int) bool { return periods[i].Start.Before(periods[j].Start) })
	return periods
}

// Live returns the running period, if any.
func Live(b *models.Business, now time.Time) (Period, bool) {
	for _, p := range Timeline(b, now) {
		if p.Live {
			return p, true
		}
	}
	return Period{}, false
}

// AllowanceWindow is the span a plan's review limit applies to. It matches a
// monthly billing cycle; longer cycles are cut into consecutive windows.
const AllowanceWindow = 30 * 24 * time.Hour

// Window returns the allowance window of the live period at now. Windows are
// laid end to end from the start of the period and restart at every paid
// renewal. A window never crosses the next renewal or the end of the period.
func Window(b *models.Business, now time.Time) (Period, bool) {
	live, ok := Live(b, now)
	if !ok {
		return Period{}, false
	}
	anchor, limit := live.Start, live.End
	if live.Kind == models.PeriodKindSubscription {
		for _, r := range b.RenewalStarts {
			switch {
			case !now.Before(r) && r.After(anchor):
				anchor = r
			case now.Before(r) && r.Before(limit):
				limit = r
			}
		}
	}
	n := int64(now.Sub(anchor) / AllowanceWindow)
	w := live
	w.Start = anchor.Add(time.Duration(n) * AllowanceWindow)
	w.End = w.Start.Add(AllowanceWindow)
	if w.End.After(limit) {
		w.End = limit
	}
	return w, true
}

// Split returns the live period and the one immediately before it. Without a
// live period, the previous period is the most recent one that has ended.
func Split(timeline []Period, now time.Time) (current *Period, previous *Period) {
	for i := range timeline {
		if timeline[i].Live {
			current = &timeline[i]
			break
		}
	}
	cutoff := now
	if current != nil {
		cutoff = current.Start
	}
	for i := range timeline {
		p := &timeline[i]
		if p.Live || p.End.After(cutoff) {
			continue
		}
		if previous == nil || p.End.After(previous.End) {
			previous = p
		}
	}
	return current, previous
}

// Classify attributes t against a timeline.
func Classify(t time.Time, timeline []Period, now time.Time) Attribution {
	current, previous := Split(timeline, now)
	if current != nil && current.Contains(t) {
		return Current
	}
	if previous != nil && previous.Contains(t) {
		return Previous
	}
	for _, p := range timeline {
		if p.Contains(t) {
			return Older
		}
	}
	return Outside
}

// Summary counts reviews per attribution for one business.
type Summary struct {
	Current        int     `json:"current"`
	Previous       int     `json:"previous"`
	Older          int     `json:"older"`
	Outside        int     `json:"outside"`
	Limit          int     `json:"limit"`
	Unlimited      bool    `json:"unlimited"`
	Remaining      int     `json:"remaining"`
	CurrentPeriod  *Period `json:"currentPeriod,omitempty"`
	PreviousPeriod *Period `json:"previousPeriod,omitempty"`

	// Window is the running allowance window. InWindow counts the stored
	// reviews created in it; Used is what was charged to the plan in it.
	Window   *Period `json:"window,omitempty"`
	InWindow int     `json:"inWindow"`
	Used     int     `json:"used"`
}

// Summarize classifies review timestamps and reports the plan allowance left
// in the running window. The allowance follows the charged counter in
// b.Usage, so deleted reviews and add-on charges do not change it. A limit of
// 0 means unlimited.
func Summarize(times []time.Time, b *models.Business, limit int, now time.Time) Summary {
	timeline := Timeline(b, now)
	current, previous := Split(timeline, now)

	s := Summary{Limit: limit, Unlimited: limit == 0}
	if current != nil {
		c := *current
		s.CurrentPeriod = &c
	}
	if w, ok := Window(b, now); ok {
		s.Window = &w
		if b.Usage.PeriodStart.Equal(w.Start) {
			s.Used = b.Usage.PlanReviews
		}
	}
	if previous != nil {
		p := *previous
		s.PreviousPeriod = &p
	}
	for _, t := range times {
		if s.Window != nil && s.Window.Contains(t) {
			s.InWindow++
		}
		switch Classify(t, timeline, now) {
		case Current:
			s.Current++
		case Previous:
			s.Previous++
		case Older:
			s.Older++
		default:
			s.Outside++
		}
	}
	if !s.Unlimited && s.Window != nil && s.Used < limit {
		s.Remaining = limit - s.Used
	}
	return s
}

// Bounds returns the [from, to) window of the current or previous period.
func Bounds(which Attribution, b *models.Business, now time.Time) (from, to time.Time, ok bool) {
	current, previous := Split(Timeline(b, now), now)
	var p *Period
	switch which {
	case Current:
		p = current
	case Previous:
		p = previous
	}
	if p == nil {
		return time.Time{}, time.Time{}, false
	}
	return p.Start, p.End, true
}

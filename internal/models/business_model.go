package models

import "time"

// Business is a tenant account. The Firebase Auth UID is the document ID in the "users" collection.
type Business struct {
	UID             string   `json:"uid" firestore:"-"`
	Email           string   `json:"email" firestore:"email"`
	BusinessName    string   `json:"businessName" firestore:"businessName"`
	Slug            string   `json:"slug" firestore:"slug"`
	Phone           string   `json:"phone,omitempty" firestore:"phone,omitempty"`
	Address         string   `json:"address,omitempty" firestore:"address,omitempty"`
	Category        string   `json:"category,omitempty" firestore:"category,omitempty"`
	LogoURL         string   `json:"logoUrl,omitempty" firestore:"logoUrl,omitempty"`
	GoogleReviewURL string   `json:"googleReviewUrl,omitempty" firestore:"googleReviewUrl,omitempty"`
	Branches        []Branch `json:"branches" firestore:"branches"`

	Plan                  string     `json:"plan" firestore:"plan"` // e.g. "trial", "starter", "professional", "custom"
	BillingCycle          string     `json:"billingCycle,omitempty" firestore:"billingCycle,omitempty"`
	SubscriptionActive    bool       `json:"subscriptionActive" firestore:"subscriptionActive"`
	SubscriptionStartDate *time.Time `json:"subscriptionStartDate,omitempty" firestore:"subscriptionStartDate,omitempty"`
	SubscriptionEndDate   *time.Time `json:"subscriptionEndDate,omitempty" firestore:"subscriptionEndDate,omitempty"`
	TrialActive           bool       `json:"trialActive" firestore:"trialActive"`
	TrialStartDate        *time.Time `json:"trialStartDate,omitempty" firestore:"trialStartDate,omitempty"`
	TrialEndDate          *time.Time `json:"trialEndDate,omitempty" firestore:"trialEndDate,omitempty"`

	// RenewalStarts holds the start of each paid renewal of the running
	// subscription. The old end date of a renewed subscription starts a new cycle.
	RenewalStarts []time.Time `json:"renewalStarts,omitempty" firestore:"renewalStarts,omitempty"`

	// PlanHistory holds closed periods, oldest first.
	PlanHistory  []PlanPeriod `json:"planHistory,omitempty" firestore:"planHistory,omitempty"`
	AddonCredits AddonCredits `json:"addonCredits" firestore:"addonCredits"`
	Usage        PeriodUsage  `json:"usage" firestore:"usage"`
	CustomLimits *PlanLimits  `json:"customLimits,omitempty" firestore:"customLimits,omitempty"`

	// FulfilledOrders lists recently applied payment order IDs so a replayed
	// fulfilment is a no-op.
	FulfilledOrders []string `json:"-" firestore:"fulfilledOrders,omitempty"`

	CreatedAt time.Time `json:"createdAt" firestore:"createdAt,serverTimestamp"`
	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// Branch is a business location with its own review collection link.
type Branch struct {
	ID         string    `json:"id" firestore:"id"`
	Name       string    `json:"name" firestore:"name"`
	Address    string    `json:"address,omitempty" firestore:"address,omitempty"`
	City       string    `json:"city,omitempty" firestore:"city,omitempty"`
	Active     bool      `json:"active" firestore:"active"`
	ReviewLink string    `json:"reviewLink" firestore:"reviewLink"`
	CreatedAt  time.Time `json:"createdAt" firestore:"createdAt"`
}

// PlanPeriod is a closed stretch of time during which one plan (or the trial) applied.
type PlanPeriod struct {
	Plan   string    `json:"plan" firestore:"plan"`
	Kind   string    `json:"kind" firestore:"kind"` // "subscription" or "trial"
	Start  time.Time `json:"start" firestore:"start"`
	End    time.Time `json:"end" firestore:"end"`
	Reason string    `json:"reason,omitempty" firestore:"reason,omitempty"`
}

const (
	PeriodKindSubscription = "subscription"
	PeriodKindTrial        = "trial"

	// Why a period was closed.
	CloseElapsed   = "elapsed"
	CloseCancelled = "cancelled"
	CloseReplaced  = "replaced"
)

// AddonCredits are purchased entitlements kept separately from plan limits.
type AddonCredits struct {
	Reviews  int `json:"reviews" firestore:"reviews"`
	Branches int `json:"branches" firestore:"branches"`
}

// PeriodUsage counts reviews charged during the allowance window that started at PeriodStart.
type PeriodUsage struct {
	PeriodStart  time.Time `json:"periodStart" firestore:"periodStart"`
	PlanReviews  int       `json:"planReviews" firestore:"planReviews"`
	AddonReviews int       `json:"addonReviews" firestore:"addonReviews"`
}

// PlanLimits bound review volume per billing period and the number of branches.
// A ReviewLimit of 0 means unlimited.
type PlanLimits struct {
	ReviewLimit int `json:"reviewLimit" firestore:"reviewLimit" yaml:"reviewLimit"`
	MaxBranches int `json:"maxBranches" firestore:"maxBranches" yaml:"maxBranches"`
}

// BranchByID returns the branch with the given ID and its index, or -1.
func (b *Business) BranchByID(id string) (*Branch, int) {
	for i := range b.Branches {
		if b.Branches[i].ID == id {
			return &b.Branches[i], i
		}
	}
	return nil, -1
}

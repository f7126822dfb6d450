package models

import "time"

// Order is a payment order for a plan or an add-on ("payments" collection).
type Order struct {
	ID                string     `json:"id" firestore:"-"`
	BusinessUID       string     `json:"businessUid" firestore:"businessUid"`
	Kind              string     `json:"kind" firestore:"kind"` // "plan" or "addon"
	PlanID            string     `json:"planId,omitempty" firestore:"planId,omitempty"`
	Cycle             string     `json:"cycle,omitempty" firestore:"cycle,omitempty"`
	AddonID           string     `json:"addonId,omitempty" firestore:"addonId,omitempty"`
	Quantity          int        `json:"quantity,omitempty" firestore:"quantity,omitempty"`
	BaseAmount        float64    `json:"baseAmount" firestore:"baseAmount"`
	BaseCurrency      string     `json:"baseCurrency" firestore:"baseCurrency"`
	Amount            float64    `json:"amount" firestore:"amount"`
	Currency          string     `json:"currency" firestore:"currency"`
	Status            string     `json:"status" firestore:"status"`
	ProviderPaymentID string     `json:"providerPaymentId,omitempty" firestore:"providerPaymentId,omitempty"`
	FailureReason     string     `json:"failureReason,omitempty" firestore:"failureReason,omitempty"`
	CreatedAt         time.Time  `json:"createdAt" firestore:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt" firestore:"updatedAt"`
	FulfilledAt       *time.Time `json:"fulfilledAt,omitempty" firestore:"fulfilledAt,omitempty"`
}

const (
	OrderKindPlan  = "plan"
	OrderKindAddon = "addon"

	OrderStatusCreated   = "created"
	OrderStatusCaptured  = "captured"
	OrderStatusFulfilled = "fulfilled"
)

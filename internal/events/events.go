// Package events carries domain events from services to the notifier,
// either through RabbitMQ or in process.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	TypeBusinessRegistered = "business.registered"
	TypeReviewSubmitted    = "review.submitted"
	TypePaymentFulfilled   = "payment.fulfilled"
	TypeSupportRequested   = "support.requested"
	TypeDemoBooked         = "demo.booked"
)

// Event is the envelope written to the queue.
type Event struct {
	Type        string          `json:"type"`
	OccurredAt  time.Time       `json:"occurredAt"`
	BusinessUID string          `json:"businessUid,omitempty"`
	Payload     json.RawMessage `json:"payload"`
}

// New wraps payload in an envelope.
func New(eventType, businessUID string, payload interface{}, at time.Time) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}
	return Event{Type: eventType, OccurredAt: at.UTC(), BusinessUID: businessUID, Payload: raw}, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v interface{}) error {
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s payload: %w", e.Type, err)
	}
	return nil
}

// Publisher sends events somewhere. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Handler reacts to one event.
type Handler func(ctx context.Context, e Event) error

// Payloads.

type BusinessRegistered struct {
	BusinessName string    `json:"businessName"`
	OwnerEmail   string    `json:"ownerEmail"`
	Slug         string    `json:"slug"`
	TrialEndsAt  time.Time `json:"trialEndsAt"`
}

type ReviewSubmitted struct {
	ReviewID     string `json:"reviewId"`
	BusinessName string `json:"businessName"`
	OwnerEmail   string `json:"ownerEmail"`
	BranchName   string `json:"branchName"`
	Rating       int    `json:"rating"`
	Comment      string `json:"comment,omitempty"`
	CustomerName string `json:"customerName,omitempty"`
	ChargedTo    string `json:"chargedTo"`
}

type PaymentFulfilled struct {
	OrderID    string  `json:"orderId"`
	OwnerEmail string  `json:"ownerEmail"`
	Kind       string  `json:"kind"`
	PlanID     string  `json:"planId,omitempty"`
	AddonID    string  `json:"addonId,omitempty"`
	Quantity   int     `json:"quantity,omitempty"`
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
}

type SupportRequested struct {
	RequestID string `json:"requestId"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
}

type DemoBooked struct {
	BookingID   string    `json:"bookingId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Company     string    `json:"company,omitempty"`
	PreferredAt time.Time `json:"preferredAt"`
	Notes       string    `json:"notes,omitempty"`
}

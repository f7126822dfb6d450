package models

import "time"

// SupportRequest is a message sent to the support team ("support_requests").
type SupportRequest struct {
	ID          string    `json:"id" firestore:"-"`
	BusinessUID string    `json:"businessUid,omitempty" firestore:"businessUid,omitempty"`
	Name        string    `json:"name" firestore:"name"`
	Email       string    `json:"email" firestore:"email"`
	Subject     string    `json:"subject" firestore:"subject"`
	Message     string    `json:"message" firestore:"message"`
	Status      string    `json:"status" firestore:"status"` // "open", "in_progress", "resolved"
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt"`
}

const (
	SupportStatusOpen       = "open"
	SupportStatusInProgress = "in_progress"
	SupportStatusResolved   = "resolved"
)

// DemoBooking is a request for a product demo ("demoBookings").
type DemoBooking struct {
	ID          string    `json:"id" firestore:"-"`
	Name        string    `json:"name" firestore:"name"`
	Email       string    `json:"email" firestore:"email"`
	Phone       string    `json:"phone,omitempty" firestore:"phone,omitempty"`
	Company     string    `json:"company,omitempty" firestore:"company,omitempty"`
	PreferredAt time.Time `json:"preferredAt" firestore:"preferredAt"`
	Notes       string    `json:"notes,omitempty" firestore:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
}

// ChatMessage is one line of a chat widget transcript ("chat_messages").
type ChatMessage struct {
	ID        string    `json:"id" firestore:"-"`
	SessionID string    `json:"sessionId" firestore:"sessionId"`
	Sender    string    `json:"sender" firestore:"sender"` // "user", "bot", "agent"
	Text      string    `json:"text" firestore:"text"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

// ChatFeedback is the rating left at the end of a chat session ("chat_feedback").
type ChatFeedback struct {
	ID        string    `json:"id" firestore:"-"`
	SessionID string    `json:"sessionId" firestore:"sessionId"`
	Rating    int       `json:"rating" firestore:"rating"`
	Comment   string    `json:"comment,omitempty" firestore:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

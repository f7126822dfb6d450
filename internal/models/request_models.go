package models

import "time"

// RegisterBusinessRequest is the body of the business registration form.
type RegisterBusinessRequest struct {
	BusinessName string `json:"businessName" binding:"required,max=120"`
	Phone        string `json:"phone,omitempty" binding:"max=32"`
	Address      string `json:"address,omitempty" binding:"max=300"`
	Category     string `json:"category,omitempty" binding:"max=60"`
}

// UpdateBusinessRequest updates profile fields. Pointers distinguish "not provided" from "clear".
type UpdateBusinessRequest struct {
	BusinessName    *string `json:"businessName,omitempty" binding:"omitempty,min=1,max=120"`
	Phone           *string `json:"phone,omitempty" binding:"omitempty,max=32"`
	Address         *string `json:"address,omitempty" binding:"omitempty,max=300"`
	Category        *string `json:"category,omitempty" binding:"omitempty,max=60"`
	LogoURL         *string `json:"logoUrl,omitempty" binding:"omitempty,max=500"`
	GoogleReviewURL *string `json:"googleReviewUrl,omitempty" binding:"omitempty,max=500"`
}

// CreateBranchRequest adds a branch.
type CreateBranchRequest struct {
	Name    string `json:"name" binding:"required,max=120"`
	Address string `json:"address,omitempty" binding:"max=300"`
	City    string `json:"city,omitempty" binding:"max=80"`
}

// UpdateBranchRequest updates a branch.
type UpdateBranchRequest struct {
	Name    *string `json:"name,omitempty" binding:"omitempty,min=1,max=120"`
	Address *string `json:"address,omitempty" binding:"omitempty,max=300"`
	City    *string `json:"city,omitempty" binding:"omitempty,max=80"`
	Active  *bool   `json:"active,omitempty"`
}

// SubmitReviewRequest is posted by a customer from the public review form.
type SubmitReviewRequest struct {
	BranchID      string `json:"branchId,omitempty"`
	Rating        int    `json:"rating" binding:"required,min=1,max=5"`
	Comment       string `json:"comment,omitempty" binding:"max=2000"`
	CustomerName  string `json:"customerName,omitempty" binding:"max=120"`
	CustomerEmail string `json:"customerEmail,omitempty" binding:"omitempty,email"`
	CustomerPhone string `json:"customerPhone,omitempty" binding:"max=32"`
	Source        string `json:"source,omitempty" binding:"omitempty,oneof=link qr share"`
}

// ReplyReviewRequest is the owner's public reply to a review.
type ReplyReviewRequest struct {
	Reply string `json:"reply" binding:"required,max=2000"`
}

// CreateOrderRequest starts a checkout for a plan or an add-on.
type CreateOrderRequest struct {
	Kind     string `json:"kind" binding:"required,oneof=plan addon"`
	PlanID   string `json:"planId,omitempty"`
	Cycle    string `json:"cycle,omitempty" binding:"omitempty,oneof=monthly yearly"`
	AddonID  string `json:"addonId,omitempty"`
	Quantity int    `json:"quantity,omitempty" binding:"omitempty,min=1,max=100"`
	Currency string `json:"currency,omitempty" binding:"omitempty,len=3"`
}

// ConfirmPaymentRequest is sent after the payment provider reports success.
type ConfirmPaymentRequest struct {
	OrderID           string `json:"orderId" binding:"required"`
	ProviderPaymentID string `json:"providerPaymentId" binding:"required"`
	Signature         string `json:"signature" binding:"required"`
}

// SupportRequestInput is the body of the contact form.
type SupportRequestInput struct {
	Name    string `json:"name" binding:"required,max=120"`
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"required,max=200"`
	Message string `json:"message" binding:"required,max=5000"`
}

// UpdateSupportStatusRequest changes the state of a support request.
type UpdateSupportStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=open in_progress resolved"`
}

// DemoBookingRequest books a product demo.
type DemoBookingRequest struct {
	Name        string    `json:"name" binding:"required,max=120"`
	Email       string    `json:"email" binding:"required,email"`
	Phone       string    `json:"phone,omitempty" binding:"max=32"`
	Company     string    `json:"company,omitempty" binding:"max=120"`
	PreferredAt time.Time `json:"preferredAt" binding:"required"`
	Notes       string    `json:"notes,omitempty" binding:"max=2000"`
}

// ChatMessageRequest appends a line to a chat transcript. An empty SessionID
// starts a new session.
type ChatMessageRequest struct {
	SessionID string `json:"sessionId,omitempty" binding:"max=100"`
	Sender    string `json:"sender" binding:"required,oneof=user bot agent"`
	Text      string `json:"text" binding:"required,max=4000"`
}

// ChatFeedbackRequest rates a chat session.
type ChatFeedbackRequest struct {
	SessionID string `json:"sessionId" binding:"required,max=100"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment,omitempty" binding:"max=2000"`
}

// SetPlanRequest lets an admin grant a plan without payment.
type SetPlanRequest struct {
	PlanID string `json:"planId" binding:"required"`
	Days   int    `json:"days" binding:"required,min=1,max=3650"`
}

// SetLimitsRequest sets the per-business limits used by the custom plan.
type SetLimitsRequest struct {
	ReviewLimit int `json:"reviewLimit" binding:"min=0"`
	MaxBranches int `json:"maxBranches" binding:"required,min=1"`
}

// GrantCreditsRequest adds add-on credits to a business.
type GrantCreditsRequest struct {
	Kind     string `json:"kind" binding:"required,oneof=reviews branches"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
	Reason   string `json:"reason,omitempty" binding:"max=300"`
}

// UpdateSettingsRequest edits the platform settings document.
type UpdateSettingsRequest struct {
	TrialDays    *int    `json:"trialDays,omitempty" binding:"omitempty,min=0,max=365"`
	SupportEmail *string `json:"supportEmail,omitempty" binding:"omitempty,email"`
	ChatEnabled  *bool   `json:"chatEnabled,omitempty"`
}

// BusinessFilter narrows the admin business listing.
type BusinessFilter struct {
	Plan  string
	Limit int
}

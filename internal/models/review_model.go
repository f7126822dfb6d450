package models

import "time"

// Review is a customer review collected through a business or branch link.
type Review struct {
	ID            string     `json:"id" firestore:"-"`
	BusinessUID   string     `json:"businessUid" firestore:"businessUid"`
	BranchID      string     `json:"branchId" firestore:"branchId"`
	Rating        int        `json:"rating" firestore:"rating"`
	Comment       string     `json:"comment,omitempty" firestore:"comment,omitempty"`
	CustomerName  string     `json:"customerName,omitempty" firestore:"customerName,omitempty"`
	CustomerEmail string     `json:"customerEmail,omitempty" firestore:"customerEmail,omitempty"`
	CustomerPhone string     `json:"customerPhone,omitempty" firestore:"customerPhone,omitempty"`
	Source        string     `json:"source" firestore:"source"`       // "link", "qr", "share"
	ChargedTo     string     `json:"chargedTo" firestore:"chargedTo"` // "plan" or "addon"
	Reply         string     `json:"reply,omitempty" firestore:"reply,omitempty"`
	RepliedAt     *time.Time `json:"repliedAt,omitempty" firestore:"repliedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt" firestore:"createdAt"`
}

const (
	ChargedToPlan  = "plan"
	ChargedToAddon = "addon"
)

// ReviewFilter narrows a review listing. Zero values mean "no constraint".
type ReviewFilter struct {
	BranchID  string
	MinRating int
	Replied   *bool
	From      *time.Time // inclusive
	To        *time.Time // exclusive
	Limit     int
}

// ShareLink is a short link pointing at a branch review form ("sharable_links").
type ShareLink struct {
	ID          string    `json:"id" firestore:"-"`
	BusinessUID string    `json:"businessUid" firestore:"businessUid"`
	Slug        string    `json:"slug" firestore:"slug"`
	BranchID    string    `json:"branchId" firestore:"branchId"`
	Clicks      int       `json:"clicks" firestore:"clicks"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
}

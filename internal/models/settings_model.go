package models

import "time"

// PlatformSettings is the "settings/platform" document edited by admins.
type PlatformSettings struct {
	TrialDays    int       `json:"trialDays" firestore:"trialDays"`
	SupportEmail string    `json:"supportEmail" firestore:"supportEmail"`
	ChatEnabled  bool      `json:"chatEnabled" firestore:"chatEnabled"`
	UpdatedAt    time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// AdminRoles is the "admin/roles" document listing UIDs with admin access.
type AdminRoles struct {
	UIDs []string `json:"uids" firestore:"uids"`
}

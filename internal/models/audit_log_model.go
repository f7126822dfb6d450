package models

import "time"

// AuditLog represents an audit trail event.
type AuditLog struct {
	ID         string                 `json:"id" firestore:"-"`
	Timestamp  time.Time              `json:"timestamp" firestore:"timestamp,serverTimestamp"`
	ActorUID   string                 `json:"actorUid" firestore:"actorUid"` // Who performed the action
	Action     string                 `json:"action" firestore:"action"`     // e.g. "PLAN_ACTIVATE", "CREDITS_GRANT"
	TargetType string                 `json:"targetType,omitempty" firestore:"targetType,omitempty"`
	TargetID   string                 `json:"targetId,omitempty" firestore:"targetId,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty" firestore:"details,omitempty"`
}

package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"reviewly-backend-go/internal/models"
)

const auditLogsCollection = "audit_logs"

type firestoreAuditRepository struct {
	client *firestore.Client
}

// NewFirestoreAuditRepository creates an AuditRepository backed by "audit_logs".
func NewFirestoreAuditRepository(client *firestore.Client) AuditRepository {
	return &firestoreAuditRepository{client: client}
}

// Create adds an entry. Timestamp is set by the server.
func (r *firestoreAuditRepository) Create(ctx context.Context, entry models.AuditLog) error {
	if _, _, err := r.client.Collection(auditLogsCollection).Add(ctx, entry); err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *firestoreAuditRepository) ListByTarget(ctx context.Context, targetType, targetID string, limit int) ([]*models.AuditLog, error) {
	q := r.client.Collection(auditLogsCollection).
		Where("targetType", "==", targetType).
		Where("targetId", "==", targetID).
		OrderBy("timestamp", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}
	out, err := collect(q.Documents(ctx), func(e *models.AuditLog, id string) { e.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs for %s '%s': %w", targetType, targetID, err)
	}
	return out, nil
}

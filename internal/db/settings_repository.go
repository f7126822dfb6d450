package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"reviewly-backend-go/internal/models"
)

type firestoreSettingsRepository struct {
	client *firestore.Client
}

// NewFirestoreSettingsRepository reads "settings/platform" and "admin/roles".
func NewFirestoreSettingsRepository(client *firestore.Client) SettingsRepository {
	return &firestoreSettingsRepository{client: client}
}

func (r *firestoreSettingsRepository) GetPlatform(ctx context.Context) (*models.PlatformSettings, error) {
	snap, err := r.client.Collection("settings").Doc("platform").Get(ctx)
	if err != nil {
		return nil, notFound(err, "settings", "platform")
	}
	var s models.PlatformSettings
	if err := snap.DataTo(&s); err != nil {
		return nil, fmt.Errorf("failed to decode platform settings: %w", err)
	}
	return &s, nil
}

func (r *firestoreSettingsRepository) SavePlatform(ctx context.Context, s *models.PlatformSettings) error {
	if _, err := r.client.Collection("settings").Doc("platform").Set(ctx, s); err != nil {
		return fmt.Errorf("failed to save platform settings: %w", err)
	}
	return nil
}

func (r *firestoreSettingsRepository) GetAdminRoles(ctx context.Context) (*models.AdminRoles, error) {
	snap, err := r.client.Collection("admin").Doc("roles").Get(ctx)
	if err != nil {
		return nil, notFound(err, "admin", "roles")
	}
	var roles models.AdminRoles
	if err := snap.DataTo(&roles); err != nil {
		return nil, fmt.Errorf("failed to decode admin roles: %w", err)
	}
	return &roles, nil
}

package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reviewly-backend-go/internal/db"
	"reviewly-backend-go/internal/models"
)

// SettingsService reads and edits the platform settings document. Until an
// admin saves settings, defaults come from configuration.
type SettingsService struct {
	repo     db.SettingsRepository
	audit    *AuditService
	defaults models.PlatformSettings
	now      func() time.Time
}

func NewSettingsService(repo db.SettingsRepository, audit *AuditService, opts Options, now func() time.Time) *SettingsService {
	return &SettingsService{
		repo:  repo,
		audit: audit,
		defaults: models.PlatformSettings{
			TrialDays:    opts.TrialDays,
			SupportEmail: opts.SupportEmail,
			ChatEnabled:  true,
		},
		now: now,
	}
}

// Get returns the stored settings or the configured defaults.
func (s *SettingsService) Get(ctx context.Context) (*models.PlatformSettings, error) {
	stored, err := s.repo.GetPlatform(ctx)
	if errors.Is(err, db.ErrNotFound) {
		d := s.defaults
		return &d, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load platform settings: %w", err)
	}
	return stored, nil
}

// Update applies the provided fields and saves the document.
func (s *SettingsService) Update(ctx context.Context, actor string, req models.UpdateSettingsRequest) (*models.PlatformSettings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	changes := map[string]interface{}{}
	if req.TrialDays != nil {
		if *req.TrialDays < 0 {
			return nil, fmt.Errorf("%w: trialDays cannot be negative", ErrInvalidInput)
		}
		current.TrialDays = *req.TrialDays
		changes["trialDays"] = *req.TrialDays
	}
	if req.SupportEmail != nil {
		current.SupportEmail = *req.SupportEmail
		changes["supportEmail"] = *req.SupportEmail
	}
	if req.ChatEnabled != nil {
		current.ChatEnabled = *req.ChatEnabled
		changes["chatEnabled"] = *req.ChatEnabled
	}
	current.UpdatedAt = s.now()

	if err := s.repo.SavePlatform(ctx, current); err != nil {
		return nil, fmt.Errorf("failed to save platform settings: %w", err)
	}
	s.audit.Record(ctx, actor, ActionSettingsUpdate, TargetSettings, "platform", changes)
	return current, nil
}

// AdminUIDs returns the UIDs listed in admin/roles, or none if the document is missing.
func (s *SettingsService) AdminUIDs(ctx context.Context) ([]string, error) {
	roles, err := s.repo.GetAdminRoles(ctx)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load admin roles: %w", err)
	}
	return roles.UIDs, nil
}

package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reviewly-backend-go/internal/db"
	"reviewly-backend-go/internal/events"
	"reviewly-backend-go/internal/models"
)

// SupportService handles contact requests, demo bookings and the chat widget.
type SupportService struct {
	repo      db.SupportRepository
	settings  *SettingsService
	audit     *AuditService
	publisher events.Publisher
	now       func() time.Time
	logger    *zap.Logger
}

func NewSupportService(repo db.SupportRepository, settings *SettingsService, audit *AuditService, publisher events.Publisher, now func() time.Time, logger *zap.Logger) *SupportService {
	return &SupportService{repo: repo, settings: settings, audit: audit, publisher: publisher, now: now, logger: logger}
}

// CreateRequest stores a contact form submission. uid is empty for
// anonymous visitors.
func (s *SupportService) CreateRequest(ctx context.Context, uid string, in models.SupportRequestInput) (*models.SupportRequest, error) {
	if strings.TrimSpace(in.Subject) == "" || strings.TrimSpace(in.Message) == "" {
		return nil, fmt.Errorf("%w: subject and message are required", ErrInvalidInput)
	}
	now := s.now()
	r := &models.SupportRequest{
		BusinessUID: uid,
		Name:        strings.TrimSpace(in.Name),
		Email:       strings.TrimSpace(in.Email),
		Subject:     strings.TrimSpace(in.Subject),
		Message:     strings.TrimSpace(in.Message),
		Status:      models.SupportStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := s.repo.CreateRequest(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to store support request: %w", err)
	}
	r.ID = id
	publish(ctx, s.publisher, s.logger, events.TypeSupportRequested, uid, events.SupportRequested{
		RequestID: id, Name: r.Name, Email: r.Email, Subject: r.Subject, Message: r.Message,
	}, now)
	return r, nil
}

// ListRequests returns support requests, optionally narrowed to one status.
func (s *SupportService) ListRequests(ctx context.Context, status string) ([]*models.SupportRequest, error) {
	if status != "" && !validSupportStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.repo.ListRequests(ctx, status)
}

// UpdateStatus moves a support request to status.
func (s *SupportService) UpdateStatus(ctx context.Context, actor, id, status string) (*models.SupportRequest, error) {
	if !validSupportStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	r, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: '%s'", ErrSupportNotFound, id)
		}
		return nil, err
	}
	now := s.now()
	if err := s.repo.UpdateRequestStatus(ctx, id, status, now); err != nil {
		return nil, fmt.Errorf("failed to update support request '%s': %w", id, err)
	}
	s.audit.Record(ctx, actor, ActionSupportStatus, TargetSupport, id, map[string]interface{}{
		"from": r.Status, "to": status,
	})
	r.Status, r.UpdatedAt = status, now
	return r, nil
}

func validSupportStatus(status string) bool {
	switch status {
	case models.SupportStatusOpen, models.SupportStatusInProgress, models.SupportStatusResolved:
		return true
	}
	return false
}

// BookDemo stores a demo request for a future date.
func (s *SupportService) BookDemo(ctx context.Context, req models.DemoBookingRequest) (*models.DemoBooking, error) {
	now := s.now()
	if !req.PreferredAt.After(now) {
		return nil, fmt.Errorf("%w: preferred time must be in the future", ErrInvalidInput)
	}
	d := &models.DemoBooking{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Phone:       req.Phone,
		Company:     req.Company,
		PreferredAt: req.PreferredAt.UTC(),
		Notes:       req.Notes,
		CreatedAt:   now,
	}
	id, err := s.repo.CreateDemoBooking(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("failed to store demo booking: %w", err)
	}
	d.ID = id
	publish(ctx, s.publisher, s.logger, events.TypeDemoBooked, "", events.DemoBooked{
		BookingID: id, Name: d.Name, Email: d.Email, Company: d.Company,
		PreferredAt: d.PreferredAt, Notes: d.Notes,
	}, now)
	return d, nil
}

func (s *SupportService) ListDemoBookings(ctx context.Context) ([]*models.DemoBooking, error) {
	return s.repo.ListDemoBookings(ctx)
}

// SaveChatMessage appends to a chat transcript while chat is enabled. Session
// IDs are issued here on the first message; a message naming an unknown
// session is rejected.
func (s *SupportService) SaveChatMessage(ctx context.Context, req models.ChatMessageRequest) (*models.ChatMessage, error) {
	if err := s.chatEnabled(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: message text is required", ErrInvalidInput)
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else if _, err := s.ChatTranscript(ctx, sessionID); err != nil {
		return nil, err
	}
	m := &models.ChatMessage{SessionID: sessionID, Sender: req.Sender, Text: req.Text, CreatedAt: s.now()}
	id, err := s.repo.AddChatMessage(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("failed to store chat message: %w", err)
	}
	m.ID = id
	return m, nil
}

// ChatTranscript returns a session's messages oldest first.
func (s *SupportService) ChatTranscript(ctx context.Context, sessionID string) ([]*models.ChatMessage, error) {
	msgs, err := s.repo.ListChatMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat session '%s': %w", sessionID, err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("%w: '%s'", ErrChatSessionNotFound, sessionID)
	}
	return msgs, nil
}

func (s *SupportService) SubmitChatFeedback(ctx context.Context, req models.ChatFeedbackRequest) (*models.ChatFeedback, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	if _, err := s.ChatTranscript(ctx, req.SessionID); err != nil {
		return nil, err
	}
	f := &models.ChatFeedback{SessionID: req.SessionID, Rating: req.Rating, Comment: req.Comment, CreatedAt: s.now()}
	id, err := s.repo.CreateChatFeedback(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to store chat feedback: %w", err)
	}
	f.ID = id
	return f, nil
}

func (s *SupportService) chatEnabled(ctx context.Context) error {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return err
	}
	if !settings.ChatEnabled {
		return ErrChatDisabled
	}
	return nil
}

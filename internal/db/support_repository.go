package db

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"reviewly-backend-go/internal/models"
)

const (
	supportRequestsCollection = "support_requests"
	demoBookingsCollection    = "demoBookings"
	chatMessagesCollection    = "chat_messages"
	chatFeedbackCollection    = "chat_feedback"
)

type firestoreSupportRepository struct {
	client *firestore.Client
}

// NewFirestoreSupportRepository creates a SupportRepository over the support collections.
func NewFirestoreSupportRepository(client *firestore.Client) SupportRepository {
	return &firestoreSupportRepository{client: client}
}

func (r *firestoreSupportRepository) add(ctx context.Context, collection string, data interface{}) (string, error) {
	ref := r.client.Collection(collection).NewDoc()
	if _, err := ref.Create(ctx, data); err != nil {
		return "", fmt.Errorf("failed to create %s document: %w", collection, err)
	}
	return ref.ID, nil
}

func (r *firestoreSupportRepository) CreateRequest(ctx context.Context, req *models.SupportRequest) (string, error) {
	id, err := r.add(ctx, supportRequestsCollection, req)
	if err != nil {
		return "", err
	}
	req.ID = id
	return id, nil
}

func (r *firestoreSupportRepository) GetRequest(ctx context.Context, id string) (*models.SupportRequest, error) {
	snap, err := r.client.Collection(supportRequestsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, notFound(err, "support request", id)
	}
	var req models.SupportRequest
	if err := snap.DataTo(&req); err != nil {
		return nil, fmt.Errorf("failed to decode support request '%s': %w", id, err)
	}
	req.ID = snap.Ref.ID
	return &req, nil
}

func (r *firestoreSupportRepository) UpdateRequestStatus(ctx context.Context, id, st string, at time.Time) error {
	_, err := r.client.Collection(supportRequestsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: st},
		{Path: "updatedAt", Value: at},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("support request '%s': %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to update support request '%s': %w", id, err)
	}
	return nil
}

func (r *firestoreSupportRepository) ListRequests(ctx context.Context, st string) ([]*models.SupportRequest, error) {
	q := r.client.Collection(supportRequestsCollection).Query
	if st != "" {
		q = q.Where("status", "==", st)
	} else {
		q = q.OrderBy("createdAt", firestore.Desc)
	}
	out, err := collect(q.Documents(ctx), func(req *models.SupportRequest, id string) { req.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to list support requests: %w", err)
	}
	return out, nil
}

func (r *firestoreSupportRepository) CreateDemoBooking(ctx context.Context, d *models.DemoBooking) (string, error) {
	id, err := r.add(ctx, demoBookingsCollection, d)
	if err != nil {
		return "", err
	}
	d.ID = id
	return id, nil
}

func (r *firestoreSupportRepository) ListDemoBookings(ctx context.Context) ([]*models.DemoBooking, error) {
	q := r.client.Collection(demoBookingsCollection).OrderBy("createdAt", firestore.Desc)
	out, err := collect(q.Documents(ctx), func(d *models.DemoBooking, id string) { d.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to list demo bookings: %w", err)
	}
	return out, nil
}

func (r *firestoreSupportRepository) AddChatMessage(ctx context.Context, m *models.ChatMessage) (string, error) {
	id, err := r.add(ctx, chatMessagesCollection, m)
	if err != nil {
		return "", err
	}
	m.ID = id
	return id, nil
}

func (r *firestoreSupportRepository) ListChatMessages(ctx context.Context, sessionID string) ([]*models.ChatMessage, error) {
	q := r.client.Collection(chatMessagesCollection).
		Where("sessionId", "==", sessionID).
		OrderBy("createdAt", firestore.Asc)
	out, err := collect(q.Documents(ctx), func(m *models.ChatMessage, id string) { m.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages for session '%s': %w", sessionID, err)
	}
	return out, nil
}

func (r *firestoreSupportRepository) CreateChatFeedback(ctx context.Context, f *models.ChatFeedback) (string, error) {
	id, err := r.add(ctx, chatFeedbackCollection, f)
	if err != nil {
		return "", err
	}
	f.ID = id
	return id, nil
}

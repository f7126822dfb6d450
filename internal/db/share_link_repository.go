package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"reviewly-backend-go/internal/models"
)

const shareLinksCollection = "sharable_links"

type firestoreShareLinkRepository struct {
	client *firestore.Client
}

// NewFirestoreShareLinkRepository creates a ShareLinkRepository backed by "sharable_links".
func NewFirestoreShareLinkRepository(client *firestore.Client) ShareLinkRepository {
	return &firestoreShareLinkRepository{client: client}
}

func (r *firestoreShareLinkRepository) Create(ctx context.Context, l *models.ShareLink) (string, error) {
	ref := r.client.Collection(shareLinksCollection).NewDoc()
	l.ID = ref.ID
	if _, err := ref.Create(ctx, l); err != nil {
		return "", fmt.Errorf("failed to create share link: %w", err)
	}
	return ref.ID, nil
}

func (r *firestoreShareLinkRepository) Get(ctx context.Context, id string) (*models.ShareLink, error) {
	snap, err := r.client.Collection(shareLinksCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, notFound(err, "share link", id)
	}
	var l models.ShareLink
	if err := snap.DataTo(&l); err != nil {
		return nil, fmt.Errorf("failed to decode share link '%s': %w", id, err)
	}
	l.ID = snap.Ref.ID
	return &l, nil
}

func (r *firestoreShareLinkRepository) IncrementClicks(ctx context.Context, id string) error {
	_, err := r.client.Collection(shareLinksCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "clicks", Value: firestore.Increment(1)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("share link '%s': %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to count click on share link '%s': %w", id, err)
	}
	return nil
}

func (r *firestoreShareLinkRepository) ListByBusiness(ctx context.Context, uid string) ([]*models.ShareLink, error) {
	q := r.client.Collection(shareLinksCollection).Where("businessUid", "==", uid)
	out, err := collect(q.Documents(ctx), func(l *models.ShareLink, id string) { l.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to list share links for business '%s': %w", uid, err)
	}
	return out, nil
}

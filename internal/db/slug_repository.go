package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const slugsCollection = "slug_to_uid"

type slugDoc struct {
	UID string `firestore:"uid"`
}

type firestoreSlugRepository struct {
	client *firestore.Client
}

// NewFirestoreSlugRepository creates a SlugRepository backed by "slug_to_uid".
func NewFirestoreSlugRepository(client *firestore.Client) SlugRepository {
	return &firestoreSlugRepository{client: client}
}

func (r *firestoreSlugRepository) Reserve(ctx context.Context, slug, uid string) error {
	_, err := r.client.Collection(slugsCollection).Doc(slug).Create(ctx, slugDoc{UID: uid})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("slug '%s': %w", slug, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to reserve slug '%s': %w", slug, err)
	}
	return nil
}

func (r *firestoreSlugRepository) Resolve(ctx context.Context, slug string) (string, error) {
	snap, err := r.client.Collection(slugsCollection).Doc(slug).Get(ctx)
	if err != nil {
		return "", notFound(err, "slug", slug)
	}
	var d slugDoc
	if err := snap.DataTo(&d); err != nil {
		return "", fmt.Errorf("failed to decode slug '%s': %w", slug, err)
	}
	return d.UID, nil
}

func (r *firestoreSlugRepository) Release(ctx context.Context, slug string) error {
	if _, err := r.client.Collection(slugsCollection).Doc(slug).Delete(ctx); err != nil {
		return fmt.Errorf("failed to release slug '%s': %w", slug, err)
	}
	return nil
}

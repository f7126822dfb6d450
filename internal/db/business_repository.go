package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"reviewly-backend-go/internal/models"
)

const usersCollection = "users"

type firestoreBusinessRepository struct {
	client *firestore.Client
}

// NewFirestoreBusinessRepository creates a BusinessRepository backed by the "users" collection.
func NewFirestoreBusinessRepository(client *firestore.Client) BusinessRepository {
	return &firestoreBusinessRepository{client: client}
}

// Create adds a business document keyed by the Firebase Auth UID.
func (r *firestoreBusinessRepository) Create(ctx context.Context, b *models.Business) error {
	if b.UID == "" {
		return errors.New("business UID cannot be empty for Create operation")
	}
	if _, err := r.client.Collection(usersCollection).Doc(b.UID).Create(ctx, b); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("business '%s': %w", b.UID, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create business '%s': %w", b.UID, err)
	}
	return nil
}

func (r *firestoreBusinessRepository) Get(ctx context.Context, uid string) (*models.Business, error) {
	snap, err := r.client.Collection(usersCollection).Doc(uid).Get(ctx)
	if err != nil {
		return nil, notFound(err, "business", uid)
	}
	return decodeBusiness(snap)
}

// Mutate runs fn inside a Firestore transaction. UpdatedAt is cleared so the
// serverTimestamp tag stamps the write.
func (r *firestoreBusinessRepository) Mutate(ctx context.Context, uid string, fn BusinessMutation) (*models.Business, error) {
	ref := r.client.Collection(usersCollection).Doc(uid)
	var result *models.Business
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return notFound(err, "business", uid)
		}
		b, err := decodeBusiness(snap)
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
		b.UpdatedAt = time.Time{}
		if err := tx.Set(ref, b); err != nil {
			return err
		}
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *firestoreBusinessRepository) List(ctx context.Context, filter models.BusinessFilter) ([]*models.Business, error) {
	q := r.client.Collection(usersCollection).Query
	if filter.Plan != "" {
		q = q.Where("plan", "==", filter.Plan)
	} else {
		q = q.OrderBy("createdAt", firestore.Desc)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	out, err := collect(q.Documents(ctx), func(b *models.Business, id string) { b.UID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses: %w", err)
	}
	return out, nil
}

func decodeBusiness(snap *firestore.DocumentSnapshot) (*models.Business, error) {
	var b models.Business
	if err := snap.DataTo(&b); err != nil {
		return nil, fmt.Errorf("failed to decode business '%s': %w", snap.Ref.ID, err)
	}
	b.UID = snap.Ref.ID
	return &b, nil
}

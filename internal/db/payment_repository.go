package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"reviewly-backend-go/internal/models"
)

const paymentsCollection = "payments"

type firestorePaymentRepository struct {
	client *firestore.Client
}

// NewFirestorePaymentRepository creates a PaymentRepository backed by "payments".
func NewFirestorePaymentRepository(client *firestore.Client) PaymentRepository {
	return &firestorePaymentRepository{client: client}
}

func (r *firestorePaymentRepository) Create(ctx context.Context, o *models.Order) (string, error) {
	ref := r.client.Collection(paymentsCollection).NewDoc()
	o.ID = ref.ID
	if _, err := ref.Create(ctx, o); err != nil {
		return "", fmt.Errorf("failed to create order: %w", err)
	}
	return ref.ID, nil
}

func (r *firestorePaymentRepository) Get(ctx context.Context, id string) (*models.Order, error) {
	snap, err := r.client.Collection(paymentsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	return decodeOrder(snap)
}

func (r *firestorePaymentRepository) Mutate(ctx context.Context, id string, fn OrderMutation) (*models.Order, error) {
	ref := r.client.Collection(paymentsCollection).Doc(id)
	var result *models.Order
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return notFound(err, "order", id)
		}
		o, err := decodeOrder(snap)
		if err != nil {
			return err
		}
		if err := fn(o); err != nil {
			return err
		}
		if err := tx.Set(ref, o); err != nil {
			return err
		}
		result = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *firestorePaymentRepository) ListByStatus(ctx context.Context, status string) ([]*models.Order, error) {
	q := r.client.Collection(paymentsCollection).Where("status", "==", status)
	out, err := collect(q.Documents(ctx), func(o *models.Order, id string) { o.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to list %s orders: %w", status, err)
	}
	return out, nil
}

func (r *firestorePaymentRepository) ListByBusiness(ctx context.Context, uid string) ([]*models.Order, error) {
	q := r.client.Collection(paymentsCollection).
		Where("businessUid", "==", uid).
		OrderBy("createdAt", firestore.Desc)
	out, err := collect(q.Documents(ctx), func(o *models.Order, id string) { o.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for business '%s': %w", uid, err)
	}
	return out, nil
}

func decodeOrder(snap *firestore.DocumentSnapshot) (*models.Order, error) {
	var o models.Order
	if err := snap.DataTo(&o); err != nil {
		return nil, fmt.Errorf("failed to decode order '%s': %w", snap.Ref.ID, err)
	}
	o.ID = snap.Ref.ID
	return &o, nil
}

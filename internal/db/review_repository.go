package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"

	"reviewly-backend-go/internal/models"
)

const reviewsCollection = "reviews"

type firestoreReviewRepository struct {
	client *firestore.Client
}

// NewFirestoreReviewRepository creates a ReviewRepository backed by "reviews".
func NewFirestoreReviewRepository(client *firestore.Client) ReviewRepository {
	return &firestoreReviewRepository{client: client}
}

func (r *firestoreReviewRepository) Create(ctx context.Context, review *models.Review) (string, error) {
	ref := r.client.Collection(reviewsCollection).NewDoc()
	review.ID = ref.ID
	if _, err := ref.Create(ctx, review); err != nil {
		return "", fmt.Errorf("failed to create review: %w", err)
	}
	return ref.ID, nil
}

func (r *firestoreReviewRepository) Get(ctx context.Context, id string) (*models.Review, error) {
	snap, err := r.client.Collection(reviewsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, notFound(err, "review", id)
	}
	var review models.Review
	if err := snap.DataTo(&review); err != nil {
		return nil, fmt.Errorf("failed to decode review '%s': %w", id, err)
	}
	review.ID = snap.Ref.ID
	return &review, nil
}

func (r *firestoreReviewRepository) Update(ctx context.Context, review *models.Review) error {
	if _, err := r.client.Collection(reviewsCollection).Doc(review.ID).Set(ctx, review); err != nil {
		return fmt.Errorf("failed to update review '%s': %w", review.ID, err)
	}
	return nil
}

func (r *firestoreReviewRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.client.Collection(reviewsCollection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete review '%s': %w", id, err)
	}
	return nil
}

// ListByBusiness pushes business, branch and date bounds into the query.
// Rating and reply filters are applied after decoding, so the limit is only
// pushed down when neither is set.
func (r *firestoreReviewRepository) ListByBusiness(ctx context.Context, uid string, filter models.ReviewFilter) ([]*models.Review, error) {
	q := r.client.Collection(reviewsCollection).Where("businessUid", "==", uid)
	if filter.BranchID != "" {
		q = q.Where("branchId", "==", filter.BranchID)
	}
	if filter.From != nil {
		q = q.Where("createdAt", ">=", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("createdAt", "<", *filter.To)
	}
	q = q.OrderBy("createdAt", firestore.Desc)

	postFilter := filter.MinRating > 0 || filter.Replied != nil
	if filter.Limit > 0 && !postFilter {
		q = q.Limit(filter.Limit)
	}

	all, err := collect(q.Documents(ctx), func(rv *models.Review, id string) { rv.ID = id })
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews for business '%s': %w", uid, err)
	}
	if !postFilter {
		return all, nil
	}
	return applyReviewFilter(all, filter), nil
}

// applyReviewFilter keeps reviews matching the in-memory parts of filter.
func applyReviewFilter(in []*models.Review, filter models.ReviewFilter) []*models.Review {
	out := make([]*models.Review, 0, len(in))
	for _, rv := range in {
		if !matchesReview(rv, filter) {
			continue
		}
		out = append(out, rv)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out
}

func matchesReview(rv *models.Review, filter models.ReviewFilter) bool {
	if filter.BranchID != "" && rv.BranchID != filter.BranchID {
		return false
	}
	if filter.MinRating > 0 && rv.Rating < filter.MinRating {
		return false
	}
	if filter.Replied != nil && (rv.Reply != "") != *filter.Replied {
		return false
	}
	if filter.From != nil && rv.CreatedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && !rv.CreatedAt.Before(*filter.To) {
		return false
	}
	return true
}

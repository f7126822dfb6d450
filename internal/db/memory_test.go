package db

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewly-backend-go/internal/models"
)

func TestMemoryBusiness_CreateGetMutate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Businesses

	b := &models.Business{UID: "u1", BusinessName: "Cafe", Branches: []models.Branch{{ID: "b1", Name: "Main"}}}
	require.NoError(t, repo.Create(ctx, b))
	assert.False(t, b.CreatedAt.IsZero())

	err := repo.Create(ctx, &models.Business{UID: "u1"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	got.Branches[0].Name = "changed outside"

	again, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Main", again.Branches[0].Name, "store must not share slices with callers")

	updated, err := repo.Mutate(ctx, "u1", func(b *models.Business) error {
		b.AddonCredits.Reviews += 5
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.AddonCredits.Reviews)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repo.Mutate(ctx, "missing", func(*models.Business) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryBusiness_MutateErrorAbortsWrite(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Businesses
	require.NoError(t, repo.Create(ctx, &models.Business{UID: "u1"}))

	boom := errors.New("boom")
	_, err := repo.Mutate(ctx, "u1", func(b *models.Business) error {
		b.AddonCredits.Reviews = 100
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, got.AddonCredits.Reviews)
}

func TestMemoryBusiness_ConcurrentMutate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Businesses
	require.NoError(t, repo.Create(ctx, &models.Business{UID: "u1"}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.Mutate(ctx, "u1", func(b *models.Business) error {
				b.Usage.PlanReviews++
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 50, got.Usage.PlanReviews)
}

func TestMemoryBusiness_List(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Businesses
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &models.Business{UID: "a", Plan: "starter", CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &models.Business{UID: "b", Plan: "trial", CreatedAt: base.Add(time.Hour)}))
	require.NoError(t, repo.Create(ctx, &models.Business{UID: "c", Plan: "starter", CreatedAt: base.Add(2 * time.Hour)}))

	all, err := repo.List(ctx, models.BusinessFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].UID)

	starters, err := repo.List(ctx, models.BusinessFilter{Plan: "starter", Limit: 1})
	require.NoError(t, err)
	require.Len(t, starters, 1)
	assert.Equal(t, "c", starters[0].UID)
}

func TestMemorySlugs(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Slugs

	require.NoError(t, repo.Reserve(ctx, "my-cafe", "u1"))
	assert.ErrorIs(t, repo.Reserve(ctx, "my-cafe", "u2"), ErrAlreadyExists)

	uid, err := repo.Resolve(ctx, "my-cafe")
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)

	require.NoError(t, repo.Release(ctx, "my-cafe"))
	_, err = repo.Resolve(ctx, "my-cafe")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReviews_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Reviews
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	seed := []models.Review{
		{BusinessUID: "u1", BranchID: "main", Rating: 5, CreatedAt: base, Reply: "thanks"},
		{BusinessUID: "u1", BranchID: "main", Rating: 2, CreatedAt: base.Add(time.Hour)},
		{BusinessUID: "u1", BranchID: "north", Rating: 4, CreatedAt: base.Add(2 * time.Hour)},
		{BusinessUID: "u2", BranchID: "main", Rating: 5, CreatedAt: base},
	}
	for i := range seed {
		_, err := repo.Create(ctx, &seed[i])
		require.NoError(t, err)
	}

	yes, no := true, false
	from := base.Add(time.Hour)
	tests := []struct {
		name   string
		filter models.ReviewFilter
		want   int
	}{
		{"all for business", models.ReviewFilter{}, 3},
		{"branch", models.ReviewFilter{BranchID: "main"}, 2},
		{"min rating", models.ReviewFilter{MinRating: 4}, 2},
		{"replied", models.ReviewFilter{Replied: &yes}, 1},
		{"not replied", models.ReviewFilter{Replied: &no}, 2},
		{"from", models.ReviewFilter{From: &from}, 2},
		{"to is exclusive", models.ReviewFilter{To: &from}, 1},
		{"limit", models.ReviewFilter{Limit: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.ListByBusiness(ctx, "u1", tt.filter)
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}

	newest, err := repo.ListByBusiness(ctx, "u1", models.ReviewFilter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, "north", newest[0].BranchID)
}

func TestMemoryPayments_MutateAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Payments
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	first := &models.Order{BusinessUID: "u1", Status: models.OrderStatusCreated, CreatedAt: base}
	second := &models.Order{BusinessUID: "u1", Status: models.OrderStatusCreated, CreatedAt: base.Add(time.Minute)}
	id, err := repo.Create(ctx, first)
	require.NoError(t, err)
	_, err = repo.Create(ctx, second)
	require.NoError(t, err)

	_, err = repo.Mutate(ctx, id, func(o *models.Order) error {
		o.Status = models.OrderStatusCaptured
		return nil
	})
	require.NoError(t, err)

	captured, err := repo.ListByStatus(ctx, models.OrderStatusCaptured)
	require.NoError(t, err)
	require.Len(t, captured, 1)
	assert.Equal(t, id, captured[0].ID)

	history, err := repo.ListByBusiness(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
}

func TestMemoryShareLinks(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().ShareLinks

	id, err := repo.Create(ctx, &models.ShareLink{BusinessUID: "u1", Slug: "cafe", BranchID: "b1"})
	require.NoError(t, err)
	require.NoError(t, repo.IncrementClicks(ctx, id))
	require.NoError(t, repo.IncrementClicks(ctx, id))

	l, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, l.Clicks)
	assert.ErrorIs(t, repo.IncrementClicks(ctx, "nope"), ErrNotFound)

	links, err := repo.ListByBusiness(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

func TestMemorySupport(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Support
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	id, err := repo.CreateRequest(ctx, &models.SupportRequest{Subject: "help", Status: models.SupportStatusOpen, CreatedAt: base})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateRequestStatus(ctx, id, models.SupportStatusResolved, base.Add(time.Hour)))
	assert.ErrorIs(t, repo.UpdateRequestStatus(ctx, "nope", models.SupportStatusResolved, base), ErrNotFound)

	open, err := repo.ListRequests(ctx, models.SupportStatusOpen)
	require.NoError(t, err)
	assert.Empty(t, open)
	all, err := repo.ListRequests(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = repo.AddChatMessage(ctx, &models.ChatMessage{SessionID: "s1", Text: "second", CreatedAt: base.Add(time.Second)})
	require.NoError(t, err)
	_, err = repo.AddChatMessage(ctx, &models.ChatMessage{SessionID: "s1", Text: "first", CreatedAt: base})
	require.NoError(t, err)
	_, err = repo.AddChatMessage(ctx, &models.ChatMessage{SessionID: "s2", Text: "other", CreatedAt: base})
	require.NoError(t, err)

	transcript, err := repo.ListChatMessages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, transcript, 2)
	assert.Equal(t, "first", transcript[0].Text)
}

func TestMemorySettings(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Settings.GetPlatform(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, store.Settings.SavePlatform(ctx, &models.PlatformSettings{TrialDays: 7}))
	s, err := store.Settings.GetPlatform(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, s.TrialDays)

	seeder, ok := store.Settings.(AdminRoleSeeder)
	require.True(t, ok)
	seeder.SetAdminRoles(models.AdminRoles{UIDs: []string{"root"}})
	roles, err := store.Settings.GetAdminRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"root"}, roles.UIDs)
}

func TestMemoryAudit_ListByTargetNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryStore().Audit

	require.NoError(t, repo.Create(ctx, models.AuditLog{Action: "A", TargetType: "business", TargetID: "u1"}))
	require.NoError(t, repo.Create(ctx, models.AuditLog{Action: "B", TargetType: "business", TargetID: "u1"}))
	require.NoError(t, repo.Create(ctx, models.AuditLog{Action: "C", TargetType: "business", TargetID: "u2"}))

	got, err := repo.ListByTarget(ctx, "business", "u1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "B", got[0].Action)
}

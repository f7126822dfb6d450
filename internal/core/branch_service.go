package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"reviewly-backend-go/internal/db"
	"reviewly-backend-go/internal/models"
	"reviewly-backend-go/internal/plans"
)

// ShareLinkView is a share link with its public URLs.
type ShareLinkView struct {
	*models.ShareLink
	URL        string `json:"url"`
	ReviewLink string `json:"reviewLink"`
}

// BranchService manages branches and their share links.
type BranchService struct {
	businesses db.BusinessRepository
	links      db.ShareLinkRepository
	catalog    *plans.Catalog
	profiles   *BusinessService
	baseURL    string
	now        func() time.Time
	logger     *zap.Logger
}

func NewBranchService(businesses db.BusinessRepository, links db.ShareLinkRepository, catalog *plans.Catalog, profiles *BusinessService, opts Options, now func() time.Time, logger *zap.Logger) *BranchService {
	return &BranchService{
		businesses: businesses,
		links:      links,
		catalog:    catalog,
		profiles:   profiles,
		baseURL:    opts.PublicBaseURL,
		now:        now,
		logger:     logger,
	}
}

// Capacity is the number of branches b may hold.
func (s *BranchService) Capacity(b *models.Business) int {
	return branchCapacity(s.catalog, b)
}

func branchCapacity(catalog *plans.Catalog, b *models.Business) int {
	return catalog.LimitsFor(b).MaxBranches + b.AddonCredits.Branches
}

// List returns every branch of the business.
func (s *BranchService) List(ctx context.Context, uid string) ([]models.Branch, error) {
	b, err := s.profiles.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	return b.Branches, nil
}

// Add creates a branch if capacity allows.
func (s *BranchService) Add(ctx context.Context, uid string, req models.CreateBranchRequest) (*models.Branch, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: branch name is required", ErrInvalidInput)
	}
	now := s.now()
	id := newID()
	b, err := s.businesses.Mutate(ctx, uid, func(b *models.Business) error {
		if capacity := branchCapacity(s.catalog, b); len(b.Branches) >= capacity {
			return fmt.Errorf("%w: %d of %d", ErrBranchLimitReached, len(b.Branches), capacity)
		}
		b.Branches = append(b.Branches, models.Branch{
			ID:         id,
			Name:       name,
			Address:    req.Address,
			City:       req.City,
			Active:     true,
			ReviewLink: reviewLink(s.baseURL, b.Slug, id),
			CreatedAt:  now,
		})
		return nil
	})
	if err != nil {
		return nil, wrapBusinessErr(err, uid)
	}
	br, _ := b.BranchByID(id)
	return br, nil
}

// Update edits a branch. The last active branch cannot be deactivated.
func (s *BranchService) Update(ctx context.Context, uid, branchID string, req models.UpdateBranchRequest) (*models.Branch, error) {
	b, err := s.businesses.Mutate(ctx, uid, func(b *models.Business) error {
		br, _ := b.BranchByID(branchID)
		if br == nil {
			return fmt.Errorf("%w: '%s'", ErrBranchNotFound, branchID)
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return fmt.Errorf("%w: branch name cannot be empty", ErrInvalidInput)
			}
			br.Name = name
		}
		if req.Address != nil {
			br.Address = *req.Address
		}
		if req.City != nil {
			br.City = *req.City
		}
		if req.Active != nil {
			if !*req.Active && br.Active && activeBranches(b) == 1 {
				return fmt.Errorf("%w active", ErrLastBranch)
			}
			br.Active = *req.Active
		}
		return nil
	})
	if err != nil {
		return nil, wrapBusinessErr(err, uid)
	}
	br, _ := b.BranchByID(branchID)
	return br, nil
}

// Remove deletes a branch. Reviews already collected for it are kept.
func (s *BranchService) Remove(ctx context.Context, uid, branchID string) error {
	_, err := s.businesses.Mutate(ctx, uid, func(b *models.Business) error {
		br, i := b.BranchByID(branchID)
		if br == nil {
			return fmt.Errorf("%w: '%s'", ErrBranchNotFound, branchID)
		}
		if len(b.Branches) == 1 || (br.Active && activeBranches(b) == 1) {
			return ErrLastBranch
		}
		b.Branches = append(b.Branches[:i], b.Branches[i+1:]...)
		return nil
	})
	return wrapBusinessErr(err, uid)
}

func activeBranches(b *models.Business) int {
	n := 0
	for _, br := range b.Branches {
		if br.Active {
			n++
		}
	}
	return n
}

// CreateShareLink stores a short link to an active branch's review form.
func (s *BranchService) CreateShareLink(ctx context.Context, uid, branchID string) (*ShareLinkView, error) {
	b, err := s.profiles.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	br, _ := b.BranchByID(branchID)
	if br == nil || !br.Active {
		return nil, fmt.Errorf("%w: '%s'", ErrBranchNotFound, branchID)
	}
	link := &models.ShareLink{
		BusinessUID: uid,
		Slug:        b.Slug,
		BranchID:    br.ID,
		CreatedAt:   s.now(),
	}
	id, err := s.links.Create(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("failed to create share link: %w", err)
	}
	link.ID = id
	return s.view(link), nil
}

// ListShareLinks returns the business's share links.
func (s *BranchService) ListShareLinks(ctx context.Context, uid string) ([]*ShareLinkView, error) {
	links, err := s.links.ListByBusiness(ctx, uid)
	if err != nil {
		return nil, err
	}
	views := make([]*ShareLinkView, 0, len(links))
	for _, l := range links {
		views = append(views, s.view(l))
	}
	return views, nil
}

// ResolveShareLink looks up a link and counts the click.
func (s *BranchService) ResolveShareLink(ctx context.Context, id string) (*ShareLinkView, error) {
	link, err := s.links.Get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: '%s'", ErrShareLinkNotFound, id)
		}
		return nil, err
	}
	if err := s.links.IncrementClicks(ctx, id); err != nil {
		s.logger.Warn("Failed to count share link click", zap.String("link_id", id), zap.Error(err))
	} else {
		link.Clicks++
	}
	return s.view(link), nil
}

func (s *BranchService) view(l *models.ShareLink) *ShareLinkView {
	return &ShareLinkView{
		ShareLink:  l,
		URL:        fmt.Sprintf("%s/s/%s", strings.TrimRight(s.baseURL, "/"), l.ID),
		ReviewLink: reviewLink(s.baseURL, l.Slug, l.BranchID),
	}
}

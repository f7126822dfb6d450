// Package plans holds the subscription plan and add-on catalog.
package plans

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"reviewly-backend-go/internal/models"
)

// Plan identifiers used by the built-in catalog.
const (
	TrialPlanID        = "trial"
	StarterPlanID      = "starter"
	ProfessionalPlanID = "professional"
	CustomPlanID       = "custom"
)

// Feature flags gated by plan.
const (
	FeatureReviewReplies   = "review_replies"
	FeatureAnalytics       = "analytics"
	FeatureCustomBranding  = "custom_branding"
	FeaturePrioritySupport = "priority_support"
)

// Billing cycles.
const (
	CycleMonthly = "monthly"
	CycleYearly  = "yearly"
)

// Add-on credit kinds.
const (
	CreditReviews  = "reviews"
	CreditBranches = "branches"
)

var (
	ErrUnknownPlan  = errors.New("unknown plan")
	ErrUnknownAddon = errors.New("unknown add-on")
	ErrUnknownCycle = errors.New("unknown billing cycle")
	ErrInvalidPlans = errors.New("invalid plan catalog")
)

// Plan is a named subscription tier.
type Plan struct {
	ID           string            `json:"id" yaml:"id"`
	Name         string            `json:"name" yaml:"name"`
	Limits       models.PlanLimits `json:"limits" yaml:"limits"`
	Features     []string          `json:"features" yaml:"features"`
	MonthlyPrice float64           `json:"monthlyPrice" yaml:"monthlyPrice"`
	YearlyPrice  float64           `json:"yearlyPrice" yaml:"yearlyPrice"`
	Purchasable  bool              `json:"purchasable" yaml:"purchasable"`
	// Custom plans take their limits from the business document when set.
	Custom bool `json:"custom" yaml:"custom"`
}

// HasFeature reports whether the plan includes the feature.
func (p Plan) HasFeature(feature string) bool {
	for _, f := range p.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// Price returns the plan price for a billing cycle in the catalog's base currency.
func (p Plan) Price(cycle string) (float64, error) {
	switch cycle {
	case CycleMonthly, "":
		return p.MonthlyPrice, nil
	case CycleYearly:
		return p.YearlyPrice, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCycle, cycle)
	}
}

// Addon is a purchasable unit entitlement.
type Addon struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind" yaml:"kind"` // CreditReviews or CreditBranches
	// UnitQuantity is the number of credits granted per unit bought.
	UnitQuantity int     `json:"unitQuantity" yaml:"unitQuantity"`
	Price        float64 `json:"price" yaml:"price"`
}

// CycleDuration returns the length of a billing cycle.
func CycleDuration(cycle string) (time.Duration, error) {
	switch cycle {
	case CycleMonthly, "":
		return 30 * 24 * time.Hour, nil
	case CycleYearly:
		return 365 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownCycle, cycle)
	}
}

// Catalog is an immutable set of plans and add-ons.
type Catalog struct {
	order  []string
	plans  map[string]Plan
	addons []Addon
}

type catalogFile struct {
	Plans  []Plan  `yaml:"plans"`
	Addons []Addon `yaml:"addons"`
}

// Default returns the built-in catalog. Prices are in INR.
func Default() *Catalog {
	c, err := newCatalog(catalogFile{
		Plans: []Plan{
			{
				ID: TrialPlanID, Name: "Free Trial",
				Limits:   models.PlanLimits{ReviewLimit: 50, MaxBranches: 1},
				Features: []string{FeatureReviewReplies},
			},
			{
				ID: StarterPlanID, Name: "Starter",
				Limits:       models.PlanLimits{ReviewLimit: 200, MaxBranches: 1},
				Features:     []string{FeatureReviewReplies},
				MonthlyPrice: 999, YearlyPrice: 9990, Purchasable: true,
			},
			{
				ID: ProfessionalPlanID, Name: "Professional",
				Limits:       models.PlanLimits{ReviewLimit: 1000, MaxBranches: 5},
				Features:     []string{FeatureReviewReplies, FeatureAnalytics, FeatureCustomBranding},
				MonthlyPrice: 2499, YearlyPrice: 24990, Purchasable: true,
			},
			{
				ID: CustomPlanID, Name: "Custom",
				Limits:   models.PlanLimits{ReviewLimit: 0, MaxBranches: 25},
				Features: []string{FeatureReviewReplies, FeatureAnalytics, FeatureCustomBranding, FeaturePrioritySupport},
				Custom:   true,
			},
		},
		Addons: []Addon{
			{ID: "review_pack", Name: "100 extra reviews", Kind: CreditReviews, UnitQuantity: 100, Price: 499},
			{ID: "extra_branch", Name: "Extra branch", Kind: CreditBranches, UnitQuantity: 1, Price: 299},
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlans, err)
	}
	return newCatalog(f)
}

func newCatalog(f catalogFile) (*Catalog, error) {
	c := &Catalog{plans: make(map[string]Plan, len(f.Plans))}
	for _, p := range f.Plans {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: plan without id", ErrInvalidPlans)
		}
		if _, dup := c.plans[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate plan %q", ErrInvalidPlans, p.ID)
		}
		if p.Limits.MaxBranches < 1 {
			return nil, fmt.Errorf("%w: plan %q must allow at least one branch", ErrInvalidPlans, p.ID)
		}
		c.plans[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	if _, ok := c.plans[TrialPlanID]; !ok {
		return nil, fmt.Errorf("%w: missing %q plan", ErrInvalidPlans, TrialPlanID)
	}
	seen := map[string]bool{}
	for _, a := range f.Addons {
		if a.ID == "" || seen[a.ID] {
			return nil, fmt.Errorf("%w: add-on id %q empty or duplicated", ErrInvalidPlans, a.ID)
		}
		if a.Kind != CreditReviews && a.Kind != CreditBranches {
			return nil, fmt.Errorf("%w: add-on %q has unknown kind %q", ErrInvalidPlans, a.ID, a.Kind)
		}
		if a.UnitQuantity < 1 {
			return nil, fmt.Errorf("%w: add-on %q must grant at least one credit", ErrInvalidPlans, a.ID)
		}
		seen[a.ID] = true
		c.addons = append(c.addons, a)
	}
	return c, nil
}

// Get returns a plan by ID.
func (c *Catalog) Get(id string) (Plan, error) {
	p, ok := c.plans[id]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", ErrUnknownPlan, id)
	}
	return p, nil
}

// All returns every plan in catalog order.
func (c *Catalog) All() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.plans[id])
	}
	return out
}

// Purchasable returns the plans that can be bought online, in catalog order.
func (c *Catalog) Purchasable() []Plan {
	var out []Plan
	for _, id := range c.order {
		if p := c.plans[id]; p.Purchasable {
			out = append(out, p)
		}
	}
	return out
}

// Addon returns an add-on by ID.
func (c *Catalog) Addon(id string) (Addon, error) {
	for _, a := range c.addons {
		if a.ID == id {
			return a, nil
		}
	}
	return Addon{}, fmt.Errorf("%w: %q", ErrUnknownAddon, id)
}

// Addons returns all add-ons.
func (c *Catalog) Addons() []Addon {
	return append([]Addon(nil), c.addons...)
}

// LimitsFor resolves the effective limits of a business on its current plan.
// Unknown plans fall back to the trial limits.
func (c *Catalog) LimitsFor(b *models.Business) models.PlanLimits {
	p, err := c.Get(b.Plan)
	if err != nil {
		return c.plans[TrialPlanID].Limits
	}
	if p.Custom && b.CustomLimits != nil {
		return *b.CustomLimits
	}
	return p.Limits
}

// PlanFor returns the business's plan, or the trial plan if it is unknown.
func (c *Catalog) PlanFor(b *models.Business) Plan {
	p, err := c.Get(b.Plan)
	if err != nil {
		return c.plans[TrialPlanID]
	}
	return p
}

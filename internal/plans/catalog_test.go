package plans

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewly-backend-go/internal/models"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	starter, err := c.Get(StarterPlanID)
	require.NoError(t, err)
	assert.Equal(t, 200, starter.Limits.ReviewLimit)
	assert.True(t, starter.HasFeature(FeatureReviewReplies))
	assert.False(t, starter.HasFeature(FeatureAnalytics))

	var ids []string
	for _, p := range c.Purchasable() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{StarterPlanID, ProfessionalPlanID}, ids)

	_, err = c.Get("gold")
	assert.ErrorIs(t, err, ErrUnknownPlan)

	pack, err := c.Addon("review_pack")
	require.NoError(t, err)
	assert.Equal(t, CreditReviews, pack.Kind)
	_, err = c.Addon("nope")
	assert.ErrorIs(t, err, ErrUnknownAddon)
}

func TestPlanPrice(t *testing.T) {
	p, err := Default().Get(ProfessionalPlanID)
	require.NoError(t, err)

	monthly, err := p.Price(CycleMonthly)
	require.NoError(t, err)
	assert.Equal(t, 2499.0, monthly)

	yearly, err := p.Price(CycleYearly)
	require.NoError(t, err)
	assert.Equal(t, 24990.0, yearly)

	_, err = p.Price("weekly")
	assert.ErrorIs(t, err, ErrUnknownCycle)
}

func TestCycleDuration(t *testing.T) {
	d, err := CycleDuration(CycleYearly)
	require.NoError(t, err)
	assert.Equal(t, 365*24*time.Hour, d)

	_, err = CycleDuration("decade")
	assert.ErrorIs(t, err, ErrUnknownCycle)
}

func TestLimitsFor(t *testing.T) {
	c := Default()

	tests := []struct {
		name     string
		business models.Business
		want     models.PlanLimits
	}{
		{
			name:     "starter plan",
			business: models.Business{Plan: StarterPlanID},
			want:     models.PlanLimits{ReviewLimit: 200, MaxBranches: 1},
		},
		{
			name:     "custom plan with business limits",
			business: models.Business{Plan: CustomPlanID, CustomLimits: &models.PlanLimits{ReviewLimit: 7000, MaxBranches: 40}},
			want:     models.PlanLimits{ReviewLimit: 7000, MaxBranches: 40},
		},
		{
			name:     "custom plan without business limits",
			business: models.Business{Plan: CustomPlanID},
			want:     models.PlanLimits{ReviewLimit: 0, MaxBranches: 25},
		},
		{
			name:     "unknown plan falls back to trial",
			business: models.Business{Plan: "legacy"},
			want:     models.PlanLimits{ReviewLimit: 50, MaxBranches: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.LimitsFor(&tt.business))
		})
	}
}

func TestLoadYAML(t *testing.T) {
	yamlDoc := `
plans:
  - id: trial
    name: Trial
    limits: {reviewLimit: 10, maxBranches: 1}
  - id: basic
    name: Basic
    limits: {reviewLimit: 100, maxBranches: 2}
    features: [review_replies]
    monthlyPrice: 10
    yearlyPrice: 100
    purchasable: true
addons:
  - id: pack
    name: Pack
    kind: reviews
    unitQuantity: 25
    price: 5
`
	path := filepath.Join(t.TempDir(), "plans.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	basic, err := c.Get("basic")
	require.NoError(t, err)
	assert.Equal(t, 2, basic.Limits.MaxBranches)
	assert.Len(t, c.Purchasable(), 1)
	assert.Len(t, c.Addons(), 1)
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	tests := map[string]string{
		"missing trial":  "plans:\n  - {id: basic, limits: {maxBranches: 1}}\n",
		"duplicate plan": "plans:\n  - {id: trial, limits: {maxBranches: 1}}\n  - {id: trial, limits: {maxBranches: 1}}\n",
		"zero branches":  "plans:\n  - {id: trial, limits: {maxBranches: 0}}\n",
		"bad addon kind": "plans:\n  - {id: trial, limits: {maxBranches: 1}}\naddons:\n  - {id: a, kind: minutes, unitQuantity: 1}\n",
		"malformed":      "plans: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidPlans)
		})
	}
}

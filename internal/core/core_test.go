package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"reviewly-backend-go/internal/crypto"
	"reviewly-backend-go/internal/db"
	"reviewly-backend-go/internal/events"
	"reviewly-backend-go/internal/geo"
	"reviewly-backend-go/internal/models"
	"reviewly-backend-go/internal/plans"
)

const testBaseURL = "https://reviewly.test"

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeRates quotes from INR to the listed currencies.
type fakeRates map[string]float64

func (f fakeRates) Rate(_ context.Context, from, to string) (float64, error) {
	if from == to {
		return 1, nil
	}
	r, ok := f[to]
	if !ok {
		return 0, geo.ErrUnknownCurrency
	}
	return r, nil
}

type fakeLocator map[string]string

func (f fakeLocator) Currency(_ context.Context, ip string) (string, error) {
	c, ok := f[ip]
	if !ok {
		return "", geo.ErrUnknownCurrency
	}
	return c, nil
}

type testEnv struct {
	svc    *Services
	store  *db.Store
	events *events.Recorder
	clock  *testClock
	signer *crypto.Signer
}

type envOption func(*envConfig)

type envConfig struct {
	catalog *plans.Catalog
	store   *db.Store
}

func withCatalog(c *plans.Catalog) envOption {
	return func(cfg *envConfig) { cfg.catalog = c }
}

func withStore(fn func(*db.Store)) envOption {
	return func(cfg *envConfig) { fn(cfg.store) }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	cfg := &envConfig{catalog: plans.Default(), store: db.NewMemoryStore()}
	for _, o := range opts {
		o(cfg)
	}
	signer, err := crypto.NewSigner("test-secret")
	require.NoError(t, err)

	clock := &testClock{now: t0}
	rec := &events.Recorder{}
	lookups := Lookups{
		Locator: fakeLocator{"203.0.113.7": "USD"},
		Rates:   fakeRates{"USD": 0.012},
	}
	svc := NewServices(cfg.store, cfg.catalog, signer, lookups, rec, Options{
		TrialDays:     14,
		PublicBaseURL: testBaseURL,
		BaseCurrency:  "INR",
		SupportEmail:  "support@reviewly.test",
		Now:           clock.Now,
	}, zaptest.NewLogger(t))
	return &testEnv{svc: svc, store: cfg.store, events: rec, clock: clock, signer: signer}
}

func (e *testEnv) register(t *testing.T, uid, name string) *models.Business {
	t.Helper()
	b, created, err := e.svc.Businesses.Register(context.Background(), uid, uid+"@owner.test", models.RegisterBusinessRequest{BusinessName: name})
	require.NoError(t, err)
	require.True(t, created)
	return b
}

func (e *testEnv) business(t *testing.T, uid string) *models.Business {
	t.Helper()
	b, err := e.store.Businesses.Get(context.Background(), uid)
	require.NoError(t, err)
	return b
}

// smallCatalog keeps limits low and leaves replies out of the trial.
func smallCatalog(t *testing.T) *plans.Catalog {
	t.Helper()
	c, err := plans.Parse([]byte(`
plans:
  - id: trial
    name: Trial
    limits: {reviewLimit: 2, maxBranches: 1}
  - id: starter
    name: Starter
    limits: {reviewLimit: 3, maxBranches: 2}
    features: [review_replies]
    monthlyPrice: 100
    yearlyPrice: 1000
    purchasable: true
addons:
  - id: review_pack
    name: Review pack
    kind: reviews
    unitQuantity: 10
    price: 50
`))
	require.NoError(t, err)
	return c
}

func ptr[T any](v T) *T { return &v }

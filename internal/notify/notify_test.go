package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"reviewly-backend-go/internal/events"
	"reviewly-backend-go/pkg/mailer"
)

type captureMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *captureMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

var at = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func event(t *testing.T, typ string, payload interface{}) events.Event {
	t.Helper()
	e, err := events.New(typ, "u1", payload, at)
	require.NoError(t, err)
	return e
}

func TestHandle_ReviewGoesToOwner(t *testing.T) {
	m := &captureMailer{}
	n := New(m, "support@reviewly.test", "https://reviewly.test/", zaptest.NewLogger(t))

	err := n.Handle(context.Background(), event(t, events.TypeReviewSubmitted, events.ReviewSubmitted{
		BusinessName: "My Cafe", OwnerEmail: "owner@cafe.test", BranchName: "Main",
		Rating: 4, Comment: "Great coffee", CustomerName: "Asha",
	}))
	require.NoError(t, err)
	require.Len(t, m.sent, 1)
	msg := m.sent[0]
	assert.Equal(t, "owner@cafe.test", msg.To)
	assert.Equal(t, "New 4-star review for My Cafe", msg.Subject)
	assert.Contains(t, msg.Text, "My Cafe received a new 4-star review at Main.")
	assert.Contains(t, msg.Text, `"Great coffee"`)
	assert.Contains(t, msg.Text, "From: Asha")
	assert.Contains(t, msg.Text, "https://reviewly.test/dashboard/reviews")
}

func TestCompose_SupportInbox(t *testing.T) {
	n := New(&captureMailer{}, "support@reviewly.test", "https://reviewly.test", zaptest.NewLogger(t))

	msg, ok, err := n.Compose(event(t, events.TypeSupportRequested, events.SupportRequested{
		Name: "Ravi", Email: "ravi@test.io", Subject: "Billing", Message: "Invoice missing",
	}))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "support@reviewly.test", msg.To)
	assert.Equal(t, "[Support] Billing", msg.Subject)
	assert.Contains(t, msg.Text, "Invoice missing")

	msg, ok, err = n.Compose(event(t, events.TypeDemoBooked, events.DemoBooked{
		Name: "Ravi", Email: "ravi@test.io", Company: "Ravi & Co", PreferredAt: at.Add(48 * time.Hour),
	}))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "Ravi & Co")
	assert.Contains(t, msg.Text, "Tue 3 Mar 2026 10:00 UTC")
}

func TestCompose_Other(t *testing.T) {
	n := New(&captureMailer{}, "", "https://reviewly.test", zaptest.NewLogger(t))

	msg, ok, err := n.Compose(event(t, events.TypeBusinessRegistered, events.BusinessRegistered{
		BusinessName: "My Cafe", OwnerEmail: "owner@cafe.test", Slug: "my-cafe", TrialEndsAt: at.Add(14 * 24 * time.Hour),
	}))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "https://reviewly.test/r/my-cafe")
	assert.Contains(t, msg.Text, "15 Mar 2026")

	msg, ok, err = n.Compose(event(t, events.TypePaymentFulfilled, events.PaymentFulfilled{
		OrderID: "o1", OwnerEmail: "owner@cafe.test", Kind: "addon", AddonID: "review_pack", Quantity: 2, Amount: 998, Currency: "INR",
	}))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, msg.Text, "998.00 INR")
	assert.Contains(t, msg.Text, "2 x review_pack")

	_, ok, err = n.Compose(event(t, events.TypeSupportRequested, events.SupportRequested{Subject: "x"}))
	require.NoError(t, err)
	assert.False(t, ok, "no support inbox configured")

	_, ok, err = n.Compose(events.Event{Type: "plan.expired"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = n.Compose(events.Event{Type: events.TypeReviewSubmitted, Payload: []byte(`{"rating":"five"}`)})
	assert.Error(t, err)
}

func TestHandle_SendError(t *testing.T) {
	n := New(&captureMailer{err: errors.New("relay down")}, "support@reviewly.test", "", zaptest.NewLogger(t))
	err := n.Handle(context.Background(), event(t, events.TypeSupportRequested, events.SupportRequested{Subject: "Help", Message: "m"}))
	assert.ErrorContains(t, err, "relay down")
}

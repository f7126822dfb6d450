package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reviewly-backend-go/internal/db"
	"reviewly-backend-go/internal/events"
)

func isNotFound(err error) bool {
	return errors.Is(err, db.ErrNotFound)
}

// round2 rounds a money amount to two decimals.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// reviewLink is the public review form URL of one branch.
func reviewLink(baseURL, slug, branchID string) string {
	return fmt.Sprintf("%s/r/%s?branch=%s", strings.TrimRight(baseURL, "/"), url.PathEscape(slug), url.QueryEscape(branchID))
}

func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// publish sends an event and logs, rather than returns, any failure.
func publish(ctx context.Context, p events.Publisher, logger *zap.Logger, eventType, uid string, payload interface{}, at time.Time) {
	e, err := events.New(eventType, uid, payload, at)
	if err == nil {
		err = p.Publish(ctx, e)
	}
	if err != nil {
		logger.Warn("Failed to publish event", zap.String("type", eventType), zap.String("uid", uid), zap.Error(err))
	}
}

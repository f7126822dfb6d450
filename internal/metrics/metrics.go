package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewly_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reviewly_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ReviewsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviews_submitted_total",
			Help: "Reviews accepted, by what they were charged to",
		},
		[]string{"charged_to"},
	)

	ReviewsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviews_rejected_total",
			Help: "Review submissions refused, by reason",
		},
		[]string{"reason"},
	)

	CreditsChanged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "credits_changed_total",
			Help: "Add-on credit units granted or consumed",
		},
		[]string{"kind", "direction"},
	)

	Payments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payment order transitions by resulting status",
		},
		[]string{"status"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Domain events published, by type and outcome",
		},
		[]string{"type", "outcome"},
	)
)

const (
	DirectionGranted  = "granted"
	DirectionConsumed = "consumed"
	DirectionRefunded = "refunded"
)

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request latency in seconds, labelled by route pattern
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sitetrack_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	// One sample per CDN upload attempt
	MediaUploadAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitetrack_media_upload_attempts_total",
			Help: "Media upload attempts by resource type and outcome",
		},
		[]string{"resource_type", "outcome"}, // outcome: success, retry, failed
	)

	// Open live subscriptions
	LiveSubscriptions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sitetrack_live_subscriptions",
			Help: "Number of open live subscriptions",
		},
		[]string{"kind"}, // kind: projects, tasks, auth
	)

	// Change events that could not be delivered to a slow subscriber
	ChangeEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sitetrack_change_events_dropped_total",
			Help: "Change events coalesced into a resync for slow subscribers",
		},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitetrack_login_attempts_total",
			Help: "Login attempts by outcome",
		},
		[]string{"outcome"},
	)

	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sitetrack_notifications_dispatched_total",
			Help: "Notifications dispatched by the worker",
		},
		[]string{"event", "status"}, // status: sent, skipped, failed
	)
)

// RecordHTTPRequestDuration records one served request
func RecordHTTPRequestDuration(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// RecordUploadAttempt counts one CDN upload attempt
func RecordUploadAttempt(resourceType, outcome string) {
	MediaUploadAttempts.WithLabelValues(resourceType, outcome).Inc()
}

// TrackSubscription increments the live gauge and returns its decrement
func TrackSubscription(kind string) func() {
	g := LiveSubscriptions.WithLabelValues(kind)
	g.Inc()
	return g.Dec
}

// IncrementLoginAttempt counts a login by outcome
func IncrementLoginAttempt(outcome string) {
	LoginAttempts.WithLabelValues(outcome).Inc()
}

// IncrementNotification counts a dispatched notification
func IncrementNotification(event, status string) {
	NotificationsDispatched.WithLabelValues(event, status).Inc()
}

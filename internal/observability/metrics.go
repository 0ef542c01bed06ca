// Package observability holds Prometheus collectors and OpenTelemetry tracing setup.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "careline_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// InvitationEvents counts invitation lifecycle transitions.
	InvitationEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "careline_invitation_events_total",
		Help: "Invitation lifecycle transitions by event",
	}, []string{"event"})

	// AccountRequestSubmissions counts self-service submissions by result tag.
	AccountRequestSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "careline_account_request_submissions_total",
		Help: "Self-service account request submissions by result",
	}, []string{"result"})

	// AccountRequestReviews counts admin actions on account requests.
	AccountRequestReviews = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "careline_account_request_reviews_total",
		Help: "Admin review actions on account requests",
	}, []string{"action"})

	// ActivationAttempts counts activation-code redemptions by outcome.
	ActivationAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "careline_activation_attempts_total",
		Help: "Activation code redemptions by outcome",
	}, []string{"outcome"})

	// NotificationDeliveries counts outbound notifications by kind and outcome.
	NotificationDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "careline_notification_deliveries_total",
		Help: "Outbound notifications by kind and outcome",
	}, []string{"kind", "outcome"})

	// InboxConnections is the gauge of open inbox websocket connections.
	InboxConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "careline_inbox_connections",
		Help: "Number of open inbox WebSocket connections",
	})
)

package observability

import (
	"net/http"

	"partner-edge/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	authDecisions   *prometheus.CounterVec
	webhookEvents   *prometheus.CounterVec
	partnerRequests *prometheus.CounterVec
	notifications   *prometheus.CounterVec
	gatherer        prometheus.Gatherer
}

// NewMetrics registers the counters on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewMetricsWith(reg, reg)
}

// NewMetricsWith registers the counters on reg and serves them from gatherer.
func NewMetricsWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		authDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edge_auth_decisions_total",
				Help: "Authentication gate decisions by route policy and outcome",
			},
			[]string{"policy", "outcome"},
		),
		webhookEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edge_partner_webhook_events_total",
				Help: "Partner webhook deliveries by event type and outcome",
			},
			[]string{"event_type", "outcome"},
		),
		partnerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edge_partner_requests_total",
				Help: "Outbound partner API calls by operation and status",
			},
			[]string{"operation", "status"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "edge_push_notifications_total",
				Help: "Push notifications sent by outcome",
			},
			[]string{"outcome"},
		),
		gatherer: gatherer,
	}
	reg.MustRegister(m.authDecisions, m.webhookEvents, m.partnerRequests, m.notifications)
	return m
}

func (m *Metrics) AuthDecision(policy, outcome string) {
	if m == nil {
		return
	}
	m.authDecisions.WithLabelValues(policy, outcome).Inc()
}

// WebhookEvent counts a delivery. The event type comes from the payload, so it is mapped onto a
// fixed label set.
func (m *Metrics) WebhookEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(webhookEventLabel(eventType), outcome).Inc()
}

func webhookEventLabel(eventType string) string {
	switch eventType {
	case domain.EventOrderCreate, domain.EventOrderUpdate:
		return eventType
	case "":
		return "unknown"
	default:
		return "other"
	}
}

func (m *Metrics) PartnerRequest(operation, status string) {
	if m == nil {
		return
	}
	m.partnerRequests.WithLabelValues(operation, status).Inc()
}

func (m *Metrics) Notification(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

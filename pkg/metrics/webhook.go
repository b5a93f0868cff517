package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records delivery outcomes per provider event type.
type WebhookMetrics struct {
	processed  *prometheus.CounterVec
	skipped    *prometheus.CounterVec
	duplicates prometheus.Counter
	rejected   *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_processed",
		Help: "Webhook events that resulted in a state mutation.",
	}, []string{"event_type"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_skipped",
		Help: "Webhook events acknowledged without a state mutation.",
	}, []string{"event_type"})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webhook_events_duplicate",
		Help: "Webhook deliveries rejected by the dedup fence.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_rejected",
		Help: "Webhook deliveries rejected before dispatch.",
	}, []string{"reason"})
	reg.MustRegister(processed, skipped, duplicates, rejected)
	return &WebhookMetrics{
		processed:  processed,
		skipped:    skipped,
		duplicates: duplicates,
		rejected:   rejected,
	}
}

// IncProcessed counts a delivery that mutated local state.
func (m *WebhookMetrics) IncProcessed(eventType string) {
	if m == nil || m.processed == nil {
		return
	}
	m.processed.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncSkipped counts a delivery acknowledged without side effects.
func (m *WebhookMetrics) IncSkipped(eventType string) {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.WithLabelValues(normalizeLabel(eventType)).Inc()
}

// IncDuplicate counts a redelivery stopped by the dedup fence.
func (m *WebhookMetrics) IncDuplicate() {
	if m == nil || m.duplicates == nil {
		return
	}
	m.duplicates.Inc()
}

// IncRejected counts a delivery refused before dispatch (signature, payload).
func (m *WebhookMetrics) IncRejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

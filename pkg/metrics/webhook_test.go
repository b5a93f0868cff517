package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestWebhookMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWebhookMetrics(reg)

	m.IncProcessed("charge.success")
	m.IncProcessed("charge.success")
	m.IncSkipped("subscription.create")
	m.IncDuplicate()
	m.IncRejected("signature")

	if got := testutil.ToFloat64(m.processed.WithLabelValues("charge.success")); got != 2 {
		t.Fatalf("expected 2 processed, got %v", got)
	}
	if got := testutil.ToFloat64(m.skipped.WithLabelValues("subscription.create")); got != 1 {
		t.Fatalf("expected 1 skipped, got %v", got)
	}
	if got := testutil.ToFloat64(m.duplicates); got != 1 {
		t.Fatalf("expected 1 duplicate, got %v", got)
	}
	if got := testutil.ToFloat64(m.rejected.WithLabelValues("signature")); got != 1 {
		t.Fatalf("expected 1 rejected, got %v", got)
	}
}

func TestWebhookMetrics_NilSafe(t *testing.T) {
	var m *WebhookMetrics
	m.IncProcessed("charge.success")
	m.IncDuplicate()

	empty := NewWebhookMetrics(nil)
	empty.IncSkipped("")
	empty.IncRejected("payload")
}

func TestNormalizeLabel(t *testing.T) {
	if got := normalizeLabel(""); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
	if got := normalizeLabel("subscription.disable"); got != "subscription.disable" {
		t.Fatalf("unexpected label %q", got)
	}
}

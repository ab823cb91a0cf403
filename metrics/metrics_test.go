package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_IsolatedRegistries(t *testing.T) {
	// WHAT: Two instances don't collide, and counters land in their own
	// registry.
	a := New()
	b := New()

	a.ChecksTotal.WithLabelValues("214142").Inc()
	a.ChecksTotal.WithLabelValues("214142").Inc()
	b.ChecksTotal.WithLabelValues("214142").Inc()

	if got := testutil.ToFloat64(a.ChecksTotal.WithLabelValues("214142")); got != 2 {
		t.Errorf("a.checks = %v", got)
	}
	if got := testutil.ToFloat64(b.ChecksTotal.WithLabelValues("214142")); got != 1 {
		t.Errorf("b.checks = %v", got)
	}
}

func TestAlertLabels(t *testing.T) {
	m := New()
	m.AlertsTotal.WithLabelValues("deflection", "CRITICAL").Inc()
	if got := testutil.ToFloat64(m.AlertsTotal.WithLabelValues("deflection", "CRITICAL")); got != 1 {
		t.Errorf("alerts = %v", got)
	}
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordCleanup(t *testing.T) {
	m := New()
	m.RecordCleanup("ok", 3)
	m.RecordCleanup("ok", 0)
	m.RecordCleanup("error", 0)
	m.ObserveCleanupDuration(150 * time.Millisecond)

	if got := testutil.ToFloat64(m.cleanupRuns.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok runs = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.cleanupRuns.WithLabelValues("error")); got != 1 {
		t.Errorf("error runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.cleanupDeleted); got != 3 {
		t.Errorf("deleted = %v, want 3", got)
	}
	if n := testutil.CollectAndCount(m.cleanupLatency); n != 1 {
		t.Errorf("latency series = %d, want 1", n)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.RecordCleanup("ok", 1)
	m.ObserveCleanupDuration(time.Second)
	m.RecordRequest("/healthz", 200)
	m.RecordRelay("ok")
	if m.Handler() == nil {
		t.Fatal("expected a handler from nil metrics")
	}
}

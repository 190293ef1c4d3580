package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_CountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordAssetOutcome("VOO", "ok")
	r.RecordAssetOutcome("VOO", "ok")
	r.RecordAssetOutcome("Bitcoin", "transport_error")
	r.RecordCache("hit")
	r.RecordLastPrice("VOO", 512.5)

	if got := testutil.ToFloat64(r.assetOutcomes.WithLabelValues("VOO", "ok")); got != 2 {
		t.Fatalf("VOO ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.assetOutcomes.WithLabelValues("Bitcoin", "transport_error")); got != 1 {
		t.Fatalf("Bitcoin transport_error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.cacheLookups.WithLabelValues("hit")); got != 1 {
		t.Fatalf("cache hit = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.lastPrice.WithLabelValues("VOO")); got != 512.5 {
		t.Fatalf("last price = %v, want 512.5", got)
	}
}

func TestRecorder_SeparateRegistries(t *testing.T) {
	// Two recorders on distinct registries must not collide.
	_ = New(prometheus.NewRegistry())
	_ = New(prometheus.NewRegistry())
}

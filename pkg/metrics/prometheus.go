package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	assetOutcomes *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
}

// New creates a recorder registered on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		assetOutcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_gains_asset_outcomes_total",
				Help: "Per-asset outcomes of market gains computations",
			},
			[]string{"asset", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fintrack_last_price",
				Help: "Latest fetched price for a basket symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fintrack_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fintrack_price_cache_lookups_total",
				Help: "Price table cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// RecordAssetOutcome counts one asset evaluation by outcome.
func (r *Recorder) RecordAssetOutcome(asset, outcome string) {
	r.assetOutcomes.WithLabelValues(asset, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordCache counts a price cache lookup ("hit", "miss", "error").
func (r *Recorder) RecordCache(result string) {
	r.cacheLookups.WithLabelValues(result).Inc()
}

// Nop discards all observations.
type Nop struct{}

func (Nop) RecordAssetOutcome(string, string) {}
func (Nop) RecordError(string)                {}
func (Nop) RecordLastPrice(string, float64)   {}
func (Nop) RecordLatency(string, float64)     {}
func (Nop) RecordCache(string)                {}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Latency of API requests, including pipeline recomputation.
	RequestDuration *prometheus.HistogramVec

	// Time one full normalize/filter/sort/aggregate pass takes.
	PipelineDuration *prometheus.HistogramVec

	// Rows currently held per record kind.
	DatasetRecords *prometheus.GaugeVec

	// Refresh scheduler activity.
	RefreshCycles  *prometheus.CounterVec // outcome: changed, unchanged, stale, error
	RefreshBreaker prometheus.Gauge       // 0=closed, 1=open
}

func New(reg prometheus.Registerer) *Metrics {
	// Null object: with no registerer the collectors go to a detached
	// registry, so tests can construct components without wiring one.
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "secdash_request_duration_seconds",
			Help:    "Histogram of API request latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"route", "status"}),

		PipelineDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "secdash_pipeline_duration_seconds",
			Help:    "Histogram of record pipeline pass durations.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25},
		}, []string{"kind"}),

		DatasetRecords: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Name: "secdash_dataset_records",
			Help: "Number of raw records stored per record kind.",
		}, []string{"kind"}),

		RefreshCycles: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "secdash_refresh_cycles_total",
			Help: "Refresh scheduler cycles by outcome.",
		}, []string{"outcome"}),

		RefreshBreaker: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "secdash_refresh_breaker_open",
			Help: "Circuit breaker state of the export feed fetcher (0=closed, 1=open).",
		}),
	}
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "drainage"

// Cycle outcome label values.
const (
	OutcomeReported  = "reported"
	OutcomeNoData    = "no_data"
	OutcomeMalformed = "malformed"
	OutcomeFailed    = "fetch_failed"
)

// Metrics holds the Prometheus collectors for the polling loop and classifiers.
type Metrics struct {
	Cycles        *prometheus.CounterVec // labels: outcome={reported,no_data,malformed,fetch_failed}
	CycleDuration prometheus.Histogram
	FetchDuration prometheus.Histogram
	PollerRunning prometheus.Gauge
	PollerState   prometheus.Gauge // 0 idle, 1 processing

	// Classification metrics.
	Predictions   *prometheus.CounterVec // labels: tier
	OverallTier   prometheus.Gauge
	ChannelTier   *prometheus.GaugeVec // labels: channel
	ReadingValue  *prometheus.GaugeVec // labels: field
	ModelAccuracy prometheus.Gauge

	// Report sink metrics.
	ReportsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_cycles_total",
			Help:      "Polling cycles by outcome.",
		}, []string{"outcome"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "poll_cycle_duration_seconds",
			Help:      "Duration of fetch, classify and render for one cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "telemetry_fetch_duration_seconds",
			Help:      "Duration of the telemetry gateway fetch.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		PollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "poller_running",
			Help:      "1 while the polling loop is active, 0 when shut down.",
		}),
		PollerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "poller_state",
			Help:      "0 when idle between cycles, 1 while processing.",
		}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Overall severity predictions by tier.",
		}, []string{"tier"}),
		OverallTier: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overall_tier",
			Help:      "Last predicted overall tier (0 stable, 1 caution, 2 critical).",
		}),
		ChannelTier: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "channel_tier",
			Help:      "Last threshold tier per sensor channel.",
		}, []string{"channel"}),
		ReadingValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reading_value",
			Help:      "Last raw reading per field.",
		}, []string{"field"}),
		ModelAccuracy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_holdout_accuracy",
			Help:      "Held-out accuracy measured when the model was trained at startup.",
		}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      "Cycle reports written to the report sink.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_publish_errors_total",
			Help:      "Failed report sink writes.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Cycles,
		m.CycleDuration,
		m.FetchDuration,
		m.PollerRunning,
		m.PollerState,
		m.Predictions,
		m.OverallTier,
		m.ChannelTier,
		m.ReadingValue,
		m.ModelAccuracy,
		m.ReportsPublished,
		m.PublishErrors,
	}
}

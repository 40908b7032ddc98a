package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the decision module.
type Metrics struct {
	// Decision outcomes by status
	DecisionOutcome *prometheus.CounterVec

	// Engine decide latency (pure reduction, no analyzer time)
	DecideLatency prometheus.Histogram

	// Analyzer call latencies by channel
	AnalyzerLatency *prometheus.HistogramVec

	// Analyzer failures by channel and kind (transport vs parse)
	AnalyzerFailures *prometheus.CounterVec
}

// New creates a Metrics instance with all decision module metrics registered.
func New() *Metrics {
	return &Metrics{
		DecisionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idguardian_decision_outcomes_total",
			Help: "Total verification outcomes by status",
		}, []string{"status"}),

		DecideLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "idguardian_decision_decide_duration_seconds",
			Help:    "Duration of the signal aggregation step",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),

		AnalyzerLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idguardian_analyzer_duration_seconds",
			Help:    "Duration of channel analyzer calls by channel",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"channel"}), // channel: "document", "face", "liveness", "voice"

		AnalyzerFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idguardian_analyzer_failures_total",
			Help: "Total analyzer failures by channel and kind",
		}, []string{"channel", "kind"}), // kind: "transport", "parse"
	}
}

// IncrementOutcome records a verification outcome.
func (m *Metrics) IncrementOutcome(status string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(status).Inc()
	}
}

// ObserveDecideLatency records the duration of the aggregation step.
func (m *Metrics) ObserveDecideLatency(d time.Duration) {
	if m != nil {
		m.DecideLatency.Observe(d.Seconds())
	}
}

// ObserveAnalyzerLatency records the duration of one channel analyzer call.
func (m *Metrics) ObserveAnalyzerLatency(channel string, d time.Duration) {
	if m != nil {
		m.AnalyzerLatency.WithLabelValues(channel).Observe(d.Seconds())
	}
}

// IncrementAnalyzerFailure records an analyzer failure.
func (m *Metrics) IncrementAnalyzerFailure(channel, kind string) {
	if m != nil {
		m.AnalyzerFailures.WithLabelValues(channel, kind).Inc()
	}
}

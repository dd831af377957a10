package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mrz1836/testmo/internal/constants"
)

const namespace = "testmo"

// Prometheus records events into its own registry. There is no HTTP endpoint;
// WriteTextfile dumps the registry for a node-exporter textfile collector.
type Prometheus struct {
	registry *prometheus.Registry

	CaseMutations   *prometheus.CounterVec
	StepOutcomes    *prometheus.CounterVec
	AICalls         *prometheus.CounterVec
	AIRetries       *prometheus.CounterVec
	AICallDuration  *prometheus.HistogramVec
	PersistFailures *prometheus.CounterVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus creates a recorder backed by a fresh registry.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		CaseMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "case_mutations_total",
				Help:      "Collection operations by activity action",
			},
			[]string{"action"},
		),
		StepOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "step_outcomes_total",
				Help:      "Applied step outcomes by status",
			},
			[]string{"status"},
		),
		AICalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_calls_total",
				Help:      "Finished AI operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		AIRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_retries_total",
				Help:      "Retries of AI operations after transient errors",
			},
			[]string{"operation"},
		),
		AICallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ai_call_duration_seconds",
				Help:      "AI operation latency including retries",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"operation"},
		),
		PersistFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "persist_failures_total",
				Help:      "Failed saves by storage key",
			},
			[]string{"key"},
		),
	}
}

// Registry returns the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// CaseMutation implements Recorder.
func (p *Prometheus) CaseMutation(action constants.ActivityAction, _ int) {
	p.CaseMutations.WithLabelValues(string(action)).Inc()
}

// StepOutcome implements Recorder.
func (p *Prometheus) StepOutcome(s constants.StepStatus) {
	p.StepOutcomes.WithLabelValues(string(s)).Inc()
}

// AICall implements Recorder.
func (p *Prometheus) AICall(operation, outcome string, d time.Duration) {
	p.AICalls.WithLabelValues(operation, outcome).Inc()
	p.AICallDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// AIRetry implements Recorder.
func (p *Prometheus) AIRetry(operation string) {
	p.AIRetries.WithLabelValues(operation).Inc()
}

// PersistFailure implements Recorder.
func (p *Prometheus) PersistFailure(key string) {
	p.PersistFailures.WithLabelValues(key).Inc()
}

// WriteTextfile writes the registry in text exposition format to path.
func (p *Prometheus) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.registry)
}

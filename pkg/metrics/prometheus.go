package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder backed by Prometheus.
// Collectors are registered on first use.
type PrometheusRecorder struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	runs        *prometheus.CounterVec
	runDuration prometheus.Histogram
	assigned    prometheus.Counter
	unfilled    prometheus.Counter
	swaps       *prometheus.CounterVec
	stagnations *prometheus.CounterVec
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheus creates a Prometheus-backed recorder. A nil reg means
// prometheus.DefaultRegisterer and an empty namespace means "duty_scheduler".
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusRecorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "duty_scheduler"
	}

	return &PrometheusRecorder{reg: reg, namespace: namespace}
}

func (p *PrometheusRecorder) ensureRegistered() {
	p.once.Do(func() {
		p.runs = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Scheduler runs by outcome (saved, dry_run, failed).",
		}, []string{"outcome"})

		p.runDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Wall time of scheduler runs in seconds.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms .. ~20s
		})

		p.assigned = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "slots",
			Name:      "assigned_total",
			Help:      "Slots filled by scheduler runs.",
		})

		p.unfilled = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "slots",
			Name:      "unfilled_total",
			Help:      "Slots left empty by scheduler runs.",
		})

		p.swaps = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "balance",
			Name:      "swaps_total",
			Help:      "Moves made by balance passes, by pass.",
		}, []string{"pass"})

		p.stagnations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Subsystem: "balance",
			Name:      "stagnations_total",
			Help:      "Balance passes that stopped above their tolerance, by pass.",
		}, []string{"pass"})

		p.reg.MustRegister(p.runs)
		p.reg.MustRegister(p.runDuration)
		p.reg.MustRegister(p.assigned)
		p.reg.MustRegister(p.unfilled)
		p.reg.MustRegister(p.swaps)
		p.reg.MustRegister(p.stagnations)
	})
}

// RecordRun counts a run by outcome and observes its duration.
func (p *PrometheusRecorder) RecordRun(outcome string, seconds float64) {
	p.ensureRegistered()
	p.runs.WithLabelValues(outcome).Inc()
	p.runDuration.Observe(seconds)
}

// RecordAssignments adds filled and unfilled slot counts.
func (p *PrometheusRecorder) RecordAssignments(assigned, unfilled int) {
	p.ensureRegistered()
	p.assigned.Add(float64(assigned))
	p.unfilled.Add(float64(unfilled))
}

// RecordSwaps adds moves made by a balance pass.
func (p *PrometheusRecorder) RecordSwaps(pass string, count int) {
	p.ensureRegistered()
	p.swaps.WithLabelValues(pass).Add(float64(count))
}

// RecordStagnation counts a stagnated balance pass.
func (p *PrometheusRecorder) RecordStagnation(pass string) {
	p.ensureRegistered()
	p.stagnations.WithLabelValues(pass).Inc()
}

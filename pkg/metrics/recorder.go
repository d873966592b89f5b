package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nemanja-m/scatter/pkg/core"
)

// Recorder receives engine events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Invocation(task, mode string, bundles, workers int)
	Outcome(task string, failed bool, elapsed time.Duration)
	Completed(task, policy string, err error, elapsed time.Duration)
}

type nopRecorder struct{}

func NewNopRecorder() Recorder {
	return nopRecorder{}
}

func (nopRecorder) Invocation(string, string, int, int)           {}
func (nopRecorder) Outcome(string, bool, time.Duration)            {}
func (nopRecorder) Completed(string, string, error, time.Duration) {}

type PrometheusRecorder struct {
	invocations        *prometheus.CounterVec
	bundles            *prometheus.CounterVec
	workers            *prometheus.GaugeVec
	outcomes           *prometheus.CounterVec
	bundleDuration     *prometheus.HistogramVec
	invocationDuration *prometheus.HistogramVec
	failures           *prometheus.CounterVec
}

// NewPrometheusRecorder creates the scatter_* collectors and registers them
// with reg.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scatter_invocations_total",
			Help: "Number of distributed calls.",
		}, []string{"task", "mode"}),
		bundles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scatter_bundles_total",
			Help: "Number of call bundles dispatched to workers.",
		}, []string{"task"}),
		workers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "scatter_pool_workers",
			Help: "Pool size of the most recent call.",
		}, []string{"task"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scatter_outcomes_total",
			Help: "Worker outcomes by result.",
		}, []string{"task", "result"}),
		bundleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scatter_bundle_duration_seconds",
			Help:    "Time spent running a single bundle.",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"}),
		invocationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scatter_invocation_duration_seconds",
			Help:    "Wall time of a whole scatter-gather call.",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scatter_aggregated_failures_total",
			Help: "Calls rejected by their success policy.",
		}, []string{"task", "policy"}),
	}

	for _, c := range []prometheus.Collector{
		r.invocations, r.bundles, r.workers, r.outcomes,
		r.bundleDuration, r.invocationDuration, r.failures,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *PrometheusRecorder) Invocation(task, mode string, bundles, workers int) {
	r.invocations.WithLabelValues(task, mode).Inc()
	r.bundles.WithLabelValues(task).Add(float64(bundles))
	r.workers.WithLabelValues(task).Set(float64(workers))
}

func (r *PrometheusRecorder) Outcome(task string, failed bool, elapsed time.Duration) {
	result := "success"
	if failed {
		result = "failure"
	}
	r.outcomes.WithLabelValues(task, result).Inc()
	r.bundleDuration.WithLabelValues(task).Observe(elapsed.Seconds())
}

func (r *PrometheusRecorder) Completed(task, policy string, err error, elapsed time.Duration) {
	r.invocationDuration.WithLabelValues(task).Observe(elapsed.Seconds())
	var failure *core.AggregatedFailure
	if errors.As(err, &failure) {
		r.failures.WithLabelValues(task, policy).Inc()
	}
}

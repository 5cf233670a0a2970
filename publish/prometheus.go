package publish

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cwbriones/scientist/experiment"
)

// Namespace for all metrics
const metricsNamespace = "scientist"

// Outcome label values for the runs counter.
const (
	outcomeMatch    = "match"
	outcomeMismatch = "mismatch"
	outcomeIgnored  = "ignored"
)

// Channel label values for the guarded-failures counter.
const (
	channelRaised = "raised"
	channelThrown = "thrown"
)

// Collector exports published results as Prometheus metrics: run outcomes,
// behavior timings, and guarded failures. Its escalation hooks count the
// failure and then apply the default policy, so collecting metrics does
// not change run semantics.
type Collector[T any] struct {
	experiment.DefaultHandler[T]

	// runs counts runs by outcome.
	// Labels: experiment, outcome (match, mismatch, ignored)
	runs *prometheus.CounterVec

	// durations measures behavior execution time. Failed behaviors are
	// excluded since their duration is not recorded.
	// Labels: experiment, behavior
	durations *prometheus.HistogramVec

	// failures counts guarded operation failures.
	// Labels: experiment, operation, channel (raised, thrown)
	failures *prometheus.CounterVec
}

// NewCollector creates a sink with its metrics registered on reg. A nil
// reg registers on prometheus.DefaultRegisterer; registering two
// collectors on one registry panics, as usual for Prometheus.
func NewCollector[T any](reg prometheus.Registerer) *Collector[T] {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collector[T]{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "runs_total",
			Help:      "Total experiment runs by outcome",
		}, []string{"experiment", "outcome"}),

		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "observation_duration_seconds",
			Help:      "Behavior execution time in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"experiment", "behavior"}),

		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "guarded_failures_total",
			Help:      "Total guarded operation failures by operation and channel",
		}, []string{"experiment", "operation", "channel"}),
	}
}

// Publish records the run outcome and the duration of every behavior that
// produced a value.
func (c *Collector[T]) Publish(_ context.Context, result *experiment.Result[T]) error {
	name := result.Experiment.Name()
	c.runs.WithLabelValues(name, runOutcome(result)).Inc()

	c.observeDuration(name, result.Control)
	for _, obs := range result.Candidates {
		c.observeDuration(name, obs)
	}

	return nil
}

func (c *Collector[T]) observeDuration(name string, obs *experiment.Observation[T]) {
	if obs.Failed() {
		return
	}
	c.durations.WithLabelValues(name, obs.Name).Observe(obs.Duration.Seconds())
}

func runOutcome[T any](result *experiment.Result[T]) string {
	switch {
	case result.HasMismatches():
		return outcomeMismatch
	case result.HasIgnores():
		return outcomeIgnored
	default:
		return outcomeMatch
	}
}

// Raised counts the failure, then escalates it unchanged.
func (c *Collector[T]) Raised(ctx context.Context, exp *experiment.Experiment[T], op experiment.Operation, err error) error {
	c.failures.WithLabelValues(exp.Name(), string(op), channelRaised).Inc()

	return c.DefaultHandler.Raised(ctx, exp, op, err)
}

// Thrown counts the failure, then re-panics.
func (c *Collector[T]) Thrown(ctx context.Context, exp *experiment.Experiment[T], op experiment.Operation, v any) error {
	c.failures.WithLabelValues(exp.Name(), string(op), channelThrown).Inc()

	return c.DefaultHandler.Thrown(ctx, exp, op, v)
}

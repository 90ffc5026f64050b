// Package search implements the three interchangeable maneuver-search
// strategies: exhaustive grid search over single-switch policies, the
// closed-form suicide-burn heuristic, and a simulated-annealing metaheuristic
// over multi-phase burn schedules. All of them evaluate candidates with
// core.Simulate and agree on the model.Candidate ordering, so their results
// are directly comparable as long as they share a time step.
package search

import (
	"github.com/signalsfoundry/descent-simulator/internal/logging"
	"github.com/signalsfoundry/descent-simulator/internal/observability"
)

const tracerName = "descent-simulator/search"

// Option configures cross-cutting strategy behaviour.
type Option func(*options)

type options struct {
	metrics *observability.DescentCollector
	log     logging.Logger
}

// WithMetrics publishes per-evaluation and best-candidate metrics to the
// collector. A nil collector is allowed and ignored.
func WithMetrics(m *observability.DescentCollector) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger attaches a structured logger to the search.
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{log: logging.Noop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

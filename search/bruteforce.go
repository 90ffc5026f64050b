package search

import (
	"context"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/descent-simulator/core"
	"github.com/signalsfoundry/descent-simulator/internal/logging"
	"github.com/signalsfoundry/descent-simulator/model"
)

// GridConfig controls the brute-force sweep over ignition altitudes.
type GridConfig struct {
	// Step is the spacing in metres between successive candidate ignition
	// altitudes across [0, h0]. Smaller steps cannot make the result worse,
	// only slower.
	Step float64
}

// Validate rejects non-positive or non-finite grid spacing.
func (c GridConfig) Validate() error {
	if math.IsNaN(c.Step) || math.IsInf(c.Step, 0) || c.Step <= 0 {
		return &model.ConfigError{Field: "grid.step", Reason: "must be a positive, finite number of metres"}
	}
	return nil
}

// BruteForce enumerates single-switch policies with ignition altitudes spaced
// grid.Step metres apart across [0, h0] (both endpoints included), simulates
// each, and returns the best by candidate ordering: feasible first, then
// shortest landing time, ties broken by gentlest impact. When nothing is
// feasible it still returns the gentlest infeasible landing, so callers can
// report a best effort instead of failing outright.
//
// The result is exhaustive over the grid, which makes it optimal within the
// single-switch family at this resolution; it says nothing about policies
// outside that family.
//
// Cancelling ctx stops the sweep early. Because the reduction is a plain min
// over independent evaluations, the best-so-far candidate returned after a
// partial sweep is still a valid answer for the altitudes already visited.
func BruteForce(ctx context.Context, p model.ScenarioParameters, grid GridConfig, opts ...Option) (model.Candidate, error) {
	if err := p.Validate(); err != nil {
		return model.Candidate{}, err
	}
	if err := grid.Validate(); err != nil {
		return model.Candidate{}, err
	}
	o := applyOptions(opts)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "search.BruteForce")
	defer span.End()

	points := int(p.InitialHeight/grid.Step) + 1
	var best model.Candidate
	evals := 0
	for i := 0; i < points; i++ {
		if ctx.Err() != nil {
			break
		}
		ignite := math.Min(float64(i)*grid.Step, p.InitialHeight)
		policy := model.SingleSwitch{IgniteAltitude: ignite}
		cand := model.Candidate{Policy: policy, Result: core.Simulate(p, policy)}
		o.metrics.ObserveSimulation("bruteforce", cand.Result.Steps)
		evals++
		if evals == 1 || cand.Better(best) {
			best = cand
		}
	}
	// h0 itself is a grid point even when the spacing does not divide it.
	if ctx.Err() == nil && math.Mod(p.InitialHeight, grid.Step) != 0 {
		policy := model.SingleSwitch{IgniteAltitude: p.InitialHeight}
		cand := model.Candidate{Policy: policy, Result: core.Simulate(p, policy)}
		o.metrics.ObserveSimulation("bruteforce", cand.Result.Steps)
		evals++
		if cand.Better(best) {
			best = cand
		}
	}

	if best.Policy != nil {
		_, best.Result, best.Trace = retrace(p, best.Policy)
	}

	span.SetAttributes(
		attribute.Int("search.evaluations", evals),
		attribute.Bool("search.feasible", best.Result.Feasible),
	)
	if best.Result.Landed() {
		span.SetAttributes(attribute.Float64("search.landing_time_s", best.Result.LandingTime))
	}
	o.metrics.RecordBest("bruteforce", best.Result)
	o.log.Debug(ctx, "brute-force sweep finished",
		logging.Int("evaluations", evals),
		logging.Any("policy", best.Policy),
	)
	return best, nil
}

// retrace reruns the winning policy once with trace retention, so only the
// best candidate pays for the full state history.
func retrace(p model.ScenarioParameters, policy model.ControlPolicy) (model.ControlPolicy, model.SimulationResult, *model.Trace) {
	result, trace := core.SimulateTrace(p, policy)
	return policy, result, &trace
}

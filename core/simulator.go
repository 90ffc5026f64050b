// Package core contains the deterministic descent simulator shared by every
// search strategy, plus the JSON scenario loader.
package core

import (
	"math"

	"github.com/signalsfoundry/descent-simulator/model"
)

// Simulate integrates a descent under the given policy until touchdown or the
// scenario's step cap, using fixed-step explicit Euler integration. It is a
// pure function: identical inputs always produce an identical result. The
// caller is expected to have validated the scenario.
func Simulate(p model.ScenarioParameters, policy model.ControlPolicy) model.SimulationResult {
	result, _ := run(p, policy, false)
	return result
}

// SimulateTrace is Simulate plus the full state history, for callers that
// keep the best trajectory for downstream reporting.
func SimulateTrace(p model.ScenarioParameters, policy model.ControlPolicy) (model.SimulationResult, model.Trace) {
	return run(p, policy, true)
}

func run(p model.ScenarioParameters, policy model.ControlPolicy, keepTrace bool) (model.SimulationResult, model.Trace) {
	state := model.DescentState{Height: p.InitialHeight, Velocity: p.InitialVelocity}
	var trace model.Trace
	if keepTrace {
		trace.Append(state)
	}

	limit := p.StepCap()
	for step := 1; step <= limit; step++ {
		tau := clampThrottle(policy.Throttle(state))
		accel := tau*p.MaxThrust/p.Mass - p.Gravity

		// Velocity first; the height update sees the new velocity.
		state.Velocity += accel * p.TimeStep
		state.Height += state.Velocity * p.TimeStep
		state.Time += p.TimeStep

		if state.Height <= 0 {
			state.Height = 0
			if keepTrace {
				trace.Append(state)
			}
			force := p.Mass * math.Abs(state.Velocity) / p.TimeStep
			return model.SimulationResult{
				LandingTime:    state.Time,
				ImpactVelocity: state.Velocity,
				ImpactForce:    force,
				Feasible:       force <= p.MaxImpactForce,
				Steps:          step,
			}, trace
		}
		if keepTrace {
			trace.Append(state)
		}
	}

	// Step cap exceeded: the policy never lands (hovers or climbs forever).
	return model.SimulationResult{
		LandingTime: math.Inf(1),
		Feasible:    false,
		Steps:       limit,
	}, trace
}

func clampThrottle(tau float64) float64 {
	switch {
	case math.IsNaN(tau), tau < 0:
		return 0
	case tau > 1:
		return 1
	}
	return tau
}

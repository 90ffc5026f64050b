package model

import (
	"fmt"
	"math"
)

// DefaultMaxSteps bounds a single simulation run when the scenario does not
// set its own cap. It guards against policies that never land (hover or
// climb indefinitely).
const DefaultMaxSteps = 1_000_000

// ScenarioParameters describes one descent problem: where the rocket starts,
// what it weighs, how hard it can push, and what counts as a survivable
// touchdown. Immutable for the duration of a search; validated once up front.
type ScenarioParameters struct {
	InitialHeight   float64 `json:"initial_height"`   // h0, metres
	InitialVelocity float64 `json:"initial_velocity"` // v0, m/s (negative = descending)
	Mass            float64 `json:"mass"`             // kg, constant (no fuel depletion modeled)
	MaxThrust       float64 `json:"max_thrust"`       // Fmax, Newtons
	Gravity         float64 `json:"gravity"`          // g, m/s², positive magnitude
	MaxImpactForce  float64 `json:"max_impact_force"` // Imax, Newtons
	TimeStep        float64 `json:"time_step"`        // dt, seconds

	// MaxSteps overrides DefaultMaxSteps when positive.
	MaxSteps int `json:"max_steps,omitempty"`
}

// ConfigError reports an invalid scenario or strategy parameter. Validation
// fails fast, before any simulation runs; values are never silently clamped.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Validate checks every scenario invariant in one place.
func (p ScenarioParameters) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"initial_height", p.InitialHeight},
		{"initial_velocity", p.InitialVelocity},
		{"mass", p.Mass},
		{"max_thrust", p.MaxThrust},
		{"gravity", p.Gravity},
		{"max_impact_force", p.MaxImpactForce},
		{"time_step", p.TimeStep},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ConfigError{Field: f.name, Reason: "must be finite"}
		}
	}
	if p.InitialHeight < 0 {
		return &ConfigError{Field: "initial_height", Reason: "must be >= 0 metres"}
	}
	if p.Mass <= 0 {
		return &ConfigError{Field: "mass", Reason: "must be > 0 kg"}
	}
	if p.MaxThrust <= 0 {
		return &ConfigError{Field: "max_thrust", Reason: "must be > 0 Newtons"}
	}
	if p.Gravity <= 0 {
		return &ConfigError{Field: "gravity", Reason: "must be a positive magnitude in m/s²"}
	}
	if p.MaxImpactForce <= 0 {
		return &ConfigError{Field: "max_impact_force", Reason: "must be > 0 Newtons"}
	}
	if p.TimeStep <= 0 {
		return &ConfigError{Field: "time_step", Reason: "must be > 0 seconds"}
	}
	if p.MaxSteps < 0 {
		return &ConfigError{Field: "max_steps", Reason: "must be >= 0 (0 selects the default cap)"}
	}
	return nil
}

// StepCap returns the iteration bound for one simulation run.
func (p ScenarioParameters) StepCap() int {
	if p.MaxSteps > 0 {
		return p.MaxSteps
	}
	return DefaultMaxSteps
}

// DecelCapacity returns the peak net upward acceleration Fmax/m - g.
// A powered descent is only controllable when this is positive; the heuristic
// planner treats a non-positive value as a configuration error.
func (p ScenarioParameters) DecelCapacity() float64 {
	return p.MaxThrust/p.Mass - p.Gravity
}

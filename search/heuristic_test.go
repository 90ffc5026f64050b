package search

import (
	"context"
	"errors"
	"testing"

	"github.com/signalsfoundry/descent-simulator/model"
)

func TestIgnitionAltitude(t *testing.T) {
	// Fmax/m - g = 2, so the stopping distance for 10 m/s is 25m.
	p := model.ScenarioParameters{
		InitialHeight:  1000,
		Mass:           1,
		MaxThrust:      3,
		Gravity:        1,
		MaxImpactForce: 1000,
		TimeStep:       0.05,
	}

	tests := []struct {
		name string
		cfg  HeuristicConfig
		v    float64
		want float64
	}{
		{"ideal", HeuristicConfig{VelocityROC: 1}, -10, 25},
		{"buffer adds directly", HeuristicConfig{VelocityROC: 1, ExtraAltitude: 5}, -10, 30},
		{"damping ignites earlier", HeuristicConfig{VelocityROC: 0.5}, -10, 50},
		{"at rest only the buffer remains", HeuristicConfig{VelocityROC: 1, ExtraAltitude: 7}, 0, 7},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			policy, err := NewHeuristicPolicy(p, tc.cfg)
			if err != nil {
				t.Fatalf("NewHeuristicPolicy() error = %v", err)
			}
			if got := policy.IgnitionAltitude(tc.v); got != tc.want {
				t.Errorf("IgnitionAltitude(%v) = %v, want %v", tc.v, got, tc.want)
			}
		})
	}
}

func TestHeuristicThrottleBangBang(t *testing.T) {
	p := model.ScenarioParameters{
		InitialHeight:  1000,
		Mass:           1,
		MaxThrust:      3,
		Gravity:        1,
		MaxImpactForce: 1000,
		TimeStep:       0.05,
	}
	policy, err := NewHeuristicPolicy(p, HeuristicConfig{VelocityROC: 1})
	if err != nil {
		t.Fatalf("NewHeuristicPolicy() error = %v", err)
	}

	// Stopping distance for 10 m/s is 25m.
	if got := policy.Throttle(model.DescentState{Height: 26, Velocity: -10}); got != 0 {
		t.Errorf("Throttle above ignition = %v, want 0", got)
	}
	if got := policy.Throttle(model.DescentState{Height: 25, Velocity: -10}); got != 1 {
		t.Errorf("Throttle at ignition = %v, want 1", got)
	}
	if got := policy.Throttle(model.DescentState{Height: 10, Velocity: -10}); got != 1 {
		t.Errorf("Throttle below ignition = %v, want 1", got)
	}
}

func TestNewHeuristicPolicyUnderpowered(t *testing.T) {
	p := model.ScenarioParameters{
		InitialHeight:  5000,
		Mass:           2641,
		MaxThrust:      20000,
		Gravity:        9.81, // Fmax/m ≈ 7.57 m/s² cannot overcome this
		MaxImpactForce: 300000,
		TimeStep:       0.05,
	}
	_, err := NewHeuristicPolicy(p, HeuristicConfig{VelocityROC: 1})

	var cfgErr *model.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("NewHeuristicPolicy() error = %v, want *model.ConfigError", err)
	}
	if cfgErr.Field != "max_thrust" {
		t.Errorf("ConfigError.Field = %q, want %q", cfgErr.Field, "max_thrust")
	}
}

func TestHeuristicConfigValidate(t *testing.T) {
	bad := []HeuristicConfig{
		{VelocityROC: 0},
		{VelocityROC: -0.5},
		{VelocityROC: 1.5},
		{VelocityROC: 1, ExtraAltitude: -1},
	}
	for _, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validate(%+v) = nil, want error", cfg)
		}
	}
	if err := (HeuristicConfig{VelocityROC: 0.8, ExtraAltitude: 10}).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestPlanHeuristicLandsFeasibly(t *testing.T) {
	cand, err := PlanHeuristic(context.Background(), lunarScenario(), HeuristicConfig{VelocityROC: 1})
	if err != nil {
		t.Fatalf("PlanHeuristic() error = %v", err)
	}
	if !cand.Result.Feasible {
		t.Fatalf("heuristic landing infeasible: %+v", cand.Result)
	}
	if cand.Result.LandingTime < 60 || cand.Result.LandingTime > 200 {
		t.Errorf("LandingTime = %v, want tens of seconds", cand.Result.LandingTime)
	}
	if cand.Trace == nil || cand.Trace.Len() == 0 {
		t.Error("candidate carries no trace")
	}
}

func TestPlanHeuristicInfeasibleIsNotAnError(t *testing.T) {
	p := lunarScenario()
	p.MaxImpactForce = 1

	cand, err := PlanHeuristic(context.Background(), p, HeuristicConfig{VelocityROC: 1})
	if err != nil {
		t.Fatalf("PlanHeuristic() error = %v, want nil", err)
	}
	if cand.Result.Feasible {
		t.Fatal("candidate reported feasible under a 1N impact limit")
	}
	if !cand.Result.Landed() {
		t.Fatal("heuristic run never landed")
	}
}

package core

import (
	"math"
	"testing"

	"github.com/signalsfoundry/descent-simulator/model"
)

// constantPolicy always commands the same fraction, however nonsensical.
type constantPolicy float64

func (c constantPolicy) Throttle(model.DescentState) float64 { return float64(c) }

func lunarScenario() model.ScenarioParameters {
	return model.ScenarioParameters{
		InitialHeight:  5000,
		Mass:           2641,
		MaxThrust:      20000,
		Gravity:        1.62,
		MaxImpactForce: 300000,
		TimeStep:       0.05,
	}
}

func TestSimulateFreeFallOneStep(t *testing.T) {
	// With dt = 1s and g = 1 m/s² the first step takes the rocket from 1m
	// exactly to the ground at 1 m/s, so every output is exact.
	p := model.ScenarioParameters{
		InitialHeight:  1,
		Mass:           1,
		MaxThrust:      10,
		Gravity:        1,
		MaxImpactForce: 100,
		TimeStep:       1,
	}
	r := Simulate(p, model.FreeFall{})

	if !r.Landed() {
		t.Fatal("free fall from 1m did not land")
	}
	if r.LandingTime != 1 {
		t.Errorf("LandingTime = %v, want 1", r.LandingTime)
	}
	if r.ImpactVelocity != -1 {
		t.Errorf("ImpactVelocity = %v, want -1", r.ImpactVelocity)
	}
	if r.ImpactForce != 1 {
		t.Errorf("ImpactForce = %v, want 1 (mass * |v| / dt)", r.ImpactForce)
	}
	if !r.Feasible {
		t.Error("Feasible = false, want true under a 100N limit")
	}
	if r.Steps != 1 {
		t.Errorf("Steps = %d, want 1", r.Steps)
	}
}

func TestSimulateFreeFallLunar(t *testing.T) {
	// Velocity-first Euler: after n steps h = h0 - g*dt²*n(n+1)/2, which
	// first crosses zero at n = 1571 for this scenario.
	r := Simulate(lunarScenario(), model.FreeFall{})

	if !r.Landed() {
		t.Fatal("free fall from 5000m did not land")
	}
	if r.Steps != 1571 {
		t.Errorf("Steps = %d, want 1571", r.Steps)
	}
	if math.Abs(r.LandingTime-78.55) > 1e-6 {
		t.Errorf("LandingTime = %v, want 78.55", r.LandingTime)
	}
	if math.Abs(r.ImpactVelocity-(-127.251)) > 1e-6 {
		t.Errorf("ImpactVelocity = %v, want -127.251", r.ImpactVelocity)
	}
	if r.Feasible {
		t.Error("Feasible = true for an unbraked lunar fall, want false")
	}
}

func TestSimulateDeterministic(t *testing.T) {
	p := lunarScenario()
	policy := model.SingleSwitch{IgniteAltitude: 1069}
	a := Simulate(p, policy)
	b := Simulate(p, policy)
	if a != b {
		t.Errorf("repeated runs differ: %+v vs %+v", a, b)
	}
}

func TestSimulateClampsThrottle(t *testing.T) {
	// Underpowered on purpose so full throttle still descends and lands.
	p := model.ScenarioParameters{
		InitialHeight:  10,
		Mass:           2,
		MaxThrust:      1,
		Gravity:        1,
		MaxImpactForce: 1000,
		TimeStep:       0.1,
	}

	overdriven := Simulate(p, constantPolicy(5))
	full := Simulate(p, constantPolicy(1))
	if overdriven != full {
		t.Errorf("throttle 5 result %+v, want the throttle 1 result %+v", overdriven, full)
	}

	negative := Simulate(p, constantPolicy(-3))
	nan := Simulate(p, constantPolicy(math.NaN()))
	idle := Simulate(p, model.FreeFall{})
	if negative != idle {
		t.Errorf("throttle -3 result %+v, want the free-fall result %+v", negative, idle)
	}
	if nan != idle {
		t.Errorf("NaN throttle result %+v, want the free-fall result %+v", nan, idle)
	}
}

func TestSimulateStepCapOnHover(t *testing.T) {
	// Thrust exactly balances gravity, so the rocket hovers forever.
	p := model.ScenarioParameters{
		InitialHeight:  10,
		Mass:           1,
		MaxThrust:      2,
		Gravity:        1,
		MaxImpactForce: 1000,
		TimeStep:       0.1,
		MaxSteps:       1000,
	}
	r := Simulate(p, constantPolicy(0.5))

	if r.Landed() {
		t.Fatalf("hover landed at t=%v, want step cap", r.LandingTime)
	}
	if !math.IsInf(r.LandingTime, 1) {
		t.Errorf("LandingTime = %v, want +Inf", r.LandingTime)
	}
	if r.Feasible {
		t.Error("Feasible = true for a capped run, want false")
	}
	if r.Steps != 1000 {
		t.Errorf("Steps = %d, want the 1000-step cap", r.Steps)
	}
}

func TestSimulateDescentIsMonotonic(t *testing.T) {
	result, trace := SimulateTrace(lunarScenario(), model.SingleSwitch{IgniteAltitude: 1069})
	if !result.Feasible {
		t.Fatalf("reference burn infeasible: %+v", result)
	}
	for i := 1; i < trace.Len(); i++ {
		prev, cur := trace.States[i-1], trace.States[i]
		if cur.Velocity < 0 && cur.Height > prev.Height {
			t.Fatalf("height rose from %v to %v at t=%v while descending", prev.Height, cur.Height, cur.Time)
		}
		if cur.Height < 0 {
			t.Fatalf("height went negative (%v) at t=%v", cur.Height, cur.Time)
		}
	}
}

func TestSimulateTraceEndpoints(t *testing.T) {
	p := model.ScenarioParameters{
		InitialHeight:  1,
		Mass:           1,
		MaxThrust:      10,
		Gravity:        1,
		MaxImpactForce: 100,
		TimeStep:       1,
	}
	result, trace := SimulateTrace(p, model.FreeFall{})

	if trace.Len() != result.Steps+1 {
		t.Fatalf("trace Len() = %d, want %d (initial state plus one per step)", trace.Len(), result.Steps+1)
	}
	first := trace.States[0]
	if first.Height != p.InitialHeight || first.Time != 0 {
		t.Errorf("trace starts at %+v, want the initial state", first)
	}
	final, ok := trace.Final()
	if !ok || final.Height != 0 {
		t.Errorf("trace ends at %+v, want touchdown at height 0", final)
	}
	if final.Time != result.LandingTime {
		t.Errorf("final trace time = %v, want landing time %v", final.Time, result.LandingTime)
	}
}

package search

import (
	"context"
	"errors"
	"testing"

	"github.com/signalsfoundry/descent-simulator/model"
)

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

func TestBruteForceFindsFeasibleLanding(t *testing.T) {
	p := lunarScenario()
	best, err := BruteForce(context.Background(), p, GridConfig{Step: 1})
	if err != nil {
		t.Fatalf("BruteForce() error = %v", err)
	}
	if !best.Result.Feasible {
		t.Fatalf("best candidate infeasible: %+v", best.Result)
	}
	if !best.Result.Landed() {
		t.Fatal("best candidate never landed")
	}
	// A 5km lunar suicide burn takes on the order of a minute and a half.
	if best.Result.LandingTime < 60 || best.Result.LandingTime > 200 {
		t.Errorf("LandingTime = %v, want tens of seconds", best.Result.LandingTime)
	}
	sw, ok := best.Policy.(model.SingleSwitch)
	if !ok {
		t.Fatalf("best policy is %T, want model.SingleSwitch", best.Policy)
	}
	if sw.IgniteAltitude <= 0 || sw.IgniteAltitude >= p.InitialHeight {
		t.Errorf("IgniteAltitude = %v, want strictly inside (0, %v)", sw.IgniteAltitude, p.InitialHeight)
	}
	if best.Trace == nil || best.Trace.Len() == 0 {
		t.Error("best candidate carries no trace")
	}
}

func TestBruteForceFinerGridNeverWorse(t *testing.T) {
	// Each finer grid's points are a superset of the coarser grid's, so the
	// winner can only improve under candidate ordering.
	p := lunarScenario()
	steps := []float64{100, 10, 1}

	var prev model.Candidate
	for i, step := range steps {
		best, err := BruteForce(context.Background(), p, GridConfig{Step: step})
		if err != nil {
			t.Fatalf("BruteForce(step=%v) error = %v", step, err)
		}
		if i > 0 && prev.Better(best) {
			t.Errorf("coarser grid (step=%v) beat finer grid (step=%v): %+v vs %+v",
				steps[i-1], step, prev.Result, best.Result)
		}
		prev = best
	}
}

func TestBruteForceBestEffortWhenInfeasible(t *testing.T) {
	p := lunarScenario()
	p.MaxImpactForce = 1 // nothing survives this

	best, err := BruteForce(context.Background(), p, GridConfig{Step: 50})
	if err != nil {
		t.Fatalf("BruteForce() error = %v", err)
	}
	if best.Result.Feasible {
		t.Fatal("candidate reported feasible under a 1N impact limit")
	}
	if !best.Result.Landed() {
		t.Fatal("best effort should still be a landing, not a capped run")
	}
	if best.Policy == nil {
		t.Fatal("best effort carries no policy")
	}
}

func TestBruteForceCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	best, err := BruteForce(ctx, lunarScenario(), GridConfig{Step: 1})
	if err != nil {
		t.Fatalf("BruteForce() error = %v, want nil on early stop", err)
	}
	if best.Policy != nil {
		t.Errorf("pre-cancelled sweep evaluated candidates: %+v", best)
	}
}

func TestGridConfigValidate(t *testing.T) {
	for _, step := range []float64{0, -1} {
		_, err := BruteForce(context.Background(), lunarScenario(), GridConfig{Step: step})
		var cfgErr *model.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("BruteForce(step=%v) error = %v, want *model.ConfigError", step, err)
		}
	}
}

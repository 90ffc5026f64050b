package search

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/signalsfoundry/descent-simulator/core"
	"github.com/signalsfoundry/descent-simulator/model"
)

// annealScenario caps the step count at the equivalent of 1000 simulated
// seconds so hovering schedules fail fast instead of burning a million steps.
func annealScenario() model.ScenarioParameters {
	p := lunarScenario()
	p.MaxSteps = 20000
	return p
}

func TestAnnealConfigValidate(t *testing.T) {
	bad := []AnnealConfig{
		{Phases: -1},
		{Iterations: -5},
		{Stagnation: -1},
		{InitialTemp: -2},
		{Cooling: 1.5},
		{Workers: -3},
	}
	for _, cfg := range bad {
		_, err := Anneal(context.Background(), annealScenario(), cfg)
		var cfgErr *model.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("Anneal(%+v) error = %v, want *model.ConfigError", cfg, err)
		}
	}
}

func TestAnnealDeterministicAcrossRuns(t *testing.T) {
	p := annealScenario()
	cfg := AnnealConfig{Iterations: 300, Stagnation: 300, Workers: 2, Seed: 42}

	a, err := Anneal(context.Background(), p, cfg)
	if err != nil {
		t.Fatalf("first Anneal() error = %v", err)
	}
	b, err := Anneal(context.Background(), p, cfg)
	if err != nil {
		t.Fatalf("second Anneal() error = %v", err)
	}

	if !reflect.DeepEqual(a.Policy, b.Policy) {
		t.Errorf("policies differ across identical runs: %v vs %v", a.Policy, b.Policy)
	}
	if a.Result != b.Result {
		t.Errorf("results differ across identical runs: %+v vs %+v", a.Result, b.Result)
	}
}

func TestAnnealNeverWorseThanInitialSchedule(t *testing.T) {
	p := annealScenario()
	for _, seed := range []int64{1, 7, 99} {
		cfg := AnnealConfig{Iterations: 400, Stagnation: 400, Seed: seed}

		best, err := Anneal(context.Background(), p, cfg)
		if err != nil {
			t.Fatalf("Anneal(seed=%d) error = %v", seed, err)
		}

		// The run's first RNG draw is its initial schedule; replaying the
		// seed recovers it.
		rng := rand.New(rand.NewSource(seed))
		initial := randomSchedule(rng, p, 3)
		initCand := model.Candidate{Policy: initial, Result: core.Simulate(p, initial)}

		if initCand.Better(best) {
			t.Errorf("seed %d: initial schedule %+v beat the annealed best %+v",
				seed, initCand.Result, best.Result)
		}
	}
}

func TestAnnealImprovesOnFreeFall(t *testing.T) {
	p := annealScenario()
	// Permissive impact limit: surviving means braking to under half of the
	// roughly 127 m/s free-fall impact speed.
	p.MaxImpactForce = 3e6

	best, err := Anneal(context.Background(), p, AnnealConfig{
		Iterations: 3000,
		Stagnation: 3000,
		Seed:       1,
	})
	if err != nil {
		t.Fatalf("Anneal() error = %v", err)
	}
	if !best.Result.Landed() {
		t.Fatal("annealed best never landed")
	}
	if !best.Result.Feasible {
		t.Fatalf("annealed best infeasible: %+v", best.Result)
	}
	if _, ok := best.Policy.(model.BurnSchedule); !ok {
		t.Fatalf("best policy is %T, want model.BurnSchedule", best.Policy)
	}
	if best.Trace == nil || best.Trace.Len() == 0 {
		t.Error("best candidate carries no trace")
	}
}

func TestAnnealInfeasibleIsNotAnError(t *testing.T) {
	p := annealScenario()
	p.MaxImpactForce = 1 // nothing survives this

	best, err := Anneal(context.Background(), p, AnnealConfig{Iterations: 200, Stagnation: 200, Seed: 3})
	if err != nil {
		t.Fatalf("Anneal() error = %v, want nil", err)
	}
	if best.Result.Feasible {
		t.Fatal("candidate reported feasible under a 1N impact limit")
	}
	if best.Result.LandingTime < 0 {
		t.Errorf("LandingTime = %v, want non-negative", best.Result.LandingTime)
	}
}

func TestAnnealCancellationReturnsInitial(t *testing.T) {
	p := annealScenario()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	best, err := Anneal(ctx, p, AnnealConfig{Seed: 5})
	if err != nil {
		t.Fatalf("Anneal() error = %v, want nil on early stop", err)
	}

	rng := rand.New(rand.NewSource(5))
	initial := randomSchedule(rng, p, 3)
	if !reflect.DeepEqual(best.Policy, initial) {
		t.Errorf("cancelled run returned %v, want the initial schedule %v", best.Policy, initial)
	}
}

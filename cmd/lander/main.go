// Command lander runs the offline maneuver-search strategies over one
// descent scenario and prints the resulting landing plans.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/signalsfoundry/descent-simulator/core"
	"github.com/signalsfoundry/descent-simulator/internal/logging"
	"github.com/signalsfoundry/descent-simulator/internal/observability"
	"github.com/signalsfoundry/descent-simulator/model"
	"github.com/signalsfoundry/descent-simulator/search"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to a scenario JSON file (overrides the physics flags)")
	initialHeight := flag.Float64("initial-height", 5000, "h0 in metres")
	initialVelocity := flag.Float64("initial-velocity", 0, "v0 in m/s (negative = descending)")
	mass := flag.Float64("mass", 2641, "rocket mass in kg")
	maxThrust := flag.Float64("max-thrust", 20000, "maximum thrust in Newtons")
	gravity := flag.Float64("gravity", 1.62, "gravitational acceleration magnitude in m/s²")
	maxImpact := flag.Float64("max-impact-force", 300000, "maximum survivable impact force in Newtons")
	timeStep := flag.Float64("time-step", 0.05, "integration time step in seconds")

	strategy := flag.String("strategy", "all", "bruteforce | heuristic | anneal | all")
	gridStep := flag.Float64("grid-step", 1.0, "brute-force ignition-altitude spacing in metres")
	velocityROC := flag.Float64("velocity-roc", 1.0, "heuristic damping factor in (0, 1]")
	extraAltitude := flag.Float64("extra-altitude", 0, "heuristic safety buffer in metres")
	phases := flag.Int("phases", 3, "annealing burn-schedule length")
	iterations := flag.Int("iterations", 2000, "annealing iteration budget")
	stagnation := flag.Int("stagnation", 400, "annealing stagnation stop")
	workers := flag.Int("workers", 1, "annealing parallel evaluations per iteration")
	seed := flag.Int64("seed", 1, "annealing RNG seed")

	timeout := flag.Duration("timeout", 0, "overall search deadline (0 = none)")
	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics (empty = disabled)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, log := logging.WithRunLogger(context.Background(), log)

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, log)

	var metrics *observability.DescentCollector
	if *metricsAddr != "" {
		metrics, err = observability.NewDescentCollector(nil)
		if err != nil {
			log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
			os.Exit(1)
		}
		serveMetrics(*metricsAddr, metrics, log)
	}

	params := model.ScenarioParameters{
		InitialHeight:   *initialHeight,
		InitialVelocity: *initialVelocity,
		Mass:            *mass,
		MaxThrust:       *maxThrust,
		Gravity:         *gravity,
		MaxImpactForce:  *maxImpact,
		TimeStep:        *timeStep,
	}
	if *scenarioPath != "" {
		f, err := os.Open(*scenarioPath)
		if err != nil {
			log.Error(ctx, "failed to open scenario", logging.String("path", *scenarioPath), logging.String("error", err.Error()))
			os.Exit(1)
		}
		params, err = core.LoadScenario(f)
		f.Close()
		if err != nil {
			log.Error(ctx, "failed to load scenario", logging.String("path", *scenarioPath), logging.String("error", err.Error()))
			os.Exit(1)
		}
	}
	if err := params.Validate(); err != nil {
		log.Error(ctx, "invalid scenario", logging.String("error", err.Error()))
		os.Exit(1)
	}

	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	opts := []search.Option{search.WithLogger(log), search.WithMetrics(metrics)}
	failed := false

	runStrategy := func(name string, fn func() (model.Candidate, error)) {
		start := time.Now()
		cand, err := fn()
		if err != nil {
			log.Error(ctx, name+" search failed", logging.String("error", err.Error()))
			failed = true
			return
		}
		report(name, cand, time.Since(start))
	}

	switch *strategy {
	case "bruteforce":
		runStrategy("bruteforce", func() (model.Candidate, error) {
			return search.BruteForce(ctx, params, search.GridConfig{Step: *gridStep}, opts...)
		})
	case "heuristic":
		runStrategy("heuristic", func() (model.Candidate, error) {
			return search.PlanHeuristic(ctx, params, search.HeuristicConfig{VelocityROC: *velocityROC, ExtraAltitude: *extraAltitude}, opts...)
		})
	case "anneal":
		runStrategy("anneal", func() (model.Candidate, error) {
			return search.Anneal(ctx, params, annealConfig(*phases, *iterations, *stagnation, *workers, *seed), opts...)
		})
	case "all":
		runStrategy("bruteforce", func() (model.Candidate, error) {
			return search.BruteForce(ctx, params, search.GridConfig{Step: *gridStep}, opts...)
		})
		runStrategy("heuristic", func() (model.Candidate, error) {
			return search.PlanHeuristic(ctx, params, search.HeuristicConfig{VelocityROC: *velocityROC, ExtraAltitude: *extraAltitude}, opts...)
		})
		runStrategy("anneal", func() (model.Candidate, error) {
			return search.Anneal(ctx, params, annealConfig(*phases, *iterations, *stagnation, *workers, *seed), opts...)
		})
	default:
		fmt.Fprintf(os.Stderr, "unknown strategy %q (want bruteforce, heuristic, anneal, or all)\n", *strategy)
		os.Exit(2)
	}

	if failed {
		os.Exit(1)
	}
}

func annealConfig(phases, iterations, stagnation, workers int, seed int64) search.AnnealConfig {
	return search.AnnealConfig{
		Phases:     phases,
		Iterations: iterations,
		Stagnation: stagnation,
		Workers:    workers,
		Seed:       seed,
	}
}

func report(name string, cand model.Candidate, elapsed time.Duration) {
	r := cand.Result
	if !r.Landed() {
		fmt.Printf("%-10s no touchdown within the step cap, policy %v (search took %s)\n",
			name+":", cand.Policy, elapsed.Round(time.Millisecond))
		return
	}
	verdict := "INFEASIBLE"
	if r.Feasible {
		verdict = "feasible"
	}
	fmt.Printf("%-10s %s: landing %.2fs, impact %.2f m/s (%.0f N), policy %v (search took %s)\n",
		name+":", verdict, r.LandingTime, r.ImpactVelocity, r.ImpactForce, cand.Policy, elapsed.Round(time.Millisecond))
}

func serveMetrics(addr string, collector *observability.DescentCollector, log logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()
	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
}

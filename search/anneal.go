package search

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/descent-simulator/core"
	"github.com/signalsfoundry/descent-simulator/internal/logging"
	"github.com/signalsfoundry/descent-simulator/model"
)

// AnnealConfig controls the simulated-annealing search over multi-phase burn
// schedules. Zero values select defaults; Validate rejects nonsense.
type AnnealConfig struct {
	Phases      int     // schedule length; 0 selects 3
	Iterations  int     // total iteration budget; 0 selects 2000
	Stagnation  int     // stop after this many consecutive iterations without a new best; 0 selects 400
	InitialTemp float64 // starting acceptance temperature in objective units; 0 selects 25
	Cooling     float64 // geometric temperature decay per iteration, in (0, 1); 0 selects 0.995
	Workers     int     // perturbations evaluated concurrently per iteration; 0 selects 1
	Seed        int64   // RNG seed; a fixed seed and config reproduce the run exactly
}

func (c AnnealConfig) withDefaults() AnnealConfig {
	if c.Phases == 0 {
		c.Phases = 3
	}
	if c.Iterations == 0 {
		c.Iterations = 2000
	}
	if c.Stagnation == 0 {
		c.Stagnation = 400
	}
	if c.InitialTemp == 0 {
		c.InitialTemp = 25
	}
	if c.Cooling == 0 {
		c.Cooling = 0.995
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	return c
}

// Validate checks an already-defaulted config.
func (c AnnealConfig) Validate() error {
	if c.Phases < 1 {
		return &model.ConfigError{Field: "anneal.phases", Reason: "must be >= 1"}
	}
	if c.Iterations < 1 {
		return &model.ConfigError{Field: "anneal.iterations", Reason: "must be >= 1"}
	}
	if c.Stagnation < 1 {
		return &model.ConfigError{Field: "anneal.stagnation", Reason: "must be >= 1"}
	}
	if math.IsNaN(c.InitialTemp) || c.InitialTemp <= 0 {
		return &model.ConfigError{Field: "anneal.initial_temp", Reason: "must be > 0"}
	}
	if math.IsNaN(c.Cooling) || c.Cooling <= 0 || c.Cooling >= 1 {
		return &model.ConfigError{Field: "anneal.cooling", Reason: "must be in (0, 1)"}
	}
	if c.Workers < 1 {
		return &model.ConfigError{Field: "anneal.workers", Reason: "must be >= 1"}
	}
	return nil
}

// Objective shaping: infeasible candidates stay comparable, so the search can
// cross infeasible regions, but always score worse than any plausible landing
// time. Runs that never touch down rank below everything that lands.
const (
	infeasibleBase     = 1e6
	neverLandedPenalty = 1e9
)

func objective(p model.ScenarioParameters, r model.SimulationResult) float64 {
	if r.Feasible {
		return r.LandingTime
	}
	if !r.Landed() {
		return neverLandedPenalty
	}
	return infeasibleBase + (r.ImpactForce - p.MaxImpactForce)
}

// Anneal searches multi-phase burn schedules with simulated annealing:
// perturb the current schedule, re-simulate, always accept improvements, and
// accept regressions with a probability that cools over the run so early
// iterations can escape local optima while late iterations converge. The
// perturbation step size shrinks with the temperature, so the search refines
// its best region instead of jittering across the whole altitude range
// forever.
//
// Anneal is an anytime search: the returned candidate is the best ever
// observed by candidate ordering, which is never worse than the initial
// random schedule, and cancellation or the stagnation stop simply returns it
// early.
//
// When cfg.Workers > 1 each iteration draws a batch of perturbations and
// simulates them on a bounded worker pool; workers share only the read-only
// scenario and report back over a completion channel. Perturbation drawing
// and the accept/reject walk stay strictly sequential on the seeded RNG, so a
// fixed seed and config reproduce the run exactly.
func Anneal(ctx context.Context, p model.ScenarioParameters, cfg AnnealConfig, opts ...Option) (model.Candidate, error) {
	if err := p.Validate(); err != nil {
		return model.Candidate{}, err
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return model.Candidate{}, err
	}
	o := applyOptions(opts)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "search.Anneal")
	defer span.End()

	rng := rand.New(rand.NewSource(cfg.Seed))

	current := randomSchedule(rng, p, cfg.Phases)
	curCand := evaluate(p, current, o)
	curObj := objective(p, curCand.Result)
	best := curCand

	temp := cfg.InitialTemp
	sinceBest := 0
	iters := 0
	evals := 1

	for iter := 0; iter < cfg.Iterations; iter++ {
		if ctx.Err() != nil {
			break
		}
		iters++

		// Perturbation scale follows the temperature down, floored so the
		// search never freezes completely.
		scale := math.Max(temp/cfg.InitialTemp, 0.002)

		batch := make([]model.BurnSchedule, cfg.Workers)
		for i := range batch {
			batch[i] = perturb(rng, p, current, scale)
		}
		results := evaluateBatch(p, batch, cfg.Workers, o)
		evals += len(batch)

		improved := false
		for i, cand := range results {
			obj := objective(p, cand.Result)
			accept := obj <= curObj
			if !accept {
				accept = rng.Float64() < math.Exp((curObj-obj)/temp)
			}
			if accept {
				current = batch[i]
				curObj = obj
			}
			if cand.Better(best) {
				best = cand
				improved = true
			}
		}

		if improved {
			sinceBest = 0
		} else {
			sinceBest++
		}
		if sinceBest >= cfg.Stagnation {
			o.log.Debug(ctx, "annealing stagnated",
				logging.Int("iteration", iter),
				logging.Int("stagnation_limit", cfg.Stagnation),
			)
			break
		}
		temp *= cfg.Cooling
	}

	if sched, ok := best.Policy.(model.BurnSchedule); ok {
		result, trace := core.SimulateTrace(p, sched)
		best.Result = result
		best.Trace = &trace
	}

	span.SetAttributes(
		attribute.Int("search.iterations", iters),
		attribute.Int("search.evaluations", evals),
		attribute.Bool("search.feasible", best.Result.Feasible),
	)
	if best.Result.Landed() {
		span.SetAttributes(attribute.Float64("search.landing_time_s", best.Result.LandingTime))
	}
	o.metrics.RecordBest("anneal", best.Result)
	o.log.Info(ctx, "annealing finished",
		logging.Int("iterations", iters),
		logging.Int("evaluations", evals),
		logging.Any("policy", best.Policy),
	)
	return best, nil
}

func evaluate(p model.ScenarioParameters, s model.BurnSchedule, o options) model.Candidate {
	result := core.Simulate(p, s)
	o.metrics.ObserveSimulation("anneal", result.Steps)
	return model.Candidate{Policy: s, Result: result}
}

// evaluateBatch simulates every schedule in the batch, fanning out to at most
// workers goroutines. Workers only run the pure simulator; results come back
// positionally so the caller's sequential accept/reject walk is stable.
func evaluateBatch(p model.ScenarioParameters, batch []model.BurnSchedule, workers int, o options) []model.Candidate {
	out := make([]model.Candidate, len(batch))
	if workers <= 1 || len(batch) <= 1 {
		for i, s := range batch {
			out[i] = evaluate(p, s, o)
		}
		return out
	}

	type job struct {
		idx      int
		schedule model.BurnSchedule
	}
	type completion struct {
		idx  int
		cand model.Candidate
	}
	jobs := make(chan job)
	done := make(chan completion)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				done <- completion{idx: j.idx, cand: evaluate(p, j.schedule, o)}
			}
		}()
	}
	go func() {
		for i, s := range batch {
			jobs <- job{idx: i, schedule: s}
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(done)
	}()

	for c := range done {
		out[c.idx] = c.cand
	}
	return out
}

// randomSchedule draws phase thresholds across [0, h0], sorted descending so
// schedules read top-down, with uniform throttles.
func randomSchedule(rng *rand.Rand, p model.ScenarioParameters, phases int) model.BurnSchedule {
	alts := make([]float64, phases)
	for i := range alts {
		alts[i] = rng.Float64() * p.InitialHeight
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(alts)))

	s := model.BurnSchedule{Phases: make([]model.BurnPhase, phases)}
	for i := range s.Phases {
		s.Phases[i] = model.BurnPhase{Altitude: alts[i], Throttle: rng.Float64()}
	}
	return s
}

// perturb copies the schedule and jitters a single threshold or throttle,
// clamped into bounds. Altitude moves are relative to h0 so step sizes track
// the scenario; scale shrinks both as the run cools.
func perturb(rng *rand.Rand, p model.ScenarioParameters, s model.BurnSchedule, scale float64) model.BurnSchedule {
	phases := make([]model.BurnPhase, len(s.Phases))
	copy(phases, s.Phases)

	i := rng.Intn(len(phases))
	if rng.Intn(2) == 0 {
		delta := (rng.Float64()*2 - 1) * 0.05 * p.InitialHeight * scale
		phases[i].Altitude = clamp(phases[i].Altitude+delta, 0, p.InitialHeight)
	} else {
		delta := (rng.Float64()*2 - 1) * 0.2 * scale
		phases[i].Throttle = clamp(phases[i].Throttle+delta, 0, 1)
	}
	return model.BurnSchedule{Phases: phases}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package search

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/descent-simulator/core"
	"github.com/signalsfoundry/descent-simulator/model"
)

// HeuristicConfig tunes the closed-form suicide-burn estimator.
type HeuristicConfig struct {
	// VelocityROC in (0, 1] dampens the stopping-distance estimate. Values
	// below 1 ignite earlier, trading burn time for margin; 1 is the ideal
	// latest-possible ignition.
	VelocityROC float64
	// ExtraAltitude adds a fixed safety buffer in metres to the estimate.
	ExtraAltitude float64
}

// Validate rejects tuning outside the supported ranges.
func (c HeuristicConfig) Validate() error {
	if math.IsNaN(c.VelocityROC) || c.VelocityROC <= 0 || c.VelocityROC > 1 {
		return &model.ConfigError{Field: "heuristic.velocity_roc", Reason: "must be in (0, 1]"}
	}
	if math.IsNaN(c.ExtraAltitude) || math.IsInf(c.ExtraAltitude, 0) || c.ExtraAltitude < 0 {
		return &model.ConfigError{Field: "heuristic.extra_altitude", Reason: "must be >= 0 metres"}
	}
	return nil
}

// HeuristicPolicy is the online bang-bang suicide-burn law: full throttle
// once the current height drops to the ignition altitude estimated from the
// current velocity, free fall otherwise. The estimate is recomputed on every
// call because the velocity keeps changing; the same law serves the offline
// planner and the real-time controller.
type HeuristicPolicy struct {
	Decel float64 // peak net deceleration Fmax/m - g, always > 0
	Cfg   HeuristicConfig
}

// NewHeuristicPolicy builds the online control law for a scenario. It fails
// with a configuration error when maximum thrust cannot overcome gravity,
// since no ignition altitude can land that rocket.
func NewHeuristicPolicy(p model.ScenarioParameters, cfg HeuristicConfig) (HeuristicPolicy, error) {
	if err := cfg.Validate(); err != nil {
		return HeuristicPolicy{}, err
	}
	decel := p.DecelCapacity()
	if decel <= 0 {
		return HeuristicPolicy{}, &model.ConfigError{
			Field:  "max_thrust",
			Reason: fmt.Sprintf("%.1f N on %.1f kg cannot overcome gravity %.3f m/s²; landing is impossible", p.MaxThrust, p.Mass, p.Gravity),
		}
	}
	return HeuristicPolicy{Decel: decel, Cfg: cfg}, nil
}

// IgnitionAltitude estimates the burn-start height for velocity v: the
// kinematic stopping distance v²/(2·a_dec), stretched by VelocityROC and
// padded with ExtraAltitude. The estimate assumes constant a_dec, so it is
// exact only in the continuum limit.
func (h HeuristicPolicy) IgnitionAltitude(v float64) float64 {
	return v*v/(2*h.Decel*h.Cfg.VelocityROC) + h.Cfg.ExtraAltitude
}

// Throttle implements model.ControlPolicy.
func (h HeuristicPolicy) Throttle(s model.DescentState) float64 {
	if s.Height <= h.IgnitionAltitude(s.Velocity) {
		return 1
	}
	return 0
}

func (h HeuristicPolicy) String() string {
	return fmt.Sprintf("heuristic{velocity_roc=%.2f extra_altitude=%.1fm}", h.Cfg.VelocityROC, h.Cfg.ExtraAltitude)
}

// PlanHeuristic runs the heuristic policy through the simulator as a one-shot
// offline planner and returns the outcome as a candidate. Unlike the other
// strategies it evaluates exactly one policy; its cost is a single
// simulation.
func PlanHeuristic(ctx context.Context, p model.ScenarioParameters, cfg HeuristicConfig, opts ...Option) (model.Candidate, error) {
	if err := p.Validate(); err != nil {
		return model.Candidate{}, err
	}
	policy, err := NewHeuristicPolicy(p, cfg)
	if err != nil {
		return model.Candidate{}, err
	}
	o := applyOptions(opts)

	_, span := otel.Tracer(tracerName).Start(ctx, "search.PlanHeuristic")
	defer span.End()

	result, trace := core.SimulateTrace(p, policy)
	cand := model.Candidate{Policy: policy, Result: result, Trace: &trace}
	o.metrics.ObserveSimulation("heuristic", result.Steps)
	o.metrics.RecordBest("heuristic", result)

	span.SetAttributes(attribute.Bool("search.feasible", result.Feasible))
	if result.Landed() {
		span.SetAttributes(attribute.Float64("search.landing_time_s", result.LandingTime))
	}
	return cand, nil
}

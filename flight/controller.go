package flight

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/signalsfoundry/descent-simulator/internal/logging"
	"github.com/signalsfoundry/descent-simulator/internal/observability"
	"github.com/signalsfoundry/descent-simulator/model"
	"github.com/signalsfoundry/descent-simulator/search"
)

// State is the controller's lifecycle state.
type State int

const (
	Idle State = iota
	Running
	Landed
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Running:
		return "RUNNING"
	case Landed:
		return "LANDED"
	case Aborted:
		return "ABORTED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Config tunes the closed-loop landing controller.
type Config struct {
	// VelocityROC and ExtraAltitude parameterize the heuristic policy; see
	// search.HeuristicConfig.
	VelocityROC   float64
	ExtraAltitude float64

	// TickPeriod is the control-loop period. Defaults to 100ms.
	TickPeriod time.Duration
	// TickTimeout bounds each telemetry or actuation call; exceeding it is
	// treated as a failure of that call. Defaults to TickPeriod.
	TickTimeout time.Duration
	// TelemetryRetries bounds how many times a failed telemetry read is
	// retried before the flight is aborted. Zero means a single attempt.
	TelemetryRetries uint
	// LandingEpsilon treats heights at or below it as touchdown.
	LandingEpsilon float64
}

func (c Config) withDefaults() Config {
	if c.TickPeriod <= 0 {
		c.TickPeriod = 100 * time.Millisecond
	}
	if c.TickTimeout <= 0 {
		c.TickTimeout = c.TickPeriod
	}
	return c
}

// Controller executes the heuristic policy against a live flight in closed
// loop, with no access to future telemetry. One Controller drives one
// flight; it is not reusable after Run returns.
//
// The loop never blocks indefinitely: every telemetry and actuation call
// carries a deadline, the inter-tick sleep goes through the injected Clock,
// and cancellation is observed at the top of each iteration. Whatever the
// outcome, exactly one final zero-throttle command is issued before Run
// returns.
type Controller struct {
	link    Link
	policy  search.HeuristicPolicy
	cfg     Config
	clock   Clock
	log     logging.Logger
	metrics *observability.DescentCollector

	mu        sync.Mutex
	state     State
	finalSent bool
}

// ControllerOption overrides a controller collaborator.
type ControllerOption func(*Controller)

// WithClock substitutes the wall clock, mainly for tests.
func WithClock(clock Clock) ControllerOption {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(log logging.Logger) ControllerOption {
	return func(c *Controller) {
		if log != nil {
			c.log = log
		}
	}
}

// WithMetrics publishes controller metrics to the collector.
func WithMetrics(m *observability.DescentCollector) ControllerOption {
	return func(c *Controller) { c.metrics = m }
}

// NewController validates the scenario and tuning and wires the control
// loop. The scenario is consulted only for the deceleration capacity; live
// height and velocity come from the link.
func NewController(link Link, p model.ScenarioParameters, cfg Config, opts ...ControllerOption) (*Controller, error) {
	if link == nil {
		return nil, fmt.Errorf("flight: link is nil")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if cfg.LandingEpsilon < 0 {
		return nil, &model.ConfigError{Field: "landing_epsilon", Reason: "must be >= 0 metres"}
	}
	policy, err := search.NewHeuristicPolicy(p, search.HeuristicConfig{
		VelocityROC:   cfg.VelocityROC,
		ExtraAltitude: cfg.ExtraAltitude,
	})
	if err != nil {
		return nil, err
	}

	c := &Controller{
		link:   link,
		policy: policy,
		cfg:    cfg,
		clock:  RealClock(),
		log:    logging.Noop(),
		state:  Idle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State reports the controller's current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Run drives the loop until touchdown, an unrecoverable failure, or context
// cancellation, and returns the terminal state. The returned error is nil
// only for a landing.
func (c *Controller) Run(ctx context.Context) (State, error) {
	if s := c.State(); s != Idle {
		return s, fmt.Errorf("flight: controller already ran (state %s)", s)
	}

	tel, err := c.readTelemetry(ctx, 0)
	if err != nil {
		return c.abort(ctx, err)
	}
	c.setState(Running)
	c.log.Info(ctx, "maneuver started",
		logging.Float64("height_m", tel.Height),
		logging.Float64("velocity_mps", tel.Velocity),
		logging.Duration("tick_period", c.cfg.TickPeriod),
	)

	for tick := 1; ; tick++ {
		// Cooperative cancellation, observed at the top of every iteration.
		select {
		case <-ctx.Done():
			return c.abort(ctx, ctx.Err())
		default:
		}

		tel, err = c.readTelemetry(ctx, tick)
		if err != nil {
			return c.abort(ctx, err)
		}
		c.metrics.ObserveControllerTick()

		if tel.Height <= c.cfg.LandingEpsilon {
			c.log.Info(ctx, "touchdown",
				logging.Int("tick", tick),
				logging.Float64("velocity_mps", tel.Velocity),
			)
			c.sendFinalZero(ctx)
			c.setState(Landed)
			return Landed, nil
		}

		tau := c.policy.Throttle(model.DescentState{Height: tel.Height, Velocity: tel.Velocity})
		if err := c.commandThrottle(ctx, tick, tau); err != nil {
			return c.abort(ctx, err)
		}

		select {
		case <-ctx.Done():
			return c.abort(ctx, ctx.Err())
		case <-c.clock.After(c.cfg.TickPeriod):
		}
	}
}

// readTelemetry samples the link under the per-call deadline, retrying
// transient failures with exponential backoff up to the configured bound
// before escalating.
func (c *Controller) readTelemetry(ctx context.Context, tick int) (Telemetry, error) {
	attempts := 0
	read := func() (Telemetry, error) {
		if attempts > 0 {
			c.metrics.ObserveTelemetryRetry()
		}
		attempts++
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.TickTimeout)
		defer cancel()
		return c.link.ReadState(callCtx)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 10 * time.Millisecond
	bo.MaxInterval = c.cfg.TickPeriod

	tel, err := backoff.Retry(ctx, read,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(c.cfg.TelemetryRetries+1),
	)
	if err != nil {
		return Telemetry{}, &TelemetryError{Tick: tick, Err: err}
	}
	return tel, nil
}

// commandThrottle sends one throttle command. Failures are terminal for the
// flight: a stale re-command is worse than no command.
func (c *Controller) commandThrottle(ctx context.Context, tick int, tau float64) error {
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.TickTimeout)
	defer cancel()
	if err := c.link.SetThrottle(callCtx, tau); err != nil {
		return &ActuationError{Tick: tick, Fraction: tau, Err: err}
	}
	c.metrics.ObserveThrottleCommand()
	c.log.Debug(ctx, "throttle commanded",
		logging.Int("tick", tick),
		logging.Float64("throttle", tau),
	)
	return nil
}

func (c *Controller) abort(ctx context.Context, cause error) (State, error) {
	c.sendFinalZero(ctx)
	c.setState(Aborted)
	c.log.Error(ctx, "maneuver aborted", logging.String("cause", cause.Error()))
	return Aborted, cause
}

// sendFinalZero issues the terminal zero-throttle safety command, at most
// once, on a detached timeout so a cancelled flight context cannot suppress
// it. A failure here is logged and dropped: the flight is already over.
func (c *Controller) sendFinalZero(ctx context.Context) {
	c.mu.Lock()
	if c.finalSent {
		c.mu.Unlock()
		return
	}
	c.finalSent = true
	c.mu.Unlock()

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.TickTimeout)
	defer cancel()
	if err := c.link.SetThrottle(callCtx, 0); err != nil {
		c.log.Warn(ctx, "final zero-throttle command failed", logging.String("error", err.Error()))
		return
	}
	c.metrics.ObserveThrottleCommand()
}

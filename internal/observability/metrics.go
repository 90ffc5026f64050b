package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/descent-simulator/model"
)

// DescentCollector bundles Prometheus metrics for the search strategies and
// the real-time controller. All observe methods tolerate a nil receiver so
// metrics stay strictly optional for callers.
type DescentCollector struct {
	gatherer prometheus.Gatherer

	Simulations     *prometheus.CounterVec
	SimulationSteps prometheus.Histogram

	BestLandingTime *prometheus.GaugeVec
	BestImpactForce *prometheus.GaugeVec

	ControllerTicks  prometheus.Counter
	TelemetryRetries prometheus.Counter
	ThrottleCommands prometheus.Counter
}

// NewDescentCollector registers descent metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewDescentCollector(reg prometheus.Registerer) (*DescentCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	sims := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "descent_simulations_total",
		Help: "Total simulator runs, labeled by search strategy.",
	}, []string{"strategy"})
	sims, err := registerCounterVec(reg, sims, "descent_simulations_total")
	if err != nil {
		return nil, err
	}

	steps, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "descent_simulation_steps",
		Help:    "Integration steps per simulator run.",
		Buckets: prometheus.ExponentialBuckets(100, 4, 10),
	}), "descent_simulation_steps")
	if err != nil {
		return nil, err
	}

	bestTime, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "descent_best_landing_time_seconds",
		Help: "Landing time of the best candidate a strategy has settled on.",
	}, []string{"strategy"}), "descent_best_landing_time_seconds")
	if err != nil {
		return nil, err
	}
	bestForce, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "descent_best_impact_force_newtons",
		Help: "Impact force of the best candidate a strategy has settled on.",
	}, []string{"strategy"}), "descent_best_impact_force_newtons")
	if err != nil {
		return nil, err
	}

	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "controller_ticks_total",
		Help: "Control-loop iterations executed by the real-time controller.",
	}), "controller_ticks_total")
	if err != nil {
		return nil, err
	}
	retries, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "controller_telemetry_retries_total",
		Help: "Telemetry reads that had to be retried before succeeding or aborting.",
	}), "controller_telemetry_retries_total")
	if err != nil {
		return nil, err
	}
	commands, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "controller_throttle_commands_total",
		Help: "Throttle commands accepted by the actuation interface.",
	}), "controller_throttle_commands_total")
	if err != nil {
		return nil, err
	}

	return &DescentCollector{
		gatherer:         gatherer,
		Simulations:      sims,
		SimulationSteps:  steps,
		BestLandingTime:  bestTime,
		BestImpactForce:  bestForce,
		ControllerTicks:  ticks,
		TelemetryRetries: retries,
		ThrottleCommands: commands,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *DescentCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveSimulation records one simulator run for a strategy.
func (c *DescentCollector) ObserveSimulation(strategy string, steps int) {
	if c == nil {
		return
	}
	if c.Simulations != nil {
		c.Simulations.WithLabelValues(strategy).Inc()
	}
	if c.SimulationSteps != nil {
		c.SimulationSteps.Observe(float64(steps))
	}
}

// RecordBest publishes the best candidate a strategy has settled on. Runs
// that never landed are skipped: there is no finite landing time to report.
func (c *DescentCollector) RecordBest(strategy string, r model.SimulationResult) {
	if c == nil || !r.Landed() {
		return
	}
	if c.BestLandingTime != nil {
		c.BestLandingTime.WithLabelValues(strategy).Set(r.LandingTime)
	}
	if c.BestImpactForce != nil {
		c.BestImpactForce.WithLabelValues(strategy).Set(r.ImpactForce)
	}
}

// ObserveControllerTick records one control-loop iteration.
func (c *DescentCollector) ObserveControllerTick() {
	if c == nil || c.ControllerTicks == nil {
		return
	}
	c.ControllerTicks.Inc()
}

// ObserveTelemetryRetry records one retried telemetry read.
func (c *DescentCollector) ObserveTelemetryRetry() {
	if c == nil || c.TelemetryRetries == nil {
		return
	}
	c.TelemetryRetries.Inc()
}

// ObserveThrottleCommand records one accepted throttle command.
func (c *DescentCollector) ObserveThrottleCommand() {
	if c == nil || c.ThrottleCommands == nil {
		return
	}
	c.ThrottleCommands.Inc()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

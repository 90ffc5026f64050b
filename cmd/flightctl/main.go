// Command flightctl flies a live descent: it connects to an external flight
// simulator, runs the closed-loop landing controller against it, and exits
// zero only on touchdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/descent-simulator/flight"
	"github.com/signalsfoundry/descent-simulator/internal/flightlink"
	"github.com/signalsfoundry/descent-simulator/internal/logging"
	"github.com/signalsfoundry/descent-simulator/internal/observability"
	"github.com/signalsfoundry/descent-simulator/model"
)

func main() {
	addr := flag.String("addr", "localhost:50000", "flight simulator address")
	dialTimeout := flag.Duration("dial-timeout", 5*time.Second, "connection timeout")

	mass := flag.Float64("mass", 2641, "rocket mass in kg")
	maxThrust := flag.Float64("max-thrust", 20000, "maximum thrust in Newtons")
	gravity := flag.Float64("gravity", 1.62, "gravitational acceleration magnitude in m/s²")
	maxImpact := flag.Float64("max-impact-force", 300000, "maximum survivable impact force in Newtons")
	initialHeight := flag.Float64("initial-height", 5000, "expected h0 in metres (scenario validation only)")
	timeStep := flag.Float64("time-step", 0.05, "scenario time step in seconds (scenario validation only)")

	velocityROC := flag.Float64("velocity-roc", 0.8, "deceleration damping factor in (0, 1]")
	extraAltitude := flag.Float64("extra-altitude", 10, "ignition safety buffer in metres")
	tickPeriod := flag.Duration("tick", 100*time.Millisecond, "control-loop period")
	tickTimeout := flag.Duration("tick-timeout", 0, "per-call telemetry/actuation deadline (0 = tick period)")
	retries := flag.Uint("telemetry-retries", 3, "telemetry read retries before aborting")
	epsilon := flag.Float64("landing-epsilon", 0.5, "height at or below which the flight counts as landed")

	metricsAddr := flag.String("metrics-addr", "", "HTTP address for Prometheus /metrics (empty = disabled)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, log := logging.WithRunLogger(context.Background(), log)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

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
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				log.Warn(ctx, "metrics server exited", logging.String("error", err.Error()))
			}
		}()
		log.Info(ctx, "serving Prometheus metrics", logging.String("addr", *metricsAddr))
	}

	params := model.ScenarioParameters{
		InitialHeight:  *initialHeight,
		Mass:           *mass,
		MaxThrust:      *maxThrust,
		Gravity:        *gravity,
		MaxImpactForce: *maxImpact,
		TimeStep:       *timeStep,
	}

	link, err := flightlink.Dial(*addr, *dialTimeout)
	if err != nil {
		log.Error(ctx, "failed to reach flight simulator", logging.String("addr", *addr), logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer link.Close()

	ctrl, err := flight.NewController(link, params, flight.Config{
		VelocityROC:      *velocityROC,
		ExtraAltitude:    *extraAltitude,
		TickPeriod:       *tickPeriod,
		TickTimeout:      *tickTimeout,
		TelemetryRetries: *retries,
		LandingEpsilon:   *epsilon,
	}, flight.WithLogger(log), flight.WithMetrics(metrics))
	if err != nil {
		log.Error(ctx, "invalid controller configuration", logging.String("error", err.Error()))
		os.Exit(1)
	}

	state, err := ctrl.Run(ctx)
	if err != nil {
		log.Error(ctx, "flight did not land", logging.String("state", state.String()), logging.String("error", err.Error()))
		os.Exit(1)
	}
	fmt.Printf("flight complete: %s\n", state)
}

package flight

import (
	"context"
	"fmt"
)

// Telemetry is one live sample from the external flight simulator.
type Telemetry struct {
	Height   float64 // metres above the surface
	Velocity float64 // vertical m/s, negative while descending
}

// Link is the telemetry/actuation channel to the external flight simulator.
// Both calls are synchronous and may fail; those failures are signaled
// distinctly from physics infeasibility, which is never an error.
type Link interface {
	// ReadState samples the current height and vertical velocity.
	ReadState(ctx context.Context) (Telemetry, error)
	// SetThrottle commands a throttle fraction in [0, 1].
	SetThrottle(ctx context.Context, fraction float64) error
}

// TelemetryError wraps a telemetry read that kept failing past the retry
// bound, carrying the tick it happened on.
type TelemetryError struct {
	Tick int
	Err  error
}

func (e *TelemetryError) Error() string {
	return fmt.Sprintf("telemetry read failed at tick %d: %v", e.Tick, e.Err)
}

func (e *TelemetryError) Unwrap() error { return e.Err }

// ActuationError wraps a failed throttle command with the tick and commanded
// fraction. Actuation failures are never retried: re-commanding thrust with
// stale state is unsafe.
type ActuationError struct {
	Tick     int
	Fraction float64
	Err      error
}

func (e *ActuationError) Error() string {
	return fmt.Sprintf("throttle command %.2f failed at tick %d: %v", e.Fraction, e.Tick, e.Err)
}

func (e *ActuationError) Unwrap() error { return e.Err }

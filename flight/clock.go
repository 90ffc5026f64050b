// Package flight contains the real-time landing controller: a closed
// feedback loop that samples live telemetry from an external flight
// simulator and applies the heuristic policy's commanded throttle through the
// actuation interface.
package flight

import "time"

// Clock abstracts wall time so the controller's tick loop is testable
// without real sleeps.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// After returns a channel that fires once d has elapsed.
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

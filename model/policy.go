package model

import (
	"fmt"
	"strings"
)

// ControlPolicy maps the current descent state to a throttle fraction in
// [0, 1]. Applied thrust is the fraction times Fmax, always directed upward.
// Policies are pure functions of state; the simulator clamps out-of-range
// fractions rather than trusting implementations.
//
// Each search strategy owns its policy representation end to end: brute force
// produces SingleSwitch, the heuristic produces its own online law, and the
// annealer produces BurnSchedule.
type ControlPolicy interface {
	Throttle(s DescentState) float64
}

// FreeFall never fires the engine.
type FreeFall struct{}

func (FreeFall) Throttle(DescentState) float64 { return 0 }

func (FreeFall) String() string { return "free-fall" }

// SingleSwitch coasts until the ignition altitude, then burns at full
// throttle: the classic suicide-burn shape.
type SingleSwitch struct {
	IgniteAltitude float64
}

func (p SingleSwitch) Throttle(s DescentState) float64 {
	if s.Height <= p.IgniteAltitude {
		return 1
	}
	return 0
}

func (p SingleSwitch) String() string {
	return fmt.Sprintf("single-switch{h_ignite=%.2fm}", p.IgniteAltitude)
}

// BurnPhase pairs an altitude threshold with a throttle fraction.
type BurnPhase struct {
	Altitude float64 `json:"altitude"`
	Throttle float64 `json:"throttle"`
}

// BurnSchedule is a finite ordered multi-phase schedule. The last phase whose
// altitude threshold is at or above the current height supplies the throttle;
// above every threshold the rocket coasts. A one-phase schedule with throttle
// 1 is exactly a SingleSwitch.
type BurnSchedule struct {
	Phases []BurnPhase
}

func (p BurnSchedule) Throttle(s DescentState) float64 {
	tau := 0.0
	for _, ph := range p.Phases {
		if s.Height <= ph.Altitude {
			tau = ph.Throttle
		}
	}
	if tau < 0 {
		return 0
	}
	if tau > 1 {
		return 1
	}
	return tau
}

func (p BurnSchedule) String() string {
	parts := make([]string, 0, len(p.Phases))
	for _, ph := range p.Phases {
		parts = append(parts, fmt.Sprintf("%.1fm:%.2f", ph.Altitude, ph.Throttle))
	}
	return "schedule{" + strings.Join(parts, " ") + "}"
}

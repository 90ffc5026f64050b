package model

// DescentState is a snapshot of the rocket on its single vertical axis.
// Height is clamped to zero at touchdown and never goes negative.
type DescentState struct {
	Height   float64 `json:"height"`   // metres above the surface
	Velocity float64 `json:"velocity"` // m/s, negative while descending
	Time     float64 `json:"time"`     // seconds since the start of the maneuver
}

// Trace is the ordered state history of one simulation run. It is owned by
// the run that produced it; searches keep only the best candidate's trace.
type Trace struct {
	States []DescentState
}

// Append records one state at the end of the trace.
func (t *Trace) Append(s DescentState) {
	t.States = append(t.States, s)
}

// Final returns the last recorded state, if any.
func (t *Trace) Final() (DescentState, bool) {
	if t == nil || len(t.States) == 0 {
		return DescentState{}, false
	}
	return t.States[len(t.States)-1], true
}

// Len returns the number of recorded states.
func (t *Trace) Len() int {
	if t == nil {
		return 0
	}
	return len(t.States)
}

package model

import "math"

// SimulationResult summarizes one simulated descent.
//
// ImpactForce is derived as mass * |impact velocity| / dt, the deceleration
// implied by stopping within one integration step at touchdown; it is the
// quantity compared against the scenario's MaxImpactForce. A run that hits
// the step cap without landing carries LandingTime = +Inf and is never
// feasible.
type SimulationResult struct {
	LandingTime    float64 // seconds; +Inf when the step cap was hit
	ImpactVelocity float64 // m/s at the step that crossed zero height
	ImpactForce    float64 // Newtons
	Feasible       bool
	Steps          int // integration steps consumed
}

// Landed reports whether the run reached the ground at all.
func (r SimulationResult) Landed() bool {
	return !math.IsInf(r.LandingTime, 1)
}

// Candidate pairs a control policy with the result of simulating it.
// Infeasible candidates are first-class outcomes, not errors: a search that
// finds nothing feasible still returns its best effort.
type Candidate struct {
	Policy ControlPolicy
	Result SimulationResult
	Trace  *Trace // optional; retained only for the best-found candidate
}

// Better reports whether c beats other under the candidate ordering:
// feasible candidates always win over infeasible ones, then shorter landing
// time, then gentler impact. Among infeasible candidates the gentler impact
// wins, so "closest to feasible" survives a fruitless search.
//
// Better is a strict ordering usable as a commutative, associative min
// reduction across independent evaluations.
func (c Candidate) Better(other Candidate) bool {
	if c.Result.Feasible != other.Result.Feasible {
		return c.Result.Feasible
	}
	if !c.Result.Feasible {
		// A hard landing still beats never touching down at all; a capped
		// run reports zero impact force, which must not rank as "gentle".
		if c.Result.Landed() != other.Result.Landed() {
			return c.Result.Landed()
		}
		if !c.Result.Landed() {
			return false
		}
		if c.Result.ImpactForce != other.Result.ImpactForce {
			return c.Result.ImpactForce < other.Result.ImpactForce
		}
		return c.Result.LandingTime < other.Result.LandingTime
	}
	if c.Result.LandingTime != other.Result.LandingTime {
		return c.Result.LandingTime < other.Result.LandingTime
	}
	return c.Result.ImpactForce < other.Result.ImpactForce
}

// Package integrator implements the two numerical integration schemes a
// periodic event can run over its queued parts each tick: explicit Euler
// and classical fourth-order Runge-Kutta.
package integrator

import "github.com/san-kum/eventsim/internal/visitor"

// Walkable is the narrow view of an event an integrator needs: the
// ability to invoke a callback once per queued/targeted part.
type Walkable interface {
	Visit(f visitor.Func)
}

// TimeStepper is implemented by periodic events (EventStep), letting
// RungeKutta rewind the clock and halve dt for its midpoint passes. Spike
// events do not implement it, so RungeKutta falls back to a single
// integrate pass for them.
type TimeStepper interface {
	Walkable
	GetT() float64
	SetT(float64)
	GetDt() float64
	SetDt(float64)
}

// Integrator advances every part an event is responsible for by one
// timestep.
type Integrator interface {
	Run(e Walkable)
}

// Euler is explicit first-order integration: a single call to each part's
// Integrate.
type Euler struct{}

func (Euler) Run(e Walkable) {
	e.Visit(func(v *visitor.Visitor) {
		v.Part.Integrate()
	})
}

// RungeKutta is the classical fourth-order method. For a TimeStepper event
// it takes two half-step midpoint evaluations (k2, k3) by temporarily
// halving dt and stepping t back half a timestep, then restores both
// before the final full-step (k4) and combination pass. For a plain
// Walkable (a spike event with no notion of dt) it degrades to a single
// integrate, since there is nothing to subdivide.
type RungeKutta struct{}

func (RungeKutta) Run(e Walkable) {
	ts, ok := e.(TimeStepper)
	if !ok {
		e.Visit(func(v *visitor.Visitor) {
			v.Part.Integrate()
		})
		return
	}

	// k1
	e.Visit(func(v *visitor.Visitor) {
		v.Part.Snapshot()
		v.Part.PushDerivative()
	})

	// k2 and k3: evaluate at the midpoint, accumulating 2x into the
	// derivative stack.
	t := ts.GetT()
	dt := ts.GetDt()
	ts.SetDt(dt / 2)
	ts.SetT(t - dt/2)
	for i := 0; i < 2; i++ {
		e.Visit(func(v *visitor.Visitor) {
			v.Part.Integrate()
		})
		e.Visit(func(v *visitor.Visitor) {
			v.Part.UpdateDerivative()
		})
		e.Visit(func(v *visitor.Visitor) {
			v.Part.FinalizeDerivative()
			v.Part.MultiplyAddToStack(2.0)
		})
	}
	ts.SetDt(dt)
	ts.SetT(t)

	// k4
	e.Visit(func(v *visitor.Visitor) {
		v.Part.Integrate()
	})
	e.Visit(func(v *visitor.Visitor) {
		v.Part.UpdateDerivative()
	})
	e.Visit(func(v *visitor.Visitor) {
		v.Part.FinalizeDerivative()
		v.Part.AddToMembers() // clears the derivative stack
	})

	// combine and finish
	e.Visit(func(v *visitor.Visitor) {
		v.Part.Multiply(1.0 / 6.0)
	})
	e.Visit(func(v *visitor.Visitor) {
		v.Part.Integrate()
	})
	e.Visit(func(v *visitor.Visitor) {
		v.Part.Restore()
	})
}

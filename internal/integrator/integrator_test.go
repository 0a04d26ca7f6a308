package integrator

import (
	"math"
	"testing"

	"github.com/san-kum/eventsim/internal/part"
	"github.com/san-kum/eventsim/internal/sampling"
	"github.com/san-kum/eventsim/internal/visitor"
)

// fakeTimeStepper is a minimal TimeStepper used to drive the integrators
// without pulling in the event package (which itself imports integrator).
type fakeTimeStepper struct {
	t, dt float64
	part  part.Part
}

func (f *fakeTimeStepper) Visit(fn visitor.Func) {
	v := &visitor.Visitor{Part: f.part}
	fn(v)
}
func (f *fakeTimeStepper) GetT() float64    { return f.t }
func (f *fakeTimeStepper) SetT(t float64)   { f.t = t }
func (f *fakeTimeStepper) GetDt() float64   { return f.dt }
func (f *fakeTimeStepper) SetDt(dt float64) { f.dt = dt }

// fakeWalkable implements only Walkable, not TimeStepper, to exercise the
// RungeKutta fallback path for one-shot events.
type fakeWalkable struct {
	part part.Part
}

func (f *fakeWalkable) Visit(fn visitor.Func) {
	v := &visitor.Visitor{Part: f.part}
	fn(v)
}

// linearPart integrates dx/dt = lambda*x via the snapshot/push/update/
// finalize/multiply hook sequence the integrators drive.
type linearPart struct {
	part.Timed
	x, lambda float64
	xSnap, d, stack float64
	ev *fakeTimeStepper

	integrateCalls int
}

func newLinearPart(x0, lambda float64) *linearPart {
	p := &linearPart{x: x0, lambda: lambda}
	p.Bind(p)
	return p
}

func (p *linearPart) Init(sampling.Sampler) {}

func (p *linearPart) Snapshot() { p.xSnap = p.x }

func (p *linearPart) PushDerivative() {
	p.d = p.lambda * p.xSnap
	p.stack = p.d
}

func (p *linearPart) Integrate() {
	p.integrateCalls++
	p.x = p.xSnap + p.ev.GetDt()*p.d
}

func (p *linearPart) UpdateDerivative() {
	p.d = p.lambda * p.x
}

func (p *linearPart) FinalizeDerivative() {}

func (p *linearPart) MultiplyAddToStack(scalar float64) {
	p.stack += scalar * p.d
}

func (p *linearPart) AddToMembers() {
	p.stack += p.d
	p.d = p.stack
	p.stack = 0
}

func (p *linearPart) Multiply(scalar float64) {
	p.d *= scalar
}

func (p *linearPart) Restore() {}

func TestEulerIntegratesOnce(t *testing.T) {
	p := newLinearPart(1, -1)
	ev := &fakeTimeStepper{t: 0, dt: 0.1, part: p}
	p.ev = ev
	// Euler only calls Integrate; wire a derivative directly since Euler
	// doesn't call PushDerivative/UpdateDerivative.
	p.xSnap = p.x
	p.d = p.lambda * p.x

	Euler{}.Run(ev)

	if p.integrateCalls != 1 {
		t.Fatalf("integrateCalls = %d, want 1", p.integrateCalls)
	}
	want := 1 + 0.1*(-1)*1
	if math.Abs(p.x-want) > 1e-12 {
		t.Fatalf("x = %v, want %v", p.x, want)
	}
}

func TestRungeKuttaMatchesClosedFormBetterThanEuler(t *testing.T) {
	const lambda = -1.0
	const dt = 0.1
	const steps = 10
	x0 := 1.0
	want := x0 * math.Exp(lambda*dt*steps)

	// RK4
	rk := newLinearPart(x0, lambda)
	ev := &fakeTimeStepper{t: 0, dt: dt}
	rk.ev = ev
	ev.part = rk
	for i := 0; i < steps; i++ {
		RungeKutta{}.Run(ev)
	}
	rkErr := math.Abs(rk.x - want)

	// Euler, for comparison
	eu := newLinearPart(x0, lambda)
	eu.xSnap = eu.x
	euEv := &fakeTimeStepper{t: 0, dt: dt, part: eu}
	eu.ev = euEv
	for i := 0; i < steps; i++ {
		eu.xSnap = eu.x
		eu.d = eu.lambda * eu.x
		Euler{}.Run(euEv)
	}
	eulerErr := math.Abs(eu.x - want)

	if rkErr >= eulerErr {
		t.Fatalf("expected RK4 error (%v) to be smaller than Euler error (%v) for dx/dt=lambda*x", rkErr, eulerErr)
	}
	if rkErr > 1e-5 {
		t.Fatalf("RK4 error = %v, want < 1e-5 for dt=%v over %d steps", rkErr, dt, steps)
	}
}

func TestRungeKuttaRestoresTimeAndStepAfterRun(t *testing.T) {
	p := newLinearPart(1, -1)
	ev := &fakeTimeStepper{t: 5, dt: 0.2}
	p.ev = ev
	ev.part = p

	RungeKutta{}.Run(ev)

	if ev.t != 5 {
		t.Fatalf("t = %v, want 5 (restored)", ev.t)
	}
	if ev.dt != 0.2 {
		t.Fatalf("dt = %v, want 0.2 (restored)", ev.dt)
	}
}

func TestRungeKuttaFallsBackToSingleIntegrateForPlainWalkable(t *testing.T) {
	p := newLinearPart(1, -1)
	p.xSnap = p.x
	p.d = p.lambda * p.x
	p.ev = &fakeTimeStepper{dt: 0.1, part: p} // only used so Integrate() has a dt source
	w := &fakeWalkable{part: p}

	RungeKutta{}.Run(w)

	if p.integrateCalls != 1 {
		t.Fatalf("integrateCalls = %d, want 1 for non-TimeStepper event", p.integrateCalls)
	}
}

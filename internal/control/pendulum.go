package control

import (
	"github.com/san-kum/eventsim/internal/dynamo"
	"github.com/san-kum/eventsim/internal/part"
	"github.com/san-kum/eventsim/internal/sampling"
)

// Pendulum is a single-part demonstration of a controller driving a part's
// own dynamics inside the event loop: a gravity pendulum, stabilized at
// Target radians by a PID torque. Under RungeKutta it is integrated through
// the snapshot/push-derivative/multiply-add hook sequence (see linearPart
// in the integrator package's own tests); Euler calls only Integrate, which
// advances from the state and derivative that Init and Update stage. It
// exercises [dynamo.State], [dynamo.FastSin], and a [PID]
// together the way a concrete simulation part is expected to combine them.
type Pendulum struct {
	part.Timed

	Theta  float64 // angle from the downward rest position, radians
	Omega  float64 // angular velocity
	Target float64
	ctrl   *PID
	torque float64

	thetaSnap, omegaSnap   float64
	dTheta, dOmega         float64
	stackTheta, stackOmega float64
}

// NewPendulum builds a pendulum stabilized at target radians with the given
// PID gains.
func NewPendulum(kp, ki, kd, target float64) *Pendulum {
	p := &Pendulum{Target: target, ctrl: NewPID(kp, ki, kd, target)}
	p.Bind(p)
	return p
}

// Init seeds the starting angle with a small random perturbation around the
// downward rest position, the way a population's factory randomizes a
// fresh part's initial state.
func (p *Pendulum) Init(s sampling.Sampler) {
	p.Theta = s.UniformSigma(0.2) - 0.1
	p.Omega = 0
	p.thetaSnap, p.omegaSnap = p.Theta, p.Omega
	p.dTheta, p.dOmega = p.Omega, -dynamo.FastSin(p.Theta)+p.torque
}

// Snapshot records the state the current step started at, so every RK4
// sub-evaluation derives from the same starting point instead of the
// partially-advanced state left by the previous sub-evaluation's Integrate.
func (p *Pendulum) Snapshot() {
	p.thetaSnap = p.Theta
	p.omegaSnap = p.Omega
}

// PushDerivative seeds k1 from the snapshot state, under the torque Update
// computed on the previous step (torque is held fixed across one RK4
// pass, matching a zero-order-hold controller).
func (p *Pendulum) PushDerivative() {
	p.dTheta = p.omegaSnap
	p.dOmega = -dynamo.FastSin(p.thetaSnap) + p.torque
	p.stackTheta = p.dTheta
	p.stackOmega = p.dOmega
}

// Integrate advances (Theta, Omega) from the snapshot by dt along the
// currently active derivative (dTheta, dOmega).
func (p *Pendulum) Integrate() {
	dt := p.GetEvent().Dt()
	p.Theta = p.thetaSnap + dt*p.dTheta
	p.Omega = p.omegaSnap + dt*p.dOmega
}

// UpdateDerivative re-evaluates the derivative at the state the previous
// Integrate call landed on (k2/k3/k4's sample points).
func (p *Pendulum) UpdateDerivative() {
	p.dTheta = p.Omega
	p.dOmega = -dynamo.FastSin(p.Theta) + p.torque
}

func (p *Pendulum) FinalizeDerivative() {}

// MultiplyAddToStack accumulates a weighted k2/k3 sample into the running
// sum RungeKutta combines into the final averaged slope.
func (p *Pendulum) MultiplyAddToStack(scalar float64) {
	p.stackTheta += scalar * p.dTheta
	p.stackOmega += scalar * p.dOmega
}

// AddToMembers folds k4 into the stack and hands the combined sum back to
// (dTheta, dOmega), clearing the stack.
func (p *Pendulum) AddToMembers() {
	p.stackTheta += p.dTheta
	p.stackOmega += p.dOmega
	p.dTheta, p.dOmega = p.stackTheta, p.stackOmega
	p.stackTheta, p.stackOmega = 0, 0
}

// Multiply scales the combined derivative sum by 1/6 before the final
// Integrate pass applies it.
func (p *Pendulum) Multiply(scalar float64) {
	p.dTheta *= scalar
	p.dOmega *= scalar
}

func (p *Pendulum) Restore() {}

// Update recomputes the stabilizing torque from the freshly integrated
// state, to be applied on the next step's Integrate calls. It also stages
// that state and its derivative under the new torque as the starting point
// of Euler's single Integrate pass; RungeKutta's Snapshot and
// PushDerivative overwrite both at the start of its step.
func (p *Pendulum) Update() {
	x := dynamo.State{p.Theta, p.Omega}
	u := p.ctrl.Compute(x, p.GetEvent().Time())
	p.torque = u[0]

	p.thetaSnap, p.omegaSnap = p.Theta, p.Omega
	p.dTheta = p.Omega
	p.dOmega = -dynamo.FastSin(p.Theta) + p.torque
}

// Finalize keeps the pendulum running indefinitely.
func (p *Pendulum) Finalize() bool { return true }

// State returns the pendulum's current state vector, for trace recording
// or inspection by a caller outside the event loop.
func (p *Pendulum) State() dynamo.State {
	return dynamo.State{p.Theta, p.Omega}
}

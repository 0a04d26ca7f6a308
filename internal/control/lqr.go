package control

import "github.com/san-kum/eventsim/internal/dynamo"

// LQR is a generic linear-quadratic-regulator gain table: u = -K(x - target).
// Model-specific gain presets are a caller concern now that parts carry
// their own state layout; construct with NewLQR directly.
type LQR struct {
	K      [][]float64
	Target dynamo.State
}

func NewLQR(k [][]float64, target dynamo.State) *LQR {
	return &LQR{K: k, Target: target}
}

func (l *LQR) Compute(x dynamo.State, t float64) dynamo.Control {
	u := make(dynamo.Control, len(l.K))
	for i := range u {
		for j := range x {
			target := 0.0
			if j < len(l.Target) {
				target = l.Target[j]
			}
			if j < len(l.K[i]) {
				u[i] -= l.K[i][j] * (x[j] - target)
			}
		}
	}
	return u
}

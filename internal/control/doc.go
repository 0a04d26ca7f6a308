// Package control provides feedback controllers a part's Update hook can
// call to turn its own state into a control vector:
//
//   - [PID]: Proportional-Integral-Derivative controller
//   - [LQR]: Linear Quadratic Regulator (caller supplies the gain table)
//   - [None]: Passthrough controller (zero control)
//   - [ManualController]: externally driven control vector ("hand of god")
//
// # Usage
//
//	pid := control.NewPID(1.0, 0.1, 0.01, 0.0) // Kp, Ki, Kd, setpoint
//	u := pid.Compute(part.State(), part.GetEvent().Time())
package control

// Package dynamo provides the numeric vocabulary parts and controllers
// share: state/control vectors with basic vector arithmetic, simulation
// errors, and a small trig lookup table for periodic part dynamics.
//
//   - [State]: vector of continuous part variables
//   - [Control]: vector a controller feeds a part's derivative computation
//   - [SimError]: a failure tied to a point in simulated time
//
// Orchestration now lives in [github.com/san-kum/eventsim/internal/simulator];
// this package only holds the data types that flow through it.
package dynamo

package dynamo

import "errors"

// Domain errors for network construction and parsing; expected conditions
// the CLI and netdoc loader surface to a caller, not panics.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnknownPartType indicates a network definition names a part type
	// with no registered factory.
	ErrUnknownPartType = errors.New("dynamo: unknown part type")

	// ErrUnknownPopulation indicates a connection spec names a population
	// that was never declared.
	ErrUnknownPopulation = errors.New("dynamo: unknown population")

	// ErrMalformedNetwork indicates a network definition fails basic
	// structural checks (duplicate names, non-positive counts, and so on).
	ErrMalformedNetwork = errors.New("dynamo: malformed network definition")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return e.Wrapped.Error()
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

package monitor

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidLevel is returned by Run for an unrecognized verbosity level.
	ErrInvalidLevel = errors.New("unknown verbosity level")

	// ErrNilSink is returned by New when no sink is given.
	ErrNilSink = errors.New("sink is required")
)

// RecoveryError is returned when a recovery func fails. The remaining tries are
// abandoned and the monitor's error count is incremented.
type RecoveryError struct {
	// Err is the error returned by the recovery func.
	Err error
	// Failure is the work failure the recovery func was handling.
	Failure error
}

func (e *RecoveryError) Error() string {
	return fmt.Sprintf("recovery failed: %v (while recovering from: %v)", e.Err, e.Failure)
}

func (e *RecoveryError) Unwrap() error {
	return e.Err
}

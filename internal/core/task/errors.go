package task

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTitle        = errors.New("title is not renderable text")
	ErrInvalidTimestamp    = errors.New("timestamp is not renderable text")
	ErrInvalidIdentifier   = errors.New("invalid last identifier")
	ErrInvalidRelationship = errors.New("relationship must be child or sibling")
	ErrInvalidDisposition  = errors.New("disposition must be warn or error")
	ErrInvalidTries        = errors.New("invalid number of tries")

	// ErrTriesWithoutRecovery is returned when more than one try is requested
	// without a recovery step to run between attempts.
	ErrTriesWithoutRecovery = errors.New("tries cannot be greater than one without a recovery func")
)

// ValidationError reports a task that could not be constructed. It is never
// retried and never buffered.
type ValidationError struct {
	Field string
	Title string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("task %q: invalid %s: %v", e.Title, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a construction-time validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

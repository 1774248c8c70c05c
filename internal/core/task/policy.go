package task

import (
	"context"
	"fmt"

	"github.com/vietddude/taskwatch/internal/core/domain"
)

// MaxTries bounds Policy.Tries.
const MaxTries = 1000

// RecoveryFunc runs between two attempts with the failure of the attempt that
// just ran. Returning an error aborts the task immediately.
type RecoveryFunc func(ctx context.Context, failure error) error

// Policy describes what to do when a task's work fails.
type Policy struct {
	// Tries is the total number of attempts. Zero means one.
	Tries int
	// Recovery runs between attempts. Required when Tries > 1.
	Recovery RecoveryFunc
	// Disposition decides the outcome once every attempt has failed.
	Disposition domain.Disposition
}

// DefaultPolicy tries once and returns the failure to the caller.
func DefaultPolicy() Policy {
	return Policy{Tries: 1, Disposition: domain.DispositionError}
}

// WarnPolicy tries once and swallows the failure as a warning.
func WarnPolicy() Policy {
	return Policy{Tries: 1, Disposition: domain.DispositionWarn}
}

// RetryPolicy tries up to tries times, calling recovery between attempts.
func RetryPolicy(tries int, recovery RecoveryFunc, d domain.Disposition) Policy {
	return Policy{Tries: tries, Recovery: recovery, Disposition: d}
}

// Validate checks the policy and returns its normalized form.
func (p Policy) Validate() (Policy, error) {
	if !p.Disposition.Valid() {
		return p, &ValidationError{
			Field: "disposition",
			Err:   fmt.Errorf("%w: got %q", ErrInvalidDisposition, p.Disposition),
		}
	}

	if p.Recovery == nil {
		switch {
		case p.Tries > 1:
			return p, &ValidationError{Field: "tries", Err: ErrTriesWithoutRecovery}
		case p.Tries < 0:
			return p, &ValidationError{
				Field: "tries",
				Err:   fmt.Errorf("%w: %d is negative", ErrInvalidTries, p.Tries),
			}
		}
		p.Tries = 1
		return p, nil
	}

	if p.Tries < 2 || p.Tries > MaxTries {
		return p, &ValidationError{
			Field: "tries",
			Err: fmt.Errorf("%w: %d (want 2..%d when a recovery func is given)",
				ErrInvalidTries, p.Tries, MaxTries),
		}
	}
	return p, nil
}

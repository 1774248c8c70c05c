// Package task defines the record created for every monitored unit of work.
package task

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/vietddude/taskwatch/internal/core/domain"
	"github.com/vietddude/taskwatch/internal/core/hier"
)

// Params are the inputs to New.
type Params struct {
	Timestamp string
	// Last is the identifier of the previous task; empty on the first task.
	Last         hier.ID
	Title        string
	Policy       Policy
	Relationship domain.Relationship
}

// Record is one instrumented unit of work. It is immutable once built.
type Record struct {
	ID        hier.ID
	Title     string
	Timestamp string
	Policy    Policy
}

// New validates p and builds a Record. The identifier is Root when there is no
// previous task, otherwise the child or sibling of p.Last.
func New(p Params) (*Record, error) {
	if !utf8.ValidString(p.Title) {
		return nil, &ValidationError{Field: "title", Title: p.Title, Err: ErrInvalidTitle}
	}
	if !utf8.ValidString(p.Timestamp) {
		return nil, &ValidationError{Field: "timestamp", Title: p.Title, Err: ErrInvalidTimestamp}
	}

	id, err := derive(p.Last, p.Relationship)
	if err != nil {
		return nil, withTitle(err, p.Title)
	}

	policy, err := p.Policy.Validate()
	if err != nil {
		return nil, withTitle(err, p.Title)
	}

	return &Record{
		ID:        id,
		Title:     p.Title,
		Timestamp: p.Timestamp,
		Policy:    policy,
	}, nil
}

func derive(last hier.ID, rel domain.Relationship) (hier.ID, error) {
	if !rel.Valid() {
		return "", &ValidationError{
			Field: "relationship",
			Err:   fmt.Errorf("%w: got %s", ErrInvalidRelationship, rel),
		}
	}
	if last == "" {
		return hier.Root, nil
	}
	if _, err := hier.Parse(string(last)); err != nil {
		return "", &ValidationError{
			Field: "identifier",
			Err:   fmt.Errorf("%w: %w", ErrInvalidIdentifier, err),
		}
	}

	if rel == domain.RelationshipChild {
		return last.Child(), nil
	}
	id, err := last.Sibling()
	if err != nil {
		return "", &ValidationError{
			Field: "identifier",
			Err:   fmt.Errorf("%w: %w", ErrInvalidIdentifier, err),
		}
	}
	return id, nil
}

func withTitle(err error, title string) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		ve.Title = title
	}
	return err
}

// String renders the record the way it appears in the trace.
func (r *Record) String() string {
	return r.Timestamp + ": " + string(r.ID) + " ### " + r.Title
}

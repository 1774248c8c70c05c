package domain

import (
	"fmt"
	"strings"
)

// Disposition decides what happens when a task has used up all of its tries.
type Disposition string

const (
	// DispositionWarn logs the failure, counts a warning and lets the caller continue.
	DispositionWarn Disposition = "warn"
	// DispositionError logs the failure, counts an error and returns it to the caller.
	DispositionError Disposition = "error"
)

// Valid reports whether d is one of the two terminal dispositions.
func (d Disposition) Valid() bool {
	return d == DispositionWarn || d == DispositionError
}

func (d Disposition) String() string {
	return string(d)
}

// ParseDisposition converts "warn"/"warning" or "error" to a Disposition.
func ParseDisposition(s string) (Disposition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warn", "warning":
		return DispositionWarn, nil
	case "error":
		return DispositionError, nil
	default:
		return "", fmt.Errorf("unknown disposition %q (want warn or error)", s)
	}
}

// Relationship is how the next task relates to the last one the monitor saw.
type Relationship int

const (
	RelationshipChild Relationship = iota
	RelationshipSibling
)

// Valid reports whether r is Child or Sibling.
func (r Relationship) Valid() bool {
	return r == RelationshipChild || r == RelationshipSibling
}

func (r Relationship) String() string {
	switch r {
	case RelationshipChild:
		return "child"
	case RelationshipSibling:
		return "sibling"
	default:
		return fmt.Sprintf("Relationship(%d)", int(r))
	}
}

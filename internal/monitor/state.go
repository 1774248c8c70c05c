package monitor

import (
	"log/slog"

	"github.com/vietddude/taskwatch/internal/core/hier"
)

// State is a step in the life of a single Run call.
type State string

const (
	StateStart          State = "start"
	StateVisible        State = "visible"
	StateSuppressed     State = "suppressed"
	StateAttempting     State = "attempting"
	StateRecovering     State = "recovering"
	StateExhaustedWarn  State = "exhausted_warn"
	StateExhaustedError State = "exhausted_error"
	StateDone           State = "done"
	StatePropagated     State = "propagated"
)

// ValidTransitions defines allowed state transitions.
// Key is the current state, value is the list of valid next states.
var ValidTransitions = map[State][]State{
	StateStart:      {StateVisible, StateSuppressed},
	StateVisible:    {StateDone, StateAttempting},
	StateSuppressed: {StateDone, StateAttempting},
	StateAttempting: {
		StateDone,
		StateRecovering,
		StateExhaustedWarn,
		StateExhaustedError,
	},
	StateRecovering:     {StateAttempting, StatePropagated},
	StateExhaustedWarn:  {StateDone},
	StateExhaustedError: {StatePropagated},
}

// CanTransition checks if a transition from one state to another is valid.
func CanTransition(from, to State) bool {
	for _, target := range ValidTransitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s ends a Run call.
func (s State) Terminal() bool {
	return s == StateDone || s == StatePropagated
}

// Transition is a state change of the task identified by ID.
type Transition struct {
	ID   hier.ID
	From State
	To   State
}

// IsValid returns true if this transition is allowed by the state machine.
func (t Transition) IsValid() bool {
	return CanTransition(t.From, t.To)
}

// tracker walks one Run call through the state machine.
type tracker struct {
	id     hier.ID
	state  State
	hook   func(Transition)
	logger *slog.Logger
}

func newTracker(id hier.ID, hook func(Transition), logger *slog.Logger) *tracker {
	return &tracker{id: id, state: StateStart, hook: hook, logger: logger}
}

func (t *tracker) to(next State) {
	tr := Transition{ID: t.id, From: t.state, To: next}
	if !tr.IsValid() {
		t.logger.Error("invalid task state transition",
			"id", t.id, "from", tr.From, "to", tr.To)
	}
	t.state = next
	if t.hook != nil {
		t.hook(tr)
	}
}

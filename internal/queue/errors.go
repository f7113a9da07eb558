package queue

import (
	"errors"
	"fmt"
)

// ErrorClassifier allows errors to declare their classification so transports
// can map them to status codes without string matching.
type ErrorClassifier interface {
	ErrorKind() string
}

// Transition error kinds.
const (
	KindUnknownAction = "unknown_action"
	KindNotFound      = "not_found"
	KindConflict      = "conflict"
	KindTerminal      = "terminal"
	KindValidation    = "validation"
)

// Sentinels for errors.Is matching against a *TransitionError.
var (
	ErrUnknownAction          = errors.New("unknown action")
	ErrNotFound               = errors.New("pipeline item not found")
	ErrConcurrentModification = errors.New("pipeline item was modified concurrently")
	ErrTerminalState          = errors.New("pipeline item is already finalized")
	ErrValidation             = errors.New("invalid transition request")
)

// TransitionError reports why a transition was refused. Nothing is written
// when one is returned.
type TransitionError struct {
	Kind     string
	ItemID   string
	Action   string
	Current  Status
	Expected Status
	Reason   string
}

func (e *TransitionError) Error() string {
	switch e.Kind {
	case KindUnknownAction:
		return fmt.Sprintf("unknown action %q", e.Action)
	case KindNotFound:
		return fmt.Sprintf("pipeline item %s not found", e.ItemID)
	case KindConflict:
		return fmt.Sprintf("pipeline item %s is %s, expected %s; re-read and retry", e.ItemID, e.Current, e.Expected)
	case KindTerminal:
		return fmt.Sprintf("pipeline item %s is already %s", e.ItemID, e.Current)
	case KindValidation:
		if e.Reason != "" {
			return "invalid transition request: " + e.Reason
		}
		return ErrValidation.Error()
	default:
		return "transition failed"
	}
}

func (e *TransitionError) ErrorKind() string { return e.Kind }

func (e *TransitionError) Unwrap() error {
	switch e.Kind {
	case KindUnknownAction:
		return ErrUnknownAction
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConcurrentModification
	case KindTerminal:
		return ErrTerminalState
	case KindValidation:
		return ErrValidation
	default:
		return nil
	}
}

// Retryable reports whether re-reading the item and retrying may succeed.
func (e *TransitionError) Retryable() bool { return e.Kind == KindConflict }

// ErrorKindOf returns the classification of err, or "" when it has none.
func ErrorKindOf(err error) string {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return ""
}

func validationError(itemID, reason string) *TransitionError {
	return &TransitionError{Kind: KindValidation, ItemID: itemID, Reason: reason}
}

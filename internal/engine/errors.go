package engine

import "fmt"

// ValidationError indicates a threshold configuration that violates an
// ordering invariant. The config must be rejected before it is persisted.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid threshold config: %s: %s", e.Field, e.Message)
}

// InvalidTransitionError indicates a lifecycle transition requested from a
// state that forbids it, e.g. acknowledging a resolved alert.
type InvalidTransitionError struct {
	From   Status
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s alert in status %s", e.Action, e.From)
}

// NotFoundError indicates a referenced alert does not exist in the store.
// Non-fatal; bulk operations report it per item.
type NotFoundError struct {
	AlertID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("alert %s not found", e.AlertID)
}

package engine

import "time"

// Status is the lifecycle position of a persisted alert notification.
type Status string

const (
	StatusNew          Status = "new"
	StatusRead         Status = "read"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
)

// StatusFlags are the persisted lifecycle fields of a notification row.
// Status is derived from the flags, never stored independently.
type StatusFlags struct {
	IsRead         bool
	IsAcknowledged bool
	IsResolved     bool
	AcknowledgedAt *time.Time
	ResolvedAt     *time.Time
}

// StatusOf derives the lifecycle status from persisted flags. Resolution
// supersedes acknowledgment, which supersedes read.
func StatusOf(f StatusFlags) Status {
	switch {
	case f.IsResolved:
		return StatusResolved
	case f.IsAcknowledged:
		return StatusAcknowledged
	case f.IsRead:
		return StatusRead
	default:
		return StatusNew
	}
}

// MarkRead sets the read flag. Legal from any state; a no-op when already
// read.
func MarkRead(f StatusFlags) StatusFlags {
	f.IsRead = true
	return f
}

// Acknowledge marks the notification acknowledged and implicitly read.
// Rejected once resolved: resolving supersedes acknowledgment, so
// re-acknowledging afterwards is an InvalidTransitionError.
func Acknowledge(f StatusFlags, now time.Time) (StatusFlags, error) {
	if f.IsResolved {
		return f, &InvalidTransitionError{From: StatusResolved, Action: "acknowledge"}
	}
	f.IsRead = true
	if !f.IsAcknowledged {
		f.IsAcknowledged = true
		f.AcknowledgedAt = &now
	}
	return f, nil
}

// Resolve marks the notification resolved. Terminal; a no-op when already
// resolved so repeated resolves stay idempotent.
func Resolve(f StatusFlags, now time.Time) StatusFlags {
	if !f.IsResolved {
		f.IsResolved = true
		f.ResolvedAt = &now
	}
	return f
}

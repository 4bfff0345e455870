package domain

import "time"

// EntryTypeWorkoutLog is currently the only submission kind in the write queue
const EntryTypeWorkoutLog = "workout_log"

// WriteQueueEntry is one durable unit of pending work.
// ID doubles as the idempotency key and is reused on every retry of the same submission.
type WriteQueueEntry struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Payload       WorkoutLogPayload `json:"payload"`
	CreatedAt     time.Time         `json:"created_at"`      // Set once at enqueue
	Attempts      int               `json:"attempts"`        // Failed attempts so far
	LastAttemptAt *time.Time        `json:"last_attempt_at"` // nil until first attempt
	LastError     string            `json:"last_error,omitempty"`
}

// IsExhausted reports whether automatic draining has given up on the entry
func (e *WriteQueueEntry) IsExhausted(maxAttempts int) bool {
	return e.Attempts >= maxAttempts
}

// Validate checks the caller-supplied fields
func (e *WriteQueueEntry) Validate() error {
	if e.ID == "" || e.Type == "" {
		return ErrInvalidEntry
	}
	if e.Type != EntryTypeWorkoutLog {
		return ErrInvalidEntry
	}
	return nil
}

package domain

import "errors"

// Common errors
var (
	ErrNotFound              = errors.New("record not found")
	ErrInvalidID             = errors.New("invalid id format")
	ErrKeyNotFound           = errors.New("key not found in store")
	ErrInvalidEntry          = errors.New("invalid write queue entry")
	ErrNoActiveWorkout       = errors.New("no active workout for user")
	ErrWorkoutInProgress     = errors.New("a workout is already in progress for user")
	ErrIndexOutOfRange       = errors.New("exercise or set index out of range")
	ErrUnknownMutation       = errors.New("unknown workout mutation")
	ErrInvalidMutation       = errors.New("invalid workout mutation")
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")
)

var (
	ErrWorkoutLogNotFound      = errors.New("workout log not found")
	ErrDuplicateIdempotencyKey = errors.New("workout log with this idempotency key already exists")
	ErrEmptyWorkoutLog         = errors.New("workout log has no exercises")
)

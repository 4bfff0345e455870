package domain

import "context"

// KeyValueStore is the local persistent store the durability core writes through.
// Values are whole opaque blobs; there are no partial updates or transactions.
type KeyValueStore interface {
	// GetItem returns ErrKeyNotFound when the key is absent
	GetItem(ctx context.Context, key string) ([]byte, error)
	SetItem(ctx context.Context, key string, value []byte) error
	// RemoveItem is a no-op for absent keys
	RemoveItem(ctx context.Context, key string) error
}

// ConnectivityObserver reports network reachability of the backend
type ConnectivityObserver interface {
	IsConnected(ctx context.Context) bool
	// Subscribe registers fn for every reachability change and returns an unsubscribe func
	Subscribe(fn func(connected bool)) func()
}

// WorkoutLogSubmitter is the remote submission interface.
// Implementations must forward idempotencyKey so the backend can deduplicate retries.
type WorkoutLogSubmitter interface {
	CreateWorkoutLog(ctx context.Context, idempotencyKey string, payload WorkoutLogPayload) Result[*WorkoutLog]
}

// TemplateSource resolves the template a workout is started from
type TemplateSource interface {
	GetTemplate(ctx context.Context, id string) Result[*WorkoutTemplate]
}

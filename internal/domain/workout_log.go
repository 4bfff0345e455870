package domain

import (
	"context"
	"time"
)

// SetLogEntry is one performed set inside a submitted workout log
type SetLogEntry struct {
	SetNumber int     `json:"set_number" bson:"set_number"` // 1-based
	Weight    float64 `json:"weight" bson:"weight"`
	Reps      int     `json:"reps" bson:"reps"`
	Done      bool    `json:"done" bson:"done"`
}

// ExerciseLogEntry is one exercise inside a submitted workout log
type ExerciseLogEntry struct {
	ExerciseID  string        `json:"exercise_id" bson:"exercise_id"`
	RestSeconds int           `json:"rest_seconds" bson:"rest_seconds"`
	OrderIndex  int           `json:"order_index" bson:"order_index"`
	Sets        []SetLogEntry `json:"sets" bson:"sets"`
}

// WorkoutLogPayload is the normalized shape submitted to the backend.
// It is built fresh from session state at submission time and never mutated afterwards.
type WorkoutLogPayload struct {
	TemplateID *string            `json:"template_id" bson:"template_id,omitempty"`
	StartedAt  time.Time          `json:"started_at" bson:"started_at"`
	Exercises  []ExerciseLogEntry `json:"exercises" bson:"exercises"`
}

// WorkoutLog is a completed workout as persisted by the backend
type WorkoutLog struct {
	ID             string             `json:"id" bson:"_id,omitempty"`
	UserID         string             `json:"user_id" bson:"user_id"`
	IdempotencyKey string             `json:"idempotency_key" bson:"idempotency_key"` // Unique per user
	TemplateID     *string            `json:"template_id" bson:"template_id,omitempty"`
	StartedAt      time.Time          `json:"started_at" bson:"started_at"`
	Exercises      []ExerciseLogEntry `json:"exercises" bson:"exercises"`
	CreatedAt      time.Time          `json:"created_at" bson:"created_at"`
}

// Payload returns the submitted shape of a stored log
func (l *WorkoutLog) Payload() WorkoutLogPayload {
	return WorkoutLogPayload{
		TemplateID: l.TemplateID,
		StartedAt:  l.StartedAt,
		Exercises:  l.Exercises,
	}
}

type WorkoutLogRepository interface {
	// Create returns ErrDuplicateIdempotencyKey when (user, key) already exists
	Create(ctx context.Context, log *WorkoutLog) error
	GetByID(ctx context.Context, id string) (*WorkoutLog, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*WorkoutLog, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]*WorkoutLog, error)
}

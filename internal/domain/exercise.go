package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrExerciseNotFound  = errors.New("exercise not found")
	ErrDuplicateExercise = errors.New("exercise name already exists")
	ErrInvalidExercise   = errors.New("exercise name is required")
)

// Exercise is a catalog entry. Logged sets reference it by ID; agents
// display Name when a session was started from a template.
type Exercise struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Name        string    `json:"name" bson:"name"`
	MuscleGroup string    `json:"muscle_group" bson:"muscle_group"`
	Equipment   string    `json:"equipment" bson:"equipment"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Normalize trims the text fields in place. Names are unique ignoring case.
func (e *Exercise) Normalize() error {
	e.Name = strings.Join(strings.Fields(e.Name), " ")
	e.MuscleGroup = strings.TrimSpace(e.MuscleGroup)
	e.Equipment = strings.TrimSpace(e.Equipment)
	if e.Name == "" {
		return ErrInvalidExercise
	}
	return nil
}

type ExerciseRepository interface {
	Create(ctx context.Context, exercise *Exercise) error
	// GetByName matches case-insensitively
	GetByName(ctx context.Context, name string) (*Exercise, error)
	List(ctx context.Context, muscleGroup string) ([]*Exercise, error)
}

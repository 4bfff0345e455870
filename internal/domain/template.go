package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrTemplateNotFound = errors.New("workout template not found")
)

// TemplateExercise is one planned exercise inside a template
type TemplateExercise struct {
	ExerciseID  string `json:"exercise_id" bson:"exercise_id"`
	Name        string `json:"name" bson:"name"` // Denormalized for easy display
	TargetSets  int    `json:"target_sets" bson:"target_sets"`
	TargetReps  int    `json:"target_reps" bson:"target_reps"`
	RestSeconds int    `json:"rest_seconds" bson:"rest_seconds"`
}

// WorkoutTemplate represents a predefined workout structure
type WorkoutTemplate struct {
	ID        string             `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Exercises []TemplateExercise `json:"exercises" bson:"exercises"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// Clone returns a deep copy, used as the frozen snapshot of a started workout
func (t *WorkoutTemplate) Clone() *WorkoutTemplate {
	if t == nil {
		return nil
	}
	c := *t
	c.Exercises = append([]TemplateExercise(nil), t.Exercises...)
	return &c
}

type TemplateRepository interface {
	Create(ctx context.Context, template *WorkoutTemplate) error
	GetByID(ctx context.Context, id string) (*WorkoutTemplate, error)
	List(ctx context.Context) ([]*WorkoutTemplate, error)
}

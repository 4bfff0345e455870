package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTemplate() *WorkoutTemplate {
	return &WorkoutTemplate{
		ID:   "tpl-1",
		Name: "Upper Body",
		Exercises: []TemplateExercise{
			{ExerciseID: "bench", Name: "Barbell Bench Press", TargetSets: 4, TargetReps: 8, RestSeconds: 120},
			{ExerciseID: "row", Name: "Barbell Row"},
		},
	}
}

func TestNewActiveWorkout(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	w := NewActiveWorkout(sampleTemplate(), started)

	require.NotNil(t, w.TemplateID)
	assert.Equal(t, "tpl-1", *w.TemplateID)
	assert.Equal(t, "Upper Body", w.TemplateName)
	require.Len(t, w.Exercises, 2)
	assert.Len(t, w.Exercises[0].Sets, 4)
	assert.Equal(t, 8, w.Exercises[0].Sets[0].Reps)
	assert.Equal(t, 120, w.Exercises[0].RestSeconds)
	// empty template fields fall back to defaults
	assert.Len(t, w.Exercises[1].Sets, DefaultSets)
	assert.Equal(t, DefaultRestSeconds, w.Exercises[1].RestSeconds)

	blank := NewActiveWorkout(nil, started)
	assert.Nil(t, blank.TemplateID)
	assert.Empty(t, blank.Exercises)
}

func TestApplyReportsCheckpoints(t *testing.T) {
	tests := []struct {
		name       string
		mutation   Mutation
		checkpoint bool
	}{
		{"toggle done", Mutation{Kind: MutationToggleSetDone, ExerciseIndex: 0, SetIndex: 1}, true},
		{"edit weight and reps", Mutation{Kind: MutationUpdateSet, ExerciseIndex: 0, SetIndex: 0, Weight: 80, Reps: 5}, false},
		{"add set", Mutation{Kind: MutationAddSet, ExerciseIndex: 1}, true},
		{"remove set", Mutation{Kind: MutationRemoveSet, ExerciseIndex: 0, SetIndex: 0}, true},
		{"add exercise", Mutation{Kind: MutationAddExercise, ExerciseID: "curl", Name: "Barbell Curl"}, true},
		{"remove exercise", Mutation{Kind: MutationRemoveExercise, ExerciseIndex: 1}, true},
		{"rest seconds", Mutation{Kind: MutationSetRestSeconds, ExerciseIndex: 0, RestSeconds: 90}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewActiveWorkout(sampleTemplate(), time.Now())
			checkpoint, err := w.Apply(tt.mutation)
			require.NoError(t, err)
			assert.Equal(t, tt.checkpoint, checkpoint)
		})
	}
}

func TestApplyErrors(t *testing.T) {
	w := NewActiveWorkout(sampleTemplate(), time.Now())

	_, err := w.Apply(Mutation{Kind: MutationToggleSetDone, ExerciseIndex: 5})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = w.Apply(Mutation{Kind: MutationRemoveSet, ExerciseIndex: 0, SetIndex: 42})
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = w.Apply(Mutation{Kind: "jump"})
	assert.ErrorIs(t, err, ErrUnknownMutation)

	_, err = w.Apply(Mutation{Kind: MutationAddExercise, Name: "No ID"})
	assert.ErrorIs(t, err, ErrInvalidMutation)

	_, err = w.Apply(Mutation{Kind: MutationSetRestSeconds, ExerciseIndex: 0, RestSeconds: -5})
	assert.ErrorIs(t, err, ErrInvalidMutation)
	assert.Len(t, w.Exercises, 2)
}

func TestRemoveSetRenumbers(t *testing.T) {
	w := NewActiveWorkout(sampleTemplate(), time.Now())
	_, err := w.RemoveSet(0, 1)
	require.NoError(t, err)

	sets := w.Exercises[0].Sets
	require.Len(t, sets, 3)
	for i, s := range sets {
		assert.Equal(t, i+1, s.SetNumber)
	}
}

func TestAddSetCopiesPreviousValues(t *testing.T) {
	w := NewActiveWorkout(sampleTemplate(), time.Now())
	_, _ = w.UpdateSet(0, 3, 100, 6)
	_, err := w.AddSet(0)
	require.NoError(t, err)

	last := w.Exercises[0].Sets[4]
	assert.Equal(t, 5, last.SetNumber)
	assert.Equal(t, 100.0, last.Weight)
	assert.Equal(t, 6, last.Reps)
	assert.False(t, last.Done)
}

func TestCloneIsDeep(t *testing.T) {
	w := NewActiveWorkout(sampleTemplate(), time.Now())
	c := w.Clone()

	_, _ = c.ToggleSetDone(0, 0)
	*c.TemplateID = "other"

	assert.False(t, w.Exercises[0].Sets[0].Done)
	assert.Equal(t, "tpl-1", *w.TemplateID)
}

func TestPayload(t *testing.T) {
	w := NewActiveWorkout(sampleTemplate(), time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	_, _ = w.UpdateSet(0, 0, 60, 10)
	_, _ = w.ToggleSetDone(0, 0)

	p := w.Payload()
	require.NotNil(t, p.TemplateID)
	assert.Equal(t, "tpl-1", *p.TemplateID)
	require.Len(t, p.Exercises, 2)
	assert.Equal(t, 0, p.Exercises[0].OrderIndex)
	assert.Equal(t, 1, p.Exercises[1].OrderIndex)
	assert.Equal(t, SetLogEntry{SetNumber: 1, Weight: 60, Reps: 10, Done: true}, p.Exercises[0].Sets[0])

	// the payload does not alias session state
	_, _ = w.UpdateSet(0, 0, 999, 1)
	assert.Equal(t, 60.0, p.Exercises[0].Sets[0].Weight)
}

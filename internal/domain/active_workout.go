package domain

import (
	"fmt"
	"time"
)

// Defaults applied when a template or request leaves a field empty
const (
	DefaultSets        = 3
	DefaultRestSeconds = 60
)

// ActiveSet is the live state of one set during a workout
type ActiveSet struct {
	SetNumber int     `json:"set_number"`
	Weight    float64 `json:"weight"`
	Reps      int     `json:"reps"`
	Done      bool    `json:"done"`
}

// ActiveExercise is the live state of one exercise during a workout
type ActiveExercise struct {
	ExerciseID  string      `json:"exercise_id"`
	Name        string      `json:"name"`
	RestSeconds int         `json:"rest_seconds"`
	Sets        []ActiveSet `json:"sets"`
}

// ActiveWorkout is the full mutable in-progress workout.
//
// Every mutation method reports whether a durability checkpoint is due. Structural and
// completion-state changes return true; plain weight/reps edits return false so that
// keystrokes never turn into store writes.
type ActiveWorkout struct {
	TemplateID   *string          `json:"template_id"`
	TemplateName string           `json:"template_name"`
	StartedAt    time.Time        `json:"started_at"`
	Exercises    []ActiveExercise `json:"exercises"`
}

// NewActiveWorkout builds a workout from a template. A nil template starts an empty workout.
func NewActiveWorkout(tmpl *WorkoutTemplate, startedAt time.Time) *ActiveWorkout {
	w := &ActiveWorkout{
		StartedAt: startedAt.UTC(),
		Exercises: []ActiveExercise{},
	}
	if tmpl == nil {
		return w
	}

	id := tmpl.ID
	w.TemplateID = &id
	w.TemplateName = tmpl.Name
	for _, te := range tmpl.Exercises {
		sets := te.TargetSets
		if sets <= 0 {
			sets = DefaultSets
		}
		rest := te.RestSeconds
		if rest <= 0 {
			rest = DefaultRestSeconds
		}
		w.Exercises = append(w.Exercises, newActiveExercise(te.ExerciseID, te.Name, rest, sets, te.TargetReps))
	}
	return w
}

func newActiveExercise(exerciseID, name string, restSeconds, sets, reps int) ActiveExercise {
	ex := ActiveExercise{
		ExerciseID:  exerciseID,
		Name:        name,
		RestSeconds: restSeconds,
		Sets:        make([]ActiveSet, sets),
	}
	for i := range ex.Sets {
		ex.Sets[i] = ActiveSet{SetNumber: i + 1, Reps: reps}
	}
	return ex
}

// Clone returns a deep copy so stored and in-memory state never share slices
func (w *ActiveWorkout) Clone() *ActiveWorkout {
	if w == nil {
		return nil
	}
	c := *w
	if w.TemplateID != nil {
		id := *w.TemplateID
		c.TemplateID = &id
	}
	c.Exercises = make([]ActiveExercise, len(w.Exercises))
	for i, ex := range w.Exercises {
		ex.Sets = append([]ActiveSet(nil), ex.Sets...)
		c.Exercises[i] = ex
	}
	return &c
}

func (w *ActiveWorkout) exercise(exIdx int) (*ActiveExercise, error) {
	if exIdx < 0 || exIdx >= len(w.Exercises) {
		return nil, fmt.Errorf("exercise %d: %w", exIdx, ErrIndexOutOfRange)
	}
	return &w.Exercises[exIdx], nil
}

func (w *ActiveWorkout) set(exIdx, setIdx int) (*ActiveSet, error) {
	ex, err := w.exercise(exIdx)
	if err != nil {
		return nil, err
	}
	if setIdx < 0 || setIdx >= len(ex.Sets) {
		return nil, fmt.Errorf("exercise %d set %d: %w", exIdx, setIdx, ErrIndexOutOfRange)
	}
	return &ex.Sets[setIdx], nil
}

// ToggleSetDone flips a set's done flag
func (w *ActiveWorkout) ToggleSetDone(exIdx, setIdx int) (bool, error) {
	s, err := w.set(exIdx, setIdx)
	if err != nil {
		return false, err
	}
	s.Done = !s.Done
	return true, nil
}

// UpdateSet edits weight and reps. Never a checkpoint.
func (w *ActiveWorkout) UpdateSet(exIdx, setIdx int, weight float64, reps int) (bool, error) {
	s, err := w.set(exIdx, setIdx)
	if err != nil {
		return false, err
	}
	s.Weight = weight
	s.Reps = reps
	return false, nil
}

// AddSet appends a set prefilled from the previous one
func (w *ActiveWorkout) AddSet(exIdx int) (bool, error) {
	ex, err := w.exercise(exIdx)
	if err != nil {
		return false, err
	}
	next := ActiveSet{SetNumber: len(ex.Sets) + 1}
	if n := len(ex.Sets); n > 0 {
		next.Weight = ex.Sets[n-1].Weight
		next.Reps = ex.Sets[n-1].Reps
	}
	ex.Sets = append(ex.Sets, next)
	return true, nil
}

// RemoveSet deletes a set and renumbers the rest
func (w *ActiveWorkout) RemoveSet(exIdx, setIdx int) (bool, error) {
	if _, err := w.set(exIdx, setIdx); err != nil {
		return false, err
	}
	ex := &w.Exercises[exIdx]
	ex.Sets = append(ex.Sets[:setIdx], ex.Sets[setIdx+1:]...)
	for i := range ex.Sets {
		ex.Sets[i].SetNumber = i + 1
	}
	return true, nil
}

// AddExercise appends an exercise with default sets
func (w *ActiveWorkout) AddExercise(exerciseID, name string, restSeconds int) (bool, error) {
	if exerciseID == "" {
		return false, fmt.Errorf("%w: exercise_id is required", ErrInvalidMutation)
	}
	if restSeconds <= 0 {
		restSeconds = DefaultRestSeconds
	}
	w.Exercises = append(w.Exercises, newActiveExercise(exerciseID, name, restSeconds, DefaultSets, 0))
	return true, nil
}

// RemoveExercise deletes an exercise with all its sets
func (w *ActiveWorkout) RemoveExercise(exIdx int) (bool, error) {
	if _, err := w.exercise(exIdx); err != nil {
		return false, err
	}
	w.Exercises = append(w.Exercises[:exIdx], w.Exercises[exIdx+1:]...)
	return true, nil
}

// SetRestSeconds changes the configured rest duration of an exercise
func (w *ActiveWorkout) SetRestSeconds(exIdx, seconds int) (bool, error) {
	ex, err := w.exercise(exIdx)
	if err != nil {
		return false, err
	}
	if seconds < 0 {
		return false, fmt.Errorf("%w: rest seconds must not be negative", ErrInvalidMutation)
	}
	ex.RestSeconds = seconds
	return true, nil
}

// MutationKind names a user action on the active workout
type MutationKind string

const (
	MutationToggleSetDone  MutationKind = "toggle_set_done"
	MutationUpdateSet      MutationKind = "update_set"
	MutationAddSet         MutationKind = "add_set"
	MutationRemoveSet      MutationKind = "remove_set"
	MutationAddExercise    MutationKind = "add_exercise"
	MutationRemoveExercise MutationKind = "remove_exercise"
	MutationSetRestSeconds MutationKind = "set_rest_seconds"
)

// Mutation is a user action as sent by the UI. Indexes are 0-based.
type Mutation struct {
	Kind          MutationKind `json:"kind"`
	ExerciseIndex int          `json:"exercise_index"`
	SetIndex      int          `json:"set_index"`
	Weight        float64      `json:"weight"`
	Reps          int          `json:"reps"`
	ExerciseID    string       `json:"exercise_id"`
	Name          string       `json:"name"`
	RestSeconds   int          `json:"rest_seconds"`
}

// Apply dispatches a mutation and reports whether a checkpoint is due
func (w *ActiveWorkout) Apply(m Mutation) (bool, error) {
	switch m.Kind {
	case MutationToggleSetDone:
		return w.ToggleSetDone(m.ExerciseIndex, m.SetIndex)
	case MutationUpdateSet:
		return w.UpdateSet(m.ExerciseIndex, m.SetIndex, m.Weight, m.Reps)
	case MutationAddSet:
		return w.AddSet(m.ExerciseIndex)
	case MutationRemoveSet:
		return w.RemoveSet(m.ExerciseIndex, m.SetIndex)
	case MutationAddExercise:
		return w.AddExercise(m.ExerciseID, m.Name, m.RestSeconds)
	case MutationRemoveExercise:
		return w.RemoveExercise(m.ExerciseIndex)
	case MutationSetRestSeconds:
		return w.SetRestSeconds(m.ExerciseIndex, m.RestSeconds)
	default:
		return false, fmt.Errorf("%q: %w", m.Kind, ErrUnknownMutation)
	}
}

// Payload builds the submission shape from the current state
func (w *ActiveWorkout) Payload() WorkoutLogPayload {
	p := WorkoutLogPayload{
		StartedAt: w.StartedAt,
		Exercises: make([]ExerciseLogEntry, 0, len(w.Exercises)),
	}
	if w.TemplateID != nil {
		id := *w.TemplateID
		p.TemplateID = &id
	}
	for i, ex := range w.Exercises {
		entry := ExerciseLogEntry{
			ExerciseID:  ex.ExerciseID,
			RestSeconds: ex.RestSeconds,
			OrderIndex:  i,
			Sets:        make([]SetLogEntry, len(ex.Sets)),
		}
		for j, s := range ex.Sets {
			entry.Sets[j] = SetLogEntry{
				SetNumber: s.SetNumber,
				Weight:    s.Weight,
				Reps:      s.Reps,
				Done:      s.Done,
			}
		}
		p.Exercises = append(p.Exercises, entry)
	}
	return p
}

package domain

import "time"

// BackupVersion is bumped whenever the backup envelope changes shape
const BackupVersion = 1

// ActiveWorkoutBackup is the crash-recovery snapshot of one in-progress workout
type ActiveWorkoutBackup struct {
	Version                  int              `json:"version"`
	SavedAt                  time.Time        `json:"saved_at"`
	ActiveWorkout            *ActiveWorkout   `json:"activeWorkout"`
	OriginalTemplateSnapshot *WorkoutTemplate `json:"originalTemplateSnapshot"`
}

// SetCountChange records a per-exercise set count that differs from the template
type SetCountChange struct {
	ExerciseID string `json:"exercise_id"`
	Before     int    `json:"before"`
	After      int    `json:"after"`
}

// TemplateDrift lists structural differences between a finished workout and its template
type TemplateDrift struct {
	AddedExercises   []string         `json:"added_exercises"`
	RemovedExercises []string         `json:"removed_exercises"`
	SetCountChanges  []SetCountChange `json:"set_count_changes"`
}

func (d TemplateDrift) HasChanges() bool {
	return len(d.AddedExercises) > 0 || len(d.RemovedExercises) > 0 || len(d.SetCountChanges) > 0
}

// DetectDrift compares the workout with the frozen template it was started from.
// Exercises are matched by exercise id. A nil snapshot never drifts.
func DetectDrift(snapshot *WorkoutTemplate, w *ActiveWorkout) TemplateDrift {
	drift := TemplateDrift{
		AddedExercises:   []string{},
		RemovedExercises: []string{},
		SetCountChanges:  []SetCountChange{},
	}
	if snapshot == nil || w == nil {
		return drift
	}

	planned := make(map[string]int, len(snapshot.Exercises))
	for _, te := range snapshot.Exercises {
		sets := te.TargetSets
		if sets <= 0 {
			sets = DefaultSets
		}
		planned[te.ExerciseID] = sets
	}

	performed := make(map[string]bool, len(w.Exercises))
	for _, ex := range w.Exercises {
		if performed[ex.ExerciseID] {
			continue
		}
		performed[ex.ExerciseID] = true

		before, ok := planned[ex.ExerciseID]
		if !ok {
			drift.AddedExercises = append(drift.AddedExercises, ex.ExerciseID)
			continue
		}
		if after := len(ex.Sets); after != before {
			drift.SetCountChanges = append(drift.SetCountChanges, SetCountChange{
				ExerciseID: ex.ExerciseID,
				Before:     before,
				After:      after,
			})
		}
	}

	for _, te := range snapshot.Exercises {
		if !performed[te.ExerciseID] {
			drift.RemovedExercises = append(drift.RemovedExercises, te.ExerciseID)
		}
	}
	return drift
}

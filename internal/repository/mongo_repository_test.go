package repository

import (
	"context"
	"testing"
	"time"

	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestMongoWorkoutLogRepository(t *testing.T) {
	db := setupTestDB(t)

	ctx := context.Background()
	repo := NewMongoWorkoutLogRepository(db)
	tplID := "tpl-1"
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	newLog := func(user, key string) *domain.WorkoutLog {
		return &domain.WorkoutLog{
			UserID:         user,
			IdempotencyKey: key,
			TemplateID:     &tplID,
			StartedAt:      started,
			Exercises: []domain.ExerciseLogEntry{{
				ExerciseID:  "bench",
				RestSeconds: 90,
				Sets:        []domain.SetLogEntry{{SetNumber: 1, Weight: 60, Reps: 8, Done: true}},
			}},
		}
	}

	t.Run("create and fetch", func(t *testing.T) {
		log := newLog("user-1", "key-1")
		require.NoError(t, repo.Create(ctx, log))
		require.NotEmpty(t, log.ID)

		got, err := repo.GetByID(ctx, log.ID)
		require.NoError(t, err)
		assert.Equal(t, "key-1", got.IdempotencyKey)
		assert.Equal(t, started, got.StartedAt)
		require.NotNil(t, got.TemplateID)
		assert.Equal(t, tplID, *got.TemplateID)

		byKey, err := repo.GetByIdempotencyKey(ctx, "user-1", "key-1")
		require.NoError(t, err)
		assert.Equal(t, log.ID, byKey.ID)
	})

	t.Run("duplicate key for same user is rejected", func(t *testing.T) {
		err := repo.Create(ctx, newLog("user-1", "key-1"))
		assert.ErrorIs(t, err, domain.ErrDuplicateIdempotencyKey)
	})

	t.Run("same key for another user is accepted", func(t *testing.T) {
		assert.NoError(t, repo.Create(ctx, newLog("user-2", "key-1")))
	})

	t.Run("list is scoped to user", func(t *testing.T) {
		logs, err := repo.ListByUser(ctx, "user-1", 10)
		require.NoError(t, err)
		assert.Len(t, logs, 1)
	})

	t.Run("missing log", func(t *testing.T) {
		_, err := repo.GetByIdempotencyKey(ctx, "user-3", "nope")
		assert.ErrorIs(t, err, domain.ErrWorkoutLogNotFound)

		_, err = repo.GetByID(ctx, "not-an-object-id")
		assert.ErrorIs(t, err, domain.ErrInvalidID)
	})
}

func TestMongoWorkoutLogIndexFailureIsLogged(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// same keys and default name as the repository's index, but not unique
	_, err := db.Collection("workout_logs").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "idempotency_key", Value: 1}},
	})
	require.NoError(t, err)

	previous := logrus.StandardLogger().ReplaceHooks(logrus.LevelHooks{})
	hook := logtest.NewGlobal()
	t.Cleanup(func() { logrus.StandardLogger().ReplaceHooks(previous) })

	NewMongoWorkoutLogRepository(db)

	var logged bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.ErrorLevel && entry.Data[logrus.ErrorKey] != nil {
			logged = true
		}
	}
	assert.True(t, logged, "index conflict should be logged at error level")
}

func TestMongoTemplateAndExerciseRepositories(t *testing.T) {
	db := setupTestDB(t)

	ctx := context.Background()
	exercises := NewMongoExerciseRepository(db)
	templates := NewMongoTemplateRepository(db)

	bench := &domain.Exercise{Name: "Bench Press", MuscleGroup: "Chest", Equipment: "Barbell"}
	require.NoError(t, exercises.Create(ctx, bench))
	assert.ErrorIs(t, exercises.Create(ctx, &domain.Exercise{Name: "bench  press"}), domain.ErrDuplicateExercise)

	found, err := exercises.GetByName(ctx, "BENCH PRESS")
	require.NoError(t, err)
	assert.Equal(t, bench.ID, found.ID)

	squat := &domain.Exercise{Name: "Back Squat", MuscleGroup: "Legs", Equipment: "Barbell"}
	require.NoError(t, exercises.Create(ctx, squat))

	chest, err := exercises.List(ctx, "Chest")
	require.NoError(t, err)
	require.Len(t, chest, 1)
	assert.Equal(t, bench.ID, chest[0].ID)

	all, err := exercises.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	tmpl := &domain.WorkoutTemplate{
		Name: "Push Day",
		Exercises: []domain.TemplateExercise{
			{ExerciseID: bench.ID, Name: bench.Name, TargetSets: 4, TargetReps: 8, RestSeconds: 120},
		},
	}
	require.NoError(t, templates.Create(ctx, tmpl))

	got, err := templates.GetByID(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Push Day", got.Name)
	require.Len(t, got.Exercises, 1)
	assert.Equal(t, 4, got.Exercises[0].TargetSets)

	_, err = templates.GetByID(ctx, "000000000000000000000000")
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

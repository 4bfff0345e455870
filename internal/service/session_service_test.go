package service

import (
	"context"
	"testing"
	"time"

	"github.com/mansoorceksport/repsync/internal/connectivity"
	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/mansoorceksport/repsync/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	store     *faultyStore
	submitter *fakeSubmitter
	queue     *WriteQueue
	backups   *SessionBackupStore
	sessions  *SessionService
}

func newSessionFixture(t *testing.T, store *faultyStore) *sessionFixture {
	t.Helper()
	if store == nil {
		store = newFaultyStore(repository.NewMemoryKeyValueStore())
	}
	f := &sessionFixture{
		store:     store,
		submitter: &fakeSubmitter{fallback: domain.ResultOK},
	}
	f.queue = NewWriteQueue(store, f.submitter, connectivity.NewSwitch(true), DefaultRetryPolicy())
	f.backups = NewSessionBackupStore(store)
	f.sessions = NewSessionService(fakeTemplates{"tpl-1": sampleTemplate()}, f.submitter, f.backups, f.queue, time.Second)
	return f
}

func TestSessionStart(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, nil)

	state, err := f.sessions.Start(ctx, "user-1", "tpl-1")
	require.NoError(t, err)
	require.Len(t, state.Workout.Exercises, 2)
	assert.Len(t, state.Workout.Exercises[0].Sets, 4)
	assert.Equal(t, "Push Day", state.TemplateSnapshot.Name)
	assert.False(t, state.Drift.HasChanges())
	assert.Equal(t, 1, f.store.writes(BackupKey("user-1")))

	_, err = f.sessions.Start(ctx, "user-1", "tpl-1")
	assert.ErrorIs(t, err, domain.ErrWorkoutInProgress)

	blank, err := f.sessions.Start(ctx, "user-2", "")
	require.NoError(t, err)
	assert.Empty(t, blank.Workout.Exercises)
	assert.Nil(t, blank.TemplateSnapshot)

	_, err = f.sessions.Start(ctx, "user-3", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionApplyCheckpoints(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, nil)
	_, err := f.sessions.Start(ctx, "user-1", "tpl-1")
	require.NoError(t, err)
	key := BackupKey("user-1")

	_, err = f.sessions.Apply(ctx, "user-1", domain.Mutation{Kind: domain.MutationUpdateSet, ExerciseIndex: 0, SetIndex: 0, Weight: 80, Reps: 6})
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.writes(key), "weight/reps edits do not checkpoint")

	meaningful := []domain.Mutation{
		{Kind: domain.MutationToggleSetDone, ExerciseIndex: 0, SetIndex: 0},
		{Kind: domain.MutationAddSet, ExerciseIndex: 0},
		{Kind: domain.MutationRemoveSet, ExerciseIndex: 1, SetIndex: 2},
		{Kind: domain.MutationAddExercise, ExerciseID: "dips", Name: "Dips"},
		{Kind: domain.MutationRemoveExercise, ExerciseIndex: 1},
		{Kind: domain.MutationSetRestSeconds, ExerciseIndex: 0, RestSeconds: 90},
	}
	for i, m := range meaningful {
		_, err := f.sessions.Apply(ctx, "user-1", m)
		require.NoError(t, err, m.Kind)
		assert.Equal(t, i+2, f.store.writes(key), "%s saves exactly once", m.Kind)
	}

	res := f.backups.Restore(ctx, "user-1")
	require.True(t, res.IsOK())
	bench := res.Value.ActiveWorkout.Exercises[0]
	assert.Equal(t, 80.0, bench.Sets[0].Weight, "unsaved edits ride along with the next checkpoint")
	assert.True(t, bench.Sets[0].Done)
	assert.Len(t, bench.Sets, 5)
	assert.Equal(t, 90, bench.RestSeconds)

	_, err = f.sessions.Apply(ctx, "user-1", domain.Mutation{Kind: domain.MutationToggleSetDone, ExerciseIndex: 9})
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
	_, err = f.sessions.Apply(ctx, "user-1", domain.Mutation{Kind: "jump"})
	assert.ErrorIs(t, err, domain.ErrUnknownMutation)
	_, err = f.sessions.Apply(ctx, "nobody", domain.Mutation{Kind: domain.MutationAddSet})
	assert.ErrorIs(t, err, domain.ErrNoActiveWorkout)
}

func TestSessionFinishOnline(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, nil)
	_, err := f.sessions.Start(ctx, "user-1", "tpl-1")
	require.NoError(t, err)
	_, err = f.sessions.Apply(ctx, "user-1", domain.Mutation{Kind: domain.MutationAddExercise, ExerciseID: "dips", Name: "Dips"})
	require.NoError(t, err)

	result, err := f.sessions.Finish(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, OutcomeSynced, result.Outcome)
	assert.NotEmpty(t, result.IdempotencyKey)
	require.NotNil(t, result.WorkoutLog)
	assert.Equal(t, []string{result.IdempotencyKey}, f.submitter.calls())
	assert.Equal(t, []string{"dips"}, result.Drift.AddedExercises)

	assert.Empty(t, f.queue.GetQueue(ctx))
	assert.Equal(t, domain.ResultNotFound, f.backups.Restore(ctx, "user-1").Kind)
	_, err = f.sessions.Get(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrNoActiveWorkout)
}

func TestSessionFinishOfflineQueues(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, nil)
	f.submitter.fallback = domain.ResultTransientError
	_, err := f.sessions.Start(ctx, "user-1", "tpl-1")
	require.NoError(t, err)

	result, err := f.sessions.Finish(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeQueued, result.Outcome)
	assert.Nil(t, result.WorkoutLog)

	q := f.queue.GetQueue(ctx)
	require.Len(t, q, 1)
	assert.Equal(t, result.IdempotencyKey, q[0].ID)
	assert.Equal(t, domain.EntryTypeWorkoutLog, q[0].Type)
	require.NotNil(t, q[0].Payload.TemplateID)
	assert.Equal(t, "tpl-1", *q[0].Payload.TemplateID)
	assert.Len(t, q[0].Payload.Exercises, 2)
	assert.Equal(t, domain.ResultNotFound, f.backups.Restore(ctx, "user-1").Kind)

	// the drain reuses the key the online attempt used
	f.submitter.fallback = domain.ResultOK
	f.queue.now = func() time.Time { return time.Now().Add(time.Hour) }
	res := f.queue.ProcessQueue(ctx)
	assert.Equal(t, 1, res.Delivered)
	assert.Equal(t, []string{result.IdempotencyKey, result.IdempotencyKey}, f.submitter.calls())
}

func TestSessionFinishKeepsBackupWhenQueueFails(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, nil)
	f.submitter.fallback = domain.ResultTransientError
	_, err := f.sessions.Start(ctx, "user-1", "tpl-1")
	require.NoError(t, err)

	f.store.setFailures(false, true)
	_, err = f.sessions.Finish(ctx, "user-1")
	require.ErrorIs(t, err, errStoreDown)
	f.store.setFailures(false, false)

	assert.True(t, f.backups.Restore(ctx, "user-1").IsOK())
	_, err = f.sessions.Get(ctx, "user-1")
	assert.NoError(t, err)
}

func TestSessionResumeAfterRelaunch(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore(repository.NewMemoryKeyValueStore())

	before := newSessionFixture(t, store)
	_, err := before.sessions.Start(ctx, "user-1", "tpl-1")
	require.NoError(t, err)
	_, err = before.sessions.Apply(ctx, "user-1", domain.Mutation{Kind: domain.MutationToggleSetDone, ExerciseIndex: 1, SetIndex: 0})
	require.NoError(t, err)

	// a fresh process over the same device store
	after := newSessionFixture(t, store)
	_, err = after.sessions.Get(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrNoActiveWorkout)

	state, err := after.sessions.Resume(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, state.Workout.Exercises[1].Sets[0].Done)
	assert.Equal(t, "Push Day", state.TemplateSnapshot.Name)

	again, err := after.sessions.Resume(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, state.Workout, again.Workout)

	_, err = after.sessions.Resume(ctx, "user-2")
	assert.ErrorIs(t, err, domain.ErrNoActiveWorkout)
}

func TestSessionStartKeepsUnresumedBackup(t *testing.T) {
	ctx := context.Background()
	store := newFaultyStore(repository.NewMemoryKeyValueStore())

	before := newSessionFixture(t, store)
	_, err := before.sessions.Start(ctx, "user-1", "")
	require.NoError(t, err)
	_, err = before.sessions.Apply(ctx, "user-1", domain.Mutation{Kind: domain.MutationAddExercise, ExerciseID: "squat", Name: "Squat"})
	require.NoError(t, err)

	after := newSessionFixture(t, store)
	_, err = after.sessions.Start(ctx, "user-1", "tpl-1")
	assert.ErrorIs(t, err, domain.ErrWorkoutInProgress)

	state, err := after.sessions.Resume(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, state.Workout.Exercises, 1)
	assert.Equal(t, "squat", state.Workout.Exercises[0].ExerciseID)

	// cancelling the recovered workout frees the user to start over
	require.NoError(t, after.sessions.Cancel(ctx, "user-1"))
	fresh, err := after.sessions.Start(ctx, "user-1", "tpl-1")
	require.NoError(t, err)
	assert.Len(t, fresh.Workout.Exercises, 2)
}

func TestSessionFinishRejectsEmptyWorkout(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, nil)
	_, err := f.sessions.Start(ctx, "user-1", "")
	require.NoError(t, err)

	_, err = f.sessions.Finish(ctx, "user-1")
	require.ErrorIs(t, err, domain.ErrEmptyWorkoutLog)
	assert.Empty(t, f.submitter.calls())
	assert.Empty(t, f.queue.GetQueue(ctx))

	// the workout stays open so exercises can still be added
	_, err = f.sessions.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, f.backups.Restore(ctx, "user-1").IsOK())

	_, err = f.sessions.Apply(ctx, "user-1", domain.Mutation{Kind: domain.MutationAddExercise, ExerciseID: "squat", Name: "Squat"})
	require.NoError(t, err)
	result, err := f.sessions.Finish(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSynced, result.Outcome)
}

func TestSessionCancel(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, nil)
	_, err := f.sessions.Start(ctx, "user-1", "tpl-1")
	require.NoError(t, err)

	require.NoError(t, f.sessions.Cancel(ctx, "user-1"))
	assert.Equal(t, domain.ResultNotFound, f.backups.Restore(ctx, "user-1").Kind)
	_, err = f.sessions.Finish(ctx, "user-1")
	assert.ErrorIs(t, err, domain.ErrNoActiveWorkout)
	assert.Empty(t, f.submitter.calls())

	// cancelling with only a backup on disk clears it too
	f.backups.Save(ctx, domain.NewActiveWorkout(nil, time.Now()), nil, "user-2")
	require.NoError(t, f.sessions.Cancel(ctx, "user-2"))
	assert.Equal(t, domain.ResultNotFound, f.backups.Restore(ctx, "user-2").Kind)
}

func TestSessionStateIsACopy(t *testing.T) {
	ctx := context.Background()
	f := newSessionFixture(t, nil)
	state, err := f.sessions.Start(ctx, "user-1", "tpl-1")
	require.NoError(t, err)

	state.Workout.Exercises[0].Sets[0].Done = true

	fresh, err := f.sessions.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, fresh.Workout.Exercises[0].Sets[0].Done)
}

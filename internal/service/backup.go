package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	backupKeyPrefix     = "active_workout_backup:v1:"
	anonymousBackupUser = "anonymous"
)

// BackupKey returns the store key holding a user's in-progress workout
func BackupKey(userID string) string {
	if userID == "" {
		userID = anonymousBackupUser
	}
	return backupKeyPrefix + userID
}

// SessionBackupStore persists the crash-recovery snapshot of an in-progress workout.
// Store failures are logged and swallowed; losing a checkpoint must never break the session.
type SessionBackupStore struct {
	store domain.KeyValueStore
	now   func() time.Time
	log   *logrus.Entry
	saves metric.Int64Counter
}

func NewSessionBackupStore(store domain.KeyValueStore) *SessionBackupStore {
	s := &SessionBackupStore{
		store: store,
		now:   time.Now,
		log:   logrus.WithField("component", "session_backup"),
	}

	var err error
	s.saves, err = otel.Meter("repsync/session_backup").Int64Counter("session_backup.saves",
		metric.WithDescription("Active workout checkpoints written"))
	if err != nil {
		s.log.WithError(err).Warn("failed to create saves counter")
	}
	return s
}

// Save overwrites the user's backup with deep copies of the workout and its template snapshot
func (s *SessionBackupStore) Save(ctx context.Context, workout *domain.ActiveWorkout, snapshot *domain.WorkoutTemplate, userID string) {
	entryLog := s.log.WithField("user_id", userID)
	if workout == nil {
		entryLog.Warn("refusing to save backup without a workout")
		return
	}

	backup := domain.ActiveWorkoutBackup{
		Version:                  domain.BackupVersion,
		SavedAt:                  s.now().UTC(),
		ActiveWorkout:            workout.Clone(),
		OriginalTemplateSnapshot: snapshot.Clone(),
	}

	data, err := json.Marshal(backup)
	if err != nil {
		entryLog.WithError(err).Error("failed to marshal workout backup")
		return
	}
	if err := s.store.SetItem(ctx, BackupKey(userID), data); err != nil {
		entryLog.WithError(err).Error("failed to save workout backup")
		return
	}

	if s.saves != nil {
		s.saves.Add(ctx, 1)
	}
	entryLog.Debug("workout backup saved")
}

// Restore returns the saved backup, or NotFound when none is stored or it cannot be decoded
func (s *SessionBackupStore) Restore(ctx context.Context, userID string) domain.Result[*domain.ActiveWorkoutBackup] {
	entryLog := s.log.WithField("user_id", userID)

	data, err := s.store.GetItem(ctx, BackupKey(userID))
	if err != nil {
		if !errors.Is(err, domain.ErrKeyNotFound) {
			entryLog.WithError(err).Error("failed to read workout backup")
		}
		return domain.NotFound[*domain.ActiveWorkoutBackup]()
	}

	var backup domain.ActiveWorkoutBackup
	if err := json.Unmarshal(data, &backup); err != nil {
		entryLog.WithError(err).Warn("workout backup is malformed, ignoring")
		return domain.NotFound[*domain.ActiveWorkoutBackup]()
	}
	if backup.ActiveWorkout == nil {
		entryLog.Warn("workout backup has no active workout, ignoring")
		return domain.NotFound[*domain.ActiveWorkoutBackup]()
	}
	if backup.ActiveWorkout.Exercises == nil {
		backup.ActiveWorkout.Exercises = []domain.ActiveExercise{}
	}
	return domain.Ok(&backup)
}

// Clear deletes the user's backup
func (s *SessionBackupStore) Clear(ctx context.Context, userID string) {
	if err := s.store.RemoveItem(ctx, BackupKey(userID)); err != nil {
		s.log.WithField("user_id", userID).WithError(err).Error("failed to clear workout backup")
	}
}

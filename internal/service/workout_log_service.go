package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/sirupsen/logrus"
)

// WorkoutLogService is the ingest side of the write queue: it stores each
// (user, idempotency key) pair at most once.
type WorkoutLogService struct {
	logRepo domain.WorkoutLogRepository
	log     *logrus.Entry
}

func NewWorkoutLogService(logRepo domain.WorkoutLogRepository) *WorkoutLogService {
	return &WorkoutLogService{
		logRepo: logRepo,
		log:     logrus.WithField("component", "workout_log_service"),
	}
}

// Create stores the log. created is false when the key was already used by this user,
// in which case the stored log is returned unchanged.
func (s *WorkoutLogService) Create(ctx context.Context, userID, idempotencyKey string, payload domain.WorkoutLogPayload) (log *domain.WorkoutLog, created bool, err error) {
	idempotencyKey = strings.TrimSpace(idempotencyKey)
	if idempotencyKey == "" {
		return nil, false, domain.ErrMissingIdempotencyKey
	}
	if len(payload.Exercises) == 0 {
		return nil, false, domain.ErrEmptyWorkoutLog
	}

	existing, err := s.logRepo.GetByIdempotencyKey(ctx, userID, idempotencyKey)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrWorkoutLogNotFound) {
		return nil, false, fmt.Errorf("failed to look up idempotency key: %w", err)
	}

	log = &domain.WorkoutLog{
		UserID:         userID,
		IdempotencyKey: idempotencyKey,
		TemplateID:     payload.TemplateID,
		StartedAt:      payload.StartedAt,
		Exercises:      payload.Exercises,
	}
	for i := range log.Exercises {
		log.Exercises[i].OrderIndex = i
	}

	if err := s.logRepo.Create(ctx, log); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdempotencyKey) {
			// Lost a race with a concurrent retry of the same submission
			existing, getErr := s.logRepo.GetByIdempotencyKey(ctx, userID, idempotencyKey)
			if getErr != nil {
				return nil, false, fmt.Errorf("failed to load concurrent workout log: %w", getErr)
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":         userID,
		"idempotency_key": idempotencyKey,
		"log_id":          log.ID,
	}).Info("workout log stored")
	return log, true, nil
}

// Get returns a log only if it belongs to userID
func (s *WorkoutLogService) Get(ctx context.Context, userID, id string) (*domain.WorkoutLog, error) {
	log, err := s.logRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if log.UserID != userID {
		return nil, domain.ErrWorkoutLogNotFound
	}
	return log, nil
}

// List returns the user's logs, newest first
func (s *WorkoutLogService) List(ctx context.Context, userID string, limit int64) ([]*domain.WorkoutLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.logRepo.ListByUser(ctx, userID, limit)
}

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/sirupsen/logrus"
)

// FinishOutcome tells the UI whether the workout reached the backend or is waiting in the queue
type FinishOutcome string

const (
	OutcomeSynced FinishOutcome = "synced"
	OutcomeQueued FinishOutcome = "queued"
)

// SessionState is what the UI renders for an in-progress workout
type SessionState struct {
	UserID           string                  `json:"user_id"`
	Workout          *domain.ActiveWorkout   `json:"workout"`
	TemplateSnapshot *domain.WorkoutTemplate `json:"template_snapshot"`
	Drift            domain.TemplateDrift    `json:"drift"`
}

// FinishResult describes what happened to a finished workout
type FinishResult struct {
	Outcome        FinishOutcome        `json:"outcome"`
	IdempotencyKey string               `json:"idempotency_key"`
	WorkoutLog     *domain.WorkoutLog   `json:"workout_log,omitempty"`
	Drift          domain.TemplateDrift `json:"drift"`
}

type session struct {
	mu       sync.Mutex
	workout  *domain.ActiveWorkout
	snapshot *domain.WorkoutTemplate
	closed   bool // Finished or cancelled while a caller waited on mu
}

// SessionService owns the in-progress workout of each user on this device.
// It checkpoints through SessionBackupStore and hands failed submissions to WriteQueue.
type SessionService struct {
	templates     domain.TemplateSource
	submitter     domain.WorkoutLogSubmitter
	backups       *SessionBackupStore
	queue         *WriteQueue
	submitTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*session
	now      func() time.Time
	log      *logrus.Entry
}

func NewSessionService(
	templates domain.TemplateSource,
	submitter domain.WorkoutLogSubmitter,
	backups *SessionBackupStore,
	queue *WriteQueue,
	submitTimeout time.Duration,
) *SessionService {
	if submitTimeout <= 0 {
		submitTimeout = 15 * time.Second
	}
	return &SessionService{
		templates:     templates,
		submitter:     submitter,
		backups:       backups,
		queue:         queue,
		submitTimeout: submitTimeout,
		sessions:      make(map[string]*session),
		now:           time.Now,
		log:           logrus.WithField("component", "session"),
	}
}

// Start begins a workout from a template, or a blank one when templateID is empty
func (s *SessionService) Start(ctx context.Context, userID, templateID string) (*SessionState, error) {
	var tmpl *domain.WorkoutTemplate
	if templateID != "" {
		res := s.templates.GetTemplate(ctx, templateID)
		if !res.IsOK() {
			return nil, fmt.Errorf("failed to load template %s: %w", templateID, res.Error())
		}
		tmpl = res.Value
	}

	// A backup left by a previous run must be resumed or cancelled first
	if res := s.backups.Restore(ctx, userID); res.IsOK() {
		return nil, domain.ErrWorkoutInProgress
	}

	s.mu.Lock()
	if _, ok := s.sessions[userID]; ok {
		s.mu.Unlock()
		return nil, domain.ErrWorkoutInProgress
	}
	sess := &session{
		workout:  domain.NewActiveWorkout(tmpl, s.now().UTC()),
		snapshot: tmpl.Clone(),
	}
	s.sessions[userID] = sess
	s.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()

	s.backups.Save(ctx, sess.workout, sess.snapshot, userID)
	s.log.WithFields(logrus.Fields{"user_id": userID, "template_id": templateID}).Info("workout started")
	return s.state(userID, sess), nil
}

// Resume loads the workout into memory from its backup after a relaunch.
// A workout already in memory is returned as is.
func (s *SessionService) Resume(ctx context.Context, userID string) (*SessionState, error) {
	if sess, err := s.acquire(userID); err == nil {
		defer sess.mu.Unlock()
		return s.state(userID, sess), nil
	}

	res := s.backups.Restore(ctx, userID)
	if !res.IsOK() {
		return nil, domain.ErrNoActiveWorkout
	}

	sess := &session{
		workout:  res.Value.ActiveWorkout,
		snapshot: res.Value.OriginalTemplateSnapshot,
	}
	state := s.state(userID, sess)

	s.mu.Lock()
	if _, ok := s.sessions[userID]; ok {
		// Started or resumed concurrently; the in-memory session wins
		s.mu.Unlock()
		return s.Get(ctx, userID)
	}
	s.sessions[userID] = sess
	s.mu.Unlock()

	s.log.WithField("user_id", userID).Info("workout resumed from backup")
	return state, nil
}

// Get returns the in-memory workout
func (s *SessionService) Get(ctx context.Context, userID string) (*SessionState, error) {
	sess, err := s.acquire(userID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	return s.state(userID, sess), nil
}

// Apply performs one user action and saves a checkpoint when the action calls for one
func (s *SessionService) Apply(ctx context.Context, userID string, m domain.Mutation) (*SessionState, error) {
	sess, err := s.acquire(userID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	checkpoint, err := sess.workout.Apply(m)
	if err != nil {
		return nil, err
	}
	if checkpoint {
		s.backups.Save(ctx, sess.workout, sess.snapshot, userID)
	}
	return s.state(userID, sess), nil
}

// Finish submits the workout online, falling back to the write queue on any failure.
// The backup is cleared once the workout is either delivered or safely queued; if queueing
// fails too, the session and its backup are kept and the error is returned.
func (s *SessionService) Finish(ctx context.Context, userID string) (*FinishResult, error) {
	sess, err := s.acquire(userID)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()

	payload := sess.workout.Payload()
	// The ingest API rejects these permanently, so they must never reach the queue
	if len(payload.Exercises) == 0 {
		return nil, domain.ErrEmptyWorkoutLog
	}
	key := NewIdempotencyKey()
	result := &FinishResult{
		IdempotencyKey: key,
		Drift:          domain.DetectDrift(sess.snapshot, sess.workout),
	}
	entryLog := s.log.WithFields(logrus.Fields{"user_id": userID, "entry_id": key})

	submitCtx, cancel := context.WithTimeout(ctx, s.submitTimeout)
	res := s.submitter.CreateWorkoutLog(submitCtx, key, payload)
	cancel()

	if res.IsOK() {
		result.Outcome = OutcomeSynced
		result.WorkoutLog = res.Value
		entryLog.Info("workout log synced")
	} else {
		entryLog.WithField("result", res.Kind.String()).Warnf("online submission failed, queueing: %v", res.Err)
		entry := domain.WriteQueueEntry{
			ID:        key,
			Type:      domain.EntryTypeWorkoutLog,
			Payload:   payload,
			CreatedAt: s.now().UTC(),
		}
		if err := s.queue.Enqueue(ctx, entry); err != nil {
			entryLog.WithError(err).Error("failed to queue workout log, keeping session")
			return nil, fmt.Errorf("workout could not be saved for later sync: %w", err)
		}
		result.Outcome = OutcomeQueued
	}

	sess.closed = true
	s.backups.Clear(ctx, userID)
	s.drop(userID, sess)
	return result, nil
}

// Cancel discards the workout and its backup
func (s *SessionService) Cancel(ctx context.Context, userID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if ok {
		sess.mu.Lock()
		sess.closed = true
		sess.mu.Unlock()
	}

	// A backup may exist without the session having been resumed
	s.backups.Clear(ctx, userID)
	s.log.WithField("user_id", userID).Info("workout cancelled")
	return nil
}

// acquire looks up the session and locks it, failing if it closed while waiting
func (s *SessionService) acquire(userID string) (*session, error) {
	sess, err := s.lookup(userID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return nil, domain.ErrNoActiveWorkout
	}
	return sess, nil
}

func (s *SessionService) lookup(userID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, domain.ErrNoActiveWorkout
	}
	return sess, nil
}

// drop removes the session unless it was replaced in the meantime
func (s *SessionService) drop(userID string, sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[userID] == sess {
		delete(s.sessions, userID)
	}
}

// state copies the session so callers never share memory with it. Caller holds sess.mu.
func (s *SessionService) state(userID string, sess *session) *SessionState {
	return &SessionState{
		UserID:           userID,
		Workout:          sess.workout.Clone(),
		TemplateSnapshot: sess.snapshot.Clone(),
		Drift:            domain.DetectDrift(sess.snapshot, sess.workout),
	}
}

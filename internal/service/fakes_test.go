package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mansoorceksport/repsync/internal/domain"
)

var errStoreDown = errors.New("store unavailable")

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeSubmitter returns scripted result kinds in order, then fallback
type fakeSubmitter struct {
	mu       sync.Mutex
	keys     []string
	script   []domain.ResultKind
	fallback domain.ResultKind
	panicMsg string

	started chan string   // receives the key of every call when non-nil
	release chan struct{} // calls wait on it when non-nil
}

func (f *fakeSubmitter) CreateWorkoutLog(ctx context.Context, key string, payload domain.WorkoutLogPayload) domain.Result[*domain.WorkoutLog] {
	f.mu.Lock()
	f.keys = append(f.keys, key)
	kind := f.fallback
	if len(f.script) > 0 {
		kind = f.script[0]
		f.script = f.script[1:]
	}
	started, release, panicMsg := f.started, f.release, f.panicMsg
	f.mu.Unlock()

	if started != nil {
		started <- key
	}
	if release != nil {
		<-release
	}
	if panicMsg != "" {
		panic(panicMsg)
	}

	switch kind {
	case domain.ResultOK:
		return domain.Ok(&domain.WorkoutLog{ID: "log-" + key, IdempotencyKey: key, Exercises: payload.Exercises})
	case domain.ResultPermanentError:
		return domain.Permanent[*domain.WorkoutLog](errors.New("payload rejected"))
	case domain.ResultNotFound:
		return domain.NotFound[*domain.WorkoutLog]()
	default:
		return domain.Transient[*domain.WorkoutLog](errors.New("network unreachable"))
	}
}

func (f *fakeSubmitter) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.keys...)
}

type fakeTemplates map[string]*domain.WorkoutTemplate

func (f fakeTemplates) GetTemplate(ctx context.Context, id string) domain.Result[*domain.WorkoutTemplate] {
	tmpl, ok := f[id]
	if !ok {
		return domain.NotFound[*domain.WorkoutTemplate]()
	}
	return domain.Ok(tmpl.Clone())
}

// faultyStore wraps a store with switchable failures and counts writes per key
type faultyStore struct {
	domain.KeyValueStore

	mu      sync.Mutex
	failGet bool
	failSet bool
	sets    map[string]int
}

func newFaultyStore(inner domain.KeyValueStore) *faultyStore {
	return &faultyStore{KeyValueStore: inner, sets: make(map[string]int)}
}

func (s *faultyStore) GetItem(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	fail := s.failGet
	s.mu.Unlock()
	if fail {
		return nil, errStoreDown
	}
	return s.KeyValueStore.GetItem(ctx, key)
}

func (s *faultyStore) SetItem(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	fail := s.failSet
	if !fail {
		s.sets[key]++
	}
	s.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return s.KeyValueStore.SetItem(ctx, key, value)
}

func (s *faultyStore) setFailures(get, set bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGet, s.failSet = get, set
}

func (s *faultyStore) writes(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets[key]
}

// memoryLogRepo is an in-memory domain.WorkoutLogRepository
type memoryLogRepo struct {
	mu   sync.Mutex
	logs []*domain.WorkoutLog
}

func (r *memoryLogRepo) Create(ctx context.Context, log *domain.WorkoutLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if l.UserID == log.UserID && l.IdempotencyKey == log.IdempotencyKey {
			return domain.ErrDuplicateIdempotencyKey
		}
	}
	log.ID = NewIdempotencyKey()
	c := *log
	r.logs = append(r.logs, &c)
	return nil
}

func (r *memoryLogRepo) GetByID(ctx context.Context, id string) (*domain.WorkoutLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if l.ID == id {
			c := *l
			return &c, nil
		}
	}
	return nil, domain.ErrWorkoutLogNotFound
}

func (r *memoryLogRepo) GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.WorkoutLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.logs {
		if l.UserID == userID && l.IdempotencyKey == key {
			c := *l
			return &c, nil
		}
	}
	return nil, domain.ErrWorkoutLogNotFound
}

func (r *memoryLogRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]*domain.WorkoutLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.WorkoutLog
	for i := len(r.logs) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if r.logs[i].UserID == userID {
			c := *r.logs[i]
			out = append(out, &c)
		}
	}
	return out, nil
}

func samplePayload() domain.WorkoutLogPayload {
	return domain.WorkoutLogPayload{
		StartedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		Exercises: []domain.ExerciseLogEntry{{
			ExerciseID:  "bench",
			RestSeconds: 120,
			Sets:        []domain.SetLogEntry{{SetNumber: 1, Weight: 60, Reps: 8, Done: true}},
		}},
	}
}

func sampleTemplate() *domain.WorkoutTemplate {
	return &domain.WorkoutTemplate{
		ID:   "tpl-1",
		Name: "Push Day",
		Exercises: []domain.TemplateExercise{
			{ExerciseID: "bench", Name: "Bench Press", TargetSets: 4, TargetReps: 8, RestSeconds: 120},
			{ExerciseID: "row", Name: "Barbell Row"},
		},
	}
}

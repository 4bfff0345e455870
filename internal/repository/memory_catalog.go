package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mansoorceksport/repsync/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryCatalog implements the ingest API repositories in memory for local
// development (API_BACKEND=memory) and tests. IDs use the same ObjectID hex form
// as the mongo repositories so clients cannot tell the backends apart.
type MemoryCatalog struct {
	mu        sync.Mutex
	logs      []*domain.WorkoutLog
	templates []*domain.WorkoutTemplate
	exercises []*domain.Exercise
	now       func() time.Time
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{now: time.Now}
}

// Logs returns the catalog as a WorkoutLogRepository
func (m *MemoryCatalog) Logs() domain.WorkoutLogRepository { return memoryLogs{m} }

// Templates returns the catalog as a TemplateRepository
func (m *MemoryCatalog) Templates() domain.TemplateRepository { return memoryTemplates{m} }

// Exercises returns the catalog as an ExerciseRepository
func (m *MemoryCatalog) Exercises() domain.ExerciseRepository { return memoryExercises{m} }

type memoryLogs struct{ *MemoryCatalog }

func (m memoryLogs) Create(ctx context.Context, log *domain.WorkoutLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.logs {
		if l.UserID == log.UserID && l.IdempotencyKey == log.IdempotencyKey {
			return domain.ErrDuplicateIdempotencyKey
		}
	}

	log.ID = primitive.NewObjectID().Hex()
	log.CreatedAt = m.now().UTC()
	stored := *log
	m.logs = append(m.logs, &stored)
	return nil
}

func (m memoryLogs) GetByID(ctx context.Context, id string) (*domain.WorkoutLog, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, domain.ErrInvalidID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.logs {
		if l.ID == id {
			c := *l
			return &c, nil
		}
	}
	return nil, domain.ErrWorkoutLogNotFound
}

func (m memoryLogs) GetByIdempotencyKey(ctx context.Context, userID, key string) (*domain.WorkoutLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.logs {
		if l.UserID == userID && l.IdempotencyKey == key {
			c := *l
			return &c, nil
		}
	}
	return nil, domain.ErrWorkoutLogNotFound
}

func (m memoryLogs) ListByUser(ctx context.Context, userID string, limit int64) ([]*domain.WorkoutLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	logs := []*domain.WorkoutLog{}
	for _, l := range m.logs {
		if l.UserID == userID {
			c := *l
			logs = append(logs, &c)
		}
	}

	// Newest first, matching the mongo index
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].StartedAt.After(logs[j].StartedAt)
	})
	if limit > 0 && int64(len(logs)) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

type memoryTemplates struct{ *MemoryCatalog }

func (m memoryTemplates) Create(ctx context.Context, template *domain.WorkoutTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	template.ID = primitive.NewObjectID().Hex()
	template.CreatedAt = now
	template.UpdatedAt = now
	m.templates = append(m.templates, template.Clone())
	return nil
}

func (m memoryTemplates) GetByID(ctx context.Context, id string) (*domain.WorkoutTemplate, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, domain.ErrInvalidID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.templates {
		if t.ID == id {
			return t.Clone(), nil
		}
	}
	return nil, domain.ErrTemplateNotFound
}

func (m memoryTemplates) List(ctx context.Context) ([]*domain.WorkoutTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	templates := make([]*domain.WorkoutTemplate, 0, len(m.templates))
	for _, t := range m.templates {
		templates = append(templates, t.Clone())
	}
	sort.SliceStable(templates, func(i, j int) bool {
		return templates[i].Name < templates[j].Name
	})
	return templates, nil
}

type memoryExercises struct{ *MemoryCatalog }

func (m memoryExercises) Create(ctx context.Context, ex *domain.Exercise) error {
	if err := ex.Normalize(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.exercises {
		if strings.EqualFold(e.Name, ex.Name) {
			return domain.ErrDuplicateExercise
		}
	}

	now := m.now().UTC()
	ex.ID = primitive.NewObjectID().Hex()
	ex.CreatedAt = now
	ex.UpdatedAt = now
	stored := *ex
	m.exercises = append(m.exercises, &stored)
	return nil
}

func (m memoryExercises) GetByName(ctx context.Context, name string) (*domain.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = strings.TrimSpace(name)
	for _, e := range m.exercises {
		if strings.EqualFold(e.Name, name) {
			c := *e
			return &c, nil
		}
	}
	return nil, domain.ErrExerciseNotFound
}

func (m memoryExercises) List(ctx context.Context, muscleGroup string) ([]*domain.Exercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exercises := []*domain.Exercise{}
	for _, e := range m.exercises {
		if muscleGroup == "" || e.MuscleGroup == muscleGroup {
			c := *e
			exercises = append(exercises, &c)
		}
	}
	sort.SliceStable(exercises, func(i, j int) bool {
		return exercises[i].Name < exercises[j].Name
	})
	return exercises, nil
}

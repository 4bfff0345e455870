package repository

import (
	"context"
	"time"

	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	templateByIDKeyPrefix = "template:id:"
	templateListKey       = "template:list"
	templateCacheTTL      = 10 * time.Minute
)

// CachedTemplateRepository puts a redis read-through cache in front of a TemplateRepository.
// Every agent fetches its template on Start, so reads vastly outnumber writes.
// Redis failures degrade to reading the inner repository.
type CachedTemplateRepository struct {
	inner domain.TemplateRepository
	byID  *JSONCache[*domain.WorkoutTemplate]
	list  *JSONCache[[]*domain.WorkoutTemplate]
}

func NewCachedTemplateRepository(inner domain.TemplateRepository, client *redis.Client) *CachedTemplateRepository {
	return &CachedTemplateRepository{
		inner: inner,
		byID:  NewJSONCache[*domain.WorkoutTemplate](client, templateByIDKeyPrefix, templateCacheTTL),
		list:  NewJSONCache[[]*domain.WorkoutTemplate](client, templateListKey, templateCacheTTL),
	}
}

var _ domain.TemplateRepository = (*CachedTemplateRepository)(nil)

func (r *CachedTemplateRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutTemplate, error) {
	if tmpl, ok, err := r.byID.Get(ctx, id); ok {
		return tmpl, nil
	} else if err != nil {
		logrus.WithError(err).Debug("template cache unavailable")
	}

	tmpl, err := r.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.byID.Put(ctx, id, tmpl); err != nil {
		logrus.WithError(err).Debug("template not cached")
	}
	return tmpl, nil
}

func (r *CachedTemplateRepository) List(ctx context.Context) ([]*domain.WorkoutTemplate, error) {
	if templates, ok, _ := r.list.Get(ctx, ""); ok {
		return templates, nil
	}

	templates, err := r.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	_ = r.list.Put(ctx, "", templates)
	return templates, nil
}

// Create stores the template and drops the cached list
func (r *CachedTemplateRepository) Create(ctx context.Context, template *domain.WorkoutTemplate) error {
	if err := r.inner.Create(ctx, template); err != nil {
		return err
	}
	if err := r.list.Invalidate(ctx, ""); err != nil {
		logrus.WithError(err).Warn("stale template list until TTL expiry")
	}
	return nil
}

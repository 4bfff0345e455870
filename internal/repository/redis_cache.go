package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// JSONCache keeps JSON-encoded values of one type under a redis key namespace.
// Keys are namespace+id; an empty id addresses the namespace key itself.
type JSONCache[T any] struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	tracer    trace.Tracer
}

func NewJSONCache[T any](client *redis.Client, namespace string, ttl time.Duration) *JSONCache[T] {
	return &JSONCache[T]{
		client:    client,
		namespace: namespace,
		ttl:       ttl,
		tracer:    otel.Tracer("repsync/cache"),
	}
}

func (c *JSONCache[T]) key(id string) string { return c.namespace + id }

func (c *JSONCache[T]) start(ctx context.Context, op string, ids ...string) (context.Context, trace.Span) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	return c.tracer.Start(ctx, "cache."+op, trace.WithAttributes(
		attribute.String("cache.namespace", c.namespace),
		attribute.StringSlice("cache.keys", keys),
	))
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Get reports whether id was cached. A miss is not an error.
func (c *JSONCache[T]) Get(ctx context.Context, id string) (T, bool, error) {
	ctx, span := c.start(ctx, "get", id)
	defer span.End()

	var value T
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return value, false, nil
	}
	if err != nil {
		return value, false, fail(span, fmt.Errorf("cache get %s: %w", c.key(id), err))
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, fail(span, fmt.Errorf("cache decode %s: %w", c.key(id), err))
	}
	span.SetAttributes(attribute.Bool("cache.hit", true))
	return value, true, nil
}

// Put stores value under id for the cache's TTL
func (c *JSONCache[T]) Put(ctx context.Context, id string, value T) error {
	ctx, span := c.start(ctx, "put", id)
	defer span.End()

	raw, err := json.Marshal(value)
	if err != nil {
		return fail(span, fmt.Errorf("cache encode %s: %w", c.key(id), err))
	}
	if err := c.client.Set(ctx, c.key(id), raw, c.ttl).Err(); err != nil {
		return fail(span, fmt.Errorf("cache put %s: %w", c.key(id), err))
	}
	return nil
}

func (c *JSONCache[T]) Invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	ctx, span := c.start(ctx, "invalidate", ids...)
	defer span.End()

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.key(id)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fail(span, fmt.Errorf("cache invalidate %s: %w", c.namespace, err))
	}
	return nil
}

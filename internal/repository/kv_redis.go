package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mansoorceksport/repsync/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RedisKeyValueStore implements domain.KeyValueStore using Redis string values
type RedisKeyValueStore struct {
	client *redis.Client
	prefix string
}

// NewRedisKeyValueStore creates a new Redis-backed store. prefix namespaces every key.
func NewRedisKeyValueStore(client *redis.Client, prefix string) *RedisKeyValueStore {
	return &RedisKeyValueStore{
		client: client,
		prefix: prefix,
	}
}

var _ domain.KeyValueStore = (*RedisKeyValueStore)(nil)

// GetItem reads a whole value with OTel tracing
func (r *RedisKeyValueStore) GetItem(ctx context.Context, key string) ([]byte, error) {
	ctx, span := otel.Tracer("redis").Start(ctx, "redis.GetItem",
		trace.WithAttributes(attribute.String("store.key", key)),
	)
	defer span.End()

	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetAttributes(attribute.String("store.result", "miss"))
			return nil, domain.ErrKeyNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	span.SetAttributes(attribute.String("store.result", "hit"))
	return data, nil
}

// SetItem overwrites a whole value without expiry
func (r *RedisKeyValueStore) SetItem(ctx context.Context, key string, value []byte) error {
	ctx, span := otel.Tracer("redis").Start(ctx, "redis.SetItem",
		trace.WithAttributes(
			attribute.String("store.key", key),
			attribute.Int("store.value_bytes", len(value)),
		),
	)
	defer span.End()

	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// RemoveItem deletes a key
func (r *RedisKeyValueStore) RemoveItem(ctx context.Context, key string) error {
	ctx, span := otel.Tracer("redis").Start(ctx, "redis.RemoveItem",
		trace.WithAttributes(attribute.String("store.key", key)),
	)
	defer span.End()

	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("redis delete error: %w", err)
	}
	return nil
}

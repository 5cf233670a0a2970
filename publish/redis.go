package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/cwbriones/scientist/experiment"
)

const (
	defaultKeyPrefix = "scientist:results:"
	defaultMaxLen    = 1000
)

// Redis pushes serialized result records onto a per-experiment Redis list,
// newest first, trimmed to a bounded length.
type Redis[T any] struct {
	experiment.DefaultHandler[T]

	client *redis.Client
	prefix string
	maxLen int64
}

// RedisOption configures a Redis sink.
type RedisOption[T any] func(*Redis[T])

// WithKeyPrefix overrides the default "scientist:results:" key prefix.
func WithKeyPrefix[T any](prefix string) RedisOption[T] {
	return func(r *Redis[T]) {
		r.prefix = prefix
	}
}

// WithMaxLen bounds how many records are retained per experiment. Older
// records are trimmed as new ones are published.
func WithMaxLen[T any](n int64) RedisOption[T] {
	return func(r *Redis[T]) {
		r.maxLen = n
	}
}

// NewRedis creates a sink connected to the given address.
func NewRedis[T any](address, password string, db int, opts ...RedisOption[T]) *Redis[T] {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	return NewRedisFromClient(client, opts...)
}

// NewRedisFromClient creates a sink on an existing client, which the caller
// keeps ownership of.
func NewRedisFromClient[T any](client *redis.Client, opts ...RedisOption[T]) *Redis[T] {
	r := &Redis[T]{
		client: client,
		prefix: defaultKeyPrefix,
		maxLen: defaultMaxLen,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Publish serializes the result and pushes it onto the experiment's list,
// trimming the list to the configured length in the same pipeline.
func (r *Redis[T]) Publish(ctx context.Context, result *experiment.Result[T]) error {
	rec := NewRecord(result)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", rec.ID, err)
	}

	key := r.key(result.Experiment.Name())
	pipe := r.client.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, r.maxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	return nil
}

// Recent returns up to n records for the named experiment, newest first.
func (r *Redis[T]) Recent(ctx context.Context, name string, n int64) ([]Record, error) {
	raw, err := r.client.LRange(ctx, r.key(name), 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load from redis: %w", err)
	}

	records := make([]Record, 0, len(raw))
	for _, item := range raw {
		var rec Record
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func (r *Redis[T]) key(name string) string {
	return r.prefix + name
}

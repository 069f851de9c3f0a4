// Package task runs the background processing pipeline: each submission
// leaves a durable task row (with staged file bytes) in the database, and
// workers pick tasks up through a Redis wake-up queue with a database poll
// as the fallback. Delivery is at-least-once from the queue's perspective;
// a task interrupted mid-run is failed closed rather than re-run, because
// the external trigger is not idempotent.
package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueKey is the Redis list the worker blocks on.
const DefaultQueueKey = "pitchlense:tasks"

// Queue is the wake-up channel between submission and workers. Losing a
// nudge is harmless: the database poll finds queued tasks eventually.
type Queue interface {
	// Enqueue nudges workers about a committed task.
	Enqueue(ctx context.Context, taskID uuid.UUID) error

	// Dequeue blocks up to timeout for the next task ID. ok is false when
	// the timeout elapsed without work.
	Dequeue(ctx context.Context, timeout time.Duration) (id uuid.UUID, ok bool, err error)

	// Close closes the underlying connection.
	Close() error
}

// RedisQueue implements Queue on a Redis list.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// RedisConfig holds configuration for connecting to Redis.
type RedisConfig struct {
	Addr     string // host:port
	Password string // optional
	DB       int    // database number
}

// NewRedisQueue creates a RedisQueue with the given configuration.
func NewRedisQueue(cfg RedisConfig) (*RedisQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisQueue{client: client, key: DefaultQueueKey}, nil
}

// Enqueue pushes a task ID onto the list.
func (q *RedisQueue) Enqueue(ctx context.Context, taskID uuid.UUID) error {
	return q.client.LPush(ctx, q.key, taskID.String()).Err()
}

// Dequeue blocks up to timeout for the next task ID.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (uuid.UUID, bool, error) {
	vals, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, err
	}

	// BRPOP returns [key, value]
	id, err := uuid.Parse(vals[1])
	if err != nil {
		return uuid.Nil, false, err
	}
	return id, true, nil
}

// Close closes the connection to Redis.
func (q *RedisQueue) Close() error {
	return q.client.Close()
}

// MemoryQueue implements Queue on a buffered channel. Useful for
// development and tests.
type MemoryQueue struct {
	ch chan uuid.UUID
}

// NewMemoryQueue creates a MemoryQueue with the given capacity.
func NewMemoryQueue(capacity int) *MemoryQueue {
	return &MemoryQueue{ch: make(chan uuid.UUID, capacity)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, taskID uuid.UUID) error {
	select {
	case q.ch <- taskID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context, timeout time.Duration) (uuid.UUID, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case id := <-q.ch:
		return id, true, nil
	case <-timer.C:
		return uuid.Nil, false, nil
	case <-ctx.Done():
		return uuid.Nil, false, ctx.Err()
	}
}

func (q *MemoryQueue) Close() error {
	return nil
}

// Ensure implementations satisfy Queue.
var (
	_ Queue = (*RedisQueue)(nil)
	_ Queue = (*MemoryQueue)(nil)
)

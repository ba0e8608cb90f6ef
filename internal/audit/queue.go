// Package audit buffers proctoring audit entries between the exam engine,
// which must never block on them, and the worker that delivers them.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/candidate-portal/internal/model"
)

var ErrQueueFull = errors.New("audit queue full")

// Envelope is a queued entry with its delivery attempt count and the
// fingerprint of the session it was recorded under.
type Envelope struct {
	Entry    model.ProctoringLog `json:"entry"`
	Attempts int                 `json:"attempts"`
	Session  string              `json:"session,omitempty"`
}

// Queue is a FIFO of audit envelopes.
type Queue interface {
	Push(ctx context.Context, env Envelope) error
	// Pop waits up to timeout; it returns nil, nil when nothing arrived.
	Pop(ctx context.Context, timeout time.Duration) (*Envelope, error)
	Requeue(ctx context.Context, envs []Envelope) error
}

// ChannelQueue is an in-process queue. Push never blocks.
type ChannelQueue struct {
	ch chan Envelope
}

func NewChannelQueue(size int) *ChannelQueue {
	if size <= 0 {
		size = 256
	}
	return &ChannelQueue{ch: make(chan Envelope, size)}
}

func (q *ChannelQueue) Push(_ context.Context, env Envelope) error {
	select {
	case q.ch <- env:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *ChannelQueue) Pop(ctx context.Context, timeout time.Duration) (*Envelope, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case env := <-q.ch:
		return &env, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *ChannelQueue) Requeue(ctx context.Context, envs []Envelope) error {
	var errs []error
	for _, env := range envs {
		if err := q.Push(ctx, env); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len is the number of buffered envelopes.
func (q *ChannelQueue) Len() int { return len(q.ch) }

// RedisQueue keeps the queue in a Redis list so entries outlive the portal
// process.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

func NewRedisQueue(rdb *redis.Client, key string) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: key}
}

func (q *RedisQueue) Push(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode audit entry: %w", err)
	}
	if err := q.rdb.RPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("push audit entry: %w", err)
	}
	return nil
}

func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (*Envelope, error) {
	result, err := q.rdb.BLPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var env Envelope
	if err := json.Unmarshal([]byte(result[1]), &env); err != nil {
		return nil, &MalformedError{Data: result[1], Err: err}
	}
	return &env, nil
}

func (q *RedisQueue) Requeue(ctx context.Context, envs []Envelope) error {
	pipe := q.rdb.Pipeline()
	for _, env := range envs {
		data, err := json.Marshal(env)
		if err != nil {
			continue
		}
		pipe.RPush(ctx, q.key, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("requeue audit entries: %w", err)
	}
	return nil
}

// MalformedError is a queued payload that cannot be decoded. It is never
// retried.
type MalformedError struct {
	Data string
	Err  error
}

func (e *MalformedError) Error() string { return "malformed audit entry: " + e.Err.Error() }
func (e *MalformedError) Unwrap() error { return e.Err }

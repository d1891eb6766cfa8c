// Package redisq hands load payloads to workers reading a Redis list.
package redisq

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Envelope is the msgpack record pushed onto the queue.
type Envelope struct {
	ID         string `msgpack:"id"`
	Workflow   string `msgpack:"workflow"`
	Payload    []byte `msgpack:"payload"`
	EnqueuedMs int64  `msgpack:"enqueued_ms"`
}

// Trigger implements ports.WorkflowTrigger. The workflow identifier names
// the list the envelope is appended to.
type Trigger struct {
	rdb *redis.Client
	now func() time.Time
}

// NewTrigger constructs a Trigger.
func NewTrigger(rdb *redis.Client) (*Trigger, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client must not be nil")
	}
	return &Trigger{rdb: rdb, now: time.Now}, nil
}

// Connect parses a redis:// URL and returns a client for it.
func Connect(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

// Start pushes the payload and returns the envelope id.
func (t *Trigger) Start(ctx context.Context, workflowID string, payload []byte) (string, error) {
	env := Envelope{
		ID:         uuid.New().String(),
		Workflow:   workflowID,
		Payload:    payload,
		EnqueuedMs: t.now().UnixMilli(),
	}

	data, err := msgpack.Marshal(&env)
	if err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}

	if err := t.rdb.RPush(ctx, workflowID, data).Err(); err != nil {
		return "", fmt.Errorf("push to %s: %w", workflowID, err)
	}
	return env.ID, nil
}

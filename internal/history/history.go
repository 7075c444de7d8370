// Package history publishes session-update records to a Redis queue for
// the historian process to consolidate into Postgres asynchronously.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list the historian drains.
const DefaultQueueName = "unotable_history"

// SessionUpdateRecord is one consolidation unit.
type SessionUpdateRecord struct {
	SessionID uuid.UUID `json:"session_id"`
	Timestamp int64     `json:"timestamp"`
}

// Publisher pushes records onto the queue. Failures are returned, never
// retried here; the engine treats history as fire-and-forget.
type Publisher struct {
	client *redis.Client
	queue  string
}

func NewPublisher(client *redis.Client, queue string) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{client: client, queue: queue}
}

// Publish enqueues one record.
func (p *Publisher) Publish(ctx context.Context, sessionID uuid.UUID) error {
	rec := SessionUpdateRecord{
		SessionID: sessionID,
		Timestamp: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode history record: %w", err)
	}
	if err := p.client.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("enqueue history record: %w", err)
	}
	return nil
}

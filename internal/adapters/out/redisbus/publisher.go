// Package redisbus implements the event bus on Redis pub/sub. Delivery is
// at least once with no ordering guarantee across topics, which matches the
// contract observers are written against: duplicates are tolerated and
// canonical state is reconciled over HTTP on reconnect.
package redisbus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher sends messages to topics over Redis pub/sub. It implements
// ports.EventPublisher.
type Publisher struct {
	client redis.UniversalClient
}

// NewPublisher creates a Publisher on top of an existing Redis client.
func NewPublisher(client redis.UniversalClient) *Publisher {
	return &Publisher{client: client}
}

// Publish marshals the message to JSON and publishes it to the topic.
// Redis drops messages with zero subscribers, which is fine: an observer
// that was not connected reconciles from the read model when it comes back.
func (p *Publisher) Publish(ctx context.Context, topic string, message any) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message for topic %s: %w", topic, err)
	}

	if err := p.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("publish to topic %s: %w", topic, err)
	}
	return nil
}

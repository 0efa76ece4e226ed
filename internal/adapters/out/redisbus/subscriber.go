package redisbus

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Envelope is one message as delivered to a subscriber: the topic it
// arrived on and the raw JSON payload.
type Envelope struct {
	Topic   string
	Payload []byte
}

// Subscriber receives messages from topics over Redis pub/sub.
type Subscriber struct {
	client redis.UniversalClient
}

// NewSubscriber creates a Subscriber on top of an existing Redis client.
func NewSubscriber(client redis.UniversalClient) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe subscribes to the given topics and returns a channel of
// incoming messages plus a close function. The channel is closed when the
// context is cancelled or close is called. Messages published while the
// subscriber is away are lost; callers reconcile canonical state over the
// read model.
func (s *Subscriber) Subscribe(ctx context.Context, topics ...string) (<-chan Envelope, func() error) {
	pubsub := s.client.Subscribe(ctx, topics...)

	out := make(chan Envelope)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-pubsub.Channel():
				if !ok {
					return
				}
				select {
				case out <- Envelope{Topic: msg.Channel, Payload: []byte(msg.Payload)}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, pubsub.Close
}

package ports

import "context"

// EventPublisher is the outbound half of the event bus. Publishes are
// fire-and-forget: the transport delivers at least once with no ordering
// guarantee across topics, and the publishing side never blocks on
// subscriber delivery. A failed publish is logged, not propagated, because
// observers reconcile canonical state on reconnect anyway.
type EventPublisher interface {
	// Publish sends a message to a topic. The message is marshaled to JSON
	// by the adapter.
	Publish(ctx context.Context, topic string, message any) error
}

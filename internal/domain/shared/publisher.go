package shared

import "context"

// EventPublisher publishes domain events after an aggregate is persisted
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

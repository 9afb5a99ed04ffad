package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/returnsdesk/backend/internal/domain/shared"
)

// LoggingPublisher emits domain events to the structured log. Downstream
// systems consume decisions through the query API; the event log exists for
// operators tailing the service.
type LoggingPublisher struct {
	logger *zap.Logger
}

// NewLoggingPublisher creates a new LoggingPublisher
func NewLoggingPublisher(logger *zap.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

// Publish logs each event. It never fails; a dropped log line must not roll
// back a persisted decision.
func (p *LoggingPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	for _, evt := range events {
		p.logger.Info("domain event",
			zap.String("event_type", evt.EventType()),
			zap.String("event_id", evt.EventID().String()),
			zap.String("aggregate_type", evt.AggregateType()),
			zap.String("aggregate_id", evt.AggregateID().String()),
			zap.Time("occurred_at", evt.OccurredAt()),
		)
	}
	return nil
}

// Ensure LoggingPublisher implements EventPublisher
var _ shared.EventPublisher = (*LoggingPublisher)(nil)

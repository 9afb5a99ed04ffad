package returns

import (
	"context"

	"github.com/returnsdesk/backend/internal/domain/shared"
)

// DecisionRepository persists policy decisions. FindByEventID is the
// deduplication source of truth: a stored decision means the event was
// fully processed.
type DecisionRepository interface {
	Save(ctx context.Context, decision *PolicyDecision) error
	FindByEventID(ctx context.Context, eventID string) (*PolicyDecision, error)
	FindRecent(ctx context.Context, filter shared.Filter) (*shared.Paginated[*PolicyDecision], error)
	CountByDecision(ctx context.Context) (map[string]int64, error)
}

// ExecutionOutcomeRepository persists refund execution outcomes
type ExecutionOutcomeRepository interface {
	Save(ctx context.Context, outcome *ExecutionOutcome) error
	FindByEventID(ctx context.Context, eventID string) (*ExecutionOutcome, error)
}

// AuditRepository is append-only. Records are never updated or deleted;
// Append must be durable before the caller acknowledges the event.
type AuditRepository interface {
	Append(ctx context.Context, record *AuditRecord) error
	ListByEventID(ctx context.Context, eventID string) ([]*AuditRecord, error)
	Summary(ctx context.Context) (*AuditSummary, error)
}

package returns

import (
	"time"

	"github.com/google/uuid"
	"github.com/returnsdesk/backend/internal/domain/shared"
)

// Stage identifies one transition in the per-event state machine. Audit
// records for a given event are written in strict stage order; failures
// produce their own stage rather than skipping one.
type Stage string

const (
	StageReceived        Stage = "RECEIVED"
	StageValidated       Stage = "VALIDATED"
	StageDeduplicated    Stage = "DEDUPLICATED"
	StageRuleEvaluated   Stage = "RULE_EVALUATED"
	StageDecided         Stage = "DECIDED"
	StageExecuting       Stage = "EXECUTING"
	StageExecuted        Stage = "EXECUTED"
	StageExecutionFailed Stage = "EXECUTION_FAILED"
	StageClosed          Stage = "CLOSED"
)

// IsValid checks if the stage is a known Stage
func (s Stage) IsValid() bool {
	switch s {
	case StageReceived, StageValidated, StageDeduplicated, StageRuleEvaluated,
		StageDecided, StageExecuting, StageExecuted, StageExecutionFailed, StageClosed:
		return true
	}
	return false
}

// String returns the string representation of the stage
func (s Stage) String() string {
	return string(s)
}

// CanFollow checks if the stage is a legal successor of prev. The dedupe
// short-circuit (Deduplicated -> Closed) may enter after Validated, or after
// RuleEvaluated when a concurrent invocation stored its decision first.
func (s Stage) CanFollow(prev Stage) bool {
	switch prev {
	case StageReceived:
		return s == StageValidated
	case StageValidated:
		return s == StageDeduplicated || s == StageRuleEvaluated
	case StageDeduplicated:
		return s == StageClosed
	case StageRuleEvaluated:
		return s == StageDecided || s == StageDeduplicated
	case StageDecided:
		return s == StageExecuting || s == StageClosed
	case StageExecuting:
		return s == StageExecuted || s == StageExecutionFailed
	case StageExecuted, StageExecutionFailed:
		return s == StageClosed
	case StageClosed:
		return false // Terminal
	}
	return false
}

// AuditRecord is one immutable entry in the append-only audit trail.
// Records are never updated or deleted.
type AuditRecord struct {
	ID             uuid.UUID
	Timestamp      time.Time
	EventID        string
	Stage          Stage
	PayloadSummary string
	Actor          string
}

// NewAuditRecord creates an audit record for a stage transition
func NewAuditRecord(eventID string, stage Stage, payloadSummary, actor string) (*AuditRecord, error) {
	if eventID == "" {
		return nil, shared.NewDomainError("INVALID_EVENT_ID", "Event ID cannot be empty")
	}
	if !stage.IsValid() {
		return nil, shared.NewDomainError("INVALID_STAGE", "Unknown audit stage")
	}
	if actor == "" {
		actor = "decision-engine"
	}

	return &AuditRecord{
		ID:             uuid.New(),
		Timestamp:      time.Now(),
		EventID:        eventID,
		Stage:          stage,
		PayloadSummary: payloadSummary,
		Actor:          actor,
	}, nil
}

// AuditSummary aggregates recent audit activity for the review endpoints
type AuditSummary struct {
	TotalRecords   int64            `json:"total_records"`
	StageCounts    map[string]int64 `json:"stage_counts"`
	LastActivityAt *time.Time       `json:"last_activity_at,omitempty"`
}

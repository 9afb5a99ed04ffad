package returns

import (
	"github.com/returnsdesk/backend/internal/domain/shared"
)

// Event type constants for the returns context
const (
	EventTypeDecisionMade   = "returns.decision.made"
	EventTypeRefundExecuted = "returns.refund.executed"
	EventTypeRefundFailed   = "returns.refund.failed"
)

// DecisionMadeEvent is raised when a policy decision is created
type DecisionMadeEvent struct {
	shared.BaseDomainEvent
	ReturnEventID string `json:"return_event_id"`
	OrderID       string `json:"order_id"`
	Decision      string `json:"decision"`
	ReasonCode    string `json:"reason_code"`
	RefundAmount  string `json:"refund_amount,omitempty"`
}

// NewDecisionMadeEvent creates a DecisionMadeEvent from a decision
func NewDecisionMadeEvent(d *PolicyDecision) *DecisionMadeEvent {
	e := &DecisionMadeEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDecisionMade, "PolicyDecision", d.ID),
		ReturnEventID:   d.EventID,
		OrderID:         d.OrderID,
		Decision:        d.Decision.String(),
		ReasonCode:      d.ReasonCode,
	}
	if d.RefundAmount != nil {
		e.RefundAmount = d.RefundAmount.String()
	}
	return e
}

// RefundExecutedEvent is raised when a refund submission succeeds
type RefundExecutedEvent struct {
	shared.BaseDomainEvent
	ReturnEventID         string `json:"return_event_id"`
	OrderID               string `json:"order_id"`
	Amount                string `json:"amount"`
	ExternalTransactionID string `json:"external_transaction_id"`
	AttemptCount          int    `json:"attempt_count"`
}

// NewRefundExecutedEvent creates a RefundExecutedEvent from an outcome
func NewRefundExecutedEvent(o *ExecutionOutcome) *RefundExecutedEvent {
	e := &RefundExecutedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundExecuted, "ExecutionOutcome", o.ID),
		ReturnEventID:   o.EventID,
		OrderID:         o.OrderID,
		Amount:          o.Amount.String(),
		AttemptCount:    o.AttemptCount,
	}
	if o.ExternalTransactionID != nil {
		e.ExternalTransactionID = *o.ExternalTransactionID
	}
	return e
}

// RefundFailedEvent is raised when the retry ceiling is exhausted
type RefundFailedEvent struct {
	shared.BaseDomainEvent
	ReturnEventID string `json:"return_event_id"`
	OrderID       string `json:"order_id"`
	Amount        string `json:"amount"`
	AttemptCount  int    `json:"attempt_count"`
	LastError     string `json:"last_error,omitempty"`
}

// NewRefundFailedEvent creates a RefundFailedEvent from an outcome
func NewRefundFailedEvent(o *ExecutionOutcome) *RefundFailedEvent {
	e := &RefundFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRefundFailed, "ExecutionOutcome", o.ID),
		ReturnEventID:   o.EventID,
		OrderID:         o.OrderID,
		Amount:          o.Amount.String(),
		AttemptCount:    o.AttemptCount,
	}
	if o.LastError != nil {
		e.LastError = *o.LastError
	}
	return e
}

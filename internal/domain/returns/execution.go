package returns

import (
	"time"

	"github.com/returnsdesk/backend/internal/domain/shared"
	"github.com/returnsdesk/backend/internal/domain/shared/valueobject"
)

// ExecutionStatus represents the state of a refund submission
type ExecutionStatus string

const (
	ExecutionStatusPending  ExecutionStatus = "PENDING"
	ExecutionStatusExecuted ExecutionStatus = "EXECUTED"
	ExecutionStatusFailed   ExecutionStatus = "FAILED"
)

// IsTerminal returns true once the execution can no longer change
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusExecuted || s == ExecutionStatusFailed
}

// ExecutionOutcome tracks the refund side effect for one approved decision.
// It exists only for Approve decisions; the event ID doubles as the
// idempotency key sent to the payment system.
type ExecutionOutcome struct {
	shared.BaseAggregateRoot
	EventID               string
	OrderID               string
	LineItemID            string
	Amount                valueobject.Money
	Status                ExecutionStatus
	ExternalTransactionID *string
	AttemptCount          int
	LastError             *string
	CompletedAt           *time.Time
}

// NewExecutionOutcome creates a pending outcome for an approved decision
func NewExecutionOutcome(decision *PolicyDecision) (*ExecutionOutcome, error) {
	if decision == nil {
		return nil, shared.NewDomainError("INVALID_DECISION", "Decision cannot be nil")
	}
	if !decision.IsApproved() {
		return nil, shared.NewDomainError("INVALID_STATE", "Execution outcomes exist only for approved decisions")
	}

	return &ExecutionOutcome{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EventID:           decision.EventID,
		OrderID:           decision.OrderID,
		LineItemID:        decision.LineItemID,
		Amount:            *decision.RefundAmount,
		Status:            ExecutionStatusPending,
	}, nil
}

// RecordAttempt increments the attempt counter and stores the attempt error
func (o *ExecutionOutcome) RecordAttempt(attemptErr error) {
	o.AttemptCount++
	if attemptErr != nil {
		msg := attemptErr.Error()
		o.LastError = &msg
	}
	o.UpdatedAt = time.Now()
}

// MarkExecuted records a successful refund submission
func (o *ExecutionOutcome) MarkExecuted(externalTransactionID string) error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Execution outcome is already terminal")
	}
	if externalTransactionID == "" {
		return shared.NewDomainError("INVALID_TRANSACTION_ID", "External transaction ID cannot be empty")
	}

	now := time.Now()
	o.Status = ExecutionStatusExecuted
	o.ExternalTransactionID = &externalTransactionID
	o.LastError = nil
	o.CompletedAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewRefundExecutedEvent(o))

	return nil
}

// MarkFailed records retry-ceiling exhaustion. The overall event escalates
// to manual review; the caller is told the refund did not complete.
func (o *ExecutionOutcome) MarkFailed(lastErr error) error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Execution outcome is already terminal")
	}

	now := time.Now()
	o.Status = ExecutionStatusFailed
	if lastErr != nil {
		msg := lastErr.Error()
		o.LastError = &msg
	}
	o.CompletedAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewRefundFailedEvent(o))

	return nil
}

// Succeeded returns true if the refund was submitted successfully
func (o *ExecutionOutcome) Succeeded() bool {
	return o.Status == ExecutionStatusExecuted
}

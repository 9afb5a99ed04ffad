package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/returnsdesk/backend/internal/domain/returns"
	"github.com/returnsdesk/backend/internal/domain/shared/valueobject"
)

// PolicyDecisionModel is the persistence model for a policy decision.
// The event_id unique index is what makes replay detection durable.
type PolicyDecisionModel struct {
	AggregateModel
	EventID      string  `gorm:"uniqueIndex;not null;size:128"`
	OrderID      string  `gorm:"not null;index;size:128"`
	LineItemID   string  `gorm:"not null;size:128"`
	Decision     string  `gorm:"not null;size:16"`
	ReasonCode   string  `gorm:"not null;size:64"`
	RuleResults  string  `gorm:"type:text"`
	RefundAmount *string `gorm:"size:32"`
	Currency     string  `gorm:"not null;size:8"`
}

// TableName specifies the table name
func (PolicyDecisionModel) TableName() string {
	return "policy_decisions"
}

// FromDomain populates the model from a domain decision
func (m *PolicyDecisionModel) FromDomain(d *returns.PolicyDecision) error {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.EventID = d.EventID
	m.OrderID = d.OrderID
	m.LineItemID = d.LineItemID
	m.Decision = d.Decision.String()
	m.ReasonCode = d.ReasonCode
	m.Currency = string(d.Currency)

	if d.RefundAmount != nil {
		amount := d.RefundAmount.StringFixed(2)
		m.RefundAmount = &amount
	} else {
		m.RefundAmount = nil
	}

	results, err := json.Marshal(d.RuleResults)
	if err != nil {
		return fmt.Errorf("failed to encode rule results: %w", err)
	}
	m.RuleResults = string(results)
	return nil
}

// ToDomain converts the model to a domain decision
func (m *PolicyDecisionModel) ToDomain() (*returns.PolicyDecision, error) {
	d := &returns.PolicyDecision{
		EventID:    m.EventID,
		OrderID:    m.OrderID,
		LineItemID: m.LineItemID,
		Decision:   returns.Decision(m.Decision),
		ReasonCode: m.ReasonCode,
		Currency:   valueobject.Currency(m.Currency),
	}
	m.PopulateAggregateRoot(&d.BaseAggregateRoot)

	if m.RuleResults != "" {
		if err := json.Unmarshal([]byte(m.RuleResults), &d.RuleResults); err != nil {
			return nil, fmt.Errorf("failed to decode rule results: %w", err)
		}
	}

	if m.RefundAmount != nil {
		amount, err := valueobject.NewMoneyFromString(*m.RefundAmount, d.Currency)
		if err != nil {
			return nil, fmt.Errorf("failed to decode refund amount: %w", err)
		}
		d.RefundAmount = &amount
	}

	return d, nil
}

// ExecutionOutcomeModel is the persistence model for a refund execution outcome
type ExecutionOutcomeModel struct {
	AggregateModel
	EventID               string     `gorm:"uniqueIndex;not null;size:128"`
	OrderID               string     `gorm:"not null;index;size:128"`
	LineItemID            string     `gorm:"not null;size:128"`
	Amount                string     `gorm:"not null;size:32"`
	Currency              string     `gorm:"not null;size:8"`
	Status                string     `gorm:"not null;size:16"`
	ExternalTransactionID *string    `gorm:"size:128"`
	AttemptCount          int        `gorm:"not null;default:0"`
	LastError             *string    `gorm:"type:text"`
	CompletedAt           *time.Time `gorm:""`
}

// TableName specifies the table name
func (ExecutionOutcomeModel) TableName() string {
	return "execution_outcomes"
}

// FromDomain populates the model from a domain outcome
func (m *ExecutionOutcomeModel) FromDomain(o *returns.ExecutionOutcome) {
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	m.EventID = o.EventID
	m.OrderID = o.OrderID
	m.LineItemID = o.LineItemID
	m.Amount = o.Amount.StringFixed(2)
	m.Currency = string(o.Amount.Currency())
	m.Status = string(o.Status)
	m.ExternalTransactionID = o.ExternalTransactionID
	m.AttemptCount = o.AttemptCount
	m.LastError = o.LastError
	m.CompletedAt = o.CompletedAt
}

// ToDomain converts the model to a domain outcome
func (m *ExecutionOutcomeModel) ToDomain() (*returns.ExecutionOutcome, error) {
	amount, err := valueobject.NewMoneyFromString(m.Amount, valueobject.Currency(m.Currency))
	if err != nil {
		return nil, fmt.Errorf("failed to decode outcome amount: %w", err)
	}

	o := &returns.ExecutionOutcome{
		EventID:               m.EventID,
		OrderID:               m.OrderID,
		LineItemID:            m.LineItemID,
		Amount:                amount,
		Status:                returns.ExecutionStatus(m.Status),
		ExternalTransactionID: m.ExternalTransactionID,
		AttemptCount:          m.AttemptCount,
		LastError:             m.LastError,
		CompletedAt:           m.CompletedAt,
	}
	m.PopulateAggregateRoot(&o.BaseAggregateRoot)
	return o, nil
}

// AuditRecordModel is the persistence model for one audit record.
// Rows are insert-only; there is no update or delete path.
type AuditRecordModel struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key"`
	Timestamp      time.Time `gorm:"not null;index"`
	EventID        string    `gorm:"not null;index;size:128"`
	Stage          string    `gorm:"not null;size:32"`
	PayloadSummary string    `gorm:"type:text"`
	Actor          string    `gorm:"not null;size:64"`
}

// TableName specifies the table name
func (AuditRecordModel) TableName() string {
	return "audit_records"
}

// FromDomain populates the model from a domain audit record
func (m *AuditRecordModel) FromDomain(r *returns.AuditRecord) {
	m.ID = r.ID
	m.Timestamp = r.Timestamp
	m.EventID = r.EventID
	m.Stage = string(r.Stage)
	m.PayloadSummary = r.PayloadSummary
	m.Actor = r.Actor
}

// ToDomain converts the model to a domain audit record
func (m *AuditRecordModel) ToDomain() *returns.AuditRecord {
	return &returns.AuditRecord{
		ID:             m.ID,
		Timestamp:      m.Timestamp,
		EventID:        m.EventID,
		Stage:          returns.Stage(m.Stage),
		PayloadSummary: m.PayloadSummary,
		Actor:          m.Actor,
	}
}

package returns

import (
	"fmt"

	"github.com/returnsdesk/backend/internal/domain/shared"
	"github.com/returnsdesk/backend/internal/domain/shared/valueobject"
)

// Decision represents the three-way policy outcome
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionDeny    Decision = "DENY"
	DecisionFlag    Decision = "FLAG"
)

// IsValid checks if the decision is a valid Decision
func (d Decision) IsValid() bool {
	switch d {
	case DecisionApprove, DecisionDeny, DecisionFlag:
		return true
	}
	return false
}

// String returns the string representation of the decision
func (d Decision) String() string {
	return string(d)
}

// Reason codes carried on a PolicyDecision
const (
	ReasonCodeApproved             = "approved"
	ReasonCodeReturnWindowExceeded = "return_window_exceeded"
	ReasonCodeItemNotEligible      = "item_not_eligible"
	ReasonCodeItemAlreadyRefunded  = "item_already_refunded"
	ReasonCodeInvalidReturnReason  = "invalid_return_reason"
	ReasonCodeOverrideApplied      = "override_applied"
	ReasonCodeManualReview         = "manual_review_required"
	ReasonCodeRefundFailed         = "refund_execution_failed"
)

// RuleCheckResult is the outcome of a single policy rule evaluation.
// Results are recorded in pipeline order on the decision.
type RuleCheckResult struct {
	RuleName string `json:"rule_name"`
	Passed   bool   `json:"passed"`
	Detail   string `json:"detail"`
}

// PolicyDecision is the decision aggregate for one return event. It is
// created exactly once per event ID and is immutable after creation; replays
// observe the stored decision, never a recomputed one.
type PolicyDecision struct {
	shared.BaseAggregateRoot
	EventID     string
	OrderID     string
	LineItemID  string
	Decision    Decision
	ReasonCode  string
	RuleResults []RuleCheckResult

	// RefundAmount is set only for Approve decisions
	RefundAmount *valueobject.Money
	Currency     valueobject.Currency
}

// NewPolicyDecision creates the decision record for an event
func NewPolicyDecision(
	req *ReturnRequest,
	decision Decision,
	reasonCode string,
	results []RuleCheckResult,
	refundAmount *valueobject.Money,
) (*PolicyDecision, error) {
	if req == nil {
		return nil, shared.NewDomainError("INVALID_REQUEST", "Return request cannot be nil")
	}
	if !decision.IsValid() {
		return nil, shared.NewDomainError("INVALID_DECISION", fmt.Sprintf("Unknown decision %q", decision))
	}
	if reasonCode == "" {
		return nil, shared.NewDomainError("INVALID_REASON_CODE", "Reason code cannot be empty")
	}
	if decision == DecisionApprove {
		if refundAmount == nil {
			return nil, shared.NewDomainError("INVALID_AMOUNT", "Approve decision requires a refund amount")
		}
		if refundAmount.IsNegative() {
			return nil, shared.NewDomainError("INVALID_AMOUNT", "Refund amount cannot be negative")
		}
	} else if refundAmount != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Only approve decisions carry a refund amount")
	}

	currency := valueobject.DefaultCurrency
	if refundAmount != nil {
		currency = refundAmount.Currency()
	}

	pd := &PolicyDecision{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EventID:           req.EventID,
		OrderID:           req.OrderID,
		LineItemID:        req.LineItemID,
		Decision:          decision,
		ReasonCode:        reasonCode,
		RuleResults:       results,
		RefundAmount:      refundAmount,
		Currency:          currency,
	}

	pd.AddDomainEvent(NewDecisionMadeEvent(pd))

	return pd, nil
}

// IsApproved returns true for Approve decisions
func (d *PolicyDecision) IsApproved() bool {
	return d.Decision == DecisionApprove
}

// RequiresExecution returns true if the decision triggers a refund submission
func (d *PolicyDecision) RequiresExecution() bool {
	return d.IsApproved()
}

// FailedRule returns the first rule result that did not pass, or nil
func (d *PolicyDecision) FailedRule() *RuleCheckResult {
	for idx := range d.RuleResults {
		if !d.RuleResults[idx].Passed {
			return &d.RuleResults[idx]
		}
	}
	return nil
}

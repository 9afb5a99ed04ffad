package returns

import (
	"fmt"
	"time"

	"github.com/returnsdesk/backend/internal/domain/policy"
	"github.com/returnsdesk/backend/internal/domain/returns"
	"github.com/returnsdesk/backend/internal/domain/shared"
)

// ==================== Inbound Event DTOs ====================

// ReturnEventRequest is the JSON body of an inbound return event
type ReturnEventRequest struct {
	EventID     string     `json:"event_id" binding:"required,min=1,max=128"`
	OrderID     string     `json:"order_id" binding:"required,min=1,max=128"`
	LineItemID  string     `json:"line_item_id" binding:"required,min=1,max=128"`
	Reason      string     `json:"reason" binding:"required,min=1,max=64"`
	RequestedAt *time.Time `json:"requested_at"`

	// Optional override inputs
	CustomerTier     string `json:"customer_tier" binding:"omitempty,max=32"`
	DamagedOnArrival *bool  `json:"damaged_on_arrival"`
}

// ToDomain validates the event body and builds the immutable domain request.
// An unknown reason is not malformed; the reason-validity rule denies it.
func (r ReturnEventRequest) ToDomain() (*returns.ReturnRequest, error) {
	requestedAt := time.Time{}
	if r.RequestedAt != nil {
		requestedAt = *r.RequestedAt
	}

	req, err := returns.NewReturnRequest(r.EventID, r.OrderID, r.LineItemID, returns.ReturnReason(r.Reason), requestedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedPayload, err)
	}

	req.CustomerTier = returns.CustomerTier(r.CustomerTier)
	req.DamagedOnArrival = r.DamagedOnArrival
	return req, nil
}

// ==================== Decision DTOs ====================

// RuleCheckResultResponse represents one rule evaluation in API responses
type RuleCheckResultResponse struct {
	RuleName string `json:"rule_name"`
	Passed   bool   `json:"passed"`
	Detail   string `json:"detail"`
}

// DecisionResponse represents a policy decision in API responses
type DecisionResponse struct {
	EventID      string                    `json:"event_id"`
	OrderID      string                    `json:"order_id"`
	LineItemID   string                    `json:"line_item_id"`
	Decision     string                    `json:"decision"`
	ReasonCode   string                    `json:"reason_code"`
	RuleResults  []RuleCheckResultResponse `json:"rule_results"`
	RefundAmount *string                   `json:"refund_amount,omitempty"`
	Currency     string                    `json:"currency"`
	DecidedAt    time.Time                 `json:"decided_at"`
}

// ToDecisionResponse converts a domain decision to a response DTO
func ToDecisionResponse(d *returns.PolicyDecision) DecisionResponse {
	results := make([]RuleCheckResultResponse, 0, len(d.RuleResults))
	for _, r := range d.RuleResults {
		results = append(results, RuleCheckResultResponse{
			RuleName: r.RuleName,
			Passed:   r.Passed,
			Detail:   r.Detail,
		})
	}

	var amount *string
	if d.RefundAmount != nil {
		s := d.RefundAmount.StringFixed(2)
		amount = &s
	}

	return DecisionResponse{
		EventID:      d.EventID,
		OrderID:      d.OrderID,
		LineItemID:   d.LineItemID,
		Decision:     d.Decision.String(),
		ReasonCode:   d.ReasonCode,
		RuleResults:  results,
		RefundAmount: amount,
		Currency:     string(d.Currency),
		DecidedAt:    d.CreatedAt,
	}
}

// ExecutionOutcomeResponse represents a refund execution in API responses
type ExecutionOutcomeResponse struct {
	EventID               string     `json:"event_id"`
	Status                string     `json:"status"`
	Amount                string     `json:"amount"`
	Currency              string     `json:"currency"`
	ExternalTransactionID *string    `json:"external_transaction_id,omitempty"`
	AttemptCount          int        `json:"attempt_count"`
	LastError             *string    `json:"last_error,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`
}

// ToExecutionOutcomeResponse converts a domain outcome to a response DTO
func ToExecutionOutcomeResponse(o *returns.ExecutionOutcome) ExecutionOutcomeResponse {
	return ExecutionOutcomeResponse{
		EventID:               o.EventID,
		Status:                string(o.Status),
		Amount:                o.Amount.StringFixed(2),
		Currency:              string(o.Amount.Currency()),
		ExternalTransactionID: o.ExternalTransactionID,
		AttemptCount:          o.AttemptCount,
		LastError:             o.LastError,
		CompletedAt:           o.CompletedAt,
	}
}

// ProcessEventResponse is the result of running one event through the engine
type ProcessEventResponse struct {
	Decision  DecisionResponse          `json:"decision"`
	Execution *ExecutionOutcomeResponse `json:"execution,omitempty"`

	// Replay is true when a stored decision was returned without
	// re-running the pipeline
	Replay bool `json:"replay"`

	// RequiresFollowUp is true for Flag decisions and failed executions
	RequiresFollowUp bool `json:"requires_follow_up"`
}

// DecisionDetailResponse pairs a decision with its execution outcome, if any
type DecisionDetailResponse struct {
	Decision  DecisionResponse          `json:"decision"`
	Execution *ExecutionOutcomeResponse `json:"execution,omitempty"`
}

// DecisionListFilter represents filter options for the decision list
type DecisionListFilter struct {
	Decision string `form:"decision" binding:"omitempty,oneof=APPROVE DENY FLAG"`
	OrderID  string `form:"order_id"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// DecisionListResponse is one page of decisions
type DecisionListResponse struct {
	Items      []DecisionResponse `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// ==================== Audit DTOs ====================

// AuditRecordResponse represents one audit record in API responses
type AuditRecordResponse struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	EventID        string    `json:"event_id"`
	Stage          string    `json:"stage"`
	PayloadSummary string    `json:"payload_summary"`
	Actor          string    `json:"actor"`
}

// ToAuditRecordResponse converts a domain audit record to a response DTO
func ToAuditRecordResponse(r *returns.AuditRecord) AuditRecordResponse {
	return AuditRecordResponse{
		ID:             r.ID.String(),
		Timestamp:      r.Timestamp,
		EventID:        r.EventID,
		Stage:          r.Stage.String(),
		PayloadSummary: r.PayloadSummary,
		Actor:          r.Actor,
	}
}

// AuditSummaryResponse aggregates audit and decision activity
type AuditSummaryResponse struct {
	TotalRecords   int64            `json:"total_records"`
	StageCounts    map[string]int64 `json:"stage_counts"`
	DecisionCounts map[string]int64 `json:"decision_counts"`
	LastActivityAt *time.Time       `json:"last_activity_at,omitempty"`
}

// ==================== Policy DTOs ====================

// PolicyResponse describes the active return policy
type PolicyResponse struct {
	ReturnWindowDays            int      `json:"return_window_days"`
	AllowedReasons              []string `json:"allowed_reasons"`
	RestockingFeePercent        string   `json:"restocking_fee_percent"`
	AutoApproveVIP              bool     `json:"auto_approve_vip"`
	AutoApproveDamagedOnArrival bool     `json:"auto_approve_damaged_on_arrival"`
}

// ToPolicyResponse converts the policy config to a response DTO
func ToPolicyResponse(cfg policy.Config) PolicyResponse {
	reasons := make([]string, 0, len(cfg.AllowedReasons))
	for _, r := range cfg.AllowedReasons {
		reasons = append(reasons, r.String())
	}
	return PolicyResponse{
		ReturnWindowDays:            cfg.ReturnWindowDays,
		AllowedReasons:              reasons,
		RestockingFeePercent:        cfg.RestockingFeePercent.StringFixed(2),
		AutoApproveVIP:              cfg.AutoApproveVIP,
		AutoApproveDamagedOnArrival: cfg.AutoApproveDamagedOnArrival,
	}
}

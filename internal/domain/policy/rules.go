package policy

import (
	"fmt"

	"github.com/returnsdesk/backend/internal/domain/returns"
)

// Rule names in pipeline order
const (
	RuleReturnWindow   = "return_window"
	RuleItemEligible   = "item_eligibility"
	RuleReasonValidity = "reason_validity"
	RuleOverride       = "exception_override"
	RuleRefundAmount   = "refund_amount"
)

// Rule is one hard eligibility check. Evaluate returns the check result and,
// on failure, the reason code the denial would carry.
type Rule interface {
	Name() string
	Evaluate(order *returns.Order, item *returns.LineItem, req *returns.ReturnRequest, cfg Config) (returns.RuleCheckResult, string)
}

// ReturnWindowRule passes if the order is young enough at request time
type ReturnWindowRule struct{}

func (ReturnWindowRule) Name() string { return RuleReturnWindow }

func (ReturnWindowRule) Evaluate(order *returns.Order, _ *returns.LineItem, req *returns.ReturnRequest, cfg Config) (returns.RuleCheckResult, string) {
	ageDays := int(order.AgeAt(req.RequestedAt).Hours() / 24)
	if ageDays <= cfg.ReturnWindowDays {
		return returns.RuleCheckResult{
			RuleName: RuleReturnWindow,
			Passed:   true,
			Detail:   fmt.Sprintf("order is %d days old, within %d day window", ageDays, cfg.ReturnWindowDays),
		}, ""
	}
	return returns.RuleCheckResult{
		RuleName: RuleReturnWindow,
		Passed:   false,
		Detail:   fmt.Sprintf("order is %d days old, exceeds %d day window", ageDays, cfg.ReturnWindowDays),
	}, returns.ReasonCodeReturnWindowExceeded
}

// ItemEligibilityRule fails for final-sale or already refunded items
type ItemEligibilityRule struct{}

func (ItemEligibilityRule) Name() string { return RuleItemEligible }

func (ItemEligibilityRule) Evaluate(_ *returns.Order, item *returns.LineItem, _ *returns.ReturnRequest, _ Config) (returns.RuleCheckResult, string) {
	if item.Refunded {
		return returns.RuleCheckResult{
			RuleName: RuleItemEligible,
			Passed:   false,
			Detail:   fmt.Sprintf("line item %s was already refunded", item.ID),
		}, returns.ReasonCodeItemAlreadyRefunded
	}
	if item.FinalSale {
		return returns.RuleCheckResult{
			RuleName: RuleItemEligible,
			Passed:   false,
			Detail:   fmt.Sprintf("line item %s is marked final sale", item.ID),
		}, returns.ReasonCodeItemNotEligible
	}
	return returns.RuleCheckResult{
		RuleName: RuleItemEligible,
		Passed:   true,
		Detail:   fmt.Sprintf("line item %s is eligible for return", item.ID),
	}, ""
}

// ReasonValidityRule fails if the reason is not in the configured whitelist
type ReasonValidityRule struct{}

func (ReasonValidityRule) Name() string { return RuleReasonValidity }

func (ReasonValidityRule) Evaluate(_ *returns.Order, _ *returns.LineItem, req *returns.ReturnRequest, cfg Config) (returns.RuleCheckResult, string) {
	if !cfg.AllowsReason(req.Reason) {
		return returns.RuleCheckResult{
			RuleName: RuleReasonValidity,
			Passed:   false,
			Detail:   fmt.Sprintf("reason %q is not accepted by policy", req.Reason),
		}, returns.ReasonCodeInvalidReturnReason
	}
	return returns.RuleCheckResult{
		RuleName: RuleReasonValidity,
		Passed:   true,
		Detail:   fmt.Sprintf("reason %q is accepted", req.Reason),
	}, ""
}

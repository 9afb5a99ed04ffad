package policy

import (
	"fmt"

	"github.com/returnsdesk/backend/internal/domain/returns"
	"github.com/returnsdesk/backend/internal/domain/shared/valueobject"
)

// RefundAmountRule computes the refund for an approved return. The amount is
// unit price times quantity, reduced by the restocking fee unless the fault
// lies with the merchant, then clamped to [0, line total].
type RefundAmountRule struct{}

func (RefundAmountRule) Name() string { return RuleRefundAmount }

// Compute returns the refund amount and its check result
func (RefundAmountRule) Compute(item *returns.LineItem, req *returns.ReturnRequest, cfg Config) (valueobject.Money, returns.RuleCheckResult) {
	lineTotal := item.LineTotal()
	amount := lineTotal

	feeWaived := req.Reason.IsMerchantFault() ||
		(req.DamagedOnArrival != nil && *req.DamagedOnArrival)

	detail := fmt.Sprintf("refund %s for %d x %s", lineTotal.String(), item.Quantity, item.UnitPrice.String())
	if cfg.RestockingFeePercent.IsPositive() && !feeWaived {
		fee := lineTotal.CalculatePercentage(cfg.RestockingFeePercent)
		reduced, err := lineTotal.Subtract(fee)
		if err == nil {
			amount = reduced
		}
		detail = fmt.Sprintf("refund %s after %s%% restocking fee on %s",
			amount.String(), cfg.RestockingFeePercent.String(), lineTotal.String())
	} else if feeWaived && cfg.RestockingFeePercent.IsPositive() {
		detail = fmt.Sprintf("refund %s, restocking fee waived", lineTotal.String())
	}

	amount = amount.ClampNonNegative().Round(2)
	if exceeds, err := amount.GreaterThan(lineTotal); err == nil && exceeds {
		amount = lineTotal
	}

	return amount, returns.RuleCheckResult{
		RuleName: RuleRefundAmount,
		Passed:   true,
		Detail:   detail,
	}
}

package policy

import (
	"fmt"

	"github.com/returnsdesk/backend/internal/domain/returns"
)

// OverrideStatus classifies the exception rule's verdict
type OverrideStatus int

const (
	// OverrideNotApplicable means no exception applies; the prior failure stands
	OverrideNotApplicable OverrideStatus = iota
	// OverrideApplied means the prior failure is flipped to a soft pass
	OverrideApplied
	// OverrideAmbiguous means the exception inputs are missing or
	// contradictory; the event must go to manual review
	OverrideAmbiguous
)

// OverrideOutcome carries the exception rule's verdict and its check result
type OverrideOutcome struct {
	Status OverrideStatus
	Result returns.RuleCheckResult
}

// OverrideRule is the only rule permitted to flip an earlier hard failure.
// Only return-window failures are overridable: no exception makes an already
// refunded item refundable or legitimizes an unknown reason. Precedence when
// both exceptions are present: damaged-on-arrival wins over VIP status.
type OverrideRule struct{}

func (OverrideRule) Name() string { return RuleOverride }

// Evaluate inspects the first failing rule and the request's exception
// inputs. The result detail records both the original failure and the
// override grounds whenever a flip happens.
func (OverrideRule) Evaluate(failed returns.RuleCheckResult, req *returns.ReturnRequest, cfg Config) OverrideOutcome {
	if contradiction := contradictoryInputs(req); contradiction != "" {
		return OverrideOutcome{
			Status: OverrideAmbiguous,
			Result: returns.RuleCheckResult{
				RuleName: RuleOverride,
				Passed:   false,
				Detail:   contradiction,
			},
		}
	}

	if failed.RuleName != RuleReturnWindow {
		return OverrideOutcome{
			Status: OverrideNotApplicable,
			Result: returns.RuleCheckResult{
				RuleName: RuleOverride,
				Passed:   false,
				Detail:   fmt.Sprintf("failure of %s is not overridable", failed.RuleName),
			},
		}
	}

	if cfg.AutoApproveDamagedOnArrival && req.DamagedOnArrival != nil && *req.DamagedOnArrival {
		return OverrideOutcome{
			Status: OverrideApplied,
			Result: returns.RuleCheckResult{
				RuleName: RuleOverride,
				Passed:   true,
				Detail:   fmt.Sprintf("damaged-on-arrival override applied; original failure: %s", failed.Detail),
			},
		}
	}

	if cfg.AutoApproveVIP && req.CustomerTier == returns.TierVIP {
		return OverrideOutcome{
			Status: OverrideApplied,
			Result: returns.RuleCheckResult{
				RuleName: RuleOverride,
				Passed:   true,
				Detail:   fmt.Sprintf("vip customer override applied; original failure: %s", failed.Detail),
			},
		}
	}

	return OverrideOutcome{
		Status: OverrideNotApplicable,
		Result: returns.RuleCheckResult{
			RuleName: RuleOverride,
			Passed:   false,
			Detail:   "no applicable exception",
		},
	}
}

// contradictoryInputs returns a non-empty detail when the exception inputs
// cannot be trusted. A damaged-on-arrival claim alongside a pure
// customer-choice reason is contradictory, as is an unrecognized tier.
func contradictoryInputs(req *returns.ReturnRequest) string {
	if req.CustomerTier != "" && req.CustomerTier != returns.TierStandard && req.CustomerTier != returns.TierVIP {
		return fmt.Sprintf("unrecognized customer tier %q", req.CustomerTier)
	}
	if req.DamagedOnArrival != nil && *req.DamagedOnArrival {
		switch req.Reason {
		case returns.ReasonChangedMind, returns.ReasonDuplicateOrder:
			return fmt.Sprintf("damaged-on-arrival flag contradicts reason %q", req.Reason)
		}
	}
	return ""
}

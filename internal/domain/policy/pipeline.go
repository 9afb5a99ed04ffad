package policy

import (
	"fmt"

	"github.com/returnsdesk/backend/internal/domain/returns"
	"github.com/returnsdesk/backend/internal/domain/shared/valueobject"
)

// Evaluation is the pipeline's verdict for one return request
type Evaluation struct {
	Decision   returns.Decision
	ReasonCode string
	Results    []returns.RuleCheckResult

	// RefundAmount is set only when Decision is Approve
	RefundAmount *valueobject.Money
}

// Pipeline runs the fixed, ordered rule chain. Rules one to three are hard
// checks; the override rule may flip a single overridable failure, and any
// hard failure it does not flip still denies; the amount rule runs only once
// everything passes. Ambiguity always resolves to Flag, never to automatic
// money movement.
type Pipeline struct {
	cfg      Config
	hard     []Rule
	override OverrideRule
	amount   RefundAmountRule
}

// NewPipeline creates a pipeline with the given policy config
func NewPipeline(cfg Config) *Pipeline {
	return &Pipeline{
		cfg: cfg,
		hard: []Rule{
			ReturnWindowRule{},
			ItemEligibilityRule{},
			ReasonValidityRule{},
		},
	}
}

// Config returns the policy the pipeline evaluates against
func (p *Pipeline) Config() Config {
	return p.cfg
}

// Evaluate runs the rule chain against an order snapshot and a request.
// It is pure: no I/O, no retained state.
func (p *Pipeline) Evaluate(order *returns.Order, req *returns.ReturnRequest) Evaluation {
	if order == nil {
		return Evaluation{
			Decision:   returns.DecisionFlag,
			ReasonCode: returns.ReasonCodeManualReview,
			Results: []returns.RuleCheckResult{{
				RuleName: RuleItemEligible,
				Passed:   false,
				Detail:   "order snapshot is missing",
			}},
		}
	}

	item := order.GetLineItem(req.LineItemID)
	if item == nil {
		return Evaluation{
			Decision:   returns.DecisionFlag,
			ReasonCode: returns.ReasonCodeManualReview,
			Results: []returns.RuleCheckResult{{
				RuleName: RuleItemEligible,
				Passed:   false,
				Detail:   fmt.Sprintf("line item %s not found on order %s", req.LineItemID, order.ID),
			}},
		}
	}

	results := make([]returns.RuleCheckResult, 0, len(p.hard)+2)
	type hardFailure struct {
		result   returns.RuleCheckResult
		denyCode string
	}
	var failures []hardFailure

	for _, rule := range p.hard {
		result, denyCode := rule.Evaluate(order, item, req, p.cfg)
		results = append(results, result)
		if !result.Passed {
			failures = append(failures, hardFailure{result: result, denyCode: denyCode})
		}
	}

	overridden := false
	if len(failures) > 0 {
		outcome := p.override.Evaluate(failures[0].result, req, p.cfg)
		results = append(results, outcome.Result)

		switch outcome.Status {
		case OverrideAmbiguous:
			return Evaluation{
				Decision:   returns.DecisionFlag,
				ReasonCode: returns.ReasonCodeManualReview,
				Results:    results,
			}
		case OverrideNotApplicable:
			return Evaluation{
				Decision:   returns.DecisionDeny,
				ReasonCode: failures[0].denyCode,
				Results:    results,
			}
		case OverrideApplied:
			overridden = true
		}

		// The override flips exactly one failure. Every remaining hard
		// failure still denies, with the first standing failure's code.
		if len(failures) > 1 {
			return Evaluation{
				Decision:   returns.DecisionDeny,
				ReasonCode: failures[1].denyCode,
				Results:    results,
			}
		}
	}

	amount, amountResult := p.amount.Compute(item, req, p.cfg)
	results = append(results, amountResult)

	reasonCode := returns.ReasonCodeApproved
	if overridden {
		reasonCode = returns.ReasonCodeOverrideApplied
	}

	return Evaluation{
		Decision:     returns.DecisionApprove,
		ReasonCode:   reasonCode,
		Results:      results,
		RefundAmount: &amount,
	}
}

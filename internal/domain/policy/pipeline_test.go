package policy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/returnsdesk/backend/internal/domain/returns"
	"github.com/returnsdesk/backend/internal/domain/shared/valueobject"
)

func boolPtr(b bool) *bool { return &b }

func testOrder(t *testing.T, ageDays int, opts ...func(*returns.Order)) *returns.Order {
	t.Helper()
	unitPrice, err := valueobject.NewMoneyUSDFromString("29.99")
	require.NoError(t, err)

	order := &returns.Order{
		ID:            "ord_1001",
		CustomerEmail: "shopper@example.com",
		CreatedAt:     time.Now().AddDate(0, 0, -ageDays),
		TotalPrice:    unitPrice.MultiplyByInt(2),
		LineItems: []returns.LineItem{
			{ID: "li_1", Title: "Trail Jacket", UnitPrice: unitPrice, Quantity: 2},
		},
	}
	for _, opt := range opts {
		opt(order)
	}
	return order
}

func requestFor(t *testing.T, reason returns.ReturnReason) *returns.ReturnRequest {
	t.Helper()
	req, err := returns.NewReturnRequest("evt_1", "ord_1001", "li_1", reason, time.Now())
	require.NoError(t, err)
	return req
}

func TestPipelineApprove(t *testing.T) {
	// Scenario: recent order, defective item, no final-sale flag
	pipeline := NewPipeline(DefaultConfig())
	order := testOrder(t, 5)
	req := requestFor(t, returns.ReasonDefective)

	eval := pipeline.Evaluate(order, req)

	assert.Equal(t, returns.DecisionApprove, eval.Decision)
	assert.Equal(t, returns.ReasonCodeApproved, eval.ReasonCode)
	require.NotNil(t, eval.RefundAmount)
	assert.Equal(t, "59.98", eval.RefundAmount.StringFixed(2))
	assert.Len(t, eval.Results, 4)
	for _, r := range eval.Results {
		assert.True(t, r.Passed, r.RuleName)
	}
}

func TestPipelineDenyWindowExceeded(t *testing.T) {
	// Scenario: 45 day old order, changed mind, no override
	pipeline := NewPipeline(DefaultConfig())
	order := testOrder(t, 45)
	req := requestFor(t, returns.ReasonChangedMind)

	eval := pipeline.Evaluate(order, req)

	assert.Equal(t, returns.DecisionDeny, eval.Decision)
	assert.Equal(t, returns.ReasonCodeReturnWindowExceeded, eval.ReasonCode)
	assert.Nil(t, eval.RefundAmount)
}

func TestPipelineVIPOverride(t *testing.T) {
	// Scenario: 45 day old order, VIP customer flips the window failure
	pipeline := NewPipeline(DefaultConfig())
	order := testOrder(t, 45)
	req := requestFor(t, returns.ReasonWrongSize)
	req.CustomerTier = returns.TierVIP

	eval := pipeline.Evaluate(order, req)

	assert.Equal(t, returns.DecisionApprove, eval.Decision)
	assert.Equal(t, returns.ReasonCodeOverrideApplied, eval.ReasonCode)
	require.NotNil(t, eval.RefundAmount)

	// Both the original window failure and the override must be on record
	var windowResult, overrideResult *returns.RuleCheckResult
	for idx := range eval.Results {
		switch eval.Results[idx].RuleName {
		case RuleReturnWindow:
			windowResult = &eval.Results[idx]
		case RuleOverride:
			overrideResult = &eval.Results[idx]
		}
	}
	require.NotNil(t, windowResult)
	assert.False(t, windowResult.Passed)
	require.NotNil(t, overrideResult)
	assert.True(t, overrideResult.Passed)
	assert.Contains(t, overrideResult.Detail, "original failure")
}

func TestPipelineDamagedOnArrivalPrecedence(t *testing.T) {
	pipeline := NewPipeline(DefaultConfig())
	order := testOrder(t, 45)
	req := requestFor(t, returns.ReasonDamagedInShipping)
	req.CustomerTier = returns.TierVIP
	req.DamagedOnArrival = boolPtr(true)

	eval := pipeline.Evaluate(order, req)

	assert.Equal(t, returns.DecisionApprove, eval.Decision)
	var overrideResult *returns.RuleCheckResult
	for idx := range eval.Results {
		if eval.Results[idx].RuleName == RuleOverride {
			overrideResult = &eval.Results[idx]
		}
	}
	require.NotNil(t, overrideResult)
	assert.Contains(t, overrideResult.Detail, "damaged-on-arrival")
}

func TestPipelineSafeAmbiguity(t *testing.T) {
	pipeline := NewPipeline(DefaultConfig())

	t.Run("contradictory override inputs flag", func(t *testing.T) {
		order := testOrder(t, 45)
		req := requestFor(t, returns.ReasonChangedMind)
		req.DamagedOnArrival = boolPtr(true)

		eval := pipeline.Evaluate(order, req)

		assert.Equal(t, returns.DecisionFlag, eval.Decision)
		assert.Equal(t, returns.ReasonCodeManualReview, eval.ReasonCode)
		assert.Nil(t, eval.RefundAmount)
	})

	t.Run("unrecognized tier flags", func(t *testing.T) {
		order := testOrder(t, 45)
		req := requestFor(t, returns.ReasonWrongColor)
		req.CustomerTier = "platinum"

		eval := pipeline.Evaluate(order, req)

		assert.Equal(t, returns.DecisionFlag, eval.Decision)
	})

	t.Run("missing line item flags", func(t *testing.T) {
		order := testOrder(t, 5)
		req, err := returns.NewReturnRequest("evt_2", "ord_1001", "li_missing", returns.ReasonDefective, time.Now())
		require.NoError(t, err)

		eval := pipeline.Evaluate(order, req)

		assert.Equal(t, returns.DecisionFlag, eval.Decision)
	})

	t.Run("missing order flags", func(t *testing.T) {
		req := requestFor(t, returns.ReasonDefective)
		eval := pipeline.Evaluate(nil, req)
		assert.Equal(t, returns.DecisionFlag, eval.Decision)
	})
}

func TestPipelineNonWindowFailuresNotOverridable(t *testing.T) {
	pipeline := NewPipeline(DefaultConfig())

	t.Run("final sale denies despite vip", func(t *testing.T) {
		order := testOrder(t, 5, func(o *returns.Order) {
			o.LineItems[0].FinalSale = true
		})
		req := requestFor(t, returns.ReasonWrongSize)
		req.CustomerTier = returns.TierVIP

		eval := pipeline.Evaluate(order, req)

		assert.Equal(t, returns.DecisionDeny, eval.Decision)
		assert.Equal(t, returns.ReasonCodeItemNotEligible, eval.ReasonCode)
	})

	t.Run("already refunded denies despite damaged flag", func(t *testing.T) {
		order := testOrder(t, 5, func(o *returns.Order) {
			o.LineItems[0].Refunded = true
		})
		req := requestFor(t, returns.ReasonDefective)
		req.DamagedOnArrival = boolPtr(true)

		eval := pipeline.Evaluate(order, req)

		assert.Equal(t, returns.DecisionDeny, eval.Decision)
		assert.Equal(t, returns.ReasonCodeItemAlreadyRefunded, eval.ReasonCode)
	})
}

func TestPipelineOverrideFlipsOnlyOneFailure(t *testing.T) {
	// An override clears the window failure and nothing else: any other
	// hard failure must still deny.
	t.Run("vip with stale order and invalid reason denies", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.AllowedReasons = []returns.ReturnReason{returns.ReasonDefective}
		pipeline := NewPipeline(cfg)

		order := testOrder(t, 45)
		req := requestFor(t, returns.ReasonWrongSize)
		req.CustomerTier = returns.TierVIP

		eval := pipeline.Evaluate(order, req)

		assert.Equal(t, returns.DecisionDeny, eval.Decision)
		assert.Equal(t, returns.ReasonCodeInvalidReturnReason, eval.ReasonCode)
		assert.Nil(t, eval.RefundAmount)
	})

	t.Run("vip with stale order and refunded item denies", func(t *testing.T) {
		pipeline := NewPipeline(DefaultConfig())
		order := testOrder(t, 45, func(o *returns.Order) {
			o.LineItems[0].Refunded = true
		})
		req := requestFor(t, returns.ReasonWrongSize)
		req.CustomerTier = returns.TierVIP

		eval := pipeline.Evaluate(order, req)

		assert.Equal(t, returns.DecisionDeny, eval.Decision)
		assert.Equal(t, returns.ReasonCodeItemAlreadyRefunded, eval.ReasonCode)
		assert.Nil(t, eval.RefundAmount)
	})

	t.Run("damaged on arrival with stale order and final sale item denies", func(t *testing.T) {
		pipeline := NewPipeline(DefaultConfig())
		order := testOrder(t, 45, func(o *returns.Order) {
			o.LineItems[0].FinalSale = true
		})
		req := requestFor(t, returns.ReasonDamagedInShipping)
		req.DamagedOnArrival = boolPtr(true)

		eval := pipeline.Evaluate(order, req)

		assert.Equal(t, returns.DecisionDeny, eval.Decision)
		assert.Equal(t, returns.ReasonCodeItemNotEligible, eval.ReasonCode)
		assert.Nil(t, eval.RefundAmount)
	})
}

func TestPipelineReasonWhitelist(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedReasons = []returns.ReturnReason{returns.ReasonDefective}
	pipeline := NewPipeline(cfg)

	order := testOrder(t, 5)
	req := requestFor(t, returns.ReasonChangedMind)

	eval := pipeline.Evaluate(order, req)

	assert.Equal(t, returns.DecisionDeny, eval.Decision)
	assert.Equal(t, returns.ReasonCodeInvalidReturnReason, eval.ReasonCode)
}

func TestRefundAmountBounds(t *testing.T) {
	t.Run("restocking fee applies to customer fault reasons", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RestockingFeePercent = decimal.NewFromInt(10)
		pipeline := NewPipeline(cfg)

		order := testOrder(t, 5)
		req := requestFor(t, returns.ReasonChangedMind)

		eval := pipeline.Evaluate(order, req)

		require.Equal(t, returns.DecisionApprove, eval.Decision)
		// 59.98 less 10% fee
		assert.Equal(t, "53.98", eval.RefundAmount.StringFixed(2))
	})

	t.Run("restocking fee waived for merchant fault", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RestockingFeePercent = decimal.NewFromInt(10)
		pipeline := NewPipeline(cfg)

		order := testOrder(t, 5)
		req := requestFor(t, returns.ReasonDefective)

		eval := pipeline.Evaluate(order, req)

		require.Equal(t, returns.DecisionApprove, eval.Decision)
		assert.Equal(t, "59.98", eval.RefundAmount.StringFixed(2))
	})

	t.Run("amount never exceeds line total", func(t *testing.T) {
		pipeline := NewPipeline(DefaultConfig())
		order := testOrder(t, 5)
		req := requestFor(t, returns.ReasonDefective)

		eval := pipeline.Evaluate(order, req)

		require.NotNil(t, eval.RefundAmount)
		lineTotal := order.LineItems[0].LineTotal()
		within, err := eval.RefundAmount.LessThanOrEqual(lineTotal)
		require.NoError(t, err)
		assert.True(t, within)
		assert.False(t, eval.RefundAmount.IsNegative())
	})
}

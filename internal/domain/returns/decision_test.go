package returns

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/returnsdesk/backend/internal/domain/shared/valueobject"
)

func decimalFromString(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func testRequest(t *testing.T) *ReturnRequest {
	t.Helper()
	req, err := NewReturnRequest("evt_1001", "ord_2001", "li_3001", ReasonDefective, time.Now())
	require.NoError(t, err)
	return req
}

func TestNewReturnRequest(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		req, err := NewReturnRequest("evt_1", "ord_1", "li_1", ReasonWrongSize, time.Now())
		require.NoError(t, err)
		assert.Equal(t, "evt_1", req.EventID)
		assert.Equal(t, ReasonWrongSize, req.Reason)
		assert.False(t, req.HasOverrideInputs())
	})

	t.Run("empty event ID", func(t *testing.T) {
		_, err := NewReturnRequest("", "ord_1", "li_1", ReasonWrongSize, time.Now())
		assert.Error(t, err)
	})

	t.Run("empty reason", func(t *testing.T) {
		_, err := NewReturnRequest("evt_1", "ord_1", "li_1", "", time.Now())
		assert.Error(t, err)
	})

	t.Run("zero requested at defaults to now", func(t *testing.T) {
		req, err := NewReturnRequest("evt_1", "ord_1", "li_1", ReasonChangedMind, time.Time{})
		require.NoError(t, err)
		assert.False(t, req.RequestedAt.IsZero())
	})
}

func TestReturnReason(t *testing.T) {
	t.Run("known reasons", func(t *testing.T) {
		for _, r := range KnownReasons {
			assert.True(t, r.IsKnown(), r.String())
		}
		assert.False(t, ReturnReason("buyer_remorse").IsKnown())
	})

	t.Run("merchant fault waives restocking fee", func(t *testing.T) {
		assert.True(t, ReasonDefective.IsMerchantFault())
		assert.True(t, ReasonNotAsDescribed.IsMerchantFault())
		assert.True(t, ReasonDamagedInShipping.IsMerchantFault())
		assert.False(t, ReasonChangedMind.IsMerchantFault())
		assert.False(t, ReasonWrongSize.IsMerchantFault())
	})
}

func TestNewPolicyDecision(t *testing.T) {
	req := testRequest(t)

	t.Run("approve carries refund amount", func(t *testing.T) {
		amount := valueobject.NewMoneyUSD(decimalFromString(t, "49.99"))
		pd, err := NewPolicyDecision(req, DecisionApprove, ReasonCodeApproved, nil, &amount)
		require.NoError(t, err)
		assert.True(t, pd.IsApproved())
		assert.True(t, pd.RequiresExecution())
		assert.Equal(t, "49.99", pd.RefundAmount.StringFixed(2))
		assert.Equal(t, valueobject.USD, pd.Currency)
		assert.Len(t, pd.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeDecisionMade, pd.GetDomainEvents()[0].EventType())
	})

	t.Run("approve without amount rejected", func(t *testing.T) {
		_, err := NewPolicyDecision(req, DecisionApprove, ReasonCodeApproved, nil, nil)
		assert.Error(t, err)
	})

	t.Run("deny with amount rejected", func(t *testing.T) {
		amount := valueobject.NewMoneyUSD(decimalFromString(t, "10.00"))
		_, err := NewPolicyDecision(req, DecisionDeny, ReasonCodeReturnWindowExceeded, nil, &amount)
		assert.Error(t, err)
	})

	t.Run("deny records failed rule", func(t *testing.T) {
		results := []RuleCheckResult{
			{RuleName: "return_window", Passed: true, Detail: "within window"},
			{RuleName: "item_eligibility", Passed: false, Detail: "final sale item"},
		}
		pd, err := NewPolicyDecision(req, DecisionDeny, ReasonCodeItemNotEligible, results, nil)
		require.NoError(t, err)
		assert.False(t, pd.RequiresExecution())
		failed := pd.FailedRule()
		require.NotNil(t, failed)
		assert.Equal(t, "item_eligibility", failed.RuleName)
	})

	t.Run("flag without amount", func(t *testing.T) {
		pd, err := NewPolicyDecision(req, DecisionFlag, ReasonCodeManualReview, nil, nil)
		require.NoError(t, err)
		assert.False(t, pd.IsApproved())
		assert.Nil(t, pd.RefundAmount)
	})

	t.Run("unknown decision rejected", func(t *testing.T) {
		_, err := NewPolicyDecision(req, Decision("MAYBE"), ReasonCodeApproved, nil, nil)
		assert.Error(t, err)
	})
}

func TestExecutionOutcome(t *testing.T) {
	req := testRequest(t)
	amount := valueobject.NewMoneyUSD(decimalFromString(t, "25.00"))

	newOutcome := func(t *testing.T) *ExecutionOutcome {
		pd, err := NewPolicyDecision(req, DecisionApprove, ReasonCodeApproved, nil, &amount)
		require.NoError(t, err)
		o, err := NewExecutionOutcome(pd)
		require.NoError(t, err)
		return o
	}

	t.Run("only approved decisions get outcomes", func(t *testing.T) {
		pd, err := NewPolicyDecision(req, DecisionDeny, ReasonCodeItemNotEligible, nil, nil)
		require.NoError(t, err)
		_, err = NewExecutionOutcome(pd)
		assert.Error(t, err)
	})

	t.Run("mark executed", func(t *testing.T) {
		o := newOutcome(t)
		o.RecordAttempt(nil)
		require.NoError(t, o.MarkExecuted("txn_abc"))
		assert.True(t, o.Succeeded())
		assert.Equal(t, 1, o.AttemptCount)
		require.NotNil(t, o.ExternalTransactionID)
		assert.Equal(t, "txn_abc", *o.ExternalTransactionID)
		assert.NotNil(t, o.CompletedAt)
	})

	t.Run("mark executed requires transaction ID", func(t *testing.T) {
		o := newOutcome(t)
		assert.Error(t, o.MarkExecuted(""))
	})

	t.Run("mark failed after exhausted attempts", func(t *testing.T) {
		o := newOutcome(t)
		o.RecordAttempt(assert.AnError)
		o.RecordAttempt(assert.AnError)
		o.RecordAttempt(assert.AnError)
		require.NoError(t, o.MarkFailed(assert.AnError))
		assert.False(t, o.Succeeded())
		assert.Equal(t, 3, o.AttemptCount)
		require.NotNil(t, o.LastError)
	})

	t.Run("terminal outcomes reject transitions", func(t *testing.T) {
		o := newOutcome(t)
		require.NoError(t, o.MarkExecuted("txn_abc"))
		assert.Error(t, o.MarkExecuted("txn_def"))
		assert.Error(t, o.MarkFailed(assert.AnError))
	})
}

func TestStageCanFollow(t *testing.T) {
	happyPath := []Stage{
		StageReceived, StageValidated, StageRuleEvaluated,
		StageDecided, StageExecuting, StageExecuted, StageClosed,
	}
	for i := 1; i < len(happyPath); i++ {
		assert.True(t, happyPath[i].CanFollow(happyPath[i-1]),
			"%s should follow %s", happyPath[i], happyPath[i-1])
	}

	t.Run("dedupe short circuit", func(t *testing.T) {
		assert.True(t, StageDeduplicated.CanFollow(StageValidated))
		assert.True(t, StageClosed.CanFollow(StageDeduplicated))
		assert.False(t, StageRuleEvaluated.CanFollow(StageDeduplicated))
	})

	t.Run("lost race dedupe after evaluation", func(t *testing.T) {
		assert.True(t, StageDeduplicated.CanFollow(StageRuleEvaluated))
		assert.False(t, StageExecuting.CanFollow(StageRuleEvaluated))
	})

	t.Run("execution failure path", func(t *testing.T) {
		assert.True(t, StageExecutionFailed.CanFollow(StageExecuting))
		assert.True(t, StageClosed.CanFollow(StageExecutionFailed))
	})

	t.Run("closed is terminal", func(t *testing.T) {
		assert.False(t, StageReceived.CanFollow(StageClosed))
		assert.False(t, StageClosed.CanFollow(StageClosed))
	})
}

func TestNewAuditRecord(t *testing.T) {
	t.Run("valid record", func(t *testing.T) {
		rec, err := NewAuditRecord("evt_1", StageReceived, "order=ord_1 line_item=li_1", "")
		require.NoError(t, err)
		assert.Equal(t, "decision-engine", rec.Actor)
		assert.False(t, rec.Timestamp.IsZero())
	})

	t.Run("empty event ID rejected", func(t *testing.T) {
		_, err := NewAuditRecord("", StageReceived, "", "")
		assert.Error(t, err)
	})

	t.Run("unknown stage rejected", func(t *testing.T) {
		_, err := NewAuditRecord("evt_1", Stage("TELEPORTED"), "", "")
		assert.Error(t, err)
	})
}

package refund

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/returnsdesk/backend/internal/domain/returns"
	"github.com/returnsdesk/backend/internal/infrastructure/config"
)

// Executor drives a refund submission to a terminal outcome. Transient
// gateway failures are retried with exponential backoff up to the attempt
// ceiling; exhaustion or a fatal error marks the outcome Failed so the
// caller can escalate to manual review.
type Executor struct {
	gateway     returns.RefundGateway
	maxAttempts int
	backoffBase time.Duration
	logger      *zap.Logger
}

// NewExecutor creates a refund executor
func NewExecutor(gateway returns.RefundGateway, cfg config.RefundConfig, logger *zap.Logger) *Executor {
	return &Executor{
		gateway:     gateway,
		maxAttempts: cfg.MaxAttempts,
		backoffBase: cfg.BackoffBase,
		logger:      logger.Named("refund-executor"),
	}
}

// Execute submits the refund for an approved decision, mutating the outcome
// to its terminal state. The event ID is the idempotency key, so retries
// can never double-pay. Returns the terminal outcome error, if any, for the
// caller's audit trail; the outcome itself always reaches a terminal status.
func (e *Executor) Execute(ctx context.Context, outcome *returns.ExecutionOutcome, reasonCode string) error {
	req := returns.RefundRequest{
		IdempotencyKey: outcome.EventID,
		OrderID:        outcome.OrderID,
		LineItemID:     outcome.LineItemID,
		Amount:         outcome.Amount,
		ReasonCode:     reasonCode,
	}

	var lastErr error
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		receipt, err := e.gateway.SubmitRefund(ctx, req)
		outcome.RecordAttempt(err)

		if err == nil {
			e.logger.Info("refund executed",
				zap.String("event_id", outcome.EventID),
				zap.String("transaction_id", receipt.ExternalTransactionID),
				zap.Int("attempt", attempt),
				zap.Bool("already_processed", receipt.AlreadyProcessed))
			return outcome.MarkExecuted(receipt.ExternalTransactionID)
		}

		lastErr = err
		if !returns.IsRetryable(err) {
			e.logger.Error("refund submission failed fatally",
				zap.String("event_id", outcome.EventID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			break
		}

		e.logger.Warn("refund submission failed, will retry",
			zap.String("event_id", outcome.EventID),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", e.maxAttempts),
			zap.Error(err))

		if attempt < e.maxAttempts {
			if err := e.sleep(ctx, e.backoff(attempt)); err != nil {
				lastErr = err
				break
			}
		}
	}

	if markErr := outcome.MarkFailed(lastErr); markErr != nil {
		return markErr
	}
	return lastErr
}

// backoff computes the delay before the next attempt: base * 2^(attempt-1)
func (e *Executor) backoff(attempt int) time.Duration {
	return e.backoffBase * time.Duration(1<<uint(attempt-1))
}

// sleep waits for the backoff period or until the context is done
func (e *Executor) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

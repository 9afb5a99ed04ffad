package returns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/returnsdesk/backend/internal/domain/policy"
	"github.com/returnsdesk/backend/internal/domain/returns"
	"github.com/returnsdesk/backend/internal/domain/shared"
)

// RefundExecutor drives an approved refund to a terminal outcome
type RefundExecutor interface {
	Execute(ctx context.Context, outcome *returns.ExecutionOutcome, reasonCode string) error
}

// DecisionService orchestrates the end-to-end decision flow for one event:
// validate, deduplicate, evaluate, persist, execute, audit. Distinct events
// run concurrently up to the worker limit; a single event ID is strictly
// serialized by the per-event lock.
type DecisionService struct {
	decisions returns.DecisionRepository
	outcomes  returns.ExecutionOutcomeRepository
	audit     returns.AuditRepository
	catalog   returns.OrderCatalog
	executor  RefundExecutor
	locker    shared.EventLocker
	publisher shared.EventPublisher
	pipeline  *policy.Pipeline
	lockTTL   time.Duration
	workers   chan struct{}
	logger    *zap.Logger
}

// NewDecisionService creates a new DecisionService
func NewDecisionService(
	decisions returns.DecisionRepository,
	outcomes returns.ExecutionOutcomeRepository,
	audit returns.AuditRepository,
	catalog returns.OrderCatalog,
	executor RefundExecutor,
	locker shared.EventLocker,
	pipeline *policy.Pipeline,
	lockTTL time.Duration,
	maxConcurrentEvents int,
	logger *zap.Logger,
) *DecisionService {
	if lockTTL <= 0 {
		lockTTL = shared.DefaultLockConfig().TTL
	}
	if maxConcurrentEvents <= 0 {
		maxConcurrentEvents = 16
	}
	return &DecisionService{
		decisions: decisions,
		outcomes:  outcomes,
		audit:     audit,
		catalog:   catalog,
		executor:  executor,
		locker:    locker,
		pipeline:  pipeline,
		lockTTL:   lockTTL,
		workers:   make(chan struct{}, maxConcurrentEvents),
		logger:    logger.Named("decision-service"),
	}
}

// SetEventPublisher sets the event publisher for decision and refund events
func (s *DecisionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// Process runs one inbound event through the decision flow. The returned
// error is one of the engine error codes; a Deny or Flag decision is a valid
// business result, not an error.
func (s *DecisionService) Process(ctx context.Context, event ReturnEventRequest) (*ProcessEventResponse, error) {
	select {
	case s.workers <- struct{}{}:
		defer func() { <-s.workers }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	req, err := event.ToDomain()
	if err != nil {
		return nil, err
	}
	trail := s.newAuditTrail(req.EventID)

	if err := trail.append(ctx, returns.StageReceived,
		fmt.Sprintf("order %s line %s reason %s", req.OrderID, req.LineItemID, req.Reason)); err != nil {
		return nil, err
	}
	if err := trail.append(ctx, returns.StageValidated, "payload validated"); err != nil {
		return nil, err
	}

	acquired, err := s.locker.TryAcquire(ctx, req.EventID, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("event lock: %w", err)
	}
	if !acquired {
		return nil, shared.ErrDuplicateInFlight
	}

	// Once the lock is held, the flow must run to completion even if the
	// caller disconnects: a refund must never execute unaudited.
	ctx = context.WithoutCancel(ctx)
	defer func() {
		if err := s.locker.Release(ctx, req.EventID); err != nil {
			s.logger.Warn("failed to release event lock",
				zap.String("event_id", req.EventID),
				zap.Error(err))
		}
	}()

	if replay, err := s.replayStoredDecision(ctx, trail); replay != nil || err != nil {
		return replay, err
	}

	order, err := s.fetchOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	evaluation := s.pipeline.Evaluate(order, req)
	if err := trail.append(ctx, returns.StageRuleEvaluated,
		fmt.Sprintf("%d rules evaluated", len(evaluation.Results))); err != nil {
		return nil, err
	}

	decision, err := returns.NewPolicyDecision(req, evaluation.Decision, evaluation.ReasonCode, evaluation.Results, evaluation.RefundAmount)
	if err != nil {
		return nil, err
	}

	if err := s.decisions.Save(ctx, decision); err != nil {
		// A concurrent invocation slipped in before the lock was introduced
		// to its flow; its stored decision wins.
		if errors.Is(err, shared.ErrAlreadyExists) {
			return s.replayStoredDecision(ctx, trail)
		}
		return nil, err
	}

	if err := trail.append(ctx, returns.StageDecided,
		fmt.Sprintf("decision %s reason %s", decision.Decision, decision.ReasonCode)); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, decision)

	s.logger.Info("decision made",
		zap.String("event_id", decision.EventID),
		zap.String("order_id", decision.OrderID),
		zap.String("decision", decision.Decision.String()),
		zap.String("reason_code", decision.ReasonCode))

	response := &ProcessEventResponse{
		Decision:         ToDecisionResponse(decision),
		RequiresFollowUp: decision.Decision == returns.DecisionFlag,
	}

	if decision.RequiresExecution() {
		outcome, err := s.executeRefund(ctx, trail, decision)
		if err != nil {
			return nil, err
		}
		execution := ToExecutionOutcomeResponse(outcome)
		response.Execution = &execution
		response.RequiresFollowUp = !outcome.Succeeded()
	}

	if err := trail.append(ctx, returns.StageClosed, "event closed"); err != nil {
		return nil, err
	}

	return response, nil
}

// replayStoredDecision returns the stored decision for an event, or nil if
// the event has not been decided yet
func (s *DecisionService) replayStoredDecision(ctx context.Context, trail *auditTrail) (*ProcessEventResponse, error) {
	eventID := trail.eventID
	decision, err := s.decisions.FindByEventID(ctx, eventID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	response := &ProcessEventResponse{
		Decision: ToDecisionResponse(decision),
		Replay:   true,
	}

	outcome, err := s.outcomes.FindByEventID(ctx, eventID)
	if err == nil {
		execution := ToExecutionOutcomeResponse(outcome)
		response.Execution = &execution
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if err := trail.append(ctx, returns.StageDeduplicated, "replayed stored decision"); err != nil {
		return nil, err
	}
	if err := trail.append(ctx, returns.StageClosed, "event closed"); err != nil {
		return nil, err
	}

	s.logger.Info("duplicate event replayed",
		zap.String("event_id", eventID),
		zap.String("decision", response.Decision.Decision))

	return response, nil
}

// fetchOrder retrieves the order snapshot. A missing order is not an error:
// the pipeline flags the request for manual review. A transport failure is
// retryable by the caller.
func (s *DecisionService) fetchOrder(ctx context.Context, orderID string) (*returns.Order, error) {
	order, err := s.catalog.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, returns.ErrOrderNotFound) {
			s.logger.Warn("order not found in catalog", zap.String("order_id", orderID))
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrUpstreamLookup, err)
	}
	return order, nil
}

// executeRefund drives the refund for an approved decision to a terminal
// outcome and audits every transition
func (s *DecisionService) executeRefund(ctx context.Context, trail *auditTrail, decision *returns.PolicyDecision) (*returns.ExecutionOutcome, error) {
	outcome, err := returns.NewExecutionOutcome(decision)
	if err != nil {
		return nil, err
	}
	if err := s.outcomes.Save(ctx, outcome); err != nil {
		return nil, err
	}
	if err := trail.append(ctx, returns.StageExecuting,
		fmt.Sprintf("submitting refund %s %s", outcome.Amount.StringFixed(2), outcome.Amount.Currency())); err != nil {
		return nil, err
	}

	execErr := s.executor.Execute(ctx, outcome, decision.ReasonCode)

	if err := s.outcomes.Save(ctx, outcome); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, outcome)

	if outcome.Succeeded() {
		txnID := ""
		if outcome.ExternalTransactionID != nil {
			txnID = *outcome.ExternalTransactionID
		}
		if err := trail.append(ctx, returns.StageExecuted,
			fmt.Sprintf("refund executed, transaction %s, attempts %d", txnID, outcome.AttemptCount)); err != nil {
			return nil, err
		}
		return outcome, nil
	}

	s.logger.Error("refund execution failed, escalating to manual review",
		zap.String("event_id", decision.EventID),
		zap.Int("attempt_count", outcome.AttemptCount),
		zap.Error(execErr))

	if err := trail.append(ctx, returns.StageExecutionFailed,
		fmt.Sprintf("refund failed after %d attempts, escalated to manual review", outcome.AttemptCount)); err != nil {
		return nil, err
	}
	return outcome, nil
}

// auditTrail appends the audit records of one processing attempt and holds
// the last written stage so every transition is checked against
// Stage.CanFollow before it is persisted.
type auditTrail struct {
	audit   returns.AuditRepository
	eventID string
	prev    returns.Stage
	started bool
}

func (s *DecisionService) newAuditTrail(eventID string) *auditTrail {
	return &auditTrail{audit: s.audit, eventID: eventID}
}

// append durably writes one audit record. A failure, including an illegal
// stage transition, is fatal for the attempt: the caller must not
// acknowledge the event.
func (t *auditTrail) append(ctx context.Context, stage returns.Stage, summary string) error {
	if t.started && !stage.CanFollow(t.prev) {
		return shared.NewDomainError("AUDIT_STAGE_ORDER",
			fmt.Sprintf("audit stage %s cannot follow %s", stage, t.prev))
	}
	record, err := returns.NewAuditRecord(t.eventID, stage, summary, "")
	if err != nil {
		return err
	}
	if err := t.audit.Append(ctx, record); err != nil {
		return err
	}
	t.prev = stage
	t.started = true
	return nil
}

// publishEvents publishes an aggregate's pending events. Publish failures
// are logged, never propagated; the persisted state is the source of truth.
func (s *DecisionService) publishEvents(ctx context.Context, aggregate shared.AggregateRoot) {
	if s.publisher == nil {
		return
	}
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish domain events", zap.Error(err))
	}
	aggregate.ClearDomainEvents()
}

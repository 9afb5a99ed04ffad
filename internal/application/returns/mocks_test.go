package returns

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/returnsdesk/backend/internal/domain/returns"
	"github.com/returnsdesk/backend/internal/domain/shared"
)

// fakeDecisionRepo is a thread-safe in-memory DecisionRepository
type fakeDecisionRepo struct {
	mu      sync.Mutex
	byEvent map[string]*returns.PolicyDecision
}

func newFakeDecisionRepo() *fakeDecisionRepo {
	return &fakeDecisionRepo{byEvent: make(map[string]*returns.PolicyDecision)}
}

func (r *fakeDecisionRepo) Save(ctx context.Context, decision *returns.PolicyDecision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEvent[decision.EventID]; exists {
		return shared.ErrAlreadyExists
	}
	r.byEvent[decision.EventID] = decision
	return nil
}

func (r *fakeDecisionRepo) FindByEventID(ctx context.Context, eventID string) (*returns.PolicyDecision, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	decision, ok := r.byEvent[eventID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return decision, nil
}

func (r *fakeDecisionRepo) FindRecent(ctx context.Context, filter shared.Filter) (*shared.Paginated[*returns.PolicyDecision], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]*returns.PolicyDecision, 0, len(r.byEvent))
	for _, d := range r.byEvent {
		if want, ok := filter.Filters["decision"].(string); ok && want != "" && d.Decision.String() != want {
			continue
		}
		if want, ok := filter.Filters["order_id"].(string); ok && want != "" && d.OrderID != want {
			continue
		}
		items = append(items, d)
	}
	page := shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *fakeDecisionRepo) CountByDecision(ctx context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, d := range r.byEvent {
		counts[d.Decision.String()]++
	}
	return counts, nil
}

// fakeOutcomeRepo is a thread-safe in-memory ExecutionOutcomeRepository
type fakeOutcomeRepo struct {
	mu      sync.Mutex
	byEvent map[string]*returns.ExecutionOutcome
	saves   int
}

func newFakeOutcomeRepo() *fakeOutcomeRepo {
	return &fakeOutcomeRepo{byEvent: make(map[string]*returns.ExecutionOutcome)}
}

func (r *fakeOutcomeRepo) Save(ctx context.Context, outcome *returns.ExecutionOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byEvent[outcome.EventID] = outcome
	r.saves++
	return nil
}

func (r *fakeOutcomeRepo) FindByEventID(ctx context.Context, eventID string) (*returns.ExecutionOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	outcome, ok := r.byEvent[eventID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return outcome, nil
}

// fakeAuditRepo is a thread-safe in-memory AuditRepository. failOnStage, when
// set, makes the corresponding append fail.
type fakeAuditRepo struct {
	mu          sync.Mutex
	records     []*returns.AuditRecord
	failOnStage returns.Stage
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (r *fakeAuditRepo) Append(ctx context.Context, record *returns.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOnStage != "" && record.Stage == r.failOnStage {
		return shared.ErrAuditPersistence
	}
	r.records = append(r.records, record)
	return nil
}

func (r *fakeAuditRepo) ListByEventID(ctx context.Context, eventID string) ([]*returns.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*returns.AuditRecord
	for _, record := range r.records {
		if record.EventID == eventID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) Summary(ctx context.Context) (*returns.AuditSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	summary := &returns.AuditSummary{StageCounts: make(map[string]int64)}
	summary.TotalRecords = int64(len(r.records))
	for _, record := range r.records {
		summary.StageCounts[record.Stage.String()]++
	}
	if len(r.records) > 0 {
		last := r.records[len(r.records)-1].Timestamp
		summary.LastActivityAt = &last
	}
	return summary, nil
}

// stagesFor returns the ordered stage names recorded for an event
func (r *fakeAuditRepo) stagesFor(eventID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var stages []string
	for _, record := range r.records {
		if record.EventID == eventID {
			stages = append(stages, record.Stage.String())
		}
	}
	return stages
}

// fakeLocker is a thread-safe in-memory EventLocker
type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) TryAcquire(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[eventID] {
		return false, nil
	}
	l.held[eventID] = true
	return true, nil
}

func (l *fakeLocker) Release(ctx context.Context, eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, eventID)
	return nil
}

func (l *fakeLocker) Close() error { return nil }

// MockOrderCatalog is a mock implementation of OrderCatalog
type MockOrderCatalog struct {
	mock.Mock
}

func (m *MockOrderCatalog) GetOrder(ctx context.Context, orderID string) (*returns.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*returns.Order), args.Error(1)
}

// fakeExecutor drives outcomes to a terminal state without real I/O and
// counts invocations
type fakeExecutor struct {
	mu       sync.Mutex
	calls    int
	fail     bool
	attempts int
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{attempts: 1}
}

func (e *fakeExecutor) Execute(ctx context.Context, outcome *returns.ExecutionOutcome, reasonCode string) error {
	e.mu.Lock()
	e.calls++
	fail := e.fail
	attempts := e.attempts
	e.mu.Unlock()

	for i := 0; i < attempts; i++ {
		if fail {
			outcome.RecordAttempt(context.DeadlineExceeded)
		} else {
			outcome.RecordAttempt(nil)
		}
	}
	if fail {
		if err := outcome.MarkFailed(context.DeadlineExceeded); err != nil {
			return err
		}
		return context.DeadlineExceeded
	}
	return outcome.MarkExecuted("txn_test_1")
}

func (e *fakeExecutor) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

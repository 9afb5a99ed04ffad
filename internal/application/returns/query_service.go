package returns

import (
	"context"
	"errors"

	"github.com/returnsdesk/backend/internal/domain/policy"
	"github.com/returnsdesk/backend/internal/domain/returns"
	"github.com/returnsdesk/backend/internal/domain/shared"
)

// QueryService serves the read side: stored decisions, audit trails and the
// active policy. It never mutates anything.
type QueryService struct {
	decisions returns.DecisionRepository
	outcomes  returns.ExecutionOutcomeRepository
	audit     returns.AuditRepository
	policy    policy.Config
}

// NewQueryService creates a new QueryService
func NewQueryService(
	decisions returns.DecisionRepository,
	outcomes returns.ExecutionOutcomeRepository,
	audit returns.AuditRepository,
	policyConfig policy.Config,
) *QueryService {
	return &QueryService{
		decisions: decisions,
		outcomes:  outcomes,
		audit:     audit,
		policy:    policyConfig,
	}
}

// GetDecision returns the stored decision for an event with its execution
// outcome, if one exists
func (s *QueryService) GetDecision(ctx context.Context, eventID string) (*DecisionDetailResponse, error) {
	decision, err := s.decisions.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	response := &DecisionDetailResponse{
		Decision: ToDecisionResponse(decision),
	}

	outcome, err := s.outcomes.FindByEventID(ctx, eventID)
	if err == nil {
		execution := ToExecutionOutcomeResponse(outcome)
		response.Execution = &execution
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	return response, nil
}

// ListDecisions returns a page of decisions, newest first
func (s *QueryService) ListDecisions(ctx context.Context, filter DecisionListFilter) (*DecisionListResponse, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		Filters:  make(map[string]any),
	}
	if filter.Decision != "" {
		domainFilter.Filters["decision"] = filter.Decision
	}
	if filter.OrderID != "" {
		domainFilter.Filters["order_id"] = filter.OrderID
	}

	page, err := s.decisions.FindRecent(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]DecisionResponse, 0, len(page.Items))
	for _, d := range page.Items {
		items = append(items, ToDecisionResponse(d))
	}

	return &DecisionListResponse{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

// GetAuditTrail returns every audit record for an event in write order
func (s *QueryService) GetAuditTrail(ctx context.Context, eventID string) ([]AuditRecordResponse, error) {
	records, err := s.audit.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, shared.ErrNotFound
	}

	responses := make([]AuditRecordResponse, 0, len(records))
	for _, r := range records {
		responses = append(responses, ToAuditRecordResponse(r))
	}
	return responses, nil
}

// GetAuditSummary aggregates audit activity and decision counts
func (s *QueryService) GetAuditSummary(ctx context.Context) (*AuditSummaryResponse, error) {
	summary, err := s.audit.Summary(ctx)
	if err != nil {
		return nil, err
	}

	decisionCounts, err := s.decisions.CountByDecision(ctx)
	if err != nil {
		return nil, err
	}

	return &AuditSummaryResponse{
		TotalRecords:   summary.TotalRecords,
		StageCounts:    summary.StageCounts,
		DecisionCounts: decisionCounts,
		LastActivityAt: summary.LastActivityAt,
	}, nil
}

// GetPolicy returns the active return policy
func (s *QueryService) GetPolicy() PolicyResponse {
	return ToPolicyResponse(s.policy)
}

package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/returnsdesk/backend/internal/domain/returns"
	"github.com/returnsdesk/backend/internal/domain/shared"
	"github.com/returnsdesk/backend/internal/infrastructure/persistence/models"
)

// GormDecisionRepository implements DecisionRepository using GORM
type GormDecisionRepository struct {
	db *gorm.DB
}

// NewGormDecisionRepository creates a new GormDecisionRepository
func NewGormDecisionRepository(db *gorm.DB) *GormDecisionRepository {
	return &GormDecisionRepository{db: db}
}

// Save persists a decision. Decisions are created exactly once per event ID;
// a unique violation means a concurrent invocation already decided the event.
func (r *GormDecisionRepository) Save(ctx context.Context, decision *returns.PolicyDecision) error {
	var model models.PolicyDecisionModel
	if err := model.FromDomain(decision); err != nil {
		return err
	}

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to save decision: %w", err)
	}
	return nil
}

// FindByEventID returns the stored decision for an event, or ErrNotFound
func (r *GormDecisionRepository) FindByEventID(ctx context.Context, eventID string) (*returns.PolicyDecision, error) {
	var model models.PolicyDecisionModel
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindRecent returns decisions ordered by creation time, newest first
func (r *GormDecisionRepository) FindRecent(ctx context.Context, filter shared.Filter) (*shared.Paginated[*returns.PolicyDecision], error) {
	query := r.db.WithContext(ctx).Model(&models.PolicyDecisionModel{})

	if decision, ok := filter.Filters["decision"].(string); ok && decision != "" {
		query = query.Where("decision = ?", decision)
	}
	if orderID, ok := filter.Filters["order_id"].(string); ok && orderID != "" {
		query = query.Where("order_id = ?", orderID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	sortField := ValidateSortField(filter.OrderBy, DecisionSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)

	var rows []models.PolicyDecisionModel
	offset := (filter.Page - 1) * filter.PageSize
	if err := query.
		Order(sortField + " " + sortOrder).
		Offset(offset).
		Limit(filter.PageSize).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	decisions := make([]*returns.PolicyDecision, 0, len(rows))
	for idx := range rows {
		d, err := rows[idx].ToDomain()
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}

	result := shared.NewPaginated(decisions, total, filter.Page, filter.PageSize)
	return &result, nil
}

// CountByDecision returns the number of stored decisions per decision value
func (r *GormDecisionRepository) CountByDecision(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Decision string
		Count    int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.PolicyDecisionModel{}).
		Select("decision, count(*) as count").
		Group("decision").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Decision] = r.Count
	}
	return counts, nil
}

// Ensure GormDecisionRepository implements DecisionRepository
var _ returns.DecisionRepository = (*GormDecisionRepository)(nil)

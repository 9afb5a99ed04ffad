package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/returnsdesk/backend/internal/domain/returns"
	"github.com/returnsdesk/backend/internal/domain/shared"
	"github.com/returnsdesk/backend/internal/infrastructure/persistence/models"
)

// GormExecutionOutcomeRepository implements ExecutionOutcomeRepository using GORM
type GormExecutionOutcomeRepository struct {
	db *gorm.DB
}

// NewGormExecutionOutcomeRepository creates a new GormExecutionOutcomeRepository
func NewGormExecutionOutcomeRepository(db *gorm.DB) *GormExecutionOutcomeRepository {
	return &GormExecutionOutcomeRepository{db: db}
}

// Save upserts the outcome keyed by event ID. The outcome is written once in
// Pending state and again at its terminal state.
func (r *GormExecutionOutcomeRepository) Save(ctx context.Context, outcome *returns.ExecutionOutcome) error {
	var model models.ExecutionOutcomeModel
	model.FromDomain(outcome)

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "external_transaction_id", "attempt_count",
				"last_error", "completed_at", "updated_at", "version",
			}),
		}).
		Create(&model).Error; err != nil {
		return fmt.Errorf("failed to save execution outcome: %w", err)
	}
	return nil
}

// FindByEventID returns the stored outcome for an event, or ErrNotFound
func (r *GormExecutionOutcomeRepository) FindByEventID(ctx context.Context, eventID string) (*returns.ExecutionOutcome, error) {
	var model models.ExecutionOutcomeModel
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

// Ensure GormExecutionOutcomeRepository implements ExecutionOutcomeRepository
var _ returns.ExecutionOutcomeRepository = (*GormExecutionOutcomeRepository)(nil)

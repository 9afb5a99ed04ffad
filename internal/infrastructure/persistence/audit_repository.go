package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/returnsdesk/backend/internal/domain/returns"
	"github.com/returnsdesk/backend/internal/domain/shared"
	"github.com/returnsdesk/backend/internal/infrastructure/persistence/models"
)

// GormAuditRepository implements AuditRepository using GORM. The table is
// append-only; no update or delete statements exist here on purpose.
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Append durably inserts one audit record. A failure here is fatal for the
// processing attempt: the caller must not acknowledge the event.
func (r *GormAuditRepository) Append(ctx context.Context, record *returns.AuditRecord) error {
	var model models.AuditRecordModel
	model.FromDomain(record)

	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuditPersistence, err)
	}
	return nil
}

// ListByEventID returns all audit records for an event in write order
func (r *GormAuditRepository) ListByEventID(ctx context.Context, eventID string) ([]*returns.AuditRecord, error) {
	var rows []models.AuditRecordModel
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("timestamp ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]*returns.AuditRecord, 0, len(rows))
	for idx := range rows {
		records = append(records, rows[idx].ToDomain())
	}
	return records, nil
}

// Summary aggregates audit activity: total records, records per terminal
// decision stage, and the most recent write.
func (r *GormAuditRepository) Summary(ctx context.Context) (*returns.AuditSummary, error) {
	summary := &returns.AuditSummary{
		StageCounts: make(map[string]int64),
	}

	if err := r.db.WithContext(ctx).
		Model(&models.AuditRecordModel{}).
		Count(&summary.TotalRecords).Error; err != nil {
		return nil, err
	}

	type row struct {
		Stage string
		Count int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.AuditRecordModel{}).
		Select("stage, count(*) as count").
		Group("stage").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		summary.StageCounts[r.Stage] = r.Count
	}

	if summary.TotalRecords > 0 {
		var last time.Time
		if err := r.db.WithContext(ctx).
			Model(&models.AuditRecordModel{}).
			Select("max(timestamp)").
			Scan(&last).Error; err != nil {
			return nil, err
		}
		summary.LastActivityAt = &last
	}

	return summary, nil
}

// Ensure GormAuditRepository implements AuditRepository
var _ returns.AuditRepository = (*GormAuditRepository)(nil)

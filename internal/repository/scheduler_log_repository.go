package repository

import (
	"context"

	"user-management-svc/internal/models"

	"gorm.io/gorm"
)

// SchedulerLogRepository defines the interface for scheduler log data operations
type SchedulerLogRepository interface {
	Create(ctx context.Context, log *models.SchedulerLog) error
	FindByDocumentID(ctx context.Context, documentID string) ([]models.SchedulerLog, error)
}

// schedulerLogRepository implements SchedulerLogRepository
type schedulerLogRepository struct {
	db *gorm.DB
}

// NewSchedulerLogRepository creates a new instance of SchedulerLogRepository
func NewSchedulerLogRepository(db *gorm.DB) SchedulerLogRepository {
	return &schedulerLogRepository{
		db: db,
	}
}

// Create creates a new scheduler log record
func (r *schedulerLogRepository) Create(ctx context.Context, log *models.SchedulerLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByDocumentID returns every state change recorded for one scheduler run
func (r *schedulerLogRepository) FindByDocumentID(ctx context.Context, documentID string) ([]models.SchedulerLog, error) {
	var logs []models.SchedulerLog
	err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Order("id ASC").Find(&logs).Error
	return logs, err
}

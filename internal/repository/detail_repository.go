package repository

import (
	"context"

	"gorm.io/gorm"

	"user-management-svc/internal/models"
)

// detailBatchSize bounds the rows sent per INSERT
const detailBatchSize = 100

// DetailRepository defines the interface for user detail data operations
type DetailRepository interface {
	CreateBulk(ctx context.Context, userID uint, details []models.Detail) error
	FindByUserID(ctx context.Context, userID uint) ([]models.Detail, error)
}

// detailRepository implements DetailRepository
type detailRepository struct {
	db *gorm.DB
}

// NewDetailRepository creates a new instance of DetailRepository
func NewDetailRepository(db *gorm.DB) DetailRepository {
	return &detailRepository{
		db: db,
	}
}

// CreateBulk appends details to the user. Existing rows are never touched.
func (r *detailRepository) CreateBulk(ctx context.Context, userID uint, details []models.Detail) error {
	if len(details) == 0 {
		return nil
	}

	rows := make([]*models.Detail, 0, len(details))
	for i := range details {
		d := details[i]
		d.ID = 0
		d.UserID = userID
		if d.Status == "" {
			d.Status = models.DetailStatusDefault
		}
		if d.Type == "" {
			d.Type = models.DetailTypeDetail
		}
		rows = append(rows, &d)
	}

	return r.db.WithContext(ctx).CreateInBatches(rows, detailBatchSize).Error
}

// FindByUserID returns the details of a user in insertion order
func (r *detailRepository) FindByUserID(ctx context.Context, userID uint) ([]models.Detail, error) {
	var details []models.Detail
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&details).Error
	return details, err
}


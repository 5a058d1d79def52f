package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"user-management-svc/internal/models"
)

// UserScope selects which users a query sees
type UserScope int

const (
	// ScopeActive only sees users that are not soft-deleted
	ScopeActive UserScope = iota
	// ScopeTrashed only sees soft-deleted users
	ScopeTrashed
	// ScopeAll sees every user that has not been purged
	ScopeAll
)

func (s UserScope) apply(db *gorm.DB) *gorm.DB {
	switch s {
	case ScopeTrashed:
		return db.Unscoped().Where("users.deleted_at IS NOT NULL")
	case ScopeAll:
		return db.Unscoped()
	default:
		return db.Where("users.deleted_at IS NULL")
	}
}

// uniqueColumns are the columns ExistsByField may be asked about
var uniqueColumns = map[string]bool{
	"username": true,
	"email":    true,
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User, fields map[string]interface{}) error
	FindByID(ctx context.Context, id uint, scope UserScope) (*models.User, error)
	FindByLogin(ctx context.Context, login string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Paginate(ctx context.Context, scope UserScope, page, perPage int) ([]models.User, int64, error)
	SoftDelete(ctx context.Context, ids []uint) (int64, error)
	Restore(ctx context.Context, ids []uint) (int64, error)
	ForceDelete(ctx context.Context, ids []uint) ([]models.User, error)
	ExistsByField(ctx context.Context, column, value string, excludeID *uint) (bool, error)
	TrashedBefore(ctx context.Context, cutoff time.Time) ([]uint, error)
}

// userRepository implements UserRepository
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		db: db,
	}
}

// Create inserts a new user
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update applies the given column values to a user, trashed or not
func (r *userRepository) Update(ctx context.Context, user *models.User, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Unscoped().Model(user).Updates(fields).Error
}

// FindByID retrieves a user by ID within the given scope
func (r *userRepository) FindByID(ctx context.Context, id uint, scope UserScope) (*models.User, error) {
	var user models.User

	err := scope.apply(r.db.WithContext(ctx)).Where("users.id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// FindByLogin retrieves an active user by username or email
func (r *userRepository) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User

	err := ScopeActive.apply(r.db.WithContext(ctx)).
		Where("users.username = ? OR users.email = ?", login, login).
		First(&user).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// FindByEmail retrieves a user by email, trashed or not
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User

	err := ScopeAll.apply(r.db.WithContext(ctx)).Where("users.email = ?", email).First(&user).Error
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// Paginate returns one page of users in primary key order and the total within the scope
func (r *userRepository) Paginate(ctx context.Context, scope UserScope, page, perPage int) ([]models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}

	base := func() *gorm.DB {
		return scope.apply(r.db.WithContext(ctx).Model(&models.User{}))
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	users := make([]models.User, 0, perPage)
	if lastPage := (total + int64(perPage) - 1) / int64(perPage); int64(page) > lastPage {
		return users, total, nil
	}

	err := base().
		Order("users.id ASC").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

// SoftDelete marks the given active users as deleted
func (r *userRepository) SoftDelete(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.User{})
	return result.RowsAffected, result.Error
}

// Restore clears the deletion marker of the given trashed users
func (r *userRepository) Restore(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := ScopeTrashed.apply(r.db.WithContext(ctx).Model(&models.User{})).
		Where("users.id IN ?", ids).
		Update("deleted_at", nil)
	return result.RowsAffected, result.Error
}

// ForceDelete permanently removes the given users that are already trashed, with their details,
// and returns the removed rows. Ids of users that are not trashed are ignored.
func (r *userRepository) ForceDelete(ctx context.Context, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var purged []models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var trashed []models.User
		if err := ScopeTrashed.apply(tx.Model(&models.User{})).
			Where("users.id IN ?", ids).
			Order("users.id ASC").
			Find(&trashed).Error; err != nil {
			return fmt.Errorf("select trashed users: %w", err)
		}
		if len(trashed) == 0 {
			return nil
		}

		trashedIDs := make([]uint, 0, len(trashed))
		for _, u := range trashed {
			trashedIDs = append(trashedIDs, u.ID)
		}

		if err := tx.Where("user_id IN ?", trashedIDs).Delete(&models.Detail{}).Error; err != nil {
			return fmt.Errorf("delete details: %w", err)
		}

		if err := tx.Unscoped().Where("id IN ?", trashedIDs).Delete(&models.User{}).Error; err != nil {
			return fmt.Errorf("delete users: %w", err)
		}
		purged = trashed
		return nil
	})
	if err != nil {
		return nil, err
	}

	return purged, nil
}

// ExistsByField reports whether a non-purged user other than excludeID has column = value
func (r *userRepository) ExistsByField(ctx context.Context, column, value string, excludeID *uint) (bool, error) {
	if !uniqueColumns[column] {
		return false, fmt.Errorf("column %q is not a unique user column", column)
	}

	query := ScopeAll.apply(r.db.WithContext(ctx).Model(&models.User{})).
		Where("users."+column+" = ?", value)
	if excludeID != nil {
		query = query.Where("users.id <> ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

// TrashedBefore returns the ids of users soft-deleted before cutoff
func (r *userRepository) TrashedBefore(ctx context.Context, cutoff time.Time) ([]uint, error) {
	var ids []uint

	err := ScopeTrashed.apply(r.db.WithContext(ctx).Model(&models.User{})).
		Where("users.deleted_at < ?", cutoff).
		Order("users.id ASC").
		Pluck("users.id", &ids).Error
	if err != nil {
		return nil, err
	}

	return ids, nil
}

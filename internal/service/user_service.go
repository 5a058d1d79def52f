package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"gorm.io/gorm"

	"user-management-svc/internal/assets"
	"user-management-svc/internal/models"
	"user-management-svc/internal/models/response"
	"user-management-svc/internal/repository"
	"user-management-svc/pkg/logger"
	"user-management-svc/pkg/security"
	"user-management-svc/pkg/storage"
)

// PerPage is the page size of the user listings
const PerPage = 10

// AvatarDir is the storage folder of uploaded photos
const AvatarDir = "avatars"

// UserAttributes are the persisted user fields. Nil fields are left untouched on update.
type UserAttributes struct {
	Prefix       *string
	FirstName    *string
	MiddleName   *string
	LastName     *string
	SuffixName   *string
	Username     *string
	Email        *string
	PasswordHash *string
	Photo        *string
	VerifiedAt   *time.Time
}

// UserService interface defines user service methods
type UserService interface {
	Validate(ctx context.Context, id *uint, input UserInput) error
	List(ctx context.Context, page int) ([]models.User, int64, error)
	Store(ctx context.Context, attrs UserAttributes) (*models.User, error)
	Update(ctx context.Context, id uint, attrs UserAttributes) (bool, error)
	Find(ctx context.Context, id uint) (*models.User, error)
	Destroy(ctx context.Context, ids ...uint) (int64, error)
	Delete(ctx context.Context, ids ...uint) (int64, error)
	ListTrashed(ctx context.Context, page int) ([]models.User, int64, error)
	Restore(ctx context.Context, ids ...uint) (int64, error)
	Hash(secret string) (string, error)
	Upload(ctx context.Context, file *multipart.FileHeader) string
	StoreDetails(ctx context.Context, userID uint, details []models.Detail) error
	AvatarURL(user *models.User) *string
	Prefixes() map[string]string
	Present(user *models.User) *response.UserResponse
	Authenticate(ctx context.Context, login, password string) (*models.User, error)
	EnsureDefaultUser(ctx context.Context, attrs UserAttributes) (*models.User, bool, error)
	PurgeTrashedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// userService implements UserService interface
type userService struct {
	userRepo   repository.UserRepository
	detailRepo repository.DetailRepository
	rules      RuleValidator
	hasher     security.PasswordHasher
	store      storage.Store
	events     *EventDispatcher
	logger     *logger.Logger
}

// NewUserService creates a new user service
func NewUserService(
	userRepo repository.UserRepository,
	detailRepo repository.DetailRepository,
	rules RuleValidator,
	hasher security.PasswordHasher,
	store storage.Store,
	events *EventDispatcher,
	logger *logger.Logger,
) UserService {
	if events == nil {
		events = NewEventDispatcher()
	}
	return &userService{
		userRepo:   userRepo,
		detailRepo: detailRepo,
		rules:      rules,
		hasher:     hasher,
		store:      store,
		events:     events,
		logger:     logger,
	}
}

// Validate checks a create (nil id) or update payload against Rules
func (s *userService) Validate(ctx context.Context, id *uint, input UserInput) error {
	return s.rules.Validate(ctx, id, input)
}

// List returns a page of active users and the active total
func (s *userService) List(ctx context.Context, page int) ([]models.User, int64, error) {
	users, total, err := s.userRepo.Paginate(ctx, repository.ScopeActive, normalizePage(page), PerPage)
	if err != nil {
		s.logger.WithError(err).WithField("page", page).Error("Failed to list users")
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// ListTrashed returns a page of soft-deleted users and the trashed total
func (s *userService) ListTrashed(ctx context.Context, page int) ([]models.User, int64, error) {
	users, total, err := s.userRepo.Paginate(ctx, repository.ScopeTrashed, normalizePage(page), PerPage)
	if err != nil {
		s.logger.WithError(err).WithField("page", page).Error("Failed to list trashed users")
		return nil, 0, fmt.Errorf("failed to list trashed users: %w", err)
	}
	return users, total, nil
}

// Store creates the user and then dispatches the saved event.
// A listener error is returned after the user has been committed.
func (s *userService) Store(ctx context.Context, attrs UserAttributes) (*models.User, error) {
	user := &models.User{
		Prefix:       models.Prefix(deref(attrs.Prefix)),
		FirstName:    deref(attrs.FirstName),
		MiddleName:   nullable(attrs.MiddleName),
		LastName:     deref(attrs.LastName),
		SuffixName:   nullable(attrs.SuffixName),
		Username:     deref(attrs.Username),
		Email:        deref(attrs.Email),
		PasswordHash: nullable(attrs.PasswordHash),
		PhotoPath:    nullable(attrs.Photo),
		VerifiedAt:   attrs.VerifiedAt,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		s.logger.WithError(err).WithField("username", user.Username).Error("Failed to create user")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.events.DispatchUserSaved(ctx, user); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Error("User saved listener failed")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("User created successfully")

	return user, nil
}

// Update applies the non-nil attributes to the user, trashed users included
func (s *userService) Update(ctx context.Context, id uint, attrs UserAttributes) (bool, error) {
	if id == 0 {
		return false, ErrInvalidID
	}

	user, err := s.userRepo.FindByID(ctx, id, repository.ScopeAll)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrUserNotFound
		}
		s.logger.WithError(err).WithField("user_id", id).Error("Failed to load user for update")
		return false, fmt.Errorf("failed to load user: %w", err)
	}

	if fields := attrs.fields(); len(fields) > 0 {
		if err := s.userRepo.Update(ctx, user, fields); err != nil {
			s.logger.WithError(err).WithField("user_id", id).Error("Failed to update user")
			return false, fmt.Errorf("failed to update user: %w", err)
		}

		user, err = s.userRepo.FindByID(ctx, id, repository.ScopeAll)
		if err != nil {
			return false, fmt.Errorf("failed to reload user: %w", err)
		}
	}

	if err := s.events.DispatchUserSaved(ctx, user); err != nil {
		s.logger.WithError(err).WithField("user_id", id).Error("User saved listener failed")
		return false, err
	}

	s.logger.WithField("user_id", id).Info("User updated successfully")
	return true, nil
}

// Find returns the user with its details, trashed users included
func (s *userService) Find(ctx context.Context, id uint) (*models.User, error) {
	if id == 0 {
		return nil, ErrInvalidID
	}

	user, err := s.userRepo.FindByID(ctx, id, repository.ScopeAll)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.WithError(err).WithField("user_id", id).Error("Failed to find user")
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	user.Details, err = s.detailRepo.FindByUserID(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", id).Error("Failed to load user details")
		return nil, fmt.Errorf("failed to load user details: %w", err)
	}

	return user, nil
}

// Destroy soft-deletes the given users
func (s *userService) Destroy(ctx context.Context, ids ...uint) (int64, error) {
	affected, err := s.userRepo.SoftDelete(ctx, ids)
	if err != nil {
		s.logger.WithError(err).WithField("user_ids", ids).Error("Failed to soft delete users")
		return 0, fmt.Errorf("failed to delete users: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"user_ids": ids,
		"affected": affected,
	}).Info("Users moved to trash")
	return affected, nil
}

// Delete purges the given users that are already trashed, with their details
func (s *userService) Delete(ctx context.Context, ids ...uint) (int64, error) {
	purged, err := s.userRepo.ForceDelete(ctx, ids)
	if err != nil {
		s.logger.WithError(err).WithField("user_ids", ids).Error("Failed to purge users")
		return 0, fmt.Errorf("failed to purge users: %w", err)
	}

	for i := range purged {
		s.removePhoto(ctx, &purged[i])
	}

	s.logger.WithFields(map[string]interface{}{
		"user_ids": ids,
		"purged":   len(purged),
	}).Info("Trashed users purged")
	return int64(len(purged)), nil
}

// removePhoto deletes the stored avatar of a purged user. Failures are only logged.
func (s *userService) removePhoto(ctx context.Context, user *models.User) {
	if !user.HasPhoto() {
		return
	}

	name := AvatarDir + "/" + *user.PhotoPath
	if err := s.store.Delete(ctx, name); err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"user_id": user.ID,
			"photo":   name,
		}).Warn("Failed to remove photo of purged user")
	}
}

// Restore brings the given trashed users back
func (s *userService) Restore(ctx context.Context, ids ...uint) (int64, error) {
	restored, err := s.userRepo.Restore(ctx, ids)
	if err != nil {
		s.logger.WithError(err).WithField("user_ids", ids).Error("Failed to restore users")
		return 0, fmt.Errorf("failed to restore users: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"user_ids": ids,
		"restored": restored,
	}).Info("Users restored")
	return restored, nil
}

// Hash hashes a secret with the configured hasher
func (s *userService) Hash(secret string) (string, error) {
	return s.hasher.Hash(secret)
}

// Upload stores an image under avatars/ and returns its file name, or "" when it cannot
func (s *userService) Upload(ctx context.Context, file *multipart.FileHeader) string {
	if file == nil {
		return ""
	}

	src, err := file.Open()
	if err != nil {
		s.logger.WithError(err).WithField("filename", file.Filename).Warn("Failed to open uploaded file")
		return ""
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil || !strings.HasPrefix(mtype.String(), "image/") {
		s.logger.WithError(err).WithField("filename", file.Filename).Warn("Uploaded file is not an image")
		return ""
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		s.logger.WithError(err).WithField("filename", file.Filename).Warn("Failed to rewind uploaded file")
		return ""
	}

	ext := clientExtension(file.Filename)
	if !extensionAllowed(ext, AllowedPhotoExtensions) {
		ext = strings.TrimPrefix(mtype.Extension(), ".")
	}
	if !extensionAllowed(ext, AllowedPhotoExtensions) {
		s.logger.WithField("filename", file.Filename).Warn("Uploaded image type is not allowed")
		return ""
	}
	filename := fmt.Sprintf("%d.%s", time.Now().UnixNano(), ext)

	if err := s.store.Put(ctx, AvatarDir+"/"+filename, src, file.Size, mtype.String()); err != nil {
		s.logger.WithError(err).WithField("filename", file.Filename).Error("Failed to store uploaded file")
		return ""
	}

	s.logger.WithFields(map[string]interface{}{
		"original": file.Filename,
		"stored":   filename,
	}).Info("Photo uploaded")
	return filename
}

// StoreDetails appends the details to the user
func (s *userService) StoreDetails(ctx context.Context, userID uint, details []models.Detail) error {
	if _, err := s.userRepo.FindByID(ctx, userID, repository.ScopeAll); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.detailRepo.CreateBulk(ctx, userID, details); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to store user details")
		return fmt.Errorf("failed to store user details: %w", err)
	}

	return nil
}

// AvatarURL returns the uploaded photo URL or the default avatar data URI
func (s *userService) AvatarURL(user *models.User) *string {
	var avatar string
	if user.HasPhoto() {
		avatar = s.store.URL(AvatarDir + "/" + *user.PhotoPath)
	} else {
		avatar = assets.DefaultAvatarDataURI()
	}
	return &avatar
}

// Prefixes returns the selectable prefixes keyed by case name
func (s *userService) Prefixes() map[string]string {
	return models.PrefixValues()
}

// Present builds the JSON view of a user
func (s *userService) Present(user *models.User) *response.UserResponse {
	if user == nil {
		return nil
	}

	resp := &response.UserResponse{
		ID:            user.ID,
		Prefix:        string(user.Prefix),
		FirstName:     user.FirstName,
		MiddleName:    user.MiddleName,
		LastName:      user.LastName,
		SuffixName:    user.SuffixName,
		Username:      user.Username,
		Email:         user.Email,
		Photo:         user.PhotoPath,
		Avatar:        s.AvatarURL(user),
		FullName:      user.FullName(),
		MiddleInitial: user.MiddleInitial(),
		Gender:        user.Gender(),
		Status:        string(user.Status()),
		VerifiedAt:    user.VerifiedAt,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
	}

	if user.DeletedAt.Valid {
		deletedAt := user.DeletedAt.Time
		resp.DeletedAt = &deletedAt
	}

	for _, d := range user.Details {
		resp.Details = append(resp.Details, response.DetailResponse{
			ID:        d.ID,
			Key:       d.Key,
			Value:     d.Value,
			Icon:      d.Icon,
			Status:    d.Status,
			Type:      d.Type,
			CreatedAt: d.CreatedAt,
		})
	}

	return resp
}

// Authenticate checks the password of an active user found by username or email
func (s *userService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	user, err := s.userRepo.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.Check(password, *user.PasswordHash); err != nil {
		if errors.Is(err, security.ErrInvalidCredentials) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to check password: %w", err)
	}

	return user, nil
}

// EnsureDefaultUser returns the user with the given email, creating it when missing
func (s *userService) EnsureDefaultUser(ctx context.Context, attrs UserAttributes) (*models.User, bool, error) {
	user, err := s.userRepo.FindByEmail(ctx, deref(attrs.Email))
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("failed to find user: %w", err)
	}

	user, err = s.Store(ctx, attrs)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// PurgeTrashedBefore purges every user soft-deleted before cutoff
func (s *userService) PurgeTrashedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ids, err := s.userRepo.TrashedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to find expired trashed users: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return s.Delete(ctx, ids...)
}

func (a UserAttributes) fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if a.Prefix != nil {
		fields["prefix"] = *a.Prefix
	}
	if a.FirstName != nil {
		fields["first_name"] = *a.FirstName
	}
	if a.MiddleName != nil {
		fields["middle_name"] = nullable(a.MiddleName)
	}
	if a.LastName != nil {
		fields["last_name"] = *a.LastName
	}
	if a.SuffixName != nil {
		fields["suffix_name"] = nullable(a.SuffixName)
	}
	if a.Username != nil {
		fields["username"] = *a.Username
	}
	if a.Email != nil {
		fields["email"] = *a.Email
	}
	if a.PasswordHash != nil {
		fields["password_hash"] = nullable(a.PasswordHash)
	}
	if a.Photo != nil {
		fields["photo_path"] = nullable(a.Photo)
	}
	if a.VerifiedAt != nil {
		fields["verified_at"] = *a.VerifiedAt
	}
	return fields
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nullable maps a missing or blank string to NULL
func nullable(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}

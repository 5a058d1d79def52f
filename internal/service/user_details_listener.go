package service

import (
	"context"

	"user-management-svc/internal/models"
)

// Keys of the background-information details written on every save
const (
	DetailKeyFullName      = "Full name"
	DetailKeyMiddleInitial = "Middle Initial"
	DetailKeyAvatar        = "Avatar"
	DetailKeyGender        = "Gender"
)

// DetailStore appends details to a user
type DetailStore interface {
	StoreDetails(ctx context.Context, userID uint, details []models.Detail) error
	AvatarURL(user *models.User) *string
}

// userDetailsListener records the user's computed bio fields as details
type userDetailsListener struct {
	store DetailStore
}

// NewUserDetailsListener creates the background-information listener
func NewUserDetailsListener(store DetailStore) UserSavedListener {
	return &userDetailsListener{store: store}
}

func (l *userDetailsListener) Name() string {
	return "save-user-background-information"
}

func (l *userDetailsListener) HandleUserSaved(ctx context.Context, user *models.User) error {
	return l.store.StoreDetails(ctx, user.ID, l.buildDetails(user))
}

func (l *userDetailsListener) buildDetails(user *models.User) []models.Detail {
	fullName := user.FullName()

	return []models.Detail{
		models.NewDetail(DetailKeyFullName, &fullName, models.DetailTypeBio),
		models.NewDetail(DetailKeyMiddleInitial, user.MiddleInitial(), models.DetailTypeBio),
		models.NewDetail(DetailKeyAvatar, l.store.AvatarURL(user), models.DetailTypeBio),
		models.NewDetail(DetailKeyGender, user.Gender(), models.DetailTypeBio),
	}
}

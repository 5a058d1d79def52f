package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"user-management-svc/internal/models"
)

type recordingListener struct {
	name  string
	calls *[]string
	err   error
}

func (l recordingListener) Name() string { return l.name }

func (l recordingListener) HandleUserSaved(context.Context, *models.User) error {
	*l.calls = append(*l.calls, l.name)
	return l.err
}

func TestDispatcherRunsInOrderAndStopsOnError(t *testing.T) {
	var calls []string
	d := NewEventDispatcher()
	d.Subscribe(recordingListener{name: "first", calls: &calls})
	d.Subscribe(recordingListener{name: "second", calls: &calls, err: errors.New("nope")})
	d.Subscribe(recordingListener{name: "third", calls: &calls})

	err := d.DispatchUserSaved(context.Background(), &models.User{ID: 1})
	assert.EqualError(t, err, "listener second: nope")
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcherWithoutListeners(t *testing.T) {
	assert.NoError(t, NewEventDispatcher().DispatchUserSaved(context.Background(), &models.User{}))
}

type fakeDetailStore struct {
	userID  uint
	details []models.Detail
}

func (s *fakeDetailStore) StoreDetails(_ context.Context, userID uint, details []models.Detail) error {
	s.userID = userID
	s.details = details
	return nil
}

func (s *fakeDetailStore) AvatarURL(*models.User) *string {
	return str("avatar-url")
}

func TestUserDetailsListenerBuildsBioDetails(t *testing.T) {
	store := &fakeDetailStore{}
	listener := NewUserDetailsListener(store)

	user := &models.User{ID: 9, Prefix: models.PrefixMs, FirstName: "Ann", MiddleName: str("bee"), LastName: "Cole"}
	assert.NoError(t, listener.HandleUserSaved(context.Background(), user))

	assert.Equal(t, uint(9), store.userID)
	if assert.Len(t, store.details, 4) {
		expected := []struct{ key, value string }{
			{DetailKeyFullName, "Ann B. Cole"},
			{DetailKeyMiddleInitial, "B"},
			{DetailKeyAvatar, "avatar-url"},
			{DetailKeyGender, "female"},
		}
		for i, e := range expected {
			assert.Equal(t, e.key, store.details[i].Key)
			assert.Equal(t, e.value, *store.details[i].Value)
			assert.Equal(t, models.DetailTypeBio, store.details[i].Type)
		}
	}
}

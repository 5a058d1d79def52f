package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-management-svc/internal/models"
)

func TestStoreThenFindRoundTrips(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	hash, err := f.svc.Hash("password123")
	require.NoError(t, err)

	attrs := UserAttributes{
		Prefix:       str("Mrs"),
		FirstName:    str("Jane"),
		MiddleName:   str("quincy"),
		LastName:     str("Doe"),
		SuffixName:   str("Jr"),
		Username:     str("jane"),
		Email:        str("jane@example.com"),
		PasswordHash: &hash,
		Photo:        str("123.png"),
	}

	created, err := f.svc.Store(ctx, attrs)
	require.NoError(t, err)

	found, err := f.svc.Find(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PrefixMrs, found.Prefix)
	assert.Equal(t, "Jane", found.FirstName)
	assert.Equal(t, "quincy", *found.MiddleName)
	assert.Equal(t, "Doe", found.LastName)
	assert.Equal(t, "Jr", *found.SuffixName)
	assert.Equal(t, "jane", found.Username)
	assert.Equal(t, "jane@example.com", found.Email)
	assert.Equal(t, hash, *found.PasswordHash)
	assert.Equal(t, "123.png", *found.PhotoPath)
	assert.Equal(t, "Jane Q. Doe", found.FullName())
}

func TestEverySaveAppendsFourBioDetails(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	user, err := f.svc.Store(ctx, attrsFor(1))
	require.NoError(t, err)

	details, err := f.detailRepo.FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, details, 4)

	keys := make([]string, 0, 4)
	for _, d := range details {
		assert.Equal(t, models.DetailTypeBio, d.Type)
		keys = append(keys, d.Key)
	}
	assert.ElementsMatch(t, []string{DetailKeyFullName, DetailKeyMiddleInitial, DetailKeyAvatar, DetailKeyGender}, keys)

	byKey := map[string]*string{}
	for _, d := range details {
		byKey[d.Key] = d.Value
	}
	assert.Equal(t, "John Doe1", *byKey[DetailKeyFullName])
	assert.Nil(t, byKey[DetailKeyMiddleInitial])
	assert.Equal(t, "male", *byKey[DetailKeyGender])
	assert.True(t, strings.HasPrefix(*byKey[DetailKeyAvatar], "data:image/png;base64,"))

	ok, err := f.svc.Update(ctx, user.ID, UserAttributes{MiddleName: str("Quincy")})
	require.NoError(t, err)
	assert.True(t, ok)

	details, err = f.detailRepo.FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, details, 8)

	found, err := f.svc.Find(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, found.Details, 8)
	assert.Equal(t, "John Q. Doe1", *found.Details[4].Value)
	assert.Equal(t, "Q", *found.Details[5].Value)
}

func TestUpdateChangesOnlyGivenAttributes(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	users := f.storeUsers(t, 1)

	ok, err := f.svc.Update(ctx, users[0].ID, UserAttributes{FirstName: str("Johnny"), SuffixName: str("")})
	require.NoError(t, err)
	assert.True(t, ok)

	found, err := f.svc.Find(ctx, users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Johnny", found.FirstName)
	assert.Equal(t, "john1", found.Username)
	assert.Nil(t, found.SuffixName)

	ok, err = f.svc.Update(ctx, 999, UserAttributes{FirstName: str("x")})
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.False(t, ok)
}

func TestSoftDeleteRestoreAndPurge(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	users := f.storeUsers(t, 2)
	target := users[0].ID

	_, err := f.svc.Destroy(ctx, target)
	require.NoError(t, err)

	active, total, err := f.svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, users[1].ID, active[0].ID)

	trashed, total, err := f.svc.ListTrashed(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, target, trashed[0].ID)

	found, err := f.svc.Find(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusTrashed, found.Status())

	restored, err := f.svc.Restore(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, int64(1), restored)
	_, total, err = f.svc.ListTrashed(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, total)

	purged, err := f.svc.Delete(ctx, target)
	require.NoError(t, err)
	assert.Zero(t, purged, "active users are never purged")
	_, err = f.svc.Find(ctx, target)
	require.NoError(t, err)

	_, err = f.svc.Destroy(ctx, target)
	require.NoError(t, err)
	purged, err = f.svc.Delete(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = f.svc.Find(ctx, target)
	assert.ErrorIs(t, err, ErrUserNotFound)
	details, err := f.detailRepo.FindByUserID(ctx, target)
	require.NoError(t, err)
	assert.Empty(t, details)
}

func TestListPagesByTen(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	users := f.storeUsers(t, 25)

	page, total, err := f.svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, page, PerPage)
	assert.Equal(t, int64(25), total)

	page, _, err = f.svc.List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, users[0].ID, page[0].ID)

	ids := make([]uint, 0, 12)
	for _, u := range users[:12] {
		ids = append(ids, u.ID)
	}
	_, err = f.svc.Destroy(ctx, ids...)
	require.NoError(t, err)

	page, total, err = f.svc.ListTrashed(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, page, PerPage)
	assert.Equal(t, int64(12), total)

	page, _, err = f.svc.ListTrashed(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestUpload(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	before := time.Now().UnixNano()
	name := f.svc.Upload(ctx, fileHeader(t, "me.PNG", pngBytes))
	require.NotEmpty(t, name)
	assert.True(t, strings.HasSuffix(name, ".png"))

	content, err := os.ReadFile(filepath.Join(f.storeDir, AvatarDir, name))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, content)

	stamp, err := strconv.ParseInt(strings.TrimSuffix(name, ".png"), 10, 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stamp, before)

	assert.Empty(t, f.svc.Upload(ctx, fileHeader(t, "notes.png", []byte("just some text"))))
	assert.Empty(t, f.svc.Upload(ctx, nil))

	name = f.svc.Upload(ctx, fileHeader(t, "evil.html", pngBytes))
	require.NotEmpty(t, name)
	assert.True(t, strings.HasSuffix(name, ".png"), "a foreign extension is replaced by the sniffed one")
}

func TestDeleteRemovesStoredPhoto(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	photo := f.svc.Upload(ctx, fileHeader(t, "me.png", pngBytes))
	require.NotEmpty(t, photo)
	attrs := attrsFor(1)
	attrs.Photo = &photo
	user, err := f.svc.Store(ctx, attrs)
	require.NoError(t, err)

	stored := filepath.Join(f.storeDir, AvatarDir, photo)
	_, err = os.Stat(stored)
	require.NoError(t, err)

	_, err = f.svc.Destroy(ctx, user.ID)
	require.NoError(t, err)
	_, err = os.Stat(stored)
	require.NoError(t, err, "trashing keeps the photo")

	purged, err := f.svc.Delete(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))
}

func TestAvatarURL(t *testing.T) {
	f := newServiceFixture(t)

	user := &models.User{}
	avatar := f.svc.AvatarURL(user)
	require.NotNil(t, avatar)
	assert.True(t, strings.HasPrefix(*avatar, "data:image/png;base64,"))

	user.PhotoPath = str("1.png")
	assert.Equal(t, "http://localhost:8080/storage/avatars/1.png", *f.svc.AvatarURL(user))
}

type failingListener struct{}

func (failingListener) Name() string { return "failing" }

func (failingListener) HandleUserSaved(context.Context, *models.User) error {
	return errors.New("boom")
}

func TestStorePropagatesListenerError(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.events.Subscribe(failingListener{})

	_, err := f.svc.Store(ctx, attrsFor(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	user, err := f.userRepo.FindByEmail(ctx, "john1@example.com")
	require.NoError(t, err, "the user stays committed")

	details, err := f.detailRepo.FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, details, 4, "listeners before the failing one still ran")
}

func TestStoreDetailsUnknownUser(t *testing.T) {
	f := newServiceFixture(t)
	err := f.svc.StoreDetails(context.Background(), 42, []models.Detail{models.NewDetail("k", nil, "")})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthenticate(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	hash, err := f.svc.Hash("password123")
	require.NoError(t, err)
	attrs := attrsFor(1)
	attrs.PasswordHash = &hash
	user, err := f.svc.Store(ctx, attrs)
	require.NoError(t, err)

	got, err := f.svc.Authenticate(ctx, "john1", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = f.svc.Authenticate(ctx, "john1@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Authenticate(ctx, "nobody", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Destroy(ctx, user.ID)
	require.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, "john1", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestEnsureDefaultUserIsIdempotent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	first, created, err := f.svc.EnsureDefaultUser(ctx, attrsFor(1))
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := f.svc.EnsureDefaultUser(ctx, attrsFor(1))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestPurgeTrashedBefore(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	users := f.storeUsers(t, 2)

	_, err := f.svc.Destroy(ctx, users[0].ID)
	require.NoError(t, err)

	purged, err := f.svc.PurgeTrashedBefore(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, purged)

	purged, err = f.svc.PurgeTrashedBefore(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, total, err := f.svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestPresent(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	attrs := attrsFor(1)
	attrs.MiddleName = str("quincy")
	user, err := f.svc.Store(ctx, attrs)
	require.NoError(t, err)

	found, err := f.svc.Find(ctx, user.ID)
	require.NoError(t, err)

	resp := f.svc.Present(found)
	assert.Equal(t, "John Q. Doe1", resp.FullName)
	assert.Equal(t, "Q", *resp.MiddleInitial)
	assert.Equal(t, "male", *resp.Gender)
	assert.Equal(t, "active", resp.Status)
	assert.Nil(t, resp.DeletedAt)
	assert.Len(t, resp.Details, 4)
	assert.Equal(t, map[string]string{"MR": "Mr", "MRS": "Mrs", "MS": "Ms"}, f.svc.Prefixes())
}

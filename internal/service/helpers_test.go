package service

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"user-management-svc/internal/models"
	"user-management-svc/internal/repository"
	"user-management-svc/internal/testutil"
	"user-management-svc/pkg/logger"
	"user-management-svc/pkg/security"
	"user-management-svc/pkg/storage"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type serviceFixture struct {
	svc        UserService
	userRepo   repository.UserRepository
	detailRepo repository.DetailRepository
	events     *EventDispatcher
	storeDir   string
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	userRepo := repository.NewUserRepository(db)
	detailRepo := repository.NewDetailRepository(db)

	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir, "http://localhost:8080/storage")
	require.NoError(t, err)

	events := NewEventDispatcher()
	svc := NewUserService(
		userRepo,
		detailRepo,
		NewRuleValidator(userRepo, security.DefaultPasswordPolicy()),
		security.NewBcryptHasher(bcrypt.MinCost),
		store,
		events,
		logger.Discard(),
	)
	events.Subscribe(NewUserDetailsListener(svc))

	return &serviceFixture{
		svc:        svc,
		userRepo:   userRepo,
		detailRepo: detailRepo,
		events:     events,
		storeDir:   dir,
	}
}

func str(s string) *string {
	return &s
}

func attrsFor(i int) UserAttributes {
	return UserAttributes{
		Prefix:    str("Mr"),
		FirstName: str("John"),
		LastName:  str(fmt.Sprintf("Doe%d", i)),
		Username:  str(fmt.Sprintf("john%d", i)),
		Email:     str(fmt.Sprintf("john%d@example.com", i)),
	}
}

func (f *serviceFixture) storeUsers(t *testing.T, n int) []*models.User {
	t.Helper()
	users := make([]*models.User, 0, n)
	for i := 1; i <= n; i++ {
		u, err := f.svc.Store(context.Background(), attrsFor(i))
		require.NoError(t, err)
		users = append(users, u)
	}
	return users
}

// fileHeader builds a multipart file header the way a parsed request form would
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("photo", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	return req.MultipartForm.File["photo"][0]
}

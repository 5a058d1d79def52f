package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePutAndURL(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://localhost:8080/storage/")
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, "avatars/1.png", strings.NewReader("png-bytes"), 9, "image/png"))

	content, err := os.ReadFile(filepath.Join(dir, "avatars", "1.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(content))

	assert.Equal(t, "http://localhost:8080/storage/avatars/1.png", store.URL("avatars/1.png"))

	require.NoError(t, store.Delete(ctx, "avatars/1.png"))
	_, err = os.Stat(filepath.Join(dir, "avatars", "1.png"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, "avatars/1.png"))
}

func TestLocalStoreStaysInsideRoot(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "public"), "http://x")
	require.NoError(t, err)

	require.NoError(t, store.Put(context.Background(), "../escape.txt", strings.NewReader("x"), 1, "text/plain"))

	_, err = os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "public", "escape.txt"))
	assert.NoError(t, err)

	assert.Error(t, store.Put(context.Background(), "", strings.NewReader("x"), 1, "text/plain"))
}

type failingReader struct {
	sent bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.sent {
		return 0, errors.New("connection reset")
	}
	r.sent = true
	return copy(p, "partial"), nil
}

func TestLocalStorePutRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir, "http://x")
	require.NoError(t, err)

	err = store.Put(context.Background(), "avatars/2.png", &failingReader{}, 100, "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	_, err = os.Stat(filepath.Join(dir, "avatars", "2.png"))
	assert.True(t, os.IsNotExist(err))
}

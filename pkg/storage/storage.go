// Package storage writes uploaded files to a public disk and resolves their URLs.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store is a public file disk
type Store interface {
	Put(ctx context.Context, name string, reader io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

// localStore keeps files under a directory served by the HTTP server
type localStore struct {
	root      string
	publicURL string
}

// NewLocalStore creates a store rooted at dir whose files are reachable under publicURL
func NewLocalStore(dir, publicURL string) (Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &localStore{
		root:      dir,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

func (s *localStore) path(name string) (string, error) {
	clean := filepath.Clean("/" + name)
	if clean == "/" {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return filepath.Join(s.root, clean), nil
}

// Put writes the reader to name, creating parent directories
func (s *localStore) Put(ctx context.Context, name string, reader io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dst, err := s.path(name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	_, copyErr := io.Copy(out, reader)
	closeErr := out.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(dst)
		if copyErr != nil {
			return fmt.Errorf("failed to save file: %w", copyErr)
		}
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	return nil
}

// Delete removes name; a missing file is not an error
func (s *localStore) Delete(ctx context.Context, name string) error {
	dst, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// URL returns the public URL for name
func (s *localStore) URL(name string) string {
	return s.publicURL + "/" + strings.TrimLeft(filepath.ToSlash(name), "/")
}

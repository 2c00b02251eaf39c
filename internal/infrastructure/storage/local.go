package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage keeps blobs on the local filesystem under root. The HTTP server
// serves root under publicPath.
type LocalStorage struct {
	root       string
	publicPath string
}

// NewLocalStorage creates the root directory if needed
func NewLocalStorage(root, publicPath string) (*LocalStorage, error) {
	if root == "" {
		root = "media"
	}
	if publicPath == "" {
		publicPath = "/media"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStorage{
		root:       abs,
		publicPath: "/" + strings.Trim(publicPath, "/"),
	}, nil
}

// Root returns the directory blobs are written to
func (s *LocalStorage) Root() string {
	return s.root
}

// PublicPath returns the URL prefix the blobs are served under
func (s *LocalStorage) PublicPath() string {
	return s.publicPath
}

// path maps a key to a file path, refusing keys that escape root
func (s *LocalStorage) path(key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	clean := path.Clean("/" + key)
	p := filepath.Join(s.root, filepath.FromSlash(clean))
	if !strings.HasPrefix(p, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return p, nil
}

// Save writes body to a temp file and renames it into place
func (s *LocalStorage) Save(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("move file: %w", err)
	}
	return nil
}

// Delete removes the file
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// URL returns the relative public URL of the blob
func (s *LocalStorage) URL(_ context.Context, key string) (string, error) {
	if _, err := s.path(key); err != nil {
		return "", err
	}
	return s.publicPath + "/" + strings.TrimLeft(key, "/"), nil
}

var _ Storage = (*LocalStorage)(nil)

// Package storage provides blob storage for ticket documents, attachments and
// asset images. Blobs are addressed by key; callers turn keys into URLs with URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/helpdesk/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrEmptyKey is returned when an operation is called without a storage key
var ErrEmptyKey = errors.New("storage key is required")

// Storage is the set of operations every backend supports
type Storage interface {
	// Save writes the blob under key, replacing any existing blob
	Save(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns where clients can fetch the blob. Local URLs are relative and
	// must be resolved against the request host.
	URL(ctx context.Context, key string) (string, error)
}

// New builds the backend selected by cfg.Driver
func New(ctx context.Context, cfg *config.StorageConfig, log *zap.Logger) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStorage(cfg.LocalPath, cfg.PublicPath)
	case "s3":
		s, err := NewS3ObjectStorage(cfg, WithLogger(log))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

// MemoryStorage keeps blobs in memory; used by tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	BaseURL string
	objects map[string][]byte

	// FailSave, when set, is returned by every Save
	FailSave error
}

// NewMemoryStorage creates an empty in-memory store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		BaseURL: "/media",
		objects: make(map[string][]byte),
	}
}

// Save stores a copy of body
func (s *MemoryStorage) Save(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if s.FailSave != nil {
		return s.FailSave
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return nil
}

// Delete drops the blob
func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// URL returns BaseURL/key
func (s *MemoryStorage) URL(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	return s.BaseURL + "/" + key, nil
}

// Exists reports whether a blob is stored under key
func (s *MemoryStorage) Exists(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}

// Open returns a reader over the stored blob
func (s *MemoryStorage) Open(key string) (io.Reader, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return bytes.NewReader(data), nil
}

// Len returns the number of stored blobs
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

var _ Storage = (*MemoryStorage)(nil)

// Package filestore uploads user documents to object storage.
package filestore

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var (
	ErrMissingBucket = errors.New("filestore: bucket required")
	ErrMissingPath   = errors.New("filestore: path required")
	ErrEmptyFile     = errors.New("filestore: empty file")
)

// Store is the file store collaborator.
type Store interface {
	// Upload writes data at bucket/path and returns the stored path.
	Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error)
}

func validateUpload(bucket, path string, data []byte) error {
	if strings.TrimSpace(bucket) == "" {
		return ErrMissingBucket
	}
	if strings.TrimSpace(path) == "" {
		return ErrMissingPath
	}
	if len(data) == 0 {
		return ErrEmptyFile
	}
	return nil
}

// Object is a file kept by MemoryStore.
type Object struct {
	ContentType string
	Data        []byte
}

// MemoryStore keeps uploads in process memory for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

func (m *MemoryStore) Upload(ctx context.Context, bucket, path, contentType string, data []byte) (string, error) {
	if err := validateUpload(bucket, path, data); err != nil {
		return "", err
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.mu.Lock()
	m.objects[bucket+"/"+path] = Object{ContentType: contentType, Data: cp}
	m.mu.Unlock()
	return path, nil
}

// Get returns a stored object.
func (m *MemoryStore) Get(bucket, path string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[bucket+"/"+path]
	return obj, ok
}

// Len reports how many objects are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

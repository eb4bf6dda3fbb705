package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/feeledger/backend/internal/domain/fee"
)

var _ fee.EvidenceStorage = (*StubEvidenceStorage)(nil)

// StubEvidenceStorage keeps proofs in memory. It applies the same
// validation as the S3 store and is meant for local development.
type StubEvidenceStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string][]byte
	policy  evidencePolicy
}

// NewStubEvidenceStorage creates a StubEvidenceStorage
func NewStubEvidenceStorage(maxSize int64, maxImageWidth int) *StubEvidenceStorage {
	return &StubEvidenceStorage{
		BaseURL: "https://storage.example.com",
		objects: make(map[string][]byte),
		policy:  evidencePolicy{maxSize: maxSize, maxImageWidth: maxImageWidth},
	}
}

// Store validates and keeps the upload
func (s *StubEvidenceStorage) Store(_ context.Context, upload fee.EvidenceUpload) (fee.Evidence, error) {
	prepared, err := s.policy.prepare(upload)
	if err != nil {
		return fee.Evidence{}, err
	}
	key := evidenceKey("evidence", upload, prepared.Extension, time.Now())

	s.mu.Lock()
	s.objects[key] = prepared.Data
	s.mu.Unlock()

	return fee.Evidence{URL: publicURL(s.BaseURL, key), StorageKey: key}, nil
}

// Delete drops a stored proof
func (s *StubEvidenceStorage) Delete(_ context.Context, storageKey string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	delete(s.objects, storageKey)
	s.mu.Unlock()
	return nil
}

// Object returns the stored bytes for key
func (s *StubEvidenceStorage) Object(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}

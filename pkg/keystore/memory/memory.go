// Package memory provides an in-memory implementation of keystore.Store
// for testing and single-process deployments. Records are lost when the
// process restarts.
package memory

import (
	"context"
	"sync"

	"github.com/rhuss/einlass/pkg/keystore"
)

// Store is an in-memory key store. One mutex serializes all mutations
// store-wide, not per record.
type Store struct {
	mu      sync.RWMutex
	hash    keystore.Hasher
	records map[string]*keystore.Record
}

// Ensure Store implements keystore.Store at compile time.
var _ keystore.Store = (*Store)(nil)

// New creates an empty in-memory store. A nil hasher falls back to
// keystore.HashSecret.
func New(hash keystore.Hasher) *Store {
	if hash == nil {
		hash = keystore.HashSecret
	}
	return &Store{
		hash:    hash,
		records: make(map[string]*keystore.Record),
	}
}

// Get retrieves a record by key id. The returned record is a copy and
// never aliases internal state.
func (s *Store) Get(_ context.Context, keyID string) (*keystore.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[keyID]
	if !ok {
		return nil, keystore.ErrNotFound
	}
	return copyRecord(rec), nil
}

// Create provisions a new key with a freshly generated secret.
func (s *Store) Create(_ context.Context, keyID string, scopes []string) (*keystore.Issued, error) {
	plaintext := keystore.NewSecret()
	hash := s.hash(plaintext)
	normalized := keystore.NormalizeScopes(scopes)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[keyID]; exists {
		return nil, keystore.ErrExists
	}

	s.records[keyID] = &keystore.Record{
		KeyID:      keyID,
		SecretHash: hash,
		Scopes:     normalized,
	}

	return &keystore.Issued{
		KeyID:           keyID,
		SecretPlaintext: plaintext,
		SecretHash:      hash,
		Scopes:          append([]string(nil), normalized...),
	}, nil
}

// Rotate replaces the secret of an existing key. Scopes are preserved and
// a previously revoked key is re-enabled.
func (s *Store) Rotate(_ context.Context, keyID string) (*keystore.Issued, error) {
	plaintext := keystore.NewSecret()
	hash := s.hash(plaintext)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[keyID]
	if !ok {
		return nil, keystore.ErrNotFound
	}

	rec.SecretHash = hash
	rec.Disabled = false

	return &keystore.Issued{
		KeyID:           keyID,
		SecretPlaintext: plaintext,
		SecretHash:      hash,
		Scopes:          append([]string(nil), rec.Scopes...),
	}, nil
}

// Revoke disables a key. Revoking an already disabled key succeeds.
func (s *Store) Revoke(_ context.Context, keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[keyID]
	if !ok {
		return keystore.ErrNotFound
	}

	rec.Disabled = true
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

func copyRecord(rec *keystore.Record) *keystore.Record {
	out := *rec
	out.Scopes = append([]string(nil), rec.Scopes...)
	return &out
}

package keystore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

// Record is a provisioned API key: an identifier, the one-way hash of its
// secret, the scopes it grants, and a disabled flag. Records are mutated
// only through Store operations and never physically deleted by them.
type Record struct {
	KeyID      string
	SecretHash string
	Scopes     []string
	Disabled   bool
}

// Issued is the result of creating or rotating a key. SecretPlaintext is
// the only place the plaintext ever appears.
type Issued struct {
	KeyID           string
	SecretPlaintext string
	SecretHash      string
	Scopes          []string
}

// Hasher converts a plaintext secret into its stored hash. It must be
// deterministic and one-way.
type Hasher func(secret string) string

// HashSecret is the default Hasher: hex-encoded SHA-256 of the plaintext.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Store is the key management contract. All mutating operations are
// serialized store-wide against concurrent writers so rotate and revoke
// cannot race the same key into a torn state.
type Store interface {
	// Get returns the record for the given key id, or ErrNotFound.
	Get(ctx context.Context, keyID string) (*Record, error)

	// Create provisions a new key with a generated secret. It fails with
	// ErrExists when the key id is already present.
	Create(ctx context.Context, keyID string, scopes []string) (*Issued, error)

	// Rotate replaces the secret of an existing key, preserving its scopes
	// and re-enabling it. It fails with ErrNotFound when absent.
	Rotate(ctx context.Context, keyID string) (*Issued, error)

	// Revoke idempotently disables a key. It fails with ErrNotFound when
	// absent. Disabling is not reversed by this API; only Rotate re-enables.
	Revoke(ctx context.Context, keyID string) error

	// Close releases backend resources.
	Close() error
}

const secretBytes = 24

// NewSecret generates a high-entropy URL-safe plaintext secret from
// crypto/rand.
func NewSecret() string {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// NormalizeScopes trims scopes, drops empty entries, and deduplicates
// while preserving first-seen order.
func NormalizeScopes(scopes []string) []string {
	ordered := make([]string, 0, len(scopes))
	seen := make(map[string]struct{}, len(scopes))
	for _, scope := range scopes {
		value := strings.TrimSpace(scope)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		ordered = append(ordered, value)
	}
	return ordered
}

package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/rhuss/einlass/pkg/api"
	"github.com/rhuss/einlass/pkg/debug"
	"github.com/rhuss/einlass/pkg/keystore"
)

// Mode selects the authentication strategy.
type Mode string

const (
	// ModeDisabled bypasses verification: every request is treated as the
	// anonymous principal with the wildcard scope.
	ModeDisabled Mode = "disabled"

	// ModeAPIKey verifies "key_id:secret" credentials against a RecordSource.
	ModeAPIKey Mode = "api_key"
)

// ScopeWildcard grants every scope regardless of issuer.
const ScopeWildcard = "*"

// Principal is an authenticated caller: the key id it presented and the
// scopes its record grants. A principal is immutable for the lifetime of
// a request.
type Principal struct {
	KeyID  string   `json:"key_id"`
	Scopes []string `json:"scopes"`
}

// HasScope reports whether the principal holds the given scope, either
// directly or through the wildcard.
func (p *Principal) HasScope(scope string) bool {
	for _, s := range p.Scopes {
		if s == ScopeWildcard || s == scope {
			return true
		}
	}
	return false
}

// RecordSource resolves a key id to its provisioned record. It is
// satisfied by keystore backends and by the StaticTable; the two are
// interchangeable behind this contract.
type RecordSource interface {
	Get(ctx context.Context, keyID string) (*keystore.Record, error)
}

// Authenticator verifies presented credentials and produces principals.
type Authenticator struct {
	mode   Mode
	source RecordSource
}

// New creates an Authenticator. ModeAPIKey requires a non-nil source.
// Any mode outside the supported set is a configuration error, surfaced
// here rather than per request.
func New(mode Mode, source RecordSource) (*Authenticator, error) {
	switch mode {
	case ModeDisabled:
		return &Authenticator{mode: mode}, nil
	case ModeAPIKey:
		if source == nil {
			return nil, fmt.Errorf("auth mode %q requires a key record source", mode)
		}
		return &Authenticator{mode: mode, source: source}, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %q", mode)
	}
}

// Mode returns the configured authentication mode.
func (a *Authenticator) Mode() Mode {
	return a.mode
}

// Authenticate verifies a raw credential string and returns the principal
// it authenticates. In ModeDisabled any credential, including none,
// yields the anonymous wildcard principal. In ModeAPIKey the credential
// must have the form "key_id:secret"; the secret may itself contain the
// delimiter, so only the first one splits.
func (a *Authenticator) Authenticate(ctx context.Context, credential string) (*Principal, error) {
	if a.mode == ModeDisabled {
		return &Principal{KeyID: "anonymous", Scopes: []string{ScopeWildcard}}, nil
	}

	if credential == "" {
		return nil, api.NewAuthError("missing API key")
	}
	if !strings.Contains(credential, ":") {
		return nil, api.NewAuthError("invalid API key format")
	}
	parts := strings.SplitN(credential, ":", 2)
	keyID, secret := parts[0], parts[1]

	// The invalid_credential error is uniform across the rejection
	// branches; the debug channel keeps the distinction for operators.
	rec, err := a.source.Get(ctx, keyID)
	if err != nil {
		if errors.Is(err, keystore.ErrNotFound) {
			debug.Log("auth", "credential rejected", "key_id", keyID, "reason", "unknown key")
			return nil, api.NewInvalidCredentialError()
		}
		return nil, api.NewServerError("key lookup failed")
	}
	if rec.Disabled {
		debug.Log("auth", "credential rejected", "key_id", keyID, "reason", "key disabled")
		return nil, api.NewInvalidCredentialError()
	}

	// Compare hash against hash so the comparison length is fixed and
	// unrelated to the presented secret.
	given := keystore.HashSecret(secret)
	if subtle.ConstantTimeCompare([]byte(given), []byte(rec.SecretHash)) != 1 {
		debug.Log("auth", "credential rejected", "key_id", keyID, "reason", "secret mismatch")
		return nil, api.NewInvalidCredentialError()
	}

	return &Principal{
		KeyID:  rec.KeyID,
		Scopes: append([]string(nil), rec.Scopes...),
	}, nil
}

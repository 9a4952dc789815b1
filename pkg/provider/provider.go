package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rhuss/einlass/pkg/api"
	"github.com/rhuss/einlass/pkg/secrets"
)

// Provider abstracts a chat inference backend.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Provider interface {
	// Name returns the backend identifier (e.g., "stub", "openai").
	Name() string

	// Chat performs one non-streaming chat completion.
	Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error)

	// Close releases backend resources (HTTP connections).
	Close() error
}

// Config holds configuration for the backend adapters.
type Config struct {
	// Backend selects the adapter: "stub" or "openai".
	Backend string

	// Model is the model identifier sent upstream and echoed in responses.
	Model string

	// BaseURL is the OpenAI-compatible API root
	// (e.g., "https://api.openai.com/v1").
	BaseURL string

	// Timeout for individual backend requests. Defaults to 30s.
	Timeout time.Duration

	// APIKeySecret names the secret holding the backend API key.
	APIKeySecret string

	// HTTPClient is an optional shared client. When set, the adapter
	// borrows it and never closes it; when nil, the adapter constructs
	// and owns its own.
	HTTPClient *http.Client
}

// New builds the configured backend adapter. The secret bundle is only
// consulted by adapters that authenticate upstream; the stub ignores it.
func New(cfg Config, secret *secrets.Bundle) (Provider, error) {
	switch cfg.Backend {
	case "stub":
		return NewStub(cfg.Model), nil
	case "openai":
		return NewOpenAI(cfg, secret), nil
	default:
		return nil, fmt.Errorf("unsupported backend: %q", cfg.Backend)
	}
}

// Package secrets resolves named secrets for backend adapters and other
// integrations. Two providers are supported: process environment lookup and
// a flat JSON file (bootstrap/dev or simple single-host deployments).
package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrNotFound is returned when a named secret cannot be resolved.
var ErrNotFound = errors.New("secret not found")

// Provider resolves a named secret to its value. Implementations must be
// safe for concurrent use.
type Provider interface {
	Get(name string) (string, error)
}

// Env resolves secrets from the process environment. An unset or empty
// variable is treated as absent.
type Env struct{}

// Get implements Provider.
func (Env) Get(name string) (string, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return value, nil
}

// File resolves secrets from a flat JSON object file. The file is re-read
// on every lookup so rotated secrets are picked up without a restart.
type File struct {
	Path string
}

// Get implements Provider.
func (f File) Get(name string) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("%w: reading secret file %s: %v", ErrNotFound, f.Path, err)
	}

	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return "", fmt.Errorf("%w: invalid JSON secret file %s: %v", ErrNotFound, f.Path, err)
	}

	raw, ok := payload[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	value, ok := raw.(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return value, nil
}

// Bundle pairs a provider with the name it was selected under, so logs and
// metadata endpoints can report which resolution strategy is active.
type Bundle struct {
	Name     string
	Provider Provider
}

// Get resolves a named secret through the bundled provider.
func (b *Bundle) Get(name string) (string, error) {
	return b.Provider.Get(name)
}

// New builds a Bundle for the given provider name. Supported names are
// "env" and "file_json"; anything else is a configuration error.
func New(name, filePath string) (*Bundle, error) {
	switch name {
	case "env":
		return &Bundle{Name: "env", Provider: Env{}}, nil
	case "file_json":
		return &Bundle{Name: "file_json", Provider: File{Path: filePath}}, nil
	default:
		return nil, fmt.Errorf("unsupported secret provider: %q", name)
	}
}

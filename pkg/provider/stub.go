package provider

import (
	"context"
	"fmt"

	"github.com/rhuss/einlass/pkg/api"
)

// Stub is a deterministic backend that echoes the prompt without any
// network dependency. It keeps local development and tests independent
// of upstream availability and credentials.
type Stub struct {
	model string
}

// Ensure Stub implements Provider at compile time.
var _ Provider = (*Stub)(nil)

// NewStub creates a stub backend answering as the given model.
func NewStub(model string) *Stub {
	return &Stub{model: model}
}

// Name implements Provider.
func (s *Stub) Name() string { return "stub" }

// Chat implements Provider. The output embeds the model and the prompt
// so callers can verify end to end what was dispatched.
func (s *Stub) Chat(_ context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	return &api.ChatResponse{
		Output:       fmt.Sprintf("[stub:%s] %s", s.model, req.Prompt),
		Model:        s.model,
		Provider:     "stub",
		FinishReason: "stop",
	}, nil
}

// Close implements Provider.
func (s *Stub) Close() error { return nil }

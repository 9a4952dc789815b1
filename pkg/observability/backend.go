package observability

import (
	"context"
	"time"

	"github.com/rhuss/einlass/pkg/api"
	"github.com/rhuss/einlass/pkg/provider"
)

// InstrumentedBackend wraps a chat backend and feeds the backend
// dispatch metrics. The model label is fixed at construction time
// because a failed dispatch carries no response to read it from.
type InstrumentedBackend struct {
	next  provider.Provider
	model string
}

// Ensure InstrumentedBackend implements Provider at compile time.
var _ provider.Provider = (*InstrumentedBackend)(nil)

// NewInstrumentedBackend wraps the given backend. The model string
// labels every observation, matching the configured backend model.
func NewInstrumentedBackend(next provider.Provider, model string) *InstrumentedBackend {
	return &InstrumentedBackend{next: next, model: model}
}

// Name implements Provider by delegation.
func (b *InstrumentedBackend) Name() string { return b.next.Name() }

// Chat dispatches to the wrapped backend and records one count and one
// latency observation per call. Errors count under status "error",
// everything else under "ok".
func (b *InstrumentedBackend) Chat(ctx context.Context, req *api.ChatRequest) (*api.ChatResponse, error) {
	start := time.Now()
	resp, err := b.next.Chat(ctx, req)
	elapsed := time.Since(start).Seconds()

	status := "ok"
	if err != nil {
		status = "error"
	}
	BackendRequestsTotal.WithLabelValues(b.next.Name(), b.model, status).Inc()
	BackendLatency.WithLabelValues(b.next.Name(), b.model).Observe(elapsed)

	return resp, err
}

// Close implements Provider by delegation.
func (b *InstrumentedBackend) Close() error { return b.next.Close() }

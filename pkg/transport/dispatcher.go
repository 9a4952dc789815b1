package transport

import (
	"context"

	"github.com/rhuss/einlass/pkg/api"
	"github.com/rhuss/einlass/pkg/pipeline"
)

// Dispatcher runs the admission chain for one chat request and returns the
// outcome together with its decision trail. The returned result must be
// non-nil even when an error is returned, so callers can render whatever
// part of the trail was established before the failure.
type Dispatcher interface {
	Dispatch(ctx context.Context, credential string, route pipeline.Route, req *api.ChatRequest) (*pipeline.Result, error)
}

// DispatcherFunc is an adapter that allows using an ordinary function
// as a Dispatcher.
type DispatcherFunc func(ctx context.Context, credential string, route pipeline.Route, req *api.ChatRequest) (*pipeline.Result, error)

// Dispatch calls f(ctx, credential, route, req).
func (f DispatcherFunc) Dispatch(ctx context.Context, credential string, route pipeline.Route, req *api.ChatRequest) (*pipeline.Result, error) {
	return f(ctx, credential, route, req)
}

var _ Dispatcher = (*pipeline.Pipeline)(nil)

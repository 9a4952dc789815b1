package transport

import (
	"context"
	"crypto/rand"

	"github.com/rhuss/einlass/pkg/api"
	"github.com/rhuss/einlass/pkg/pipeline"
)

// RequestID returns middleware that assigns a unique request ID to each
// dispatch. If the incoming context already carries a request ID (set by
// the HTTP adapter from the X-Request-ID header), that value is used.
// Otherwise, a new unique ID is generated.
//
// The request ID is stored in the context and can be retrieved with
// RequestIDFromContext.
func RequestID() Middleware {
	return func(next Dispatcher) Dispatcher {
		return DispatcherFunc(func(ctx context.Context, credential string, route pipeline.Route, req *api.ChatRequest) (*pipeline.Result, error) {
			if RequestIDFromContext(ctx) == "" {
				ctx = ContextWithRequestID(ctx, rand.Text())
			}
			return next.Dispatch(ctx, credential, route, req)
		})
	}
}

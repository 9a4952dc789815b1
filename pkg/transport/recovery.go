package transport

import (
	"context"
	"fmt"

	"github.com/rhuss/einlass/pkg/api"
	"github.com/rhuss/einlass/pkg/pipeline"
)

// Recovery returns middleware that catches panics in the dispatcher and
// converts them to server error responses. The server continues to
// accept new requests after a panic is recovered. A recovered dispatch
// still yields a non-nil result, honoring the Dispatcher contract.
func Recovery() Middleware {
	return func(next Dispatcher) Dispatcher {
		return DispatcherFunc(func(ctx context.Context, credential string, route pipeline.Route, req *api.ChatRequest) (result *pipeline.Result, retErr error) {
			defer func() {
				if r := recover(); r != nil {
					if result == nil {
						result = &pipeline.Result{}
					}
					retErr = api.NewServerError(fmt.Sprintf("internal server error: %v", r))
				}
			}()
			return next.Dispatch(ctx, credential, route, req)
		})
	}
}

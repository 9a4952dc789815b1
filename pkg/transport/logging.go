package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/rhuss/einlass/pkg/api"
	"github.com/rhuss/einlass/pkg/pipeline"
)

// Logging returns middleware that emits structured log entries for each
// dispatch. The log entry includes the route key, duration, request ID
// (from context), the authenticated key id once established, and whether
// the dispatch succeeded or failed.
//
// Note: The HTTP method and status code are not available at the
// Dispatcher level. For HTTP-level metrics, the adapter wraps its mux
// with the observability middleware.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Dispatcher) Dispatcher {
		return DispatcherFunc(func(ctx context.Context, credential string, route pipeline.Route, req *api.ChatRequest) (*pipeline.Result, error) {
			start := time.Now()
			requestID := RequestIDFromContext(ctx)

			result, err := next.Dispatch(ctx, credential, route, req)

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("route", route.Key),
				slog.Duration("duration", time.Since(start)),
			}
			if result != nil && result.Principal != nil {
				attrs = append(attrs, slog.String("key_id", result.Principal.KeyID))
			}

			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "request failed", attrs...)
			} else {
				logger.LogAttrs(ctx, slog.LevelInfo, "request completed", attrs...)
			}

			return result, err
		})
	}
}

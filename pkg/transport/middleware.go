package transport

import "context"

// Middleware wraps a Dispatcher with cross-cutting behavior. The first
// middleware in a chain sits outermost: it runs first on the way in and
// last on the way out.
type Middleware func(Dispatcher) Dispatcher

// Chain folds several middleware into one. Chain(a, b, c) wraps a
// dispatcher as a(b(c(dispatcher))).
func Chain(middlewares ...Middleware) Middleware {
	return func(next Dispatcher) Dispatcher {
		wrapped := next
		for i := len(middlewares) - 1; i >= 0; i-- {
			wrapped = middlewares[i](wrapped)
		}
		return wrapped
	}
}

// requestIDKeyType is the context key type for request IDs.
type requestIDKeyType struct{}

// requestIDKey is the context key for storing and retrieving request IDs.
var requestIDKey = requestIDKeyType{}

// RequestIDFromContext extracts the request ID from the context.
// Returns an empty string if no request ID is set.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithRequestID returns a new context with the given request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

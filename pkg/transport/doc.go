// Package transport defines the dispatch contract and middleware chain for
// the einlass HTTP boundary.
//
// The transport layer bridges external clients and the admission pipeline.
// It deserializes incoming requests into the types defined in pkg/api,
// dispatches them through the pipeline, and serializes the outcome back to
// the client: the success envelope for admitted requests, or a classified
// JSON error for rejected ones.
//
// # Dispatch Contract
//
// The Dispatcher interface is the contract between the transport layer and
// the admission pipeline. The HTTP adapter extracts the credential and the
// request body, hands both to the dispatcher, and renders the returned
// result. The decision trail (principal, rate-limit decision, duration)
// travels inside the result so the adapter can emit rate-limit headers and
// the envelope without re-deriving anything.
//
// # Error Mapping
//
// Every error type in the pkg/api taxonomy maps to exactly one HTTP status
// code; HTTPStatusFromError is the single place that mapping lives. Core
// packages never choose status codes.
//
// # Middleware
//
// The middleware chain wraps Dispatcher with cross-cutting concerns.
// Built-in middleware provides panic recovery, request ID assignment
// (X-Request-ID), and structured logging via log/slog. Custom middleware
// can be added for application-specific concerns.
package transport

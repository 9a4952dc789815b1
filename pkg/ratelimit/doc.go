// Package ratelimit provides per-identity request rate limiting over
// 60-second fixed windows.
//
// Three implementations share one decision contract: Noop (always allow),
// Memory (in-process fixed window, single instance only), and Redis
// (distributed fixed window whose increment-and-expire cycle runs as one
// atomic server-side script). Enforce converts a limiter outcome into the
// classified errors the pipeline propagates: a denial becomes a
// rate-limited error carrying limit and retry delay, and any limiter
// fault becomes a limiter-unavailable error. A broken limiter fails
// closed.
package ratelimit

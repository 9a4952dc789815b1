// Package pipeline orchestrates admission control and backend dispatch:
// authenticate, authorize against the route's scopes, charge the
// rate-limit bucket, then call the backend adapter. The first failing
// stage short-circuits the rest; every outcome carries the decision
// trail so the transport can render headers, envelopes, and
// observability events from one result.
package pipeline

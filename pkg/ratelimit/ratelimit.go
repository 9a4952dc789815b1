package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/rhuss/einlass/pkg/api"
	"github.com/rhuss/einlass/pkg/auth"
)

// windowSeconds is the fixed rate-limit window length.
const windowSeconds = 60

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed    bool
	Key        string
	Limit      int
	Count      int
	Remaining  int
	ResetEpoch int64
}

// Limiter checks whether a request from the given principal may proceed
// on the given route. Implementations must be safe for concurrent use.
type Limiter interface {
	Check(ctx context.Context, principal *auth.Principal, routeKey string) (Decision, error)
}

// Noop always allows. Used when rate limiting is off.
type Noop struct{}

// Ensure Noop implements Limiter at compile time.
var _ Limiter = Noop{}

// Check implements Limiter.
func (Noop) Check(_ context.Context, principal *auth.Principal, routeKey string) (Decision, error) {
	now := time.Now().Unix()
	return Decision{
		Allowed:    true,
		Key:        principal.KeyID + ":" + routeKey,
		Limit:      999999,
		Count:      0,
		Remaining:  999999,
		ResetEpoch: now + windowSeconds,
	}, nil
}

// Enforce runs a rate-limit check and converts the outcome into the
// pipeline's classified errors. A limiter fault yields a
// limiter-unavailable error, never a rate-limited one; a denial yields a
// rate-limited error carrying the limit and the seconds until the window
// resets. The decision is returned in both cases so the transport can
// render rate-limit headers.
func Enforce(ctx context.Context, limiter Limiter, principal *auth.Principal, routeKey string) (Decision, error) {
	decision, err := limiter.Check(ctx, principal, routeKey)
	if err != nil {
		return Decision{}, api.NewLimiterUnavailableError(fmt.Sprintf("rate limiter unavailable: %v", err))
	}
	if !decision.Allowed {
		retryAfter := int(decision.ResetEpoch - time.Now().Unix())
		if retryAfter < 0 {
			retryAfter = 0
		}
		return decision, api.NewRateLimitedError(decision.Limit, retryAfter)
	}
	return decision, nil
}

// Config selects and parameterizes a limiter implementation.
type Config struct {
	// Mode is one of "noop", "memory", or "redis".
	Mode string

	// RPM is the number of requests allowed per window.
	RPM int

	// RedisURL is the connection URL for the redis mode
	// (e.g., "redis://localhost:6379/0").
	RedisURL string

	// RedisPrefix namespaces bucket keys in the shared store.
	RedisPrefix string
}

// New builds the configured limiter. An unsupported mode is a
// configuration error, surfaced here rather than per request.
func New(cfg Config) (Limiter, error) {
	switch cfg.Mode {
	case "noop":
		return Noop{}, nil
	case "memory":
		return NewMemory(cfg.RPM), nil
	case "redis":
		return NewRedisFromURL(cfg.RedisURL, cfg.RedisPrefix, cfg.RPM)
	default:
		return nil, fmt.Errorf("unsupported rate limit mode: %q", cfg.Mode)
	}
}

package pipeline

import (
	"context"
	"time"

	"github.com/rhuss/einlass/pkg/api"
	"github.com/rhuss/einlass/pkg/auth"
	"github.com/rhuss/einlass/pkg/provider"
	"github.com/rhuss/einlass/pkg/ratelimit"
)

// Route identifies a protected operation: the bucket segment used for
// rate limiting and the scopes a principal must hold to reach it.
type Route struct {
	Key    string
	Scopes []string
}

// ChatRoute is the admission route for chat dispatch.
var ChatRoute = Route{Key: "platform:chat", Scopes: []string{"platform:chat"}}

// Result carries the outcome of one dispatch together with its decision
// trail. Principal and Decision are filled in as stages complete, so a
// failed dispatch still reports what was decided before the failure.
type Result struct {
	Principal *auth.Principal
	Decision  ratelimit.Decision
	Response  *api.ChatResponse
	Duration  time.Duration
}

// Pipeline runs admission control and dispatches admitted requests to
// the backend. All stages are wired once at construction; per-request
// state lives in the Result.
type Pipeline struct {
	authn   *auth.Authenticator
	limiter ratelimit.Limiter
	backend provider.Provider
}

// New creates a pipeline over the given stages.
func New(authn *auth.Authenticator, limiter ratelimit.Limiter, backend provider.Provider) *Pipeline {
	return &Pipeline{
		authn:   authn,
		limiter: limiter,
		backend: backend,
	}
}

// Dispatch runs the admission chain for one request and, when admitted,
// forwards it to the backend. The returned result is never nil; its
// duration spans from entry to the failing stage or to adapter
// completion.
func (p *Pipeline) Dispatch(ctx context.Context, credential string, route Route, req *api.ChatRequest) (*Result, error) {
	start := time.Now()
	result := &Result{}
	defer func() {
		result.Duration = time.Since(start)
	}()

	principal, err := p.authn.Authenticate(ctx, credential)
	if err != nil {
		return result, err
	}
	result.Principal = principal
	ctx = auth.SetPrincipal(ctx, principal)

	if err := auth.Require(principal, route.Scopes...); err != nil {
		return result, err
	}

	decision, err := ratelimit.Enforce(ctx, p.limiter, principal, route.Key)
	result.Decision = decision
	if err != nil {
		return result, err
	}

	resp, err := p.backend.Chat(ctx, req)
	if err != nil {
		return result, err
	}
	result.Response = resp

	return result, nil
}

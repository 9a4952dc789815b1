package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/rhuss/einlass/pkg/auth"
)

// Memory is an in-process fixed-window limiter keyed by principal and
// route. It is not safe across multiple processes; use the redis limiter
// for multi-instance deployments.
type Memory struct {
	rpm int
	now func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
}

type bucket struct {
	window int64
	count  int
}

// Ensure Memory implements Limiter at compile time.
var _ Limiter = (*Memory)(nil)

// NewMemory creates an in-process limiter allowing rpm requests per
// window. Values below 1 are clamped to 1.
func NewMemory(rpm int) *Memory {
	if rpm < 1 {
		rpm = 1
	}
	return &Memory{
		rpm:     rpm,
		now:     time.Now,
		buckets: make(map[string]*bucket),
	}
}

// Check increments the caller's bucket for the current window and
// reports whether the count is within the limit. A bucket left over from
// an earlier window resets to zero before the increment. The mutex gives
// concurrent increments on the same key a total order.
func (m *Memory) Check(_ context.Context, principal *auth.Principal, routeKey string) (Decision, error) {
	now := m.now().Unix()
	window := now / windowSeconds
	key := principal.KeyID + ":" + routeKey

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.buckets[key]
	if !ok || b.window != window {
		b = &bucket{window: window}
		m.buckets[key] = b
	}
	b.count++

	return Decision{
		Allowed:    b.count <= m.rpm,
		Key:        key,
		Limit:      m.rpm,
		Count:      b.count,
		Remaining:  max(0, m.rpm-b.count),
		ResetEpoch: (window + 1) * windowSeconds,
	}, nil
}

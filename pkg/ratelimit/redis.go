package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rhuss/einlass/pkg/auth"
	"github.com/rhuss/einlass/pkg/debug"
)

// windowMillis is the bucket expiry passed to the window script.
const windowMillis = windowSeconds * 1000

// windowScript increments the caller's bucket and returns {count, pttl}.
// The increment and the expire of a fresh key run inside one script so no
// bucket can ever be incremented without an expiry attached. A negative
// PTTL means the key lost its expiry (clock or storage anomaly); the
// script re-arms it with the full window rather than leaving the bucket
// permanent.
const windowScript = `
local current = redis.call('INCR', KEYS[1])
if current == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  ttl = ARGV[1]
  redis.call('PEXPIRE', KEYS[1], ttl)
end
return {current, ttl}
`

// Scripter is the slice of the redis client the limiter needs. It is
// satisfied by *redis.Client and by test fakes.
type Scripter interface {
	ScriptLoad(ctx context.Context, script string) *redis.StringCmd
	EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd
}

// Redis is a distributed fixed-window limiter over a shared redis store.
// It holds no local lock; the atomicity of the window script is the
// mutual exclusion.
type Redis struct {
	client Scripter
	owned  *redis.Client
	prefix string
	rpm    int
	now    func() time.Time

	mu  sync.Mutex
	sha string
}

// Ensure Redis implements Limiter at compile time.
var _ Limiter = (*Redis)(nil)

// NewRedis creates a limiter over an injected script runner. The caller
// retains ownership of the client; Close does not release it.
func NewRedis(client Scripter, prefix string, rpm int) *Redis {
	if rpm < 1 {
		rpm = 1
	}
	return &Redis{
		client: client,
		prefix: prefix,
		rpm:    rpm,
		now:    time.Now,
	}
}

// NewRedisFromURL creates a limiter that owns its own client, connected
// per the given URL (e.g., "redis://localhost:6379/0"). Close releases
// the client. Connectivity is not probed here: an unreachable store
// surfaces per check as a limiter fault.
func NewRedisFromURL(url, prefix string, rpm int) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)
	r := NewRedis(client, prefix, rpm)
	r.owned = client
	return r, nil
}

// BucketKey returns the bucket for the given identity and route within
// the window containing the given unix time.
func BucketKey(prefix, routeKey, keyID string, now int64) string {
	window := now / windowSeconds
	return prefix + ":" + routeKey + ":" + keyID + ":" + strconv.FormatInt(window, 10)
}

// Check runs the window script for the caller's current bucket.
func (r *Redis) Check(ctx context.Context, principal *auth.Principal, routeKey string) (Decision, error) {
	now := r.now()
	key := BucketKey(r.prefix, routeKey, principal.KeyID, now.Unix())

	count, pttl, err := r.evalWindow(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	debug.Trace("ratelimit", "window evaluated", "key", key, "count", count, "limit", r.rpm, "pttl_ms", pttl)

	if pttl < 1 {
		pttl = 1
	}
	return Decision{
		Allowed:    count <= r.rpm,
		Key:        key,
		Limit:      r.rpm,
		Count:      count,
		Remaining:  max(0, r.rpm-count),
		ResetEpoch: now.Add(time.Duration(pttl) * time.Millisecond).Unix(),
	}, nil
}

// Close releases the redis client when this limiter owns it. Injected
// clients are borrowed and left open.
func (r *Redis) Close() error {
	if r.owned != nil {
		return r.owned.Close()
	}
	return nil
}

// evalWindow runs the cached script against one bucket key. When the
// store reports the script as unknown (cache flushed by a restart or
// failover) it is reloaded once and the call retried; any other failure
// propagates as a limiter fault.
func (r *Redis) evalWindow(ctx context.Context, key string) (int, int64, error) {
	sha, err := r.loadScript(ctx, false)
	if err != nil {
		return 0, 0, err
	}

	raw, err := r.client.EvalSha(ctx, sha, []string{key}, windowMillis).Result()
	if err != nil && redis.HasErrorPrefix(err, "NOSCRIPT") {
		sha, err = r.loadScript(ctx, true)
		if err != nil {
			return 0, 0, err
		}
		raw, err = r.client.EvalSha(ctx, sha, []string{key}, windowMillis).Result()
	}
	if err != nil {
		return 0, 0, fmt.Errorf("rate limit script: %w", err)
	}

	return parseScriptReply(raw)
}

func (r *Redis) loadScript(ctx context.Context, force bool) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sha != "" && !force {
		return r.sha, nil
	}
	sha, err := r.client.ScriptLoad(ctx, windowScript).Result()
	if err != nil {
		return "", fmt.Errorf("loading rate limit script: %w", err)
	}
	r.sha = sha
	return sha, nil
}

func parseScriptReply(raw interface{}) (int, int64, error) {
	reply, ok := raw.([]interface{})
	if !ok || len(reply) < 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit script reply: %v", raw)
	}
	count, ok := reply[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected count in script reply: %v", reply[0])
	}
	pttl, ok := reply[1].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("unexpected ttl in script reply: %v", reply[1])
	}
	if pttl < 0 {
		pttl = windowMillis
	}
	return int(count), pttl, nil
}

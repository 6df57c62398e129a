package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/careercompass/auth-service/internal/domain"
)

// fixed-window counter: first INCR in a window sets the expiry atomically.
var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RateLimiter enforces fixed-window limits keyed by caller-chosen scopes,
// e.g. "login:<email>|<ip>" or "verify:<uid>".
type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Allow consumes one attempt under the key. When Redis is down the limiter
// fails open; blocking every login on a cache outage is worse than letting
// the window slip.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	res, err := rateLimitScript.Run(ctx, rl.client, []string{"rl:" + key}, window.Milliseconds()).Slice()
	if err != nil {
		return Decision{Allowed: true, Remaining: limit}, nil
	}
	if len(res) != 2 {
		return Decision{Allowed: true, Remaining: limit}, nil
	}

	current, _ := res[0].(int64)
	ttlMillis, _ := res[1].(int64)

	d := Decision{
		Allowed:    current <= int64(limit),
		Remaining:  max(limit-int(current), 0),
		RetryAfter: time.Duration(ttlMillis) * time.Millisecond,
	}
	return d, nil
}

// Check wraps Allow into the domain error used by handlers.
func (rl *RateLimiter) Check(ctx context.Context, scope, key string, limit int, window time.Duration) error {
	d, err := rl.Allow(ctx, scope+":"+key, limit, window)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return domain.ErrRateLimited(scope, d.RetryAfter)
	}
	return nil
}

package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces throttle keys in a shared database.
const DefaultRedisPrefix = "gatekeeper:throttle:"

var failScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// Redis shares failure counters between replicas.
type Redis struct {
	client redis.UniversalClient
	cfg    Config
	prefix string
}

func NewRedis(client redis.UniversalClient, cfg Config) (*Redis, error) {
	if client == nil {
		return nil, errors.New("throttle: redis client is required")
	}
	return &Redis{client: client, cfg: cfg.withDefaults(), prefix: DefaultRedisPrefix}, nil
}

func (r *Redis) Check(ctx context.Context, key string) (Decision, error) {
	if r.cfg.MaxAttempts <= 0 {
		return Decision{}, nil
	}

	var (
		count *redis.StringCmd
		ttl   *redis.DurationCmd
	)
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		count = p.Get(ctx, r.prefix+key)
		ttl = p.PTTL(ctx, r.prefix+key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return Decision{}, fmt.Errorf("throttle: check: %w", err)
	}

	failures, err := count.Int()
	if errors.Is(err, redis.Nil) {
		return Decision{}, nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("throttle: check: %w", err)
	}
	return r.decide(failures, ttl.Val()), nil
}

func (r *Redis) Fail(ctx context.Context, key string) (Decision, error) {
	if r.cfg.MaxAttempts <= 0 {
		return Decision{}, nil
	}

	res, err := failScript.Run(ctx, r.client, []string{r.prefix + key}, r.cfg.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("throttle: fail: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, errors.New("throttle: unexpected redis response")
	}
	return r.decide(int(res[0]), time.Duration(res[1])*time.Millisecond), nil
}

func (r *Redis) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("throttle: reset: %w", err)
	}
	return nil
}

func (r *Redis) decide(failures int, ttl time.Duration) Decision {
	d := Decision{Failures: failures}
	if failures >= r.cfg.MaxAttempts {
		d.Locked = true
		d.RetryAfter = max(ttl, 0)
	}
	return d
}

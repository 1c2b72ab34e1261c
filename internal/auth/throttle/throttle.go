// Package throttle counts failed logins per identifier and locks the
// identifier out once a fixed window holds too many failures.
package throttle

import (
	"context"
	"strings"
	"time"
)

const (
	DefaultMaxAttempts = 5
	DefaultWindow      = 15 * time.Minute
)

// Config bounds failures: at most MaxAttempts within Window. A
// non-positive MaxAttempts disables throttling.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

func (c Config) withDefaults() Config {
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}

// Decision is the state of one identifier after a check or a failure.
type Decision struct {
	Locked     bool
	Failures   int
	RetryAfter time.Duration
}

// Throttle tracks login failures. Implementations must be safe for
// concurrent use.
type Throttle interface {
	// Check reports whether key is currently locked without counting.
	Check(ctx context.Context, key string) (Decision, error)
	// Fail records one failed attempt for key.
	Fail(ctx context.Context, key string) (Decision, error)
	// Reset forgets all failures for key.
	Reset(ctx context.Context, key string) error
}

// Key derives the throttle key for a login identifier. Identifiers differing
// only by case or surrounding whitespace share one counter.
func Key(identifier string) string {
	return "login:" + strings.ToLower(strings.TrimSpace(identifier))
}

// Nop never locks anything.
type Nop struct{}

func (Nop) Check(context.Context, string) (Decision, error) { return Decision{}, nil }
func (Nop) Fail(context.Context, string) (Decision, error)  { return Decision{}, nil }
func (Nop) Reset(context.Context, string) error             { return nil }

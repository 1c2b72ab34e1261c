package throttle

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCapacity is returned when the in-memory table is full of live windows.
var ErrCapacity = errors.New("throttle: capacity exceeded")

const defaultMaxKeys = 100_000

type memoryWindow struct {
	failures int
	resetAt  time.Time
}

// Memory is a single-process fixed-window throttle.
type Memory struct {
	cfg     Config
	now     func() time.Time
	maxKeys int

	mu      sync.Mutex
	windows map[string]*memoryWindow
}

// MemoryOption customises a Memory throttle.
type MemoryOption func(*Memory)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *Memory) { m.now = now }
}

// WithMaxKeys caps the number of tracked identifiers.
func WithMaxKeys(n int) MemoryOption {
	return func(m *Memory) {
		if n > 0 {
			m.maxKeys = n
		}
	}
}

func NewMemory(cfg Config, opts ...MemoryOption) *Memory {
	m := &Memory{
		cfg:     cfg.withDefaults(),
		now:     time.Now,
		maxKeys: defaultMaxKeys,
		windows: make(map[string]*memoryWindow),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Check(_ context.Context, key string) (Decision, error) {
	if m.cfg.MaxAttempts <= 0 {
		return Decision{}, nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.live(key, now)
	if w == nil {
		return Decision{}, nil
	}
	return m.decide(w, now), nil
}

func (m *Memory) Fail(_ context.Context, key string) (Decision, error) {
	if m.cfg.MaxAttempts <= 0 {
		return Decision{}, nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.live(key, now)
	if w == nil {
		if len(m.windows) >= m.maxKeys {
			m.gc(now)
		}
		if len(m.windows) >= m.maxKeys {
			return Decision{}, ErrCapacity
		}
		w = &memoryWindow{resetAt: now.Add(m.cfg.Window)}
		m.windows[key] = w
	}
	w.failures++
	return m.decide(w, now), nil
}

func (m *Memory) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.windows, key)
	m.mu.Unlock()
	return nil
}

// live returns the window for key, dropping it if it has elapsed.
func (m *Memory) live(key string, now time.Time) *memoryWindow {
	w, ok := m.windows[key]
	if !ok {
		return nil
	}
	if !now.Before(w.resetAt) {
		delete(m.windows, key)
		return nil
	}
	return w
}

func (m *Memory) decide(w *memoryWindow, now time.Time) Decision {
	d := Decision{Failures: w.failures}
	if w.failures >= m.cfg.MaxAttempts {
		d.Locked = true
		d.RetryAfter = w.resetAt.Sub(now)
	}
	return d
}

func (m *Memory) gc(now time.Time) {
	for key, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, key)
		}
	}
}

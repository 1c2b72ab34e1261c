package httpx

import (
	"fmt"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// PathMatcher matches request paths against a static allow-list of glob
// patterns. '*' stays within one path segment, '**' spans segments, and a
// trailing "/**" also matches the bare prefix.
type PathMatcher struct {
	patterns []string
	globs    []glob.Glob
}

// NewPathMatcher compiles patterns. Blank entries are ignored; every other
// pattern must be absolute.
func NewPathMatcher(patterns ...string) (*PathMatcher, error) {
	m := &PathMatcher{}

	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			return nil, fmt.Errorf("httpx: public path %q must start with /", p)
		}

		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("httpx: compile public path %q: %w", p, err)
		}
		m.patterns = append(m.patterns, p)
		m.globs = append(m.globs, g)

		if prefix, ok := strings.CutSuffix(p, "/**"); ok && prefix != "" {
			bare, err := glob.Compile(prefix, '/')
			if err != nil {
				return nil, fmt.Errorf("httpx: compile public path %q: %w", p, err)
			}
			m.globs = append(m.globs, bare)
		}
	}

	return m, nil
}

// MustPathMatcher is NewPathMatcher for hard-coded pattern lists.
func MustPathMatcher(patterns ...string) *PathMatcher {
	m, err := NewPathMatcher(patterns...)
	if err != nil {
		panic(err)
	}
	return m
}

// Match reports whether the cleaned form of p is on the allow-list. A nil
// matcher matches nothing.
func (m *PathMatcher) Match(p string) bool {
	if m == nil || p == "" {
		return false
	}

	p = path.Clean("/" + p)
	for _, g := range m.globs {
		if g.Match(p) {
			return true
		}
	}
	return false
}

func (m *PathMatcher) Patterns() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.patterns...)
}

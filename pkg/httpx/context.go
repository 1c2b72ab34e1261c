package httpx

import (
	"context"
	"slices"
)

type ctxKey string

const ctxKeySecurity ctxKey = "security_context"

// SecurityContext records whether, and as whom, a request is authenticated.
// The zero value is the unauthenticated context.
type SecurityContext struct {
	Authenticated bool
	Subject       string
	PrincipalID   string
	Authorities   []string
}

// HasAuthority reports whether the context is authenticated and holds a.
func (s SecurityContext) HasAuthority(a string) bool {
	return s.Authenticated && slices.Contains(s.Authorities, a)
}

// WithSecurityContext stores a private copy of sc in ctx.
func WithSecurityContext(ctx context.Context, sc SecurityContext) context.Context {
	sc.Authorities = slices.Clone(sc.Authorities)
	return context.WithValue(ctx, ctxKeySecurity, sc)
}

// SecurityContextFrom returns the request's security context, or the
// unauthenticated one if none was established. Callers get their own copy of
// the authorities.
func SecurityContextFrom(ctx context.Context) SecurityContext {
	sc, ok := ctx.Value(ctxKeySecurity).(SecurityContext)
	if !ok {
		return SecurityContext{}
	}
	sc.Authorities = slices.Clone(sc.Authorities)
	return sc
}

package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithPrincipal tags the request logger with the authenticated principal so
// every later log line for the request carries it.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return WithContext(ctx, FromContext(ctx).With("principal", principal))
}

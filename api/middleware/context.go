package middleware

import (
	"context"

	"github.com/aurevo/storefront/internal/sessions"
)

type contextKey string

const ctxSession contextKey = "session"

// SessionFromContext returns the shopper session bound by the Session middleware.
func SessionFromContext(ctx context.Context) *sessions.Handle {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxSession).(*sessions.Handle); ok {
		return v
	}
	return nil
}

// WithSession injects the shopper session into the context.
func WithSession(ctx context.Context, handle *sessions.Handle) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, handle)
}

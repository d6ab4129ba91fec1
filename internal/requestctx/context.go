// Package requestctx carries request-scoped values (request id, session) through context.
package requestctx

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

type contextKey string

const (
	requestIDKey contextKey = "storefront/requestctx/request_id"
	sessionKey   contextKey = "storefront/requestctx/session"
)

// HeaderRequestID is propagated to upstream APIs.
const HeaderRequestID = "X-Request-ID"

// WithRequestID stores the request id on the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the request id, or "" when absent.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithSession stores the authenticated session on the context.
func WithSession(ctx context.Context, session *models.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionKey, session)
}

// Session returns the authenticated session when present.
func Session(ctx context.Context) (*models.Session, bool) {
	if ctx == nil {
		return nil, false
	}
	s, ok := ctx.Value(sessionKey).(*models.Session)
	return s, ok && s != nil
}

// UpstreamToken returns the upstream bearer token of the session, or "".
func UpstreamToken(ctx context.Context) string {
	if s, ok := Session(ctx); ok {
		return s.UpstreamToken
	}
	return ""
}

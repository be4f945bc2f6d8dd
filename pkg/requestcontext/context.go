// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Values are set by middleware and consumed by
// services; keeping this package free of net/http lets services import only
// what they need.
package requestcontext

import (
	"context"
	"time"

	id "intake/pkg/domain"
)

// Context key types (unexported for encapsulation).
type (
	applicationIDKey struct{}
	requestIDKey     struct{}
	requestTimeKey   struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyApplicationID = applicationIDKey{}
	ContextKeyRequestID     = requestIDKey{}
	ContextKeyRequestTime   = requestTimeKey{}
)

// ApplicationID retrieves the application the request operates on.
// Returns the zero value (nil UUID) if not set.
func ApplicationID(ctx context.Context) id.ApplicationID {
	if appID, ok := ctx.Value(ContextKeyApplicationID).(id.ApplicationID); ok {
		return appID
	}
	return id.ApplicationID{}
}

// WithApplicationID injects an application ID into the context.
func WithApplicationID(ctx context.Context, appID id.ApplicationID) context.Context {
	return context.WithValue(ctx, ContextKeyApplicationID, appID)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts like workers and tests.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that don't run the full HTTP middleware chain and for workers that
// need consistent time within a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}

package api

import (
	"context"
	"time"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

type contextKey string

const authUserKey contextKey = "authUser"

// AuthUser is the authenticated identity attached to a request by the auth
// middleware. Handlers receive it explicitly through the request context
// instead of reading any global session state.
type AuthUser struct {
	ID    string
	Email string
}

// WithAuthUser returns a context carrying the authenticated user
func WithAuthUser(ctx context.Context, user AuthUser) context.Context {
	return context.WithValue(ctx, authUserKey, user)
}

// AuthUserFromContext extracts the authenticated user set by the middleware
func AuthUserFromContext(ctx context.Context) (AuthUser, bool) {
	user, ok := ctx.Value(authUserKey).(AuthUser)
	return user, ok
}

package testutil

import (
	"context"
	"net/http"

	id "apertura/pkg/domain"
	"apertura/pkg/requestcontext"
)

// WithUser adds an authenticated user ID to the request context, as the auth
// middleware would. Invalid IDs are silently ignored.
func WithUser(req *http.Request, userID string, roles ...string) *http.Request {
	parsed, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	ctx := requestcontext.WithUserID(req.Context(), parsed)
	if len(roles) > 0 {
		ctx = requestcontext.WithRoles(ctx, roles)
	}
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), key, value))
}

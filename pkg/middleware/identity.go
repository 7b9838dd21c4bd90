package middleware

import (
	"context"
	"net/http"
)

// Identity headers are populated by the auth gateway in front of these
// services; the core trusts them as already-verified (session handling is not
// reimplemented here). An absent X-User-ID means an anonymous visitor.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	RoleAdmin = "admin"
)

const (
	CallerIDKey   contextKey = "caller_id"
	CallerRoleKey contextKey = "caller_role"
)

func Identity() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID := r.Header.Get(HeaderUserID); userID != "" {
				ctx = context.WithValue(ctx, CallerIDKey, userID)
			}
			if role := r.Header.Get(HeaderUserRole); role != "" {
				ctx = context.WithValue(ctx, CallerRoleKey, role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerID returns the authenticated user id from the request context, or ""
// for anonymous visitors.
func CallerID(ctx context.Context) string {
	if v, ok := ctx.Value(CallerIDKey).(string); ok {
		return v
	}
	return ""
}

// IsAdmin reports whether the caller carries the admin role.
func IsAdmin(ctx context.Context) bool {
	v, ok := ctx.Value(CallerRoleKey).(string)
	return ok && v == RoleAdmin
}

// Package middleware provides the HTTP middleware chain: authentication,
// request logging, panic recovery, CORS, and per-IP rate limiting.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sheapwilliams/lunch/pkg/auth"
	"github.com/sheapwilliams/lunch/pkg/response"
	"github.com/sheapwilliams/lunch/pkg/session"
)

type userIDKey struct{}
type roleKey struct{}

// Authenticate resolves the current user and stores the binding in the
// request context without enforcing it. Resolution order: cookie session
// first (browser flow), then a Bearer JWT (API clients).
//
// Handlers that allow anonymous access (the menu, the confirmation
// endpoint's auth-check step) run behind Authenticate alone; protected
// routes add RequireAuth.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromCtx(r)
		if uid, ok := sess.GetUint("user_id"); ok && uid > 0 {
			role, _ := sess.GetString("role")
			next.ServeHTTP(w, withUser(r, uid, role))
			return
		}

		header := r.Header.Get("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			token := strings.TrimPrefix(header, "Bearer ")
			if claims, err := auth.ValidateToken(token); err == nil {
				next.ServeHTTP(w, withUser(r, claims.UserID, claims.Role))
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAuth rejects requests that Authenticate did not bind to a user.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromCtx(r.Context()); !ok {
			response.Unauthorized(w, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withUser(r *http.Request, userID uint, role string) *http.Request {
	ctx := context.WithValue(r.Context(), userIDKey{}, userID)
	ctx = context.WithValue(ctx, roleKey{}, role)
	return r.WithContext(ctx)
}

// WithUser injects a user binding into a request. Intended for tests.
func WithUser(r *http.Request, userID uint, role string) *http.Request {
	return withUser(r, userID, role)
}

// UserIDFromCtx returns the authenticated user's ID, if any.
func UserIDFromCtx(ctx context.Context) (uint, bool) {
	uid, ok := ctx.Value(userIDKey{}).(uint)
	return uid, ok && uid > 0
}

// RoleFromCtx returns the authenticated user's role, or "" when anonymous.
func RoleFromCtx(ctx context.Context) string {
	role, _ := ctx.Value(roleKey{}).(string)
	return role
}

package auth

import (
	"fmt"
	"net/http"
)

// Middleware wraps handlers with session resolution.
type Middleware struct {
	identity *IdentityAuth
	optional bool
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(identity *IdentityAuth, optional bool) *Middleware {
	return &Middleware{
		identity: identity,
		optional: optional,
	}
}

// Handler wraps an HTTP handler with authentication
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Allow OPTIONS requests (CORS preflight) to pass through without auth
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token := m.identity.ExtractToken(r)
		if token == "" {
			if !m.optional {
				http.Error(w, "Unauthorized: missing session token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		userCtx, err := m.identity.VerifyToken(token)
		if err != nil {
			if !m.optional {
				http.Error(w, fmt.Sprintf("Unauthorized: %v", err), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userCtx)))
	})
}

// HandlerFunc wraps an HTTP handler function with authentication
func (m *Middleware) HandlerFunc(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.Handler(next).ServeHTTP(w, r)
	}
}

// RequireAuth creates middleware that requires a valid session
func RequireAuth(identity *IdentityAuth) *Middleware {
	return NewMiddleware(identity, false)
}

// OptionalAuth creates middleware that resolves a session when present
func OptionalAuth(identity *IdentityAuth) *Middleware {
	return NewMiddleware(identity, true)
}

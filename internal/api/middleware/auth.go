package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/harper/riskhub/internal/access"
	"github.com/harper/riskhub/internal/auth"
)

type contextKey string

const accessContextKey contextKey = "access_context"

// Auth verifies the bearer credential and builds the per-request access
// context. The chain is strict: no credential or a bad credential rejects
// the request before any business logic runs; a failed membership resolution
// rejects it too rather than guessing a scope.
func Auth(jwtService *auth.JWTService, resolver *access.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ac, err := resolver.Resolve(r.Context(), access.Principal{
				ID:    claims.UserID,
				Email: claims.Email,
			})
			if err != nil {
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), accessContextKey, ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAccessContext extracts the access context set by Auth. Returns nil on
// routes that never passed through the middleware.
func GetAccessContext(ctx context.Context) *access.Context {
	if ac, ok := ctx.Value(accessContextKey).(*access.Context); ok {
		return ac
	}
	return nil
}

// GetUserID is a convenience for handlers that only need the caller's id.
func GetUserID(ctx context.Context) uuid.UUID {
	if ac := GetAccessContext(ctx); ac != nil {
		return ac.Principal.ID
	}
	return uuid.Nil
}

// RequireRole ensures the caller holds one of the given roles. Superadmin
// always passes.
func RequireRole(roles ...access.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac := GetAccessContext(r.Context())
			if ac == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			if ac.IsSuperAdmin {
				next.ServeHTTP(w, r)
				return
			}
			for _, role := range roles {
				if ac.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}

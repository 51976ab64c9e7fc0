package auth

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/dmko-sec/secdash/internal/domain"
)

// TokenValidator is implemented by whatever service embeds BaseValidator.
type TokenValidator interface {
	VerifyToken(tokenStr string) (*domain.CustomClaims, error)
}

type ctxKey int

const (
	ctxKeyUserID ctxKey = iota
	ctxKeyScopes
)

// UserID extracts the authenticated user id placed by the middleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyUserID).(string)
	return id
}

// Scopes extracts the authenticated user's scope set.
func Scopes(ctx context.Context) map[string]bool {
	s, _ := ctx.Value(ctxKeyScopes).(map[string]bool)
	return s
}

// NewMiddleware verifies the Bearer token and stores identity in the
// request context.
func NewMiddleware(v TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := v.VerifyToken(authHeader)
			if err != nil {
				logger.Warn("auth failure", zap.Error(err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserID, claims.UserID)
			ctx = context.WithValue(ctx, ctxKeyScopes, claims.Scopes)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScope gates a route group behind one scope. Admin passes
// everywhere. Must run after NewMiddleware in the chain.
func RequireScope(scope string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scopes := Scopes(r.Context())
			if !scopes[scope] && !scopes[domain.ScopeAdmin] {
				logger.Warn("scope denied",
					zap.String("user_id", UserID(r.Context())),
					zap.String("required", scope))
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"storefront/internal/policy"
)

type contextKey string

const callerKey contextKey = "caller"

// TokenValidator resolves a bearer token to a caller identity. Validation
// includes the implicit-revocation check: a token whose embedded hash claim
// no longer matches the user's stored hash is rejected.
type TokenValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*policy.Caller, error)
}

// AuthMiddleware validates bearer tokens and puts the resolved caller into
// the request context. Requests without a valid token are rejected.
func AuthMiddleware(validator TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			caller, err := validator.ValidateToken(r.Context(), parts[1])
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			logger.Debug("Caller authenticated",
				zap.String("user_id", caller.ID.String()),
				zap.Strings("roles", caller.Roles),
			)

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// OptionalAuthMiddleware resolves a caller when a valid token is present but
// lets anonymous requests through. Used on routes whose read operations are
// open to anyone.
func OptionalAuthMiddleware(validator TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				next.ServeHTTP(w, r)
				return
			}

			caller, err := validator.ValidateToken(r.Context(), parts[1])
			if err != nil {
				logger.Debug("Ignoring invalid token on open route", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}

// WithCaller returns a context carrying the caller identity.
func WithCaller(ctx context.Context, caller *policy.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// GetCaller extracts the caller identity from the request context. A nil
// caller means the request is anonymous.
func GetCaller(ctx context.Context) *policy.Caller {
	caller, _ := ctx.Value(callerKey).(*policy.Caller)
	return caller
}

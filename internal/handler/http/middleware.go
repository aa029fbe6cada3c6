package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mkuznetsov/bookstore-api/internal/auth"
)

type contextKey string

const claimsContextKey contextKey = "auth_claims"

// Authenticator verifies the bearer token, rejects revoked tokens and puts
// the parsed claims into the request context.
func Authenticator(manager *auth.Manager, revoker auth.Revoker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				respondWithError(w, http.StatusUnauthorized, "Missing or malformed authorization header")
				return
			}

			claims, err := manager.ParseToken(token)
			if err != nil {
				log.Warn().Err(err).Msg("Rejected invalid bearer token")
				respondWithError(w, http.StatusUnauthorized, "Invalid authorization token")
				return
			}

			// The revocation list degrades open: an unreadable list
			// never rejects an otherwise valid token.
			revoked, err := revoker.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				log.Warn().Err(err).Msg("Failed to check token revocation")
			} else if revoked {
				respondWithError(w, http.StatusUnauthorized, "Invalid authorization token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole guards a subtree behind a role claim. It must run after
// Authenticator.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := claimsFromContext(r.Context())
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "Missing authorization")
				return
			}
			if claims.Role != role {
				respondWithError(w, http.StatusForbidden, "You are not an "+role)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func claimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey).(*auth.Claims)
	return claims, ok
}

// ContextWithClaims is used by handler tests to inject authenticated claims.
func ContextWithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}

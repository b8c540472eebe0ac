package auth

import (
	"context"
	"net/http"
	"strings"

	logger "github.com/sirupsen/logrus"

	"portfolioapi/src/model"
	"portfolioapi/src/security"
)

// tokenLookup is the subset of the user repository the middleware needs.
type tokenLookup interface {
	FindByAPITokenHash(ctx context.Context, tokenHash string) (*model.User, error)
}

// Middleware authenticates requests with an opaque bearer token. The presented
// token is hashed with SHA-256 and matched against users.api_token_hash; on
// success the resolved user is stored in the request context under UserKey.
func Middleware(users tokenLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := users.FindByAPITokenHash(r.Context(), security.HashToken(token))
			if err != nil {
				logger.WithError(err).Error("failed to resolve API token")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			if user == nil {
				logger.Warn("request with unknown API token")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), UserKey, user)))
		})
	}
}

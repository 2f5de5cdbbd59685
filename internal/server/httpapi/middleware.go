package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/capsync/internal/common"
)

type contextKey string

const userIDKey contextKey = "userID"

// UserIDFromContext returns the authenticated user id placed by BearerAuth.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// TokenValidator checks a bearer token and returns the user id it carries.
type TokenValidator interface {
	ValidateToken(tokenString string) (string, error)
}

// BearerAuth rejects requests without a valid "Authorization: Bearer" header
// and stores the user id in the request context.
func BearerAuth(v TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get(common.AuthorizationHeaderName)
			if !strings.HasPrefix(header, common.BearerPrefix) {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			userID, err := v.ValidateToken(strings.TrimPrefix(header, common.BearerPrefix))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

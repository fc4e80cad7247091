package middleware

import (
	"context"
	"net/http"

	"storefront/internal/domain"

	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
)

// SessionReader exposes the signed-in session; auth.Session satisfies it
type SessionReader interface {
	Snapshot() domain.AuthSession
}

// RequireSession rejects requests while no user is signed in and puts the
// signed-in user id into the request context
func RequireSession(session SessionReader, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap := session.Snapshot()
			if !snap.Authenticated() {
				logger.Debug("Request without signed-in session",
					zap.String("path", r.URL.Path),
				)
				RespondWithError(w, http.StatusUnauthorized, "sign in required")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, snap.UserInfo.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts the signed-in user id from request context
func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

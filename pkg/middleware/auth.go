package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
	"github.com/utafrali/BookReviewGo/pkg/httputil"
	"github.com/utafrali/BookReviewGo/pkg/logger"
)

type contextKeyType string

const userIDKey contextKeyType = "user_id"

// TokenValidator verifies a bearer token and returns the user ID it was issued for.
type TokenValidator func(token string) (userID string, err error)

// Auth rejects requests without a valid bearer token with 401 and never
// calls next for them. On success the user ID is stored in the request
// context and attached to the request-scoped logger.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				httputil.WriteError(w, r, apperrors.Unauthorized("Not authorized, no token"), nil)
				return
			}

			userID, err := validate(token)
			if err != nil || userID == "" {
				httputil.WriteError(w, r, apperrors.Unauthorized("Not authorized, token failed"), nil)
				return
			}

			ctx := WithUserID(r.Context(), userID)
			ctx = logger.WithUserID(ctx, userID)
			ctx = logger.NewContext(ctx, logger.FromContext(ctx).With(slog.String("user_id", userID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// WithUserID returns a copy of ctx carrying the authenticated user ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user ID, or "" outside a guarded route.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

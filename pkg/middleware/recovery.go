package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
	"github.com/utafrali/BookReviewGo/pkg/httputil"
)

// Recovery turns a panicking handler into a logged 500 response.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				l.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)

				err := apperrors.Internal(fmt.Errorf("panic: %v", rec))
				// Already logged with the stack above.
				httputil.WriteJSON(w, err.Status, httputil.ErrorEnvelope{Error: httputil.ErrorResponse{
					Code:    err.Code,
					Message: err.Message,
				}})
			}()

			next.ServeHTTP(w, r)
		})
	}
}

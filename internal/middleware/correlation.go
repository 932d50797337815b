package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/google/uuid"

	pkghttp "github.com/carddemo/carddemo-api/pkg/http"
)

// CorrelationID assigns a unique identifier to every request. An incoming
// X-Correlation-ID header is ignored so clients cannot forge identifiers;
// the generated ID is stored in the request context and echoed on the
// response so clients can report it for troubleshooting.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()
		ctx := pkghttp.WithCorrelationID(r.Context(), id)
		w.Header().Set("X-Correlation-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Recoverer converts panics into a 500 error envelope. The panic value and
// stack are logged with the correlation ID; the response body only carries
// a generic message.
func Recoverer(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered",
						"panic", rec,
						"correlation_id", pkghttp.CorrelationID(r.Context()),
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)
					pkghttp.WriteInternalError(w, r)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

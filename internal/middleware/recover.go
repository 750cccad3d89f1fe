package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/novafund/novafund-api/internal/pkg/response"
	"github.com/rs/zerolog/log"
)

// Recover turns handler panics into 500 responses. A panic mid-request
// never leaks its message to the client.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("stack", string(debug.Stack())).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Msg("Panic recovered")

				response.InternalError(w)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

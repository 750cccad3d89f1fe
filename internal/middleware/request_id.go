package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestID tags each request with a unique id, honoring one supplied
// by an upstream proxy. The id is echoed in the response header and
// picked up by the request logger.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set("X-Request-ID", requestID)
		r.Header.Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r)
	})
}

package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/leapcode/leapsrp/internal/logging"
	"github.com/leapcode/leapsrp/pkg/protocol"
)

// ErrorHandler returns middleware that recovers from panics and answers with
// a LEAP errors body.
func ErrorHandler(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered", map[string]any{
						"error": err,
						"path":  r.URL.Path,
					})

					WriteAPIErrors(w, http.StatusInternalServerError, "base", "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// The status line is already out; an encoding failure cannot be reported.
	_ = json.NewEncoder(w).Encode(data)
}

// WriteAPIErrors writes {"errors": {field: message}}.
func WriteAPIErrors(w http.ResponseWriter, statusCode int, field, message string) {
	WriteJSON(w, protocol.APIErrors{Errors: map[string]string{field: message}}, statusCode)
}

// NotFound answers unknown routes with a LEAP errors body.
func NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteAPIErrors(w, http.StatusNotFound, "base", "not found")
	})
}

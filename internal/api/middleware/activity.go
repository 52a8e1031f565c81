package middleware

import "net/http"

// Activity returns middleware that calls touch before every request, e.g. to
// keep an idle timer from firing.
func Activity(touch func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			touch()
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"
	"strings"
	"time"
)

// Timeout bounds handler execution time. Paths under an exempt prefix
// bypass the deadline; the proxy subtree relies on the upstream client's
// own timeout instead so long downstream calls are not cut short.
func Timeout(timeout time.Duration, exemptPrefixes ...string) func(http.Handler) http.Handler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	message := `{"success":false,"error":{"code":"REQUEST_TIMEOUT","message":"request timed out"}}`

	return func(next http.Handler) http.Handler {
		bounded := http.TimeoutHandler(next, timeout, message)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range exemptPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}
			bounded.ServeHTTP(w, r)
		})
	}
}

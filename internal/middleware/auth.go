package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// AuthMiddleware requires every request to carry the API token, either as
// "Authorization: Bearer <token>" or as a ?token= query parameter (browsers
// cannot set headers on websocket upgrades). An empty token disables the check.
func AuthMiddleware(token string, next http.Handler) http.Handler {
	if token == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !validToken(r, token) {
			w.Header().Set("WWW-Authenticate", `Bearer realm="arucolog"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func validToken(r *http.Request, token string) bool {
	provided := r.URL.Query().Get("token")
	if auth := r.Header.Get("Authorization"); auth != "" {
		scheme, value, ok := strings.Cut(auth, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return false
		}
		provided = strings.TrimSpace(value)
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(token)) == 1
}

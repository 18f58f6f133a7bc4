package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/medexa/medexa-platform/internal/session"
)

// AccessTokenCookie is read when no Authorization header is sent.
const AccessTokenCookie = "sb-access-token"

// Session copies the caller's access token into the request context. It
// never rejects a request; handlers decide what a missing session means.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := bearerToken(r)
		if !ok {
			if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
				tok, ok = c.Value, true
			}
		}
		if ok {
			r = r.WithContext(session.WithAccessToken(r.Context(), tok))
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

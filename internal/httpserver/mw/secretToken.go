package mw

import (
	"crypto/subtle"
	"net/http"

	"github.com/MrSnakeDoc/animelist/internal/logger"
)

// SecretTokenHeader carries the secret registered with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// RequireSecretToken rejects requests whose secret header does not match.
// If secret is empty, it acts as a passthrough.
func RequireSecretToken(secret string, log logger.Logger) func(http.Handler) http.Handler {
	if secret == "" {
		log.Debug("RequireSecretToken: empty secret, passthrough mode")
		return func(next http.Handler) http.Handler { return next }
	}

	want := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(r.Header.Get(SecretTokenHeader))
			if subtle.ConstantTimeCompare(got, want) != 1 {
				log.Debugf("RequireSecretToken: bad or missing token from %s", r.RemoteAddr)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

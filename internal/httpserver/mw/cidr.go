package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/animelist/internal/logger"
	"github.com/MrSnakeDoc/animelist/internal/utils"
)

// AllowOnlyCIDRS lets through callers whose address is in allowed. An
// empty list disables the check.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	set, invalid := utils.NewPrefixSet(allowed)
	for _, v := range invalid {
		log.Warn("ignoring invalid CIDR entry", logger.String("entry", v))
	}
	if set.IsEmpty() {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !set.Contains(ip) {
				log.Debug("caller outside allowed ranges",
					logger.String("ip", ip.String()),
					logger.String("path", r.URL.Path),
					logger.Bool("trust_proxy", trustProxy))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

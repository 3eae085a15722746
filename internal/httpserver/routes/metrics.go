package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/animelist/internal/httpserver/deps"
	"github.com/MrSnakeDoc/animelist/internal/httpserver/mw"
)

func init() { Register("metrics", registerMetrics) }

func registerMetrics(r chi.Router, d deps.Deps) {
	if d.Metrics == nil {
		return
	}
	r.With(mw.AllowOnlyCIDRS(d.AdminCIDRS, d.TrustProxy, d.Logger)).Method("GET", "/metrics", d.Metrics)
}

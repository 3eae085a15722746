package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/animelist/internal/httpserver/deps"
	"github.com/MrSnakeDoc/animelist/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/animelist/internal/httpserver/mw"
)

func init() { Register("health", registerHealthz) }

func registerHealthz(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.With(mw.AllowOnlyCIDRS(d.AdminCIDRS, d.TrustProxy, d.Logger)).Get("/infra", handlers.Infra(d))
}

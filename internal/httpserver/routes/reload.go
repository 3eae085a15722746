package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/animelist/internal/httpserver/deps"
	"github.com/MrSnakeDoc/animelist/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/animelist/internal/httpserver/mw"
)

func init() { Register("reload", registerReload) }

func registerReload(r chi.Router, d deps.Deps) {
	if d.ReloadTrigger == nil {
		return
	}
	r.With(mw.AllowOnlyCIDRS(d.AdminCIDRS, d.TrustProxy, d.Logger)).Post("/reload", handlers.Reload(d))
}

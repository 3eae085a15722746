package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/animelist/internal/httpserver/deps"
	"github.com/MrSnakeDoc/animelist/internal/httpserver/handlers"
)

func init() { Register("readiness", registerReadyz) }

func registerReadyz(r chi.Router, d deps.Deps) {
	r.Get("/readyz", handlers.Readyz(d))
}

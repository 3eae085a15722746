// Package routes collects route registrars from init functions so that
// adding an endpoint never touches the server setup.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/animelist/internal/httpserver/deps"
	"github.com/MrSnakeDoc/animelist/internal/logger"
)

type (
	Registrar  func(r chi.Router, d deps.Deps)
	Middleware = func(http.Handler) http.Handler
)

type entry struct {
	name string
	reg  Registrar
	mws  []Middleware
}

var registry []entry

// Register adds a named registrar with optional middlewares shared by
// every route it declares.
func Register(name string, reg Registrar, mws ...Middleware) {
	registry = append(registry, entry{name: name, reg: reg, mws: mws})
}

// RegisterAll applies every registrar to r, in registration order.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, e := range registry {
		sub := r
		if len(e.mws) > 0 {
			sub = r.With(e.mws...)
		}
		e.reg(sub, d)
		if d.Logger != nil {
			d.Logger.Debug("routes registered", logger.String("group", e.name))
		}
	}
}

// Package httpserver serves the Telegram webhook next to the probe and
// admin endpoints.
package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/animelist/internal/httpserver/deps"
	"github.com/MrSnakeDoc/animelist/internal/httpserver/mw"
	"github.com/MrSnakeDoc/animelist/internal/httpserver/routes"
	"github.com/MrSnakeDoc/animelist/internal/logger"
)

type Server struct {
	http   *http.Server
	router chi.Router
	logger logger.Logger
}

// New builds the router and registers every route on it.
func New(addr string, loggerClient logger.Logger, d deps.Deps) *Server {
	r := chi.NewRouter()

	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)                // never crash the process on panic
	r.Use(middleware.Timeout(2 * time.Second)) // per-request timeout
	r.Use(mw.Log(loggerClient, "/healthz", "/readyz", "/metrics"))

	routes.RegisterAll(r, d)

	s := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{
		http:   s,
		router: r,
		logger: loggerClient,
	}
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Routes lists "METHOD /path" for every registered route.
func (s *Server) Routes() []string {
	var out []string
	_ = chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, method+" "+route)
		return nil
	})
	return out
}

// Start blocks until the server fails or is shut down.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening",
		logger.String("addr", s.http.Addr),
		logger.Any("routes", s.Routes()))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...")
	return s.http.Shutdown(ctx)
}

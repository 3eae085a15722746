package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/animelist/internal/httpserver/deps"
	"github.com/MrSnakeDoc/animelist/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/animelist/internal/httpserver/mw"
)

func init() { Register("webhook", registerWebhook) }

func registerWebhook(r chi.Router, d deps.Deps) {
	r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.RequireSecretToken(d.WebhookSecret, d.Logger),
	).Post(d.WebhookPath, handlers.Webhook(d))
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	tele "gopkg.in/telebot.v3"

	"github.com/MrSnakeDoc/animelist/internal/dispatch"
	"github.com/MrSnakeDoc/animelist/internal/httpserver/deps"
	"github.com/MrSnakeDoc/animelist/internal/logger"
	"github.com/MrSnakeDoc/animelist/internal/telegram"
)

const maxUpdateBytes = 1 << 20

// Webhook accepts one Telegram update and hands it to the chat's worker.
// Anything short of a malformed body is answered 200 so Telegram does not
// redeliver it.
func Webhook(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var upd tele.Update
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&upd); err != nil {
			d.Logger.Warn("invalid update payload", logger.Error(err))
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		ev, ok := telegram.EventFromUpdate(upd)
		if !ok {
			d.Logger.Debug("ignoring update", logger.UpdateID(upd.ID))
			w.WriteHeader(http.StatusOK)
			return
		}

		if err := d.Dispatcher.Dispatch(ev); err != nil {
			switch {
			case errors.Is(err, dispatch.ErrRateLimited):
				d.Logger.Debug("update dropped", logger.ChatID(ev.ChatID), logger.Error(err))
			default:
				d.Logger.Warn("update dropped", logger.ChatID(ev.ChatID), logger.UpdateID(upd.ID), logger.Error(err))
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}

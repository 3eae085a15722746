package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/animelist/internal/httpserver/deps"
)

type healthzResponse struct {
	Status        string  `json:"status"`
	Bot           string  `json:"bot,omitempty"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Workers       int     `json:"chat_workers"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

// Healthz is a liveness probe: it never touches the session store.
func Healthz(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		resp := healthzResponse{
			Status:        "ok",
			Bot:           d.BotName,
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: time.Since(start).Seconds(),
		}
		if d.Dispatcher != nil {
			resp.Workers = d.Dispatcher.Workers()
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

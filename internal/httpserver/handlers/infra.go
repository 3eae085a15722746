package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/animelist/internal/httpserver/deps"
)

type componentStatus struct {
	OK       bool   `json:"ok"`
	Backend  string `json:"backend,omitempty"`
	Sessions *int64 `json:"sessions,omitempty"`
	Workers  *int   `json:"workers,omitempty"`
	Impact   string `json:"impact,omitempty"`
	Error    string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		workers := d.Dispatcher.Workers()
		components := map[string]componentStatus{
			"sessions": checkStore(r.Context(), d),
			"dispatcher": {
				OK:      true,
				Workers: &workers,
			},
		}

		response := infraResponse{
			Mode:       determineMode(components),
			Components: components,
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// determineMode is "critical" when sessions cannot be stored, since every
// turn then aborts without a reply being persisted.
func determineMode(components map[string]componentStatus) string {
	if s, exists := components["sessions"]; exists && !s.OK {
		return "critical"
	}
	return "operational"
}

func checkStore(parent context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{
			OK:      false,
			Backend: d.Backend,
			Impact:  "turns-aborted",
			Error:   "store not initialized",
		}
	}

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{
			OK:      false,
			Backend: d.Backend,
			Impact:  "turns-aborted",
			Error:   err.Error(),
		}
	}

	status := componentStatus{OK: true, Backend: d.Backend}
	if counter, ok := d.Store.(deps.SessionCounter); ok {
		if n, err := counter.Count(ctx); err == nil {
			status.Sessions = &n
		}
	}
	return status
}

package deps

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/animelist/internal/chat"
	"github.com/MrSnakeDoc/animelist/internal/logger"
)

// Dispatcher queues an event on its chat worker.
type Dispatcher interface {
	Dispatch(ev chat.Event) error
	Workers() int
}

// Pinger reports whether the session backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCounter is implemented by session stores that can count chats.
type SessionCounter interface {
	Count(ctx context.Context) (int64, error)
}

type Deps struct {
	Logger        logger.Logger
	BotName       string
	StartTime     time.Time
	Version       string
	Commit        string
	BuildDate     string
	GoVersion     string
	AllowedCIDRS  []string      // IPs allowed to post updates to the webhook
	AdminCIDRS    []string      // IPs allowed to reach /infra, /metrics and /reload
	TrustProxy    bool          // true if running behind a trusted reverse proxy (e.g., cloudflared)
	WebhookPath   string        // route Telegram posts updates to
	WebhookSecret string        // expected X-Telegram-Bot-Api-Secret-Token, empty disables the check
	Backend       string        // session backend name, reported by /infra
	Store         Pinger        // session store
	Dispatcher    Dispatcher    // per-chat turn queue
	Metrics       http.Handler  // Prometheus exposition, nil disables /metrics
	ReloadTrigger chan struct{} // Channel to trigger manual texts reload
}

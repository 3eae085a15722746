package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Session backends.
const (
	BackendRedis  = "redis"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Telegram
	BotToken       string // bot API token
	BotName        string // bot username, used to match /cmd@BotName
	TelegramAPIURL string // ex: "https://api.telegram.org"
	WebhookPath    string // route the webhook is served on (ex: "/anime")
	WebhookURL     string // optional public URL, registered with setWebhook at startup
	WebhookSecret  string // optional, checked against X-Telegram-Bot-Api-Secret-Token

	// Catalog and wallpapers
	CatalogURL     string        // Jikan base URL
	CatalogTimeout time.Duration // per request timeout
	SearchLimit    int           // max search hits per /add (default: 15)
	WallpaperURL   string        // alphacoders API endpoint
	WallpaperToken string        // alphacoders API key

	// Sessions
	SessionBackend string        // "redis" | "bolt" | "memory"
	SessionTTL     time.Duration // 0 = sessions never expire (redis only)
	BoltPath       string        // bbolt file when SessionBackend=bolt

	// Redis
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	// Turn handling
	LiveSyncFanout int           // max concurrent live message edits per turn
	WorkerQueue    int           // buffered updates per chat worker
	WorkerIdle     time.Duration // chat workers idle longer than this are stopped
	ReapSchedule   string        // cron spec for the idle worker reaper
	ChatBurst      int           // updates a chat may send back to back, 0 disables the flood guard
	ChatRefill     int           // tokens regained per chat per minute

	TextsFile           string // optional YAML file overriding reply texts
	TextsReloadSchedule string // cron spec re-reading TextsFile, empty disables

	AllowedCIDRS []string // optional, restrict webhook access to specific IP ranges
	AdminCIDRS   []string // optional, restrict /infra, /metrics and /reload
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

var env = newSource()

func Load() *Config {
	if err := loadDotEnv(getenv("ENV_FILE", ".env")); err != nil {
		panic(fmt.Sprintf("❌ FATAL: could not read env file: %v", err))
	}

	cfg := &Config{
		// Server settings
		ListenPort:      ":" + strings.TrimPrefix(getenv("BOT_PORT", "8080"), ":"),
		ShutdownTimeout: mustDuration("SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("LOG_LEVEL", "info"),
		PrettyLog: mustBool("PRETTY_LOG", false),

		// Telegram
		BotToken:       requireEnv("BOT_TOKEN"),
		BotName:        strings.TrimPrefix(requireEnv("BOT_NAME"), "@"),
		TelegramAPIURL: getenv("TELEGRAM_API_URL", "https://api.telegram.org"),
		WebhookPath:    getenv("WEBHOOK_PATH", "/anime"),
		WebhookURL:     getenv("WEBHOOK_URL", ""),
		WebhookSecret:  getenv("WEBHOOK_SECRET", ""),

		// Catalog and wallpapers
		CatalogURL:     getenv("CATALOG_URL", "https://api.jikan.moe/v4"),
		CatalogTimeout: mustDuration("CATALOG_TIMEOUT", 10*time.Second),
		SearchLimit:    getenvInt("SEARCH_LIMIT", 15),
		WallpaperURL:   getenv("WALLPAPER_URL", "https://wall.alphacoders.com/api2.0/get.php"),
		WallpaperToken: requireEnv("WALLPAPER_TOKEN"),

		// Sessions
		SessionBackend: strings.ToLower(getenv("SESSION_BACKEND", BackendRedis)),
		SessionTTL:     mustDuration("SESSION_TTL", 0),
		BoltPath:       getenv("BOLT_PATH", "animelist.db"),

		// Redis settings
		RedisUser:           getenv("REDIS_USERNAME", ""),
		RedisPassword:       getenv("REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Turn handling
		LiveSyncFanout: getenvInt("LIVE_SYNC_FANOUT", 4),
		WorkerQueue:    getenvInt("WORKER_QUEUE", 16),
		WorkerIdle:     mustDuration("WORKER_IDLE", 10*time.Minute),
		ReapSchedule:   getenv("WORKER_REAP_SCHEDULE", "@every 1m"),
		ChatBurst:      getenvInt("CHAT_RATE_BURST", 20),
		ChatRefill:     getenvInt("CHAT_RATE_PER_MIN", 60),

		TextsFile:           getenv("TEXTS_FILE", ""),
		TextsReloadSchedule: getenv("TEXTS_RELOAD_SCHEDULE", "@every 5m"),

		// Access restrictions
		AllowedCIDRS: parseAllowedIPs(getenv("ALLOWED_CIDRS", "")),
		AdminCIDRS:   parseAllowedIPs(getenv("ADMIN_CIDRS", "")),
		TrustProxy:   mustBool("TRUST_PROXY", false),
	}

	switch cfg.SessionBackend {
	case BackendRedis:
		cfg.RedisAddr = requireEnv("REDIS_ADDR")
	case BackendBolt, BackendMemory:
	default:
		panic(fmt.Sprintf("❌ FATAL: SESSION_BACKEND must be one of redis, bolt, memory (got %q)", cfg.SessionBackend))
	}

	if cfg.SearchLimit <= 0 {
		panic(fmt.Sprintf("❌ FATAL: SEARCH_LIMIT must be positive (got %d)", cfg.SearchLimit))
	}
	if !strings.HasPrefix(cfg.WebhookPath, "/") {
		cfg.WebhookPath = "/" + cfg.WebhookPath
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		cfgCopy.BotToken = "***REDACTED***"
		cfgCopy.WallpaperToken = "***REDACTED***"
		cfgCopy.RedisPassword = "***REDACTED***"
		if cfg.WebhookSecret != "" {
			cfgCopy.WebhookSecret = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
	}

	return cfg
}

// newSource reads process environment first, then whatever a .env file
// contributed.
func newSource() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

// loadDotEnv merges KEY=VALUE pairs from path into the source.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	env.SetConfigFile(path)
	env.SetConfigType("env")
	return env.ReadInConfig()
}

// helpers
func lookup(key string) string {
	return strings.TrimSpace(env.GetString(key))
}

func getenv(key, def string) string {
	if v := lookup(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := lookup(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := lookup(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := lookup(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := lookup(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/animelist/internal/bot"
	"github.com/MrSnakeDoc/animelist/internal/catalog"
	"github.com/MrSnakeDoc/animelist/internal/config"
	"github.com/MrSnakeDoc/animelist/internal/dispatch"
	"github.com/MrSnakeDoc/animelist/internal/httpserver"
	"github.com/MrSnakeDoc/animelist/internal/httpserver/deps"
	"github.com/MrSnakeDoc/animelist/internal/logger"
	"github.com/MrSnakeDoc/animelist/internal/metrics"
	"github.com/MrSnakeDoc/animelist/internal/redis"
	"github.com/MrSnakeDoc/animelist/internal/scheduler"
	"github.com/MrSnakeDoc/animelist/internal/store"
	boltstore "github.com/MrSnakeDoc/animelist/internal/store/bolt"
	memstore "github.com/MrSnakeDoc/animelist/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/animelist/internal/store/redis"
	"github.com/MrSnakeDoc/animelist/internal/telegram"
	"github.com/MrSnakeDoc/animelist/internal/texts"
	"github.com/MrSnakeDoc/animelist/internal/utils"
	"github.com/MrSnakeDoc/animelist/internal/version"
	"github.com/MrSnakeDoc/animelist/internal/wallpaper"
)

type App struct {
	cfg        *config.Config
	logger     logger.Logger
	server     *httpserver.Server
	store      store.SessionStore
	dispatcher *dispatch.Dispatcher
	scheduler  *scheduler.Scheduler
	reloader   *scheduler.TextsReloader
	adapter    *telegram.Adapter
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Session backend - fail fast if unavailable
	sessions, err := openStore(cfg, loggerClient.Named("store"))
	if err != nil {
		loggerClient.Errorf("Failed to open session store: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("session store initialized", logger.String("backend", cfg.SessionBackend))

	m := metrics.New()

	adapter, err := telegram.New(cfg.TelegramAPIURL, cfg.BotToken, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		loggerClient.Errorf("Failed to create Telegram client: %v", err)
		os.Exit(1)
	}

	// Reply texts, replaced in place by the reloader
	holder := texts.NewHolder(texts.Default())
	reloadTrigger := make(chan struct{}, 1)
	reloader := scheduler.NewTextsReloader(cfg.TextsFile, holder, loggerClient, reloadTrigger)

	b := bot.New(bot.Deps{
		Store:       sessions,
		Transport:   adapter,
		Catalog:     catalog.NewClient(cfg.CatalogURL, cfg.CatalogTimeout, loggerClient.Named("catalog"), m),
		Wallpapers:  wallpaper.NewClient(cfg.WallpaperURL, cfg.WallpaperToken, cfg.CatalogTimeout, loggerClient.Named("wallpaper"), m),
		Texts:       holder,
		Logger:      loggerClient.Named("bot"),
		Metrics:     m,
		BotName:     cfg.BotName,
		SearchLimit: cfg.SearchLimit,
		Fanout:      cfg.LiveSyncFanout,
	})

	dispatcher := dispatch.New(b, cfg.WorkerQueue, cfg.WorkerIdle, loggerClient.Named("dispatch"), m).
		WithLimit(dispatch.LimitConfig{Burst: cfg.ChatBurst, RefillPerMinute: cfg.ChatRefill})

	sched := scheduler.New(loggerClient.Named("scheduler"))
	if err := sched.Add(scheduler.WorkerReaper(dispatcher, cfg.ReapSchedule, loggerClient)); err != nil {
		loggerClient.Errorf("Invalid WORKER_REAP_SCHEDULE: %v", err)
		os.Exit(1)
	}
	if cfg.TextsFile != "" {
		if err := sched.Add(reloader.Job(cfg.TextsReloadSchedule)); err != nil {
			loggerClient.Errorf("Invalid TEXTS_RELOAD_SCHEDULE: %v", err)
			os.Exit(1)
		}
	}

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:        loggerClient.Named("http"),
		BotName:       cfg.BotName,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		AllowedCIDRS:  cfg.AllowedCIDRS,
		AdminCIDRS:    cfg.AdminCIDRS,
		TrustProxy:    cfg.TrustProxy,
		WebhookPath:   cfg.WebhookPath,
		WebhookSecret: cfg.WebhookSecret,
		Backend:       cfg.SessionBackend,
		Store:         sessions,
		Dispatcher:    dispatcher,
		Metrics:       m.Handler(),
		ReloadTrigger: reloadTrigger,
	}

	server := httpserver.New(cfg.ListenPort, loggerClient.Named("http"), d)

	return &App{
		cfg:        cfg,
		logger:     loggerClient,
		server:     server,
		store:      sessions,
		dispatcher: dispatcher,
		scheduler:  sched,
		reloader:   reloader,
		adapter:    adapter,
	}
}

func openStore(cfg *config.Config, log logger.Logger) (store.SessionStore, error) {
	switch cfg.SessionBackend {
	case config.BackendRedis:
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.New(redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, log)
		if err != nil {
			return nil, err
		}
		return redisstore.NewStore(client, cfg.SessionTTL), nil
	case config.BackendBolt:
		return boltstore.Open(cfg.BoltPath)
	case config.BackendMemory:
		log.Warn("memory session backend: sessions are lost on restart")
		return memstore.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.SessionBackend)
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting animelist bot @%s on %s", a.cfg.BotName, a.cfg.ListenPort)
	a.logger.Infof("animelist %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load reply texts and serve manual reloads
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start texts reloader: %w", err)
	}

	a.scheduler.Start()
	a.logger.Info("scheduler started", logger.Int("jobs", a.scheduler.Entries()))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	if a.cfg.WebhookURL != "" {
		if err := a.adapter.RegisterWebhook(a.cfg.WebhookURL, a.cfg.WebhookSecret); err != nil {
			a.logger.Error("failed to register webhook", logger.Error(err))
		} else {
			a.logger.Info("webhook registered", logger.String("url", a.cfg.WebhookURL))
		}
	}

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	// Stop accepting updates before draining the chat queues
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.reloader.Stop()
	a.scheduler.Stop(shutdownCtx)

	if err := a.dispatcher.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("chat workers did not finish in time", logger.Error(err))
	}

	utils.MustClose(a.store, "session store", a.logger)

	a.logger.Info("✅ animelist stopped cleanly")
	return nil
}

// Package bot runs one conversational turn: load the session, route the
// event, deliver the reply, sync live messages and save.
package bot

import (
	"context"
	"math/rand/v2"

	"github.com/MrSnakeDoc/animelist/internal/chat"
	"github.com/MrSnakeDoc/animelist/internal/domain"
	"github.com/MrSnakeDoc/animelist/internal/livesync"
	"github.com/MrSnakeDoc/animelist/internal/logger"
	"github.com/MrSnakeDoc/animelist/internal/metrics"
	"github.com/MrSnakeDoc/animelist/internal/store"
	"github.com/MrSnakeDoc/animelist/internal/texts"
	"github.com/MrSnakeDoc/animelist/internal/wallpaper"
)

// Catalog finds shows and resolves their details.
type Catalog interface {
	Search(ctx context.Context, query string, limit int) ([]domain.Candidate, error)
	Lookup(ctx context.Context, id int) (domain.Detail, error)
}

// Wallpapers finds images for a title.
type Wallpapers interface {
	Search(ctx context.Context, term string) (wallpaper.Result, error)
}

// TextsSource returns the reply texts for one turn.
type TextsSource interface {
	Get() texts.Texts
}

// Deps groups what a Bot needs.
type Deps struct {
	Store      store.SessionStore
	Transport  chat.Transport
	Catalog    Catalog
	Wallpapers Wallpapers
	Texts      TextsSource
	Logger     logger.Logger
	Metrics    *metrics.Metrics

	BotName     string
	SearchLimit int
	Fanout      int

	// Rand returns a number in [0, n). Defaults to math/rand.
	Rand func(n int) int
}

type Bot struct {
	store      store.SessionStore
	transport  chat.Transport
	catalog    Catalog
	wallpapers Wallpapers
	texts      TextsSource
	log        logger.Logger
	metrics    *metrics.Metrics
	reconciler *livesync.Reconciler
	router     *router

	searchLimit int
	rand        func(n int) int
}

func New(d Deps) *Bot {
	if d.Logger == nil {
		d.Logger = logger.Nop()
	}
	if d.Rand == nil {
		d.Rand = rand.IntN
	}
	if d.Texts == nil {
		d.Texts = texts.NewHolder(texts.Default())
	}
	if d.SearchLimit <= 0 {
		d.SearchLimit = 15
	}

	return &Bot{
		store:       d.Store,
		transport:   d.Transport,
		catalog:     d.Catalog,
		wallpapers:  d.Wallpapers,
		texts:       d.Texts,
		log:         d.Logger,
		metrics:     d.Metrics,
		reconciler:  livesync.New(d.Transport, d.Fanout, d.Logger, d.Metrics),
		router:      newRouter(d.BotName),
		searchLimit: d.SearchLimit,
		rand:        d.Rand,
	}
}

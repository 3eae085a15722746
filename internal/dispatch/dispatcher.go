// Package dispatch serializes turns per chat: each chat gets one worker
// goroutine fed by a bounded queue, different chats run in parallel.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/animelist/internal/chat"
	"github.com/MrSnakeDoc/animelist/internal/logger"
	"github.com/MrSnakeDoc/animelist/internal/metrics"
)

var (
	ErrQueueFull   = errors.New("chat queue full")
	ErrRateLimited = errors.New("chat rate limited")
	ErrClosed      = errors.New("dispatcher closed")
)

// TurnHandler processes one event. Calls for the same chat never overlap.
type TurnHandler interface {
	HandleTurn(ctx context.Context, ev chat.Event) error
}

type worker struct {
	jobs     chan chat.Event
	pending  int
	lastSeen time.Time
}

type Dispatcher struct {
	handler TurnHandler
	queue   int
	idle    time.Duration
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	limit   *limiter

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	workers map[int64]*worker
	closed  bool
}

func New(handler TurnHandler, queue int, idle time.Duration, log logger.Logger, m *metrics.Metrics) *Dispatcher {
	if queue <= 0 {
		queue = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		handler: handler,
		queue:   queue,
		idle:    idle,
		log:     log,
		metrics: m,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		workers: make(map[int64]*worker),
	}
}

// WithLimit enables the per-chat flood guard. Call it before the first
// Dispatch.
func (d *Dispatcher) WithLimit(cfg LimitConfig) *Dispatcher {
	d.limit = newLimiter(cfg, d.now())
	return d
}

// Dispatch queues ev on its chat worker without blocking.
func (d *Dispatcher) Dispatch(ev chat.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	if ok, wait := d.limit.allow(ev.ChatID, d.now()); !ok {
		d.metrics.DroppedUpdate("rate_limited")
		return fmt.Errorf("retry in %s: %w", wait, ErrRateLimited)
	}

	w, ok := d.workers[ev.ChatID]
	if !ok {
		w = &worker{jobs: make(chan chat.Event, d.queue)}
		d.workers[ev.ChatID] = w
		d.wg.Add(1)
		go d.run(ev.ChatID, w)
		d.metrics.Workers(len(d.workers))
	}

	select {
	case w.jobs <- ev:
		w.pending++
		w.lastSeen = d.now()
		return nil
	default:
		d.metrics.DroppedUpdate("queue_full")
		return ErrQueueFull
	}
}

func (d *Dispatcher) run(chatID int64, w *worker) {
	defer d.wg.Done()
	for ev := range w.jobs {
		if err := d.handler.HandleTurn(d.ctx, ev); err != nil {
			d.log.Warn("turn aborted", logger.ChatID(chatID), logger.Error(err))
		}

		d.mu.Lock()
		w.pending--
		w.lastSeen = d.now()
		d.mu.Unlock()
	}
}

// Reap stops workers that have been idle longer than the configured idle
// time and returns how many were stopped.
func (d *Dispatcher) Reap() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	reaped := 0
	for id, w := range d.workers {
		if w.pending > 0 || now.Sub(w.lastSeen) < d.idle {
			continue
		}
		close(w.jobs)
		delete(d.workers, id)
		reaped++
	}
	if reaped > 0 {
		d.metrics.Workers(len(d.workers))
		d.log.Debug("reaped idle chat workers", logger.Int("count", reaped), logger.Int("remaining", len(d.workers)))
	}
	return reaped
}

// Workers returns the number of running chat workers.
func (d *Dispatcher) Workers() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.workers)
}

// Shutdown stops accepting events and waits for queued turns to finish.
// When ctx expires first, running turns are cancelled.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		for id, w := range d.workers {
			close(w.jobs)
			delete(d.workers, id)
		}
		d.metrics.Workers(0)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

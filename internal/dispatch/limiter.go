package dispatch

import (
	"math"
	"time"
)

// LimitConfig configures the per-chat token bucket. A zero Burst disables
// limiting.
type LimitConfig struct {
	Burst           int
	RefillPerMinute int
	IdleTTL         time.Duration
	SweepInterval   time.Duration
}

type bucket struct {
	tokens   float64
	lastRef  time.Time
	lastSeen time.Time
}

// limiter is a token bucket per chat. All methods are called with the
// dispatcher mutex held.
type limiter struct {
	cfg       LimitConfig
	rate      float64
	capacity  float64
	buckets   map[int64]*bucket
	lastSweep time.Time
}

func newLimiter(cfg LimitConfig, now time.Time) *limiter {
	if cfg.Burst <= 0 {
		return nil
	}
	if cfg.RefillPerMinute < 1 {
		cfg.RefillPerMinute = 1
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &limiter{
		cfg:       cfg,
		rate:      float64(cfg.RefillPerMinute) / 60.0,
		capacity:  float64(cfg.Burst),
		buckets:   make(map[int64]*bucket, 64),
		lastSweep: now,
	}
}

// allow takes one token from the chat's bucket. It returns how long the
// chat has to wait when the bucket is empty.
func (l *limiter) allow(chatID int64, now time.Time) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	if now.Sub(l.lastSweep) >= l.cfg.SweepInterval {
		l.sweep(now)
	}

	b := l.buckets[chatID]
	if b == nil {
		b = &bucket{tokens: l.capacity, lastRef: now}
		l.buckets[chatID] = b
	}
	b.lastSeen = now

	if elapsed := now.Sub(b.lastRef).Seconds(); elapsed > 0 {
		b.tokens = math.Min(l.capacity, b.tokens+elapsed*l.rate)
		b.lastRef = now
	}

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true, 0
	}

	wait := time.Duration(math.Ceil((1.0-b.tokens)/l.rate)) * time.Second
	if wait < time.Second {
		wait = time.Second
	}
	return false, wait
}

func (l *limiter) sweep(now time.Time) {
	for id, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.cfg.IdleTTL {
			delete(l.buckets, id)
		}
	}
	l.lastSweep = now
}

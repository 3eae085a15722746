package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrSnakeDoc/animelist/internal/chat"
	"github.com/MrSnakeDoc/animelist/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	seen    map[int64][]string
	active  map[int64]int
	overlap atomic.Bool
	release chan struct{}
}

func newRecorder() *recorder {
	return &recorder{seen: map[int64][]string{}, active: map[int64]int{}}
}

func (r *recorder) HandleTurn(ctx context.Context, ev chat.Event) error {
	r.mu.Lock()
	r.active[ev.ChatID]++
	if r.active[ev.ChatID] > 1 {
		r.overlap.Store(true)
	}
	r.mu.Unlock()

	if r.release != nil {
		select {
		case <-r.release:
		case <-ctx.Done():
		}
	} else {
		time.Sleep(time.Millisecond)
	}

	r.mu.Lock()
	r.active[ev.ChatID]--
	r.seen[ev.ChatID] = append(r.seen[ev.ChatID], ev.Text)
	r.mu.Unlock()
	return nil
}

func TestDispatchSerializesPerChat(t *testing.T) {
	rec := newRecorder()
	d := New(rec, 64, time.Minute, logger.Nop(), nil)

	want := []string{"a", "b", "c", "d", "e"}
	for _, text := range want {
		require.NoError(t, d.Dispatch(chat.Event{ChatID: 1, Text: text}))
		require.NoError(t, d.Dispatch(chat.Event{ChatID: 2, Text: text}))
	}
	assert.Equal(t, 2, d.Workers())

	require.NoError(t, d.Shutdown(context.Background()))
	assert.False(t, rec.overlap.Load(), "turns of one chat overlapped")
	assert.Equal(t, want, rec.seen[1])
	assert.Equal(t, want, rec.seen[2])
}

func TestDispatchQueueFull(t *testing.T) {
	rec := newRecorder()
	rec.release = make(chan struct{})
	d := New(rec, 1, time.Minute, logger.Nop(), nil)

	require.NoError(t, d.Dispatch(chat.Event{ChatID: 1, Text: "running"}))
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return rec.active[1] == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, d.Dispatch(chat.Event{ChatID: 1, Text: "queued"}))
	assert.ErrorIs(t, d.Dispatch(chat.Event{ChatID: 1, Text: "dropped"}), ErrQueueFull)

	close(rec.release)
	require.NoError(t, d.Shutdown(context.Background()))
	assert.Equal(t, []string{"running", "queued"}, rec.seen[1])
}

func TestReapIdleWorkers(t *testing.T) {
	rec := newRecorder()
	d := New(rec, 4, time.Minute, logger.Nop(), nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	d.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	require.NoError(t, d.Dispatch(chat.Event{ChatID: 1, Text: "x"}))
	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.seen[1]) == 1
	}, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.workers[1] != nil && d.workers[1].pending == 0
	}, time.Second, time.Millisecond)

	assert.Equal(t, 0, d.Reap(), "fresh workers stay")

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()
	assert.Equal(t, 1, d.Reap())
	assert.Equal(t, 0, d.Workers())

	// a new event starts a fresh worker
	require.NoError(t, d.Dispatch(chat.Event{ChatID: 1, Text: "y"}))
	require.NoError(t, d.Shutdown(context.Background()))
	assert.Equal(t, []string{"x", "y"}, rec.seen[1])
}

func TestDispatchAfterShutdown(t *testing.T) {
	d := New(newRecorder(), 4, time.Minute, logger.Nop(), nil)
	require.NoError(t, d.Shutdown(context.Background()))
	assert.ErrorIs(t, d.Dispatch(chat.Event{ChatID: 1}), ErrClosed)
}

func TestShutdownTimeoutCancelsTurns(t *testing.T) {
	rec := newRecorder()
	rec.release = make(chan struct{})
	d := New(rec, 4, time.Minute, logger.Nop(), nil)
	require.NoError(t, d.Dispatch(chat.Event{ChatID: 1, Text: "stuck"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, d.Shutdown(ctx), context.DeadlineExceeded)
}

func TestDispatchRateLimitedPerChat(t *testing.T) {
	rec := newRecorder()
	d := New(rec, 16, time.Minute, logger.Nop(), nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	d.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	d.WithLimit(LimitConfig{Burst: 2, RefillPerMinute: 60})

	require.NoError(t, d.Dispatch(chat.Event{ChatID: 1, Text: "a"}))
	require.NoError(t, d.Dispatch(chat.Event{ChatID: 1, Text: "b"}))
	err := d.Dispatch(chat.Event{ChatID: 1, Text: "c"})
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Contains(t, err.Error(), "retry in 1s")

	// other chats have their own bucket
	require.NoError(t, d.Dispatch(chat.Event{ChatID: 2, Text: "a"}))

	mu.Lock()
	now = now.Add(time.Second)
	mu.Unlock()
	require.NoError(t, d.Dispatch(chat.Event{ChatID: 1, Text: "d"}))

	require.NoError(t, d.Shutdown(context.Background()))
	assert.Equal(t, []string{"a", "b", "d"}, rec.seen[1])
}

func TestLimiter(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		cfg   LimitConfig
		calls []time.Duration
		want  []bool
	}{
		{
			name:  "disabled",
			cfg:   LimitConfig{},
			calls: []time.Duration{0, 0, 0},
			want:  []bool{true, true, true},
		},
		{
			name:  "burst then refuse",
			cfg:   LimitConfig{Burst: 1, RefillPerMinute: 6},
			calls: []time.Duration{0, time.Second, 11 * time.Second},
			want:  []bool{true, false, true},
		},
		{
			name:  "refill is capped at burst",
			cfg:   LimitConfig{Burst: 2, RefillPerMinute: 60},
			calls: []time.Duration{time.Hour, time.Hour, time.Hour},
			want:  []bool{true, true, false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLimiter(tt.cfg, start)
			for i, offset := range tt.calls {
				ok, _ := l.allow(7, start.Add(offset))
				assert.Equal(t, tt.want[i], ok, "call %d", i)
			}
		})
	}
}

func TestLimiterSweepsIdleChats(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newLimiter(LimitConfig{Burst: 1, IdleTTL: time.Minute, SweepInterval: time.Minute}, start)

	l.allow(1, start)
	l.allow(2, start.Add(30*time.Second))
	require.Len(t, l.buckets, 2)

	l.allow(2, start.Add(2*time.Minute))
	assert.Len(t, l.buckets, 1)
	assert.NotContains(t, l.buckets, int64(1))
}

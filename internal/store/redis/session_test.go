package redis

import (
	"context"
	"testing"
	"time"

	"github.com/MrSnakeDoc/animelist/internal/domain"
	"github.com/MrSnakeDoc/animelist/internal/store"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, ttl), srv
}

func TestLoadMissingReturnsFreshSession(t *testing.T) {
	s, _ := newTestStore(t, 0)

	sess, err := s.Load(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, sess.Watchlist)
	assert.NotNil(t, sess.Watchlist)
	assert.NotNil(t, sess.LiveMessageIDs)
	assert.Equal(t, int64(0), sess.Version)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, srv := newTestStore(t, time.Hour)

	sess := domain.NewSession()
	sess.Watchlist = append(sess.Watchlist, domain.Entry{ID: 1, Title: "Frieren", Progress: 3, EpisodeMax: 28})
	sess.RegisterLive(99)
	sess.Dirty = true

	require.NoError(t, s.Save(ctx, 42, sess))
	assert.Equal(t, int64(1), sess.Version)
	assert.True(t, srv.Exists(SessionKey(42)))
	assert.Equal(t, time.Hour, srv.TTL(SessionKey(42)))

	got, err := s.Load(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, sess.Watchlist, got.Watchlist)
	assert.Equal(t, []int{99}, got.LiveMessageIDs)
	assert.Equal(t, int64(1), got.Version)
	assert.False(t, got.Dirty, "dirty is never persisted")

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSaveRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, 0)

	first, err := s.Load(ctx, 7)
	require.NoError(t, err)
	second, err := s.Load(ctx, 7)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, 7, first))
	err = s.Save(ctx, 7, second)
	assert.ErrorIs(t, err, store.ErrConflict)
	assert.Equal(t, int64(0), second.Version, "failed save keeps the loaded version")
}

func TestSessionsExpire(t *testing.T) {
	ctx := context.Background()
	s, srv := newTestStore(t, time.Minute)

	sess := domain.NewSession()
	sess.Watchlist = append(sess.Watchlist, domain.Entry{ID: 1})
	require.NoError(t, s.Save(ctx, 1, sess))

	srv.FastForward(2 * time.Minute)

	got, err := s.Load(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, got.Watchlist)
}

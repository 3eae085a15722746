package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/animelist/internal/domain"
	"github.com/MrSnakeDoc/animelist/internal/store"
	"github.com/redis/go-redis/v9"
)

// Store keeps one JSON session per chat in Redis
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a new Redis session store. A zero ttl keeps sessions
// forever.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// Load retrieves the session of a chat, or a fresh one if none is stored
func (s *Store) Load(ctx context.Context, chatID int64) (*domain.Session, error) {
	data, err := s.client.Get(ctx, SessionKey(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.NewSession(), nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	sess.Normalize()

	return &sess, nil
}

// Save stores the session if nobody else saved it since it was loaded
func (s *Store) Save(ctx context.Context, chatID int64, sess *domain.Session) error {
	key := SessionKey(chatID)
	next := sess.Version + 1

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := storedVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != sess.Version {
			return fmt.Errorf("chat %d: stored version %d, loaded %d: %w", chatID, current, sess.Version, store.ErrConflict)
		}

		record := *sess
		record.Version = next
		data, err := json.Marshal(&record)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			pipe.SAdd(ctx, AllSessionsKey(), chatID)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		sess.Version = next
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("chat %d: %w", chatID, store.ErrConflict)
	case errors.Is(err, store.ErrConflict):
		return err
	default:
		return fmt.Errorf("failed to save session: %w", err)
	}
}

// Count returns the number of chats that ever saved a session
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.client.SCard(ctx, AllSessionsKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// Ping checks the Redis connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}

func storedVersion(ctx context.Context, tx *redis.Tx, key string) (int64, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read session version: %w", err)
	}

	var head struct {
		Version int64 `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return 0, fmt.Errorf("failed to unmarshal session version: %w", err)
	}
	return head.Version, nil
}

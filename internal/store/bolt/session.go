// Package bolt stores sessions in an embedded bbolt file.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/MrSnakeDoc/animelist/internal/domain"
	"github.com/MrSnakeDoc/animelist/internal/store"
	bolt "go.etcd.io/bbolt"
)

var bucketSessions = []byte("sessions")

// Store keeps one JSON session per chat in a bbolt bucket.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create bolt dir: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create sessions bucket: %w", err)
	}

	return &Store{db: db}, nil
}

func key(chatID int64) []byte {
	return []byte(strconv.FormatInt(chatID, 10))
}

func (s *Store) Load(_ context.Context, chatID int64) (*domain.Session, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketSessions).Get(key(chatID)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	if data == nil {
		return domain.NewSession(), nil
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	sess.Normalize()
	return &sess, nil
}

func (s *Store) Save(_ context.Context, chatID int64, sess *domain.Session) error {
	next := sess.Version + 1

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSessions)

		var current int64
		if v := b.Get(key(chatID)); v != nil {
			var head struct {
				Version int64 `json:"version"`
			}
			if err := json.Unmarshal(v, &head); err != nil {
				return fmt.Errorf("failed to unmarshal session version: %w", err)
			}
			current = head.Version
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
		return b.Put(key(chatID), data)
	})
	if err != nil {
		return err
	}

	sess.Version = next
	return nil
}

// Count returns the number of stored sessions.
func (s *Store) Count(context.Context) (int64, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketSessions).Stats().KeyN
		return nil
	})
	return int64(n), err
}

// Ping reports whether the database is still open.
func (s *Store) Ping(context.Context) error {
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketSessions) == nil {
			return fmt.Errorf("sessions bucket missing")
		}
		return nil
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Package memory is a process local session store for development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/MrSnakeDoc/animelist/internal/domain"
	"github.com/MrSnakeDoc/animelist/internal/store"
)

// Store keeps encoded sessions in a map so callers never share pointers
// with the stored copy.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64][]byte
	versions map[int64]int64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		sessions: make(map[int64][]byte),
		versions: make(map[int64]int64),
	}
}

func (s *Store) Load(_ context.Context, chatID int64) (*domain.Session, error) {
	s.mu.RLock()
	data, ok := s.sessions[chatID]
	s.mu.RUnlock()

	if !ok {
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
	s.mu.Lock()
	defer s.mu.Unlock()

	if current := s.versions[chatID]; current != sess.Version {
		return fmt.Errorf("chat %d: stored version %d, loaded %d: %w", chatID, current, sess.Version, store.ErrConflict)
	}

	record := *sess
	record.Version++
	data, err := json.Marshal(&record)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	s.sessions[chatID] = data
	s.versions[chatID] = record.Version
	sess.Version = record.Version
	return nil
}

// Count returns the number of stored sessions
func (s *Store) Count(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.sessions)), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Package store defines how sessions are persisted between turns.
package store

import (
	"context"
	"errors"

	"github.com/MrSnakeDoc/animelist/internal/domain"
)

// ErrConflict is returned by Save when the stored record changed since it
// was loaded.
var ErrConflict = errors.New("session modified concurrently")

// SessionStore loads and saves one session per chat.
//
// Load returns a fresh session when none is stored. Save only succeeds when
// the stored version still equals s.Version and bumps s.Version on success.
type SessionStore interface {
	Load(ctx context.Context, chatID int64) (*domain.Session, error)
	Save(ctx context.Context, chatID int64, s *domain.Session) error
	Ping(ctx context.Context) error
	Close() error
}

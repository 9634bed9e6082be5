// Package store persists each learner's data as a flat set of JSON blobs.
package store

import (
	"context"
	"errors"
)

// Keys mirror the browser storage layout so backups stay interchangeable.
const (
	KeyUser        = "aimaster_user"
	KeyTeachers    = "aimaster_teachers"
	KeyProgress    = "aimaster_progress"
	KeyChatHistory = "aimaster_chat_history"
	KeyBookmarks   = "aimaster_bookmarks"
	KeyTheme       = "aimaster_theme"
	KeyHasVisited  = "aimaster_has_visited"
	KeyPreferences = "aimaster_preferences"
)

var ErrNotFound = errors.New("key not found")

// UpdateFunc maps the current value (nil when absent) to the new one.
type UpdateFunc func(current []byte) ([]byte, error)

// Store is a per-learner key-value store.
type Store interface {
	Get(ctx context.Context, learnerID, key string) ([]byte, error)
	Put(ctx context.Context, learnerID, key string, value []byte) error
	Delete(ctx context.Context, learnerID, key string) error
	// Update applies fn atomically with respect to other writers of the same key.
	Update(ctx context.Context, learnerID, key string, fn UpdateFunc) error
	Ping(ctx context.Context) error
	Close() error
}

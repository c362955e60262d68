// Package store persists the assistant's small amount of personal state:
// conversation memory, the task list and the voice preference.
//
// Every backend is a flat string key-value store where the most recent
// write wins. Values are stored verbatim; callers own their encoding.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Keys used by the assistant.
const (
	KeyMemory = "jarvis_memory"
	KeyTasks  = "jarvis_tasks"
	KeyVoice  = "jarvis_voice_preference"
)

// ErrNotFound is returned by Get when the key has never been set or was deleted.
var ErrNotFound = errors.New("store: key not found")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("store: closed")

// Store defines the interface for persistence backends.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the store.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Open creates a store for the named backend at path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendJSON, "":
		return OpenJSON(path)
	case BackendSQLite:
		return OpenSQLite(path)
	case BackendBadger:
		return OpenBadger(path)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", backend)
	}
}

// GetOr returns the value for key, or def when the key is missing.
// Other errors are returned unchanged.
func GetOr(ctx context.Context, s Store, key, def string) (string, error) {
	v, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	return v, nil
}

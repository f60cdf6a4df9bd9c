// Package cache provides the pluggable key/bytes stores sitting in front of
// the HTTP fetch layer: a no-op store, a bounded in-memory store, a
// gzip-compressed filesystem store and a SQLite-backed store.
package cache

import (
	"context"
	"errors"
)

// ErrCache wraps backend failures so callers can match the category without
// knowing the backend.
var ErrCache = errors.New("cache operation failed")

// Cache is a key to raw-bytes store. Implementations must be safe for
// concurrent use; fetch tasks share one instance.
type Cache interface {
	// Get returns the cached bytes for key, with ok=false on a miss.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	// Put stores data under key, replacing any existing entry.
	Put(ctx context.Context, key string, data []byte) error
	// Contains reports whether key is present.
	Contains(ctx context.Context, key string) (bool, error)
	// Remove deletes key if present.
	Remove(ctx context.Context, key string) error
	// Clear deletes everything.
	Clear(ctx context.Context) error
}

// Noop is a Cache on which every get misses and every write trivially
// succeeds.
type Noop struct{}

// NewNoop returns the no-op cache.
func NewNoop() Noop { return Noop{} }

// Get always misses.
func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Put discards the data.
func (Noop) Put(context.Context, string, []byte) error { return nil }

// Contains always reports false.
func (Noop) Contains(context.Context, string) (bool, error) { return false, nil }

// Remove does nothing.
func (Noop) Remove(context.Context, string) error { return nil }

// Clear does nothing.
func (Noop) Clear(context.Context) error { return nil }

// Package memory provides an in-process storage backend for tests and for
// running without persistence.
package memory

import (
	"context"
	"sync"

	"github.com/goodtune/focuswatch/internal/storage"
)

// Backend keeps values in a map.
type Backend struct {
	mu         sync.RWMutex
	values     map[string]string
	failWrites error
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{values: make(map[string]string)}
}

// NewStore returns a typed store over a fresh in-memory backend.
func NewStore() (*storage.Settings, *Backend) {
	b := New()
	return storage.NewSettings(b), b
}

func (b *Backend) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

func (b *Backend) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWrites != nil {
		return b.failWrites
	}
	b.values[key] = value
	return nil
}

// Raw returns the stored text for key, for assertions in tests.
func (b *Backend) Raw(key string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	return v, ok
}

// SetFailWrites makes every Set return err until called again with nil.
func (b *Backend) SetFailWrites(err error) {
	b.mu.Lock()
	b.failWrites = err
	b.mu.Unlock()
}

func (b *Backend) Close() error { return nil }

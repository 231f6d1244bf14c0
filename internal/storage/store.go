package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a key is missing from storage.
var ErrNotFound = errors.New("storage: key not found")

// ErrInvalidValue is returned when a stored value cannot be decoded as the
// requested type.
var ErrInvalidValue = errors.New("storage: invalid value")

// Keys used by the timer persistence fields and the stats ledger.
const (
	KeyElapsedTime    = "elapsed-time"
	KeyWasRunning     = "was-running"
	KeyStartTimestamp = "start-timestamp"
	KeyPersistTimer   = "persist-timer"
	KeyStats          = "stats"
)

// Store is a durable, synchronous key/value settings store.
type Store interface {
	GetString(ctx context.Context, key string) (string, error)
	SetString(ctx context.Context, key, value string) error
	GetDouble(ctx context.Context, key string) (float64, error)
	SetDouble(ctx context.Context, key string, value float64) error
	GetBoolean(ctx context.Context, key string) (bool, error)
	SetBoolean(ctx context.Context, key string, value bool) error
	GetInt64(ctx context.Context, key string) (int64, error)
	SetInt64(ctx context.Context, key string, value int64) error
	Close() error
}

// Backend is the raw string key/value surface each storage backend provides.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

package bolt

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/goodtune/focuswatch/internal/storage"
	"go.etcd.io/bbolt"
)

const bucketSettings = "settings"

// Store implements storage.Backend using bbolt.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store.
func Open(path string) (*Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return storage.EnsureDir(dir)
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketSettings)); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucketSettings, err)
		}
		return nil
	})
}

// Close closes the underlying store database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketSettings))
		if b == nil {
			return storage.ErrNotFound
		}
		raw := b.Get([]byte(key))
		if raw == nil {
			return storage.ErrNotFound
		}
		// raw is only valid for the life of the transaction.
		value = string(raw)
		return nil
	})
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set stores value under key in its own transaction; the write is synced
// before Set returns.
func (s *Store) Set(ctx context.Context, key, value string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketSettings))
		if b == nil {
			return fmt.Errorf("bucket missing: %s", bucketSettings)
		}
		return b.Put([]byte(key), []byte(value))
	})
}

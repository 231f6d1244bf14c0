package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// Settings implements Store over a Backend, encoding every value as text.
type Settings struct {
	backend Backend
}

// NewSettings wraps a backend in the typed Store interface.
func NewSettings(backend Backend) *Settings {
	return &Settings{backend: backend}
}

func (s *Settings) GetString(ctx context.Context, key string) (string, error) {
	return s.backend.Get(ctx, key)
}

func (s *Settings) SetString(ctx context.Context, key, value string) error {
	return s.backend.Set(ctx, key, value)
}

func (s *Settings) GetDouble(ctx context.Context, key string) (float64, error) {
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
	}
	return v, nil
}

func (s *Settings) SetDouble(ctx context.Context, key string, value float64) error {
	return s.backend.Set(ctx, key, strconv.FormatFloat(value, 'g', -1, 64))
}

func (s *Settings) GetBoolean(ctx context.Context, key string) (bool, error) {
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		return false, err
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
	}
	return v, nil
}

func (s *Settings) SetBoolean(ctx context.Context, key string, value bool) error {
	return s.backend.Set(ctx, key, strconv.FormatBool(value))
}

func (s *Settings) GetInt64(ctx context.Context, key string) (int64, error) {
	raw, err := s.backend.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrInvalidValue, key, err)
	}
	return v, nil
}

func (s *Settings) SetInt64(ctx context.Context, key string, value int64) error {
	return s.backend.Set(ctx, key, strconv.FormatInt(value, 10))
}

// Close closes the underlying backend.
func (s *Settings) Close() error {
	return s.backend.Close()
}

// SeedDefaults writes default values for keys that have never been set.
func SeedDefaults(ctx context.Context, store Store, persistTimer bool) error {
	if _, err := store.GetBoolean(ctx, KeyPersistTimer); err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrInvalidValue) {
			return fmt.Errorf("read %s: %w", KeyPersistTimer, err)
		}
		if err := store.SetBoolean(ctx, KeyPersistTimer, persistTimer); err != nil {
			return fmt.Errorf("seed %s: %w", KeyPersistTimer, err)
		}
	}
	return nil
}

// BoolOr reads a boolean, returning fallback when it is missing or invalid.
func BoolOr(ctx context.Context, store Store, key string, fallback bool) (bool, error) {
	v, err := store.GetBoolean(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidValue) {
			return fallback, nil
		}
		return fallback, err
	}
	return v, nil
}

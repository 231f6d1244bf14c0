package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goodtune/focuswatch/internal/storage"
	"github.com/goodtune/focuswatch/internal/storage/memory"
)

func TestSeedDefaults(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key is seeded", func(t *testing.T) {
		store, backend := memory.NewStore()
		if err := storage.SeedDefaults(ctx, store, true); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if raw, _ := backend.Raw(storage.KeyPersistTimer); raw != "true" {
			t.Fatalf("persist-timer = %q, want true", raw)
		}
	})

	t.Run("existing value is kept", func(t *testing.T) {
		store, backend := memory.NewStore()
		_ = store.SetBoolean(ctx, storage.KeyPersistTimer, false)
		if err := storage.SeedDefaults(ctx, store, true); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if raw, _ := backend.Raw(storage.KeyPersistTimer); raw != "false" {
			t.Fatalf("persist-timer = %q, want false", raw)
		}
	})

	t.Run("write failure is reported", func(t *testing.T) {
		store, backend := memory.NewStore()
		backend.SetFailWrites(errors.New("disk full"))
		if err := storage.SeedDefaults(ctx, store, true); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestBoolOr(t *testing.T) {
	ctx := context.Background()
	store, _ := memory.NewStore()

	got, err := storage.BoolOr(ctx, store, storage.KeyWasRunning, true)
	if err != nil || !got {
		t.Fatalf("missing key: got %v, %v", got, err)
	}

	_ = store.SetString(ctx, storage.KeyWasRunning, "maybe")
	got, err = storage.BoolOr(ctx, store, storage.KeyWasRunning, false)
	if err != nil || got {
		t.Fatalf("invalid value: got %v, %v", got, err)
	}

	_ = store.SetBoolean(ctx, storage.KeyWasRunning, true)
	got, err = storage.BoolOr(ctx, store, storage.KeyWasRunning, false)
	if err != nil || !got {
		t.Fatalf("stored value: got %v, %v", got, err)
	}
}

func TestDoubleEncodingKeepsPrecision(t *testing.T) {
	ctx := context.Background()
	store, _ := memory.NewStore()

	const v = 12345.678901234
	if err := store.SetDouble(ctx, storage.KeyElapsedTime, v); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.GetDouble(ctx, storage.KeyElapsedTime)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != v {
		t.Fatalf("got %v, want %v", got, v)
	}
}

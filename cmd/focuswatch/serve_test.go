package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/goodtune/focuswatch/internal/config"
	"github.com/goodtune/focuswatch/internal/storage"
)

func TestOpenStorage(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StorageConfig
		wantErr bool
	}{
		{name: "memory", cfg: config.StorageConfig{Type: "memory"}},
		{name: "bolt", cfg: config.StorageConfig{Type: "bolt", Path: filepath.Join(t.TempDir(), "nested", "fw.bolt")}},
		{name: "unknown", cfg: config.StorageConfig{Type: "sqlite"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := openStorage(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("openStorage: %v", err)
			}
			defer store.Close()

			ctx := context.Background()
			if err := storage.SeedDefaults(ctx, store, true); err != nil {
				t.Fatalf("seed: %v", err)
			}
			if v, err := store.GetBoolean(ctx, storage.KeyPersistTimer); err != nil || !v {
				t.Fatalf("persist-timer = %v, %v", v, err)
			}
		})
	}
}

func TestParseOnOff(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"on", true, false},
		{"OFF", false, false},
		{"yes", true, false},
		{"0", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		got, err := parseOnOff(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parseOnOff(%q) = %v, %v", tt.in, got, err)
		}
	}
}

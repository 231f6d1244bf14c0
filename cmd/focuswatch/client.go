package main

import (
	"context"
	"time"

	"github.com/goodtune/focuswatch/internal/api"
	"github.com/goodtune/focuswatch/internal/config"
)

const clientTimeout = 10 * time.Second

// newClient resolves the daemon address from --addr or the configuration.
func newClient() (*api.Client, error) {
	if controlAddr != "" {
		return api.NewClient(controlAddr), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return api.NewClient(cfg.Server.ControlAddr), nil
}

func clientContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), clientTimeout)
}

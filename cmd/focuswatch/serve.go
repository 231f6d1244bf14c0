package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/goodtune/focuswatch/internal/api"
	"github.com/goodtune/focuswatch/internal/clock"
	"github.com/goodtune/focuswatch/internal/config"
	"github.com/goodtune/focuswatch/internal/controller"
	"github.com/goodtune/focuswatch/internal/metrics"
	"github.com/goodtune/focuswatch/internal/stats"
	"github.com/goodtune/focuswatch/internal/storage"
	"github.com/goodtune/focuswatch/internal/storage/bolt"
	"github.com/goodtune/focuswatch/internal/storage/memory"
	"github.com/goodtune/focuswatch/internal/storage/redis"
	"github.com/goodtune/focuswatch/internal/systemd"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the focuswatch daemon",
	Long:  `Run the daemon that owns the timer, serves the control API and exposes metrics.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting focuswatch")

	// Check for systemd socket activation
	sdListeners, err := systemd.GetListeners()
	if err != nil {
		return fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close storage")
		}
	}()

	logger.Info().
		Str("type", cfg.Storage.Type).
		Str("path", cfg.Storage.Path).
		Msg("Storage initialized")

	ctx := context.Background()
	if err := storage.SeedDefaults(ctx, store, cfg.Timer.PersistDefault); err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}

	clk := clock.RealClock{}
	ledger := stats.Load(ctx, store, clk, logger)
	snapshots, err := stats.NewSnapshotter(ledger, cfg.Stats.CacheSize)
	if err != nil {
		return err
	}

	ctrl := controller.New(store, ledger, clk, controller.Config{
		TickInterval:   config.ParseDuration(cfg.Timer.TickInterval, controller.DefaultTickInterval),
		SaveInterval:   config.ParseDuration(cfg.Timer.SaveInterval, controller.DefaultSaveInterval),
		PersistDefault: cfg.Timer.PersistDefault,
	}, logger)
	if err := ctrl.Restore(ctx); err != nil {
		logger.Warn().Err(err).Msg("Failed to restore timer, starting stopped")
	}
	defer ctrl.Close(ctx)

	apiServer := api.NewServer(cfg.Server.ControlAddr, ctrl, snapshots, logger)
	if sdListeners.Control != nil {
		apiServer.SetListener(sdListeners.Control)
	}
	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start control API: %w", err)
	}

	var metricsServer *metrics.Server
	if cfg.Server.MetricsEnabled {
		metricsServer = metrics.NewServer(cfg.Server.MetricsAddr, logger)
		if sdListeners.Metrics != nil {
			metricsServer.SetListener(sdListeners.Metrics)
		}
		if err := metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	logger.Info().
		Str("control", cfg.Server.ControlAddr).
		Bool("metrics", cfg.Server.MetricsEnabled).
		Str("state", ctrl.Status().State).
		Msg("focuswatch startup complete")

	if sent, err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	} else if sent {
		logger.Debug().Msg("Sent systemd ready notification")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigChan {
		if sig == syscall.SIGHUP {
			logger.Info().Msg("SIGHUP received, saving timer state")
			ctrl.Save(ctx)
			continue
		}
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received, gracefully stopping...")
		break
	}
	signal.Stop(sigChan)

	if _, err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	if err := apiServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping control API")
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(); err != nil {
			logger.Error().Err(err).Msg("Error stopping metrics server")
		}
	}

	logger.Info().Msg("focuswatch stopped")
	return nil
}

func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "", "bolt":
		backend, err := bolt.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return storage.NewSettings(backend), nil
	case "redis":
		backend, err := redis.Open(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return storage.NewSettings(backend), nil
	case "memory":
		return storage.NewSettings(memory.New()), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

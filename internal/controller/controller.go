// Package controller drives a single focus timer from user actions, owns its
// tick loop and persists its state so a session survives a restart.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goodtune/focuswatch/internal/clock"
	"github.com/goodtune/focuswatch/internal/metrics"
	"github.com/goodtune/focuswatch/internal/stats"
	"github.com/goodtune/focuswatch/internal/storage"
	"github.com/goodtune/focuswatch/internal/timefmt"
	"github.com/goodtune/focuswatch/internal/timer"
)

const (
	DefaultTickInterval = time.Second
	DefaultSaveInterval = 5 * time.Second
)

// Config controls tick and save cadence.
type Config struct {
	TickInterval time.Duration
	SaveInterval time.Duration

	// PersistDefault is used when the persist-timer preference is unset.
	PersistDefault bool
}

// Status is a point-in-time view of the timer.
type Status struct {
	State          string     `json:"state"`
	ElapsedSeconds float64    `json:"elapsed_seconds"`
	Elapsed        string     `json:"elapsed"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	SessionID      string     `json:"session_id,omitempty"`
}

// Controller serializes every action on one Timer.
type Controller struct {
	mu        sync.Mutex
	timer     *timer.Timer
	ledger    *stats.Ledger
	store     storage.Store
	clock     clock.Clock
	config    Config
	logger    zerolog.Logger
	tick      *tickLoop
	lastSave  time.Time
	sessionID string
}

type tickLoop struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a controller with a stopped timer. Call Restore to pick up a
// previously saved session.
func New(store storage.Store, ledger *stats.Ledger, clk clock.Clock, cfg Config, logger zerolog.Logger) *Controller {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.SaveInterval <= 0 {
		cfg.SaveInterval = DefaultSaveInterval
	}
	metrics.TimerState.Set(metrics.StateStopped)
	metrics.TimerElapsed.Set(0)

	return &Controller{
		timer:  timer.New(clk),
		ledger: ledger,
		store:  store,
		clock:  clk,
		config: cfg,
		logger: logger.With().Str("component", "controller").Logger(),
	}
}

// Toggle pauses a running timer and otherwise starts or resumes it.
func (c *Controller) Toggle(ctx context.Context) (Status, error) {
	c.mu.Lock()
	var err error
	var done <-chan struct{}
	if c.timer.IsRunning() {
		done, err = c.pauseLocked(ctx)
	} else {
		done, err = c.startResumeLocked()
	}
	status := c.statusLocked()
	c.mu.Unlock()

	wait(done)
	return status, err
}

// StartResume starts a stopped timer or resumes a paused one.
func (c *Controller) StartResume(ctx context.Context) error {
	c.mu.Lock()
	done, err := c.startResumeLocked()
	c.mu.Unlock()

	wait(done)
	return err
}

// Pause freezes a running timer and saves its state.
func (c *Controller) Pause(ctx context.Context) error {
	c.mu.Lock()
	done, err := c.pauseLocked(ctx)
	c.mu.Unlock()

	wait(done)
	return err
}

// Reset records the current session in the ledger, stops the timer and
// clears its persisted state. The session is recorded only when it has
// elapsed time.
func (c *Controller) Reset(ctx context.Context) (Status, error) {
	c.mu.Lock()
	done := c.stopTickLocked()

	var recordErr error
	if c.timer.IsRunning() {
		_ = c.timer.UpdateElapsedTime()
	}
	if elapsed := c.timer.ElapsedSeconds(); elapsed > 0 {
		started, ok := c.timer.StartTime()
		if !ok {
			started = c.clock.Now()
		}
		if err := c.ledger.AddSession(ctx, elapsed, started); err != nil {
			metrics.StoreErrors.WithLabelValues("add_session").Inc()
			c.logger.Error().Err(err).Str("session_id", c.sessionID).Msg("Failed to persist session")
			recordErr = fmt.Errorf("record session: %w", err)
		}
		metrics.RecordSession(elapsed)
		c.logger.Info().
			Str("session_id", c.sessionID).
			Float64("seconds", elapsed).
			Str("date", timefmt.DayKey(started)).
			Msg("Session recorded")
	}

	c.timer.Stop()
	c.clearLocked(ctx)
	c.lastSave = time.Time{}
	c.sessionID = ""
	c.observeLocked()
	status := c.statusLocked()
	c.mu.Unlock()

	wait(done)
	return status, recordErr
}

// Restore reloads a saved session when persistence is enabled. A restored
// session comes back paused, and resumes when it was running at save time.
func (c *Controller) Restore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	persist, err := storage.BoolOr(ctx, c.store, storage.KeyPersistTimer, c.config.PersistDefault)
	if err != nil {
		return fmt.Errorf("read %s: %w", storage.KeyPersistTimer, err)
	}
	if !persist {
		c.logger.Debug().Msg("Timer persistence disabled, skipping restore")
		return nil
	}

	elapsed, err := c.store.GetDouble(ctx, storage.KeyElapsedTime)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidValue) {
			c.logger.Debug().Msg("No saved timer to restore")
			return nil
		}
		return fmt.Errorf("read %s: %w", storage.KeyElapsedTime, err)
	}
	if elapsed <= 0 {
		c.logger.Debug().Msg("No saved timer to restore")
		return nil
	}

	wasRunning, err := storage.BoolOr(ctx, c.store, storage.KeyWasRunning, false)
	if err != nil {
		return fmt.Errorf("read %s: %w", storage.KeyWasRunning, err)
	}
	var started time.Time
	if ms, err := c.store.GetInt64(ctx, storage.KeyStartTimestamp); err == nil && ms > 0 {
		started = time.UnixMilli(ms)
	}

	c.timer.Restore(timer.Snapshot{
		Elapsed:   time.Duration(elapsed * float64(time.Second)),
		StartTime: started,
	})
	c.sessionID = uuid.NewString()
	c.logger.Info().
		Str("session_id", c.sessionID).
		Float64("elapsed", elapsed).
		Bool("was_running", wasRunning).
		Msg("Restored timer")

	if wasRunning {
		// A loop from an earlier restore sees its context cancelled and exits.
		if _, err := c.startResumeLocked(); err != nil {
			return err
		}
	}
	c.observeLocked()
	return nil
}

// Save writes the timer state when persistence is enabled and clears it
// otherwise. Failures are logged and counted.
func (c *Controller) Save(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saveLocked(ctx)
}

// Close saves the timer and stops the tick loop.
func (c *Controller) Close(ctx context.Context) {
	c.mu.Lock()
	c.saveLocked(ctx)
	done := c.stopTickLocked()
	c.mu.Unlock()

	wait(done)
	c.logger.Debug().Msg("Controller closed")
}

// Status returns the current timer view.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// ClearStats removes every recorded day from the ledger.
func (c *Controller) ClearStats(ctx context.Context) error {
	if err := c.ledger.Clear(ctx); err != nil {
		metrics.StoreErrors.WithLabelValues("clear_stats").Inc()
		return err
	}
	return nil
}

// Persist reports whether timer persistence is enabled.
func (c *Controller) Persist(ctx context.Context) (bool, error) {
	return storage.BoolOr(ctx, c.store, storage.KeyPersistTimer, c.config.PersistDefault)
}

// SetPersist changes the persistence preference. Disabling it clears any
// saved timer state immediately.
func (c *Controller) SetPersist(ctx context.Context, enabled bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.SetBoolean(ctx, storage.KeyPersistTimer, enabled); err != nil {
		metrics.StoreErrors.WithLabelValues("set_persist").Inc()
		return fmt.Errorf("write %s: %w", storage.KeyPersistTimer, err)
	}
	c.logger.Info().Bool("enabled", enabled).Msg("Timer persistence changed")
	c.saveLocked(ctx)
	return nil
}

func (c *Controller) startResumeLocked() (<-chan struct{}, error) {
	var err error
	if c.timer.IsPaused() {
		err = c.timer.Resume()
	} else {
		err = c.timer.Start()
		if err == nil {
			c.sessionID = uuid.NewString()
		}
	}
	if err != nil {
		return nil, err
	}

	done := c.stopTickLocked()
	c.startTickLocked()
	c.observeLocked()
	c.logger.Info().Str("session_id", c.sessionID).Msg("Timer running")
	return done, nil
}

func (c *Controller) pauseLocked(ctx context.Context) (<-chan struct{}, error) {
	if err := c.timer.Pause(); err != nil {
		return nil, err
	}
	done := c.stopTickLocked()
	c.saveLocked(ctx)
	c.observeLocked()
	c.logger.Info().
		Str("session_id", c.sessionID).
		Float64("elapsed", c.timer.ElapsedSeconds()).
		Msg("Timer paused")
	return done, nil
}

// startTickLocked launches a tick loop. Any previous loop must already have
// been cancelled.
func (c *Controller) startTickLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	loop := &tickLoop{cancel: cancel, done: make(chan struct{})}
	c.tick = loop

	ticker := c.clock.NewTicker(c.config.TickInterval)
	go func() {
		defer close(loop.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				c.onTick(ctx)
			}
		}
	}()
}

// stopTickLocked cancels the running loop. The caller waits on the returned
// channel after releasing the lock; a tick already queued on the lock sees
// its context cancelled and does nothing.
func (c *Controller) stopTickLocked() <-chan struct{} {
	if c.tick == nil {
		return nil
	}
	loop := c.tick
	c.tick = nil
	loop.cancel()
	return loop.done
}

func (c *Controller) onTick(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	if err := c.timer.UpdateElapsedTime(); err != nil {
		c.logger.Debug().Err(err).Msg("Skipping tick")
		return
	}
	metrics.Ticks.Inc()
	c.observeLocked()

	now := c.clock.Now()
	if c.lastSave.IsZero() || now.Sub(c.lastSave) >= c.config.SaveInterval {
		c.saveLocked(ctx)
		c.lastSave = now
	}
}

func (c *Controller) saveLocked(ctx context.Context) {
	persist, err := storage.BoolOr(ctx, c.store, storage.KeyPersistTimer, c.config.PersistDefault)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("read_persist").Inc()
		c.logger.Error().Err(err).Msg("Failed to read persistence preference")
		return
	}
	if !persist {
		c.clearLocked(ctx)
		return
	}

	elapsed := c.timer.ElapsedSeconds()
	if err := c.store.SetDouble(ctx, storage.KeyElapsedTime, elapsed); err != nil {
		c.saveFailed(err, storage.KeyElapsedTime)
		return
	}
	if err := c.store.SetBoolean(ctx, storage.KeyWasRunning, c.timer.IsRunning()); err != nil {
		c.saveFailed(err, storage.KeyWasRunning)
		return
	}
	if started, ok := c.timer.StartTime(); ok {
		if err := c.store.SetInt64(ctx, storage.KeyStartTimestamp, started.UnixMilli()); err != nil {
			c.saveFailed(err, storage.KeyStartTimestamp)
			return
		}
	}

	c.logger.Debug().
		Str("session_id", c.sessionID).
		Float64("elapsed", elapsed).
		Bool("running", c.timer.IsRunning()).
		Msg("Saved timer state")
}

func (c *Controller) clearLocked(ctx context.Context) {
	if err := c.store.SetDouble(ctx, storage.KeyElapsedTime, 0); err != nil {
		c.saveFailed(err, storage.KeyElapsedTime)
		return
	}
	if err := c.store.SetBoolean(ctx, storage.KeyWasRunning, false); err != nil {
		c.saveFailed(err, storage.KeyWasRunning)
		return
	}
	if err := c.store.SetInt64(ctx, storage.KeyStartTimestamp, 0); err != nil {
		c.saveFailed(err, storage.KeyStartTimestamp)
	}
}

func (c *Controller) saveFailed(err error, key string) {
	metrics.StoreErrors.WithLabelValues("save").Inc()
	c.logger.Error().Err(err).Str("key", key).Msg("Failed to save timer state")
}

func (c *Controller) observeLocked() {
	metrics.TimerElapsed.Set(c.timer.ElapsedSeconds())
	switch c.timer.State() {
	case timer.Running:
		metrics.TimerState.Set(metrics.StateRunning)
	case timer.Paused:
		metrics.TimerState.Set(metrics.StatePaused)
	default:
		metrics.TimerState.Set(metrics.StateStopped)
	}
}

func (c *Controller) statusLocked() Status {
	elapsed := c.timer.ElapsedSeconds()
	s := Status{
		State:          c.timer.State().String(),
		ElapsedSeconds: elapsed,
		Elapsed:        timefmt.FormatElapsed(elapsed),
		SessionID:      c.sessionID,
	}
	if started, ok := c.timer.StartTime(); ok {
		s.StartedAt = &started
	}
	return s
}

func wait(done <-chan struct{}) {
	if done != nil {
		<-done
	}
}

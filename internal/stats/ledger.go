// Package stats keeps the durable per-day ledger of completed focus sessions
// and answers aggregate queries over day windows.
package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goodtune/focuswatch/internal/clock"
	"github.com/goodtune/focuswatch/internal/storage"
	"github.com/goodtune/focuswatch/internal/timefmt"
	"github.com/rs/zerolog"
)

const (
	// DefaultStatsDays is the window used by Stats and MaxDay callers that
	// have no preference.
	DefaultStatsDays = 365

	// DefaultAverageDays is the window of the headline average.
	DefaultAverageDays = 7
)

// DayStat is the recorded time for one calendar day.
type DayStat struct {
	Date    string  `json:"date"`
	Seconds float64 `json:"seconds"`
}

// Ledger accumulates session durations by local calendar day. Every mutation
// is written through to the store before it returns.
type Ledger struct {
	store    storage.Store
	clock    clock.Clock
	logger   zerolog.Logger
	days     map[string]float64
	revision uint64
	mu       sync.RWMutex
}

// Load builds a ledger from the persisted stats map. A missing or malformed
// payload yields an empty ledger; it is logged, never returned.
func Load(ctx context.Context, store storage.Store, clk clock.Clock, logger zerolog.Logger) *Ledger {
	if clk == nil {
		clk = clock.RealClock{}
	}
	l := &Ledger{
		store:  store,
		clock:  clk,
		logger: logger.With().Str("component", "stats-ledger").Logger(),
	}
	l.days = l.load(ctx)
	return l
}

func (l *Ledger) load(ctx context.Context) map[string]float64 {
	raw, err := l.store.GetString(ctx, storage.KeyStats)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			l.logger.Debug().Msg("No stored stats, starting empty")
		} else {
			l.logger.Warn().Err(err).Msg("Failed to read stats, starting empty")
		}
		return make(map[string]float64)
	}

	var days map[string]float64
	if err := json.Unmarshal([]byte(raw), &days); err != nil {
		l.logger.Warn().Err(err).Msg("Stored stats are malformed, starting empty")
		return make(map[string]float64)
	}
	if days == nil {
		days = make(map[string]float64)
	}

	l.logger.Debug().Int("days", len(days)).Msg("Loaded stats")
	return days
}

// save must be called with the write lock held.
func (l *Ledger) save(ctx context.Context) error {
	data, err := json.Marshal(l.days)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	if err := l.store.SetString(ctx, storage.KeyStats, string(data)); err != nil {
		return fmt.Errorf("write stats: %w", err)
	}
	return nil
}

// AddSession adds seconds to the day containing date. A zero date means now.
// Callers are expected to skip zero-length sessions.
func (l *Ledger) AddSession(ctx context.Context, seconds float64, date time.Time) error {
	if date.IsZero() {
		date = l.clock.Now()
	}
	key := timefmt.DayKey(date)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.days[key] += seconds
	l.revision++

	l.logger.Debug().
		Str("date", key).
		Float64("seconds", seconds).
		Float64("day_total", l.days[key]).
		Msg("Added session")

	return l.save(ctx)
}

// Clear removes every recorded day.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.days = make(map[string]float64)
	l.revision++

	l.logger.Info().Msg("Cleared stats")
	return l.save(ctx)
}

// Stats returns exactly days entries, today first, walking backward. Days
// without sessions are present with zero seconds.
func (l *Ledger) Stats(days int) []DayStat {
	if days <= 0 {
		return []DayStat{}
	}
	today := timefmt.StartOfDay(l.clock.Now())

	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]DayStat, 0, days)
	for i := 0; i < days; i++ {
		key := timefmt.DayKey(today.AddDate(0, 0, -i))
		out = append(out, DayStat{Date: key, Seconds: l.days[key]})
	}
	return out
}

// StatsMap is Stats keyed by date.
func (l *Ledger) StatsMap(days int) map[string]float64 {
	window := l.Stats(days)
	out := make(map[string]float64, len(window))
	for _, d := range window {
		out[d.Date] = d.Seconds
	}
	return out
}

// TotalTime sums every day ever recorded, regardless of any window.
func (l *Ledger) TotalTime() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total float64
	for _, seconds := range l.days {
		total += seconds
	}
	return total
}

// AverageTime averages over the days in the window that have recorded time.
// Days with no time are left out of the denominator.
func (l *Ledger) AverageTime(days int) float64 {
	var sum float64
	active := 0
	for _, d := range l.Stats(days) {
		sum += d.Seconds
		if d.Seconds > 0 {
			active++
		}
	}
	if active == 0 {
		return 0
	}
	return sum / float64(active)
}

// MaxDay returns the day with the strictly greatest time in the window. Ties
// go to the day nearest today. ok is false when every day is zero.
func (l *Ledger) MaxDay(days int) (best DayStat, ok bool) {
	for _, d := range l.Stats(days) {
		if d.Seconds > best.Seconds {
			best = d
			ok = true
		}
	}
	return best, ok
}

// Revision changes on every mutation.
func (l *Ledger) Revision() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.revision
}

// Now returns the ledger clock's current time.
func (l *Ledger) Now() time.Time {
	return l.clock.Now()
}

package stats

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/goodtune/focuswatch/internal/timefmt"
)

// Summary holds the headline numbers shown above the heatmap.
type Summary struct {
	TotalSeconds   float64  `json:"total_seconds"`
	AverageSeconds float64  `json:"average_seconds"`
	AverageDays    int      `json:"average_days"`
	BestDay        *DayStat `json:"best_day,omitempty"`
}

// Snapshot is everything a stats view renders. Window and Heatmap are shared
// with the cache and must not be modified.
type Snapshot struct {
	GeneratedAt time.Time `json:"generated_at"`
	Days        int       `json:"days"`
	Summary     Summary   `json:"summary"`
	Window      []DayStat `json:"window"`
	Heatmap     Grid      `json:"heatmap"`
}

// Snapshotter memoises snapshots per ledger revision, day and window size.
type Snapshotter struct {
	ledger *Ledger
	cache  *lru.Cache[string, Snapshot]
}

// NewSnapshotter creates a snapshot cache holding up to size entries.
func NewSnapshotter(ledger *Ledger, size int) (*Snapshotter, error) {
	cache, err := lru.New[string, Snapshot](size)
	if err != nil {
		return nil, fmt.Errorf("create snapshot cache: %w", err)
	}
	return &Snapshotter{ledger: ledger, cache: cache}, nil
}

// Snapshot returns the snapshot for a window of days ending today.
func (s *Snapshotter) Snapshot(days int) Snapshot {
	now := s.ledger.Now()
	key := fmt.Sprintf("%d/%s/%d", s.ledger.Revision(), timefmt.DayKey(now), days)
	if snap, ok := s.cache.Get(key); ok {
		return snap
	}

	snap := Build(s.ledger, days, now)
	s.cache.Add(key, snap)
	return snap
}

// Build computes a snapshot without caching.
func Build(ledger *Ledger, days int, now time.Time) Snapshot {
	window := ledger.Stats(days)
	summary := Summary{
		TotalSeconds:   ledger.TotalTime(),
		AverageSeconds: ledger.AverageTime(DefaultAverageDays),
		AverageDays:    DefaultAverageDays,
	}
	if best, ok := ledger.MaxDay(DefaultStatsDays); ok {
		summary.BestDay = &best
	}

	return Snapshot{
		GeneratedAt: now,
		Days:        days,
		Summary:     summary,
		Window:      window,
		Heatmap:     Heatmap(window, now),
	}
}

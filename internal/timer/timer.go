// Package timer implements the focus stopwatch state machine.
//
// A Timer converts discrete user actions (start, pause, resume, stop) plus
// wall-clock sampling into an authoritative elapsed time. Elapsed time only
// advances while the timer is running; it is reconciled against the clock on
// every tick and on pause.
package timer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goodtune/focuswatch/internal/clock"
)

// ErrInvalidTransition is returned when an action is not valid in the
// current state. The timer is left untouched.
var ErrInvalidTransition = errors.New("timer: invalid transition")

// State is the stopwatch state.
type State int

const (
	Stopped State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot is the persisted form of a timer used by the restore path.
type Snapshot struct {
	Elapsed   time.Duration
	StartTime time.Time // zero when unknown
}

// Timer is a single stopwatch.
type Timer struct {
	clock      clock.Clock
	state      State
	elapsed    time.Duration
	startTime  time.Time
	lastUpdate time.Time
	mu         sync.Mutex
}

// New creates a stopped timer with zero elapsed time.
func New(c clock.Clock) *Timer {
	if c == nil {
		c = clock.RealClock{}
	}
	return &Timer{clock: c}
}

// Start begins a new session. Valid only from Stopped.
func (t *Timer) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Stopped {
		return t.invalid("start")
	}
	now := t.clock.Now()
	t.startTime = now
	t.lastUpdate = now
	t.state = Running
	return nil
}

// Resume continues a paused session without changing elapsed time.
func (t *Timer) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Paused {
		return t.invalid("resume")
	}
	t.lastUpdate = t.clock.Now()
	t.state = Running
	return nil
}

// Pause flushes the pending delta into elapsed time and freezes it.
func (t *Timer) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Running {
		return t.invalid("pause")
	}
	t.advance()
	t.state = Paused
	return nil
}

// UpdateElapsedTime adds the time since the last reconciliation. It is what
// the periodic tick calls; two calls at the same instant add nothing.
func (t *Timer) UpdateElapsedTime() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Running {
		return t.invalid("update")
	}
	t.advance()
	return nil
}

// Stop returns to Stopped, zeroes elapsed time and clears the session start.
// Callers that want to record the session must read it before stopping.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = Stopped
	t.elapsed = 0
	t.startTime = time.Time{}
	t.lastUpdate = time.Time{}
}

// SetElapsedTime seeds elapsed time. Only the restore path uses it.
func (t *Timer) SetElapsedTime(seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.elapsed = secondsToDuration(seconds)
}

// Restore rebuilds a previously saved session in the Paused state. The last
// update is set to now so the gap since the save is not counted.
func (t *Timer) Restore(s Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s.Elapsed < 0 {
		s.Elapsed = 0
	}
	t.elapsed = s.Elapsed
	t.startTime = s.StartTime
	t.lastUpdate = t.clock.Now()
	t.state = Paused
}

// IsRunning reports whether the timer is running.
func (t *Timer) IsRunning() bool {
	return t.State() == Running
}

// IsPaused reports whether the timer is paused.
func (t *Timer) IsPaused() bool {
	return t.State() == Paused
}

// State returns the current state.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Elapsed returns the accumulated time as of the last reconciliation.
func (t *Timer) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsed
}

// ElapsedSeconds returns Elapsed in seconds.
func (t *Timer) ElapsedSeconds() float64 {
	return t.Elapsed().Seconds()
}

// StartTime returns the session start and whether one is set.
func (t *Timer) StartTime() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.startTime, !t.startTime.IsZero()
}

// Snapshot returns the fields the restore path needs.
func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{Elapsed: t.elapsed, StartTime: t.startTime}
}

// advance must be called with the lock held.
func (t *Timer) advance() {
	now := t.clock.Now()
	// A clock stepped backwards adds nothing.
	if delta := now.Sub(t.lastUpdate); delta > 0 {
		t.elapsed += delta
	}
	t.lastUpdate = now
}

func (t *Timer) invalid(action string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, action, t.state)
}

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

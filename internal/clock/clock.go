package clock

import (
	"sync"
	"time"
)

// Clock provides wall-clock time and tick sources.
// This interface allows time to be mocked in tests.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

// Ticker delivers ticks until stopped.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// RealClock provides actual system time.
type RealClock struct{}

// Now returns the current system time.
func (RealClock) Now() time.Time {
	return time.Now()
}

// NewTicker wraps time.NewTicker.
func (RealClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// TestClock provides manually advanced time for testing.
type TestClock struct {
	mu          sync.Mutex
	CurrentTime time.Time
	tickers     []*TestTicker
}

// NewTestClock returns a TestClock set to now.
func NewTestClock(now time.Time) *TestClock {
	return &TestClock{CurrentTime: now}
}

// Now returns the test time.
func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.CurrentTime
}

// Set moves the clock to t.
func (c *TestClock) Set(t time.Time) {
	c.mu.Lock()
	c.CurrentTime = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *TestClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.CurrentTime = c.CurrentTime.Add(d)
	c.mu.Unlock()
}

// NewTicker returns a ticker that only fires from Tick.
func (c *TestClock) NewTicker(time.Duration) Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &TestTicker{ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, t)
	return t
}

// Tickers returns how many tickers were created and how many are still live.
func (c *TestClock) Tickers() (created, live int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.tickers {
		if !t.stopped() {
			live++
		}
	}
	return len(c.tickers), live
}

// Tick advances the clock by d and fires every live ticker. A tick is dropped
// when the previous one has not been consumed yet, as with time.Ticker.
func (c *TestClock) Tick(d time.Duration) {
	c.mu.Lock()
	c.CurrentTime = c.CurrentTime.Add(d)
	now := c.CurrentTime
	tickers := append([]*TestTicker(nil), c.tickers...)
	c.mu.Unlock()

	for _, t := range tickers {
		t.fire(now)
	}
}

// TestTicker is the Ticker handed out by TestClock.
type TestTicker struct {
	mu   sync.Mutex
	ch   chan time.Time
	done bool
}

func (t *TestTicker) C() <-chan time.Time { return t.ch }

func (t *TestTicker) Stop() {
	t.mu.Lock()
	t.done = true
	t.mu.Unlock()
}

func (t *TestTicker) stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

func (t *TestTicker) fire(now time.Time) {
	if t.stopped() {
		return
	}
	select {
	case t.ch <- now:
	default:
	}
}

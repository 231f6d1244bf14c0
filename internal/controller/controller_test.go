package controller

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/goodtune/focuswatch/internal/clock"
	"github.com/goodtune/focuswatch/internal/metrics"
	"github.com/goodtune/focuswatch/internal/stats"
	"github.com/goodtune/focuswatch/internal/storage"
	"github.com/goodtune/focuswatch/internal/storage/memory"
	"github.com/goodtune/focuswatch/internal/timer"
)

var epoch = time.Date(2024, 5, 8, 9, 0, 0, 0, time.Local)

type fixture struct {
	ctrl    *Controller
	ledger  *stats.Ledger
	store   storage.Store
	backend *memory.Backend
	clock   *clock.TestClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, backend := memory.NewStore()
	return newFixtureWithStore(t, store, backend, clock.NewTestClock(epoch))
}

func newFixtureWithStore(t *testing.T, store storage.Store, backend *memory.Backend, clk *clock.TestClock) *fixture {
	t.Helper()
	ctx := context.Background()
	if err := storage.SeedDefaults(ctx, store, true); err != nil {
		t.Fatalf("seed defaults: %v", err)
	}
	ledger := stats.Load(ctx, store, clk, zerolog.Nop())
	ctrl := New(store, ledger, clk, Config{PersistDefault: true}, zerolog.Nop())
	t.Cleanup(func() { ctrl.Close(context.Background()) })
	return &fixture{ctrl: ctrl, ledger: ledger, store: store, backend: backend, clock: clk}
}

// waitFor polls cond until it holds; tick handling happens on the loop
// goroutine.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func (f *fixture) tickTo(t *testing.T, elapsed float64) {
	t.Helper()
	f.clock.Tick(time.Second)
	waitFor(t, "elapsed "+strconv.FormatFloat(elapsed, 'g', -1, 64), func() bool {
		return f.ctrl.Status().ElapsedSeconds == elapsed
	})
}

func (f *fixture) raw(t *testing.T, key string) string {
	t.Helper()
	v, ok := f.backend.Raw(key)
	if !ok {
		t.Fatalf("key %s not stored", key)
	}
	return v
}

func TestController_Scenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.ctrl.StartResume(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 1; i <= 3; i++ {
		f.tickTo(t, float64(i))
	}
	if err := f.ctrl.Pause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if got := f.ctrl.Status().ElapsedSeconds; got != 3 {
		t.Fatalf("elapsed after pause = %v, want 3", got)
	}

	f.clock.Set(epoch.Add(10 * time.Second))
	if err := f.ctrl.StartResume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if got := f.ctrl.Status().ElapsedSeconds; got != 3 {
		t.Fatalf("elapsed after resume = %v, want 3", got)
	}
	f.tickTo(t, 4)

	status, err := f.ctrl.Reset(ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if status.State != "stopped" || status.ElapsedSeconds != 0 || status.StartedAt != nil {
		t.Fatalf("status after reset = %+v", status)
	}
	if got := f.ledger.StatsMap(1)["2024-05-08"]; got != 4 {
		t.Fatalf("recorded = %v, want 4", got)
	}
}

func TestController_Toggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status, err := f.ctrl.Toggle(ctx)
	if err != nil || status.State != "running" || status.SessionID == "" {
		t.Fatalf("first toggle = %+v, %v", status, err)
	}
	session := status.SessionID

	f.clock.Advance(90 * time.Second)
	status, err = f.ctrl.Toggle(ctx)
	if err != nil || status.State != "paused" || status.ElapsedSeconds != 90 {
		t.Fatalf("second toggle = %+v, %v", status, err)
	}
	if status.Elapsed != "01:30" {
		t.Fatalf("formatted elapsed = %q", status.Elapsed)
	}

	status, _ = f.ctrl.Toggle(ctx)
	if status.State != "running" || status.SessionID != session {
		t.Fatalf("resume kept session? %+v", status)
	}
}

func TestController_InvalidPause(t *testing.T) {
	f := newFixture(t)
	err := f.ctrl.Pause(context.Background())
	if !errors.Is(err, timer.ErrInvalidTransition) {
		t.Fatalf("pause while stopped: %v", err)
	}
	if got := f.ctrl.Status().State; got != "stopped" {
		t.Fatalf("state = %s", got)
	}
}

func TestController_SingleTickLoop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_ = f.ctrl.StartResume(ctx)
	_ = f.ctrl.Pause(ctx)
	_ = f.ctrl.StartResume(ctx)
	_, _ = f.ctrl.Toggle(ctx)
	_, _ = f.ctrl.Toggle(ctx)

	created, live := f.clock.Tickers()
	if created != 3 || live != 1 {
		t.Fatalf("tickers created=%d live=%d, want 3 and 1", created, live)
	}

	// One tick advances by exactly the tick, not once per loop.
	f.tickTo(t, 1)
	time.Sleep(10 * time.Millisecond)
	if got := f.ctrl.Status().ElapsedSeconds; got != 1 {
		t.Fatalf("elapsed = %v, want 1", got)
	}

	_ = f.ctrl.Pause(ctx)
	if _, live := f.clock.Tickers(); live != 0 {
		t.Fatalf("live tickers after pause = %d", live)
	}
}

func TestController_PeriodicSave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.ctrl.StartResume(ctx)

	// The first tick always saves.
	f.tickTo(t, 1)
	if got := f.raw(t, storage.KeyElapsedTime); got != "1" {
		t.Fatalf("elapsed-time = %s, want 1", got)
	}
	if got := f.raw(t, storage.KeyWasRunning); got != "true" {
		t.Fatalf("was-running = %s", got)
	}
	if got := f.raw(t, storage.KeyStartTimestamp); got != strconv.FormatInt(epoch.UnixMilli(), 10) {
		t.Fatalf("start-timestamp = %s", got)
	}

	for i := 2; i <= 5; i++ {
		f.tickTo(t, float64(i))
	}
	if got := f.raw(t, storage.KeyElapsedTime); got != "1" {
		t.Fatalf("saved before interval: elapsed-time = %s", got)
	}

	f.clock.Tick(time.Second)
	waitFor(t, "save at 6s", func() bool {
		v, _ := f.backend.Raw(storage.KeyElapsedTime)
		return v == "6"
	})
}

func TestController_PauseSaves(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.ctrl.StartResume(ctx)
	f.clock.Advance(42 * time.Second)
	_ = f.ctrl.Pause(ctx)

	if got := f.raw(t, storage.KeyElapsedTime); got != "42" {
		t.Fatalf("elapsed-time = %s", got)
	}
	if got := f.raw(t, storage.KeyWasRunning); got != "false" {
		t.Fatalf("was-running = %s", got)
	}
}

func TestController_ResetClearsPersistedState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.ctrl.StartResume(ctx)
	f.clock.Advance(30 * time.Second)
	_ = f.ctrl.Pause(ctx)

	if _, err := f.ctrl.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	want := map[string]string{
		storage.KeyElapsedTime:    "0",
		storage.KeyWasRunning:     "false",
		storage.KeyStartTimestamp: "0",
	}
	for key, v := range want {
		if got := f.raw(t, key); got != v {
			t.Errorf("%s = %s, want %s", key, got, v)
		}
	}
	if got := f.ctrl.Status().SessionID; got != "" {
		t.Fatalf("session id after reset = %q", got)
	}
}

func TestController_ResetRunningFlushesElapsed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.ctrl.StartResume(ctx)
	f.clock.Advance(1500 * time.Millisecond)

	if _, err := f.ctrl.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := f.ledger.TotalTime(); got != 1.5 {
		t.Fatalf("recorded = %v, want 1.5", got)
	}
	if _, live := f.clock.Tickers(); live != 0 {
		t.Fatalf("live tickers after reset = %d", live)
	}
}

func TestController_ResetEmptySessionRecordsNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.ctrl.StartResume(ctx)

	rev := f.ledger.Revision()
	if _, err := f.ctrl.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if f.ledger.Revision() != rev {
		t.Fatal("zero-length session was recorded")
	}
	if _, err := f.ctrl.Reset(ctx); err != nil {
		t.Fatalf("reset while stopped: %v", err)
	}
}

func TestController_ResetWriteFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.ctrl.StartResume(ctx)
	f.clock.Advance(time.Minute)
	_ = f.ctrl.Pause(ctx)

	before := testutil.ToFloat64(metrics.StoreErrors.WithLabelValues("add_session"))
	f.backend.SetFailWrites(errors.New("disk full"))

	status, err := f.ctrl.Reset(ctx)
	if err == nil {
		t.Fatal("expected record error")
	}
	if status.State != "stopped" {
		t.Fatalf("state = %s, want stopped", status.State)
	}
	if got := f.ledger.TotalTime(); got != 60 {
		t.Fatalf("in-memory total = %v, want 60", got)
	}
	if got := testutil.ToFloat64(metrics.StoreErrors.WithLabelValues("add_session")); got != before+1 {
		t.Fatalf("store errors = %v, want %v", got, before+1)
	}
}

func seedSaved(t *testing.T, store storage.Store, elapsed float64, running bool, started time.Time) {
	t.Helper()
	ctx := context.Background()
	if err := store.SetDouble(ctx, storage.KeyElapsedTime, elapsed); err != nil {
		t.Fatal(err)
	}
	if err := store.SetBoolean(ctx, storage.KeyWasRunning, running); err != nil {
		t.Fatal(err)
	}
	var ms int64
	if !started.IsZero() {
		ms = started.UnixMilli()
	}
	if err := store.SetInt64(ctx, storage.KeyStartTimestamp, ms); err != nil {
		t.Fatal(err)
	}
}

func TestController_RestorePaused(t *testing.T) {
	store, backend := memory.NewStore()
	started := epoch.Add(-time.Hour)
	seedSaved(t, store, 125.5, false, started)

	f := newFixtureWithStore(t, store, backend, clock.NewTestClock(epoch))
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := f.ctrl.Restore(ctx); err != nil {
			t.Fatalf("restore %d: %v", i, err)
		}
		status := f.ctrl.Status()
		if status.State != "paused" || status.ElapsedSeconds != 125.5 {
			t.Fatalf("restore %d: status = %+v", i, status)
		}
		if status.StartedAt == nil || !status.StartedAt.Equal(started) {
			t.Fatalf("restore %d: started = %v", i, status.StartedAt)
		}
	}
	if _, live := f.clock.Tickers(); live != 0 {
		t.Fatalf("paused restore started %d tickers", live)
	}
}

func TestController_RestoreRunningSkipsGap(t *testing.T) {
	store, backend := memory.NewStore()
	seedSaved(t, store, 10, true, epoch.Add(-10*time.Second))

	// The daemon comes back an hour later.
	clk := clock.NewTestClock(epoch.Add(time.Hour))
	f := newFixtureWithStore(t, store, backend, clk)
	if err := f.ctrl.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}

	status := f.ctrl.Status()
	if status.State != "running" || status.ElapsedSeconds != 10 {
		t.Fatalf("status = %+v", status)
	}
	f.tickTo(t, 11)
}

func TestController_RestoreWithoutStartTimestamp(t *testing.T) {
	store, backend := memory.NewStore()
	seedSaved(t, store, 5, false, time.Time{})

	f := newFixtureWithStore(t, store, backend, clock.NewTestClock(epoch))
	if err := f.ctrl.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if status := f.ctrl.Status(); status.StartedAt != nil || status.ElapsedSeconds != 5 {
		t.Fatalf("status = %+v", status)
	}

	// The session is attributed to the reset day.
	if _, err := f.ctrl.Reset(context.Background()); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := f.ledger.StatsMap(1)["2024-05-08"]; got != 5 {
		t.Fatalf("recorded = %v", got)
	}
}

func TestController_RestoreNothingSaved(t *testing.T) {
	tests := []struct {
		name string
		seed func(storage.Store)
	}{
		{"empty store", func(storage.Store) {}},
		{"zero elapsed", func(s storage.Store) { seedSaved(t, s, 0, true, epoch) }},
		{"garbage elapsed", func(s storage.Store) {
			_ = s.SetString(context.Background(), storage.KeyElapsedTime, "soon")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, backend := memory.NewStore()
			tt.seed(store)
			f := newFixtureWithStore(t, store, backend, clock.NewTestClock(epoch))
			if err := f.ctrl.Restore(context.Background()); err != nil {
				t.Fatalf("restore: %v", err)
			}
			if status := f.ctrl.Status(); status.State != "stopped" || status.ElapsedSeconds != 0 {
				t.Fatalf("status = %+v", status)
			}
		})
	}
}

func TestController_PersistDisabled(t *testing.T) {
	store, backend := memory.NewStore()
	seedSaved(t, store, 300, true, epoch)
	_ = store.SetBoolean(context.Background(), storage.KeyPersistTimer, false)

	f := newFixtureWithStore(t, store, backend, clock.NewTestClock(epoch))
	ctx := context.Background()
	if err := f.ctrl.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if status := f.ctrl.Status(); status.State != "stopped" || status.ElapsedSeconds != 0 {
		t.Fatalf("restore with persistence off = %+v", status)
	}

	// Saving with persistence off clears the stale fields.
	_ = f.ctrl.StartResume(ctx)
	f.clock.Advance(time.Minute)
	f.ctrl.Save(ctx)
	if got := f.raw(t, storage.KeyElapsedTime); got != "0" {
		t.Fatalf("elapsed-time = %s, want 0", got)
	}
	if got := f.raw(t, storage.KeyWasRunning); got != "false" {
		t.Fatalf("was-running = %s, want false", got)
	}
}

func TestController_SetPersist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	enabled, err := f.ctrl.Persist(ctx)
	if err != nil || !enabled {
		t.Fatalf("Persist() = %v, %v", enabled, err)
	}

	_ = f.ctrl.StartResume(ctx)
	f.clock.Advance(20 * time.Second)
	_ = f.ctrl.Pause(ctx)
	if got := f.raw(t, storage.KeyElapsedTime); got != "20" {
		t.Fatalf("elapsed-time = %s", got)
	}

	if err := f.ctrl.SetPersist(ctx, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if got := f.raw(t, storage.KeyElapsedTime); got != "0" {
		t.Fatalf("elapsed-time after disable = %s", got)
	}
	if enabled, _ := f.ctrl.Persist(ctx); enabled {
		t.Fatal("persistence still enabled")
	}

	if err := f.ctrl.SetPersist(ctx, true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if got := f.raw(t, storage.KeyElapsedTime); got != "20" {
		t.Fatalf("elapsed-time after enable = %s", got)
	}
}

func TestController_CloseSavesAndRestores(t *testing.T) {
	store, backend := memory.NewStore()
	clk := clock.NewTestClock(epoch)
	f := newFixtureWithStore(t, store, backend, clk)
	ctx := context.Background()

	_ = f.ctrl.StartResume(ctx)
	clk.Advance(75 * time.Second)
	f.tickTo(t, 76)
	f.ctrl.Close(ctx)
	if _, live := clk.Tickers(); live != 0 {
		t.Fatalf("live tickers after close = %d", live)
	}

	next := newFixtureWithStore(t, store, backend, clk)
	if err := next.ctrl.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	status := next.ctrl.Status()
	if status.State != "running" || status.ElapsedSeconds != 76 {
		t.Fatalf("restored status = %+v", status)
	}
	if status.StartedAt == nil || !status.StartedAt.Equal(epoch) {
		t.Fatalf("restored start = %v", status.StartedAt)
	}
}

func TestController_ClearStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_ = f.ledger.AddSession(ctx, 100, epoch)

	if err := f.ctrl.ClearStats(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := f.ledger.TotalTime(); got != 0 {
		t.Fatalf("total = %v", got)
	}
}

func TestController_StateMetric(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_ = f.ctrl.StartResume(ctx)
	if got := testutil.ToFloat64(metrics.TimerState); got != metrics.StateRunning {
		t.Fatalf("state metric = %v, want running", got)
	}
	f.clock.Advance(3 * time.Second)
	_ = f.ctrl.Pause(ctx)
	if got := testutil.ToFloat64(metrics.TimerState); got != metrics.StatePaused {
		t.Fatalf("state metric = %v, want paused", got)
	}
	if got := testutil.ToFloat64(metrics.TimerElapsed); got != 3 {
		t.Fatalf("elapsed metric = %v, want 3", got)
	}

	sessions := testutil.ToFloat64(metrics.SessionsRecorded)
	_, _ = f.ctrl.Reset(ctx)
	if got := testutil.ToFloat64(metrics.SessionsRecorded); got != sessions+1 {
		t.Fatalf("sessions metric = %v, want %v", got, sessions+1)
	}
	if got := testutil.ToFloat64(metrics.TimerState); got != metrics.StateStopped {
		t.Fatalf("state metric = %v, want stopped", got)
	}
}

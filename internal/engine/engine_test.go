package engine

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestEngine(t *testing.T, tps int) *Engine {
	t.Helper()
	e, err := NewEngine(EngineConfig{
		TPS:                tps,
		TotalThreads:       8,
		SpinYieldThreshold: 2 * time.Millisecond,
		TerminationTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(func() { _ = e.Stop() })
	return e
}

func TestEngineStartsPausedAndDispatchesNothingUntilResumed(t *testing.T) {
	e := newTestEngine(t, 100)

	var calls atomic.Int32
	if _, err := e.Schedule(nil, ActionFunc(func(*ActionContext) error {
		calls.Add(1)
		return nil
	}), 0, 0); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatalf("calls = %d before Resume, want 0", calls.Load())
	}

	if err := e.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if calls.Load() != 1 {
		t.Fatalf("calls = %d after Resume, want 1", calls.Load())
	}
}

func TestEnginePeriodicActionPacingWithinTolerance(t *testing.T) {
	e := newTestEngine(t, 100)

	var calls atomic.Int64
	if _, err := e.Schedule(nil, ActionFunc(func(*ActionContext) error {
		calls.Add(1)
		return nil
	}), 0, 10*time.Millisecond); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := e.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	time.Sleep(time.Second)
	n := calls.Load()
	if n < 90 || n > 110 {
		t.Fatalf("calls over 1s at a 10ms period = %d, want within [90,110]", n)
	}
}

func TestEngineCancelBeforeDueNeverExecutes(t *testing.T) {
	e := newTestEngine(t, 1000)

	var calls atomic.Int32
	id, err := e.Schedule(nil, ActionFunc(func(*ActionContext) error {
		calls.Add(1)
		return nil
	}), time.Hour, 0)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := e.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	ok, err := e.Cancel(id)
	if err != nil || !ok {
		t.Fatalf("Cancel() = %v, %v; want true, nil", ok, err)
	}

	time.Sleep(50 * time.Millisecond)
	if calls.Load() != 0 {
		t.Fatalf("cancelled job ran %d times, want 0", calls.Load())
	}
}

func TestEngineCancelInFlightStopsPeriodicRescheduling(t *testing.T) {
	e := newTestEngine(t, 200)

	started := make(chan struct{})
	release := make(chan struct{})
	var runs atomic.Int32
	id, err := e.Schedule(nil, ActionFunc(func(*ActionContext) error {
		runs.Add(1)
		close(started)
		<-release
		return nil
	}), 0, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := e.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	<-started
	active, err := e.IsActive(id)
	if err != nil || !active {
		t.Fatalf("IsActive while running = %v, %v; want true, nil", active, err)
	}
	if ok, err := e.Cancel(id); err != nil || !ok {
		t.Fatalf("Cancel while in flight = %v, %v; want true, nil", ok, err)
	}
	close(release)

	time.Sleep(50 * time.Millisecond)
	if runs.Load() != 1 {
		t.Fatalf("runs = %d, want exactly 1 (cancelled in flight must not reschedule)", runs.Load())
	}
}

func TestEngineActionHonorsCooperativeCancellation(t *testing.T) {
	e := newTestEngine(t, 200)

	started := make(chan struct{})
	exitedEarly := make(chan struct{})
	id, err := e.Schedule(nil, ActionFunc(func(ctx *ActionContext) error {
		close(started)
		select {
		case <-ctx.Done():
			close(exitedEarly)
			return nil
		case <-time.After(time.Minute):
			return nil
		}
	}), 0, 0)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := e.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	<-started
	if ok, err := e.Cancel(id); err != nil || !ok {
		t.Fatalf("Cancel while in flight = %v, %v; want true, nil", ok, err)
	}

	select {
	case <-exitedEarly:
	case <-time.After(time.Second):
		t.Fatalf("action never observed ctx.Done() after an in-flight cancel")
	}
}

func TestEngineStopDrainsQueueAndRejectsFurtherOperations(t *testing.T) {
	e := newTestEngine(t, 100)
	if err := e.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if _, err := e.Schedule(nil, ActionFunc(func(*ActionContext) error { return nil }), time.Hour, 0); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if e.GetState() != Stopped {
		t.Fatalf("GetState() = %v, want Stopped", e.GetState())
	}
	if _, err := e.Schedule(nil, ActionFunc(func(*ActionContext) error { return nil }), 0, 0); err != ErrEngineStopped {
		t.Fatalf("Schedule after Stop: err = %v, want ErrEngineStopped", err)
	}
}

func TestEngineListenerReceivesTickBoundariesAndFailures(t *testing.T) {
	e := newTestEngine(t, 100)

	type counts struct {
		started, completed, failed atomic.Int32
	}
	var c counts
	e.AddEngineListener(tickListenerFunc{
		onStart:    func(uint64) { c.started.Add(1) },
		onComplete: func(uint64, time.Duration) { c.completed.Add(1) },
		onFailed:   func(uuid.UUID, error, any) { c.failed.Add(1) },
	})

	if _, err := e.Schedule(nil, ActionFunc(func(*ActionContext) error {
		return errBoom
	}), 0, 0); err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if err := e.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	if c.started.Load() == 0 {
		t.Fatalf("TickStarted was never observed")
	}
	if c.completed.Load() == 0 {
		t.Fatalf("TickCompleted was never observed")
	}
	if c.failed.Load() == 0 {
		t.Fatalf("ActionFailed was never observed for a failing action")
	}
}

var errBoom = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

type tickListenerFunc struct {
	onStart    func(tick uint64)
	onComplete func(tick uint64, delta time.Duration)
	onFailed   func(id uuid.UUID, err error, recovered any)
}

func (f tickListenerFunc) TickStarted(tick uint64)                    { f.onStart(tick) }
func (f tickListenerFunc) TickCompleted(tick uint64, d time.Duration) { f.onComplete(tick, d) }
func (f tickListenerFunc) ActionFailed(id uuid.UUID, err error, recovered any) {
	f.onFailed(id, err, recovered)
}

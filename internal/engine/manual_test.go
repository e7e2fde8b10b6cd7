package engine

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManualEngineOneShotRunsOnce(t *testing.T) {
	m := NewManualEngine(10)
	var calls atomic.Int32
	_, err := m.Schedule(nil, ActionFunc(func(*ActionContext) error {
		calls.Add(1)
		return nil
	}), 0, 0)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if n, err := m.Tick(); err != nil || n != 1 {
		t.Fatalf("Tick() = %d, %v; want 1, nil", n, err)
	}
	if n, err := m.Tick(); err != nil || n != 0 {
		t.Fatalf("second Tick() = %d, %v; want 0, nil (one-shot must not repeat)", n, err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestManualEnginePeriodicReschedulesAfterCompletion(t *testing.T) {
	m := NewManualEngine(1000)
	var calls atomic.Int32
	id, err := m.Schedule(nil, ActionFunc(func(*ActionContext) error {
		calls.Add(1)
		return nil
	}), 0, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if n, _ := m.Tick(); n != 1 {
		t.Fatalf("first Tick executed %d jobs, want 1", n)
	}
	if !m.queue.containsID(id) {
		t.Fatalf("periodic job was not rescheduled after completion")
	}

	time.Sleep(10 * time.Millisecond)
	if n, _ := m.Tick(); n != 1 {
		t.Fatalf("second Tick executed %d jobs, want 1", n)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls = %d, want 2", calls.Load())
	}
}

func TestManualEngineCancelQueuedJobPreventsExecution(t *testing.T) {
	m := NewManualEngine(10)
	var calls atomic.Int32
	id, err := m.Schedule(nil, ActionFunc(func(*ActionContext) error {
		calls.Add(1)
		return nil
	}), time.Hour, 0)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	ok, err := m.Cancel(id)
	if err != nil || !ok {
		t.Fatalf("Cancel() = %v, %v; want true, nil", ok, err)
	}
	active, err := m.IsActive(id)
	if err != nil || active {
		t.Fatalf("IsActive() = %v, %v; want false, nil", active, err)
	}
}

func TestManualEngineHookOrdering(t *testing.T) {
	m := NewManualEngine(10)
	var order []string
	m.SetFirstAction(ActionFunc(func(ctx *ActionContext) error {
		order = append(order, "first")
		if ctx.Actor() != "hook-actor" {
			t.Fatalf("first hook actor = %v, want hook-actor", ctx.Actor())
		}
		return nil
	}), "hook-actor")
	m.SetLastAction(ActionFunc(func(ctx *ActionContext) error {
		order = append(order, "last")
		if ctx.Actor() != "hook-actor" {
			t.Fatalf("last hook actor = %v, want hook-actor", ctx.Actor())
		}
		return nil
	}), "hook-actor")
	if _, err := m.Schedule(nil, ActionFunc(func(*ActionContext) error {
		order = append(order, "job")
		return nil
	}), 0, 0); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if _, err := m.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	want := []string{"first", "job", "last"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestManualEngineTickClearsTickScopedBindingsOnly(t *testing.T) {
	m := NewManualEngine(10)
	if _, err := m.Schedule(nil, ActionFunc(func(ctx *ActionContext) error {
		_, _ = ctx.Bindings().Put("persistent", "p")
		_, _ = ctx.Bindings().PutForTick("tick-only", "t")
		return nil
	}), 0, 0); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	if _, err := m.Tick(); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if got := m.GetBindings().Get("persistent"); got != "p" {
		t.Fatalf("persistent binding = %v, want p", got)
	}
	if m.GetBindings().ContainsKey("tick-only") {
		t.Fatalf("tick-scoped binding survived the tick boundary")
	}
}

func TestManualEngineStopRejectsFurtherSchedule(t *testing.T) {
	m := NewManualEngine(10)
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, err := m.Schedule(nil, ActionFunc(func(*ActionContext) error { return nil }), 0, 0); err != ErrEngineStopped {
		t.Fatalf("Schedule after Stop: err = %v, want ErrEngineStopped", err)
	}
	if _, err := m.Tick(); err != ErrEngineStopped {
		t.Fatalf("Tick after Stop: err = %v, want ErrEngineStopped", err)
	}
}

func TestManualEngineScheduleRejectsNilAction(t *testing.T) {
	m := NewManualEngine(10)
	if _, err := m.Schedule(nil, nil, 0, 0); err != ErrInvalidArgument {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestManualEngineScheduleRejectsNegativeDelayOrPeriod(t *testing.T) {
	m := NewManualEngine(10)
	action := ActionFunc(func(*ActionContext) error { return nil })
	if _, err := m.Schedule(nil, action, -time.Second, 0); err != ErrInvalidArgument {
		t.Fatalf("negative delay: err = %v, want ErrInvalidArgument", err)
	}
	if _, err := m.Schedule(nil, action, 0, -time.Second); err != ErrInvalidArgument {
		t.Fatalf("negative period: err = %v, want ErrInvalidArgument", err)
	}
}

package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"cpra/internal/clock"
)

// ManualEngine is the Manual variant (spec.md §4.7): no background
// goroutine and no worker pool. tick() drains and runs due jobs
// sequentially on the caller's goroutine, with cutoff = now() at the time
// tick() is called (not start+interval, since there is no fixed interval
// to project forward from). pause()/resume() are no-ops: a Manual engine
// only ever advances when tick() is called.
type ManualEngine struct {
	*loopCore
	mu            sync.Mutex
	lastTickStart time.Time
}

// NewManualEngine constructs a Manual engine, starting in Paused like the
// Continuous variant for API symmetry, though pause/resume have no effect
// on it.
func NewManualEngine(tps int) *ManualEngine {
	m := &ManualEngine{loopCore: newLoopCore(tps)}
	m.self = m
	return m
}

// Stop implements spec.md §4.4's stop() for the Manual variant: there is no
// background goroutine or worker pool to join, so this reduces to dropping
// queued jobs and marking the state machine terminal.
func (m *ManualEngine) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.state.tryTransition(Stopped, fromSet(Paused, InWait, InTick)); err != nil {
		return err
	}
	m.queue.clear()
	m.queue.cancelAllInFlight()
	return nil
}

// Tick drains and executes, on the caller's goroutine, every job whose
// estimated time is strictly before the moment Tick starts. Returns the
// number of jobs executed.
func (m *ManualEngine) Tick() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := m.state.tryTransition(InTick, fromSet(Paused, InWait)); err != nil {
		return 0, err
	}

	start := clock.Now()
	if m.lastTickStart.IsZero() {
		m.lastTickStart = start
	}
	m.tick.recordTickStart(start, m.lastTickStart)
	m.lastTickStart = start
	delta := m.tick.Delta()
	tickNum := m.tick.TickCount()
	m.notifyTickStarted(tickNum)

	m.hookMu.RLock()
	first := m.first
	last := m.last
	m.hookMu.RUnlock()
	m.runHook(first, delta, tickNum)

	due := m.queue.drainBefore(start)
	for _, job := range due {
		m.runOne(job, delta, tickNum)
	}

	m.runHook(last, delta, tickNum)
	m.bindings.ClearTickBindings()
	m.tick.advance()
	m.notifyTickCompleted(tickNum, delta)

	if _, err := m.state.tryTransition(Paused, fromSet(InTick)); err != nil {
		return len(due), err
	}
	return len(due), nil
}

func (m *ManualEngine) runOne(job *Job, delta time.Duration, tickNum uint64) {
	job.run(delta, tickNum, func(id uuid.UUID, err error, recovered any) {
		m.notifyFailure(id, err, recovered)
	})
	cancelled := m.queue.completeFuture(job.ID())
	if cancelled || !job.context.IsPeriodic() {
		return
	}
	next := clock.Now().Add(job.context.Period())
	m.queue.enqueue(newJob(job.action, job.context, next))
}

// Pause and Resume are no-ops on the Manual engine (spec.md §4.7): it is
// driven entirely by explicit Tick calls.
func (m *ManualEngine) Pause() error  { return nil }
func (m *ManualEngine) Resume() error { return nil }

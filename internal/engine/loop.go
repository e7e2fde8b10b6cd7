package engine

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"cpra/internal/bindings"
	"cpra/internal/clock"
	"cpra/internal/listener"
	"cpra/internal/workerpool"
)

// EngineListener is notified around tick boundaries and on action failures
// (spec.md §4.9). A zero uuid.UUID passed to ActionFailed means the failure
// did not originate from a single action (e.g. a panicking listener).
type EngineListener interface {
	TickStarted(tick uint64)
	TickCompleted(tick uint64, delta time.Duration)
	ActionFailed(id uuid.UUID, err error, recovered any)
}

// loopCore holds the state shared by the Continuous Control Loop and the
// Manual variant: the state machine, tick info, job queue, bindings, first
// and last hooks, and engine listeners. Grounded on
// internal/controller/systems/scheduler.go's Scheduler (World/Systems/
// JobChan/ResultChan/Done/Lock) generalized from a fixed Systems slice to
// the spec's single first-hook/last-hook pair plus a priority job queue.
type loopCore struct {
	state    *stateMachine
	tick     *TickInfo
	queue    *jobQueue
	bindings *bindings.Bindings

	hookMu sync.RWMutex
	first  hook
	last   hook

	listeners *listener.Set[EngineListener]
	onPanic   func(idx int, recovered any)

	runningTicks int64 // per-second tick counter folded into TickInfo.CurrentTPS

	self Facade // set by NewEngine/NewManualEngine once the concrete engine exists
}

func newLoopCore(tps int) *loopCore {
	c := &loopCore{
		queue:    newJobQueue(),
		bindings: bindings.New(),
	}
	c.listeners = listener.NewSet[EngineListener]()
	c.onPanic = func(idx int, recovered any) {
		c.notifyFailure(uuid.Nil, nil, recovered)
	}
	c.state = newStateMachine(c.onPanic)
	c.tick = newTickInfo(tps)
	return c
}

func (c *loopCore) notifyFailure(id uuid.UUID, err error, recovered any) {
	listener.Notify(c.listeners, func(l EngineListener) {
		l.ActionFailed(id, err, recovered)
	}, c.onPanic)
}

func (c *loopCore) notifyTickStarted(tick uint64) {
	listener.Notify(c.listeners, func(l EngineListener) {
		l.TickStarted(tick)
	}, c.onPanic)
}

func (c *loopCore) notifyTickCompleted(tick uint64, delta time.Duration) {
	listener.Notify(c.listeners, func(l EngineListener) {
		l.TickCompleted(tick, delta)
	}, c.onPanic)
}

// hook pairs the first/last Action with the Actor it is bound to, per
// spec.md §4.8's setFirstAction(action, actor)/setLastAction(action, actor)
// — both parameters are required, unlike a scheduled job's actor (which may
// legitimately be nil for actor-less work).
type hook struct {
	action Action
	actor  Actor
}

func (c *loopCore) setFirst(a Action, actor Actor) {
	c.hookMu.Lock()
	c.first = hook{action: a, actor: actor}
	c.hookMu.Unlock()
}

func (c *loopCore) setLast(a Action, actor Actor) {
	c.hookMu.Lock()
	c.last = hook{action: a, actor: actor}
	c.hookMu.Unlock()
}

func (c *loopCore) runHook(which hook, delta time.Duration, tickNum uint64) {
	if which.action == nil {
		return
	}
	job := newJob(which.action, newActionContext(which.actor, c.self, 0), time.Time{})
	job.run(delta, tickNum, func(id uuid.UUID, err error, recovered any) {
		c.notifyFailure(id, err, recovered)
	})
}

// Engine is the Continuous variant (spec.md §4.6): a dedicated goroutine
// runs the Control Loop, dispatching due jobs onto a bounded worker pool
// and parking between ticks with a hybrid park/spin clock.
type Engine struct {
	*loopCore
	pool             *workerpool.Pool
	parker           clock.Parker
	stopCh           chan struct{}
	stoppedCh        chan struct{}
	terminateTimeout time.Duration
}

// EngineConfig is the minimal set of knobs the Continuous engine needs at
// construction; internal/config.EngineConfig maps onto this one-to-one.
type EngineConfig struct {
	TPS                int
	TotalThreads       int
	SpinYieldThreshold time.Duration
	TerminationTimeout time.Duration
}

// NewEngine constructs and starts the Continuous engine's Control Loop
// goroutine. The engine begins Paused (spec.md §4.1): no ticks execute
// until Resume is called.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.TPS <= 0 || cfg.TotalThreads <= 0 {
		return nil, ErrInvalidArgument
	}
	core := newLoopCore(cfg.TPS)
	pool, err := workerpool.New(cfg.TotalThreads, func(r any) {
		core.notifyFailure(uuid.Nil, nil, r)
	})
	if err != nil {
		return nil, err
	}
	e := &Engine{
		loopCore:         core,
		pool:             pool,
		parker:           clock.Parker{SpinThreshold: cfg.SpinYieldThreshold},
		stopCh:           make(chan struct{}),
		stoppedCh:        make(chan struct{}),
		terminateTimeout: cfg.TerminationTimeout,
	}
	core.self = e
	go e.run()
	return e, nil
}

// Pause implements spec.md §4.1's pause(): valid from InTick, InWait or
// Paused (already paused is a no-op, not an error). A pause requested during
// a tick lets that tick's body finish; the Control Loop observes Paused at
// the top of its next iteration and stops dispatching ticks.
func (e *Engine) Pause() error {
	_, err := e.state.tryTransition(Paused, fromSet(InTick, InWait, Paused))
	return err
}

// Resume implements spec.md §4.1's resume(): valid only from Paused.
func (e *Engine) Resume() error {
	_, err := e.state.tryTransition(InWait, fromSet(Paused))
	return err
}

// Stop implements spec.md §4.4's stop(): drop queued jobs, request
// cancellation of any in-flight job, signal the Control Loop goroutine to
// exit, and wait up to terminateTimeout for it to do so.
func (e *Engine) Stop() error {
	if _, err := e.state.tryTransition(Stopped, fromSet(Paused, InWait, InTick)); err != nil {
		return err
	}
	e.queue.clear()
	e.queue.cancelAllInFlight()
	close(e.stopCh)

	timeout := e.terminateTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	select {
	case <-e.stoppedCh:
	case <-time.After(timeout):
		// Control Loop did not exit in time; the pool is released anyway so
		// any still-running worker goroutines are abandoned rather than
		// leaked into a join that never returns.
	}
	e.pool.Release()
	return nil
}

// run is the Control Loop goroutine body, implementing spec.md §4.6.
func (e *Engine) run() {
	defer close(e.stoppedCh)

	var lastStart time.Time
	for {
		select {
		case <-e.stopCh:
			return
		default:
		}

		// Wait while Paused; wake promptly on Resume or Stop.
		if e.state.get() == Paused {
			time.Sleep(time.Millisecond)
			continue
		}

		changed, err := e.state.tryTransition(InTick, fromSet(InWait, Paused))
		if err != nil {
			return // Stopped
		}
		if !changed && e.state.get() != InTick {
			continue
		}

		start := clock.Now()
		if lastStart.IsZero() {
			lastStart = start
		}
		e.tick.recordTickStart(start, lastStart)
		lastStart = start
		delta := e.tick.Delta()
		tickNum := e.tick.TickCount()
		e.notifyTickStarted(tickNum)

		e.hookMu.RLock()
		first := e.first
		last := e.last
		e.hookMu.RUnlock()
		e.runHook(first, delta, tickNum)

		estimatedEnd := start.Add(e.tick.Interval())
		due := e.queue.drainBefore(estimatedEnd)

		var wg sync.WaitGroup
		for _, job := range due {
			job := job
			wg.Add(1)
			_ = e.pool.Submit(func() {
				defer wg.Done()
				e.executeJob(job, delta, tickNum)
			})
		}
		wg.Wait()

		e.runHook(last, delta, tickNum)
		e.bindings.ClearTickBindings()
		e.tick.advance()
		e.runningTicks++
		e.tick.sampleTps(start, &e.runningTicks)
		e.notifyTickCompleted(tickNum, delta)

		// Pause requested mid-tick is honored only now: the tick's stats
		// and bindings clear unconditionally above before the state
		// machine is allowed to leave InTick (Open Question decision,
		// see DESIGN.md).
		if _, err := e.state.tryTransition(InWait, fromSet(InTick)); err != nil {
			return
		}

		target := start.Add(e.tick.Interval())
		e.parker.Until(target)
	}
}

// executeJob runs job.run and, for periodic jobs not cancelled while in
// flight, reschedules it. The next estimated time is computed strictly
// after completion (now()+period), per the Open Question decision recorded
// in DESIGN.md: a slow periodic action never "catches up", it simply runs
// again one period after it actually finished.
func (e *Engine) executeJob(job *Job, delta time.Duration, tickNum uint64) {
	job.run(delta, tickNum, func(id uuid.UUID, err error, recovered any) {
		e.notifyFailure(id, err, recovered)
	})
	cancelled := e.queue.completeFuture(job.ID())
	if cancelled || !job.context.IsPeriodic() {
		return
	}
	next := clock.Now().Add(job.context.Period())
	e.queue.enqueue(newJob(job.action, job.context, next))
}

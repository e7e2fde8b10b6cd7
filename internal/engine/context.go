package engine

import (
	"time"

	"github.com/google/uuid"
)

// Actor is the opaque subject an Action is performed against. The engine
// never introspects it (spec.md §6) — it is produced and consumed entirely
// by collaborators such as internal/actor.
type Actor any

// Action is the callback contract a scheduled unit of work implements
// (spec.md §6). Perform must tolerate being invoked from any worker
// goroutine and may return an error; the error is reported as an
// ActionFailure (spec.md §7) to every EngineListener through ActionFailed
// and never propagated to the caller of schedule/tick. The engine itself
// writes no log line for it. Errors do not suppress rescheduling of periodic actions —
// cancellation is the only way to stop a misbehaving periodic Action.
type Action interface {
	Perform(ctx *ActionContext) error
}

// ActionFunc adapts a plain function to Action.
type ActionFunc func(ctx *ActionContext) error

func (f ActionFunc) Perform(ctx *ActionContext) error { return f(ctx) }

// ActionContext is the immutable value passed to every Action invocation
// (spec.md §4.3): action identity, actor handle, engine handle, a
// bindings view, the delta since the previous tick, and this action's
// repeat period.
type ActionContext struct {
	id         uuid.UUID
	actor      Actor
	engine     Facade
	periodNs   int64
	tickDelta  time.Duration
	engineTick uint64
	done       <-chan struct{}
}

func newActionContext(actor Actor, eng Facade, period time.Duration) *ActionContext {
	return &ActionContext{
		id:       uuid.New(),
		actor:    actor,
		engine:   eng,
		periodNs: period.Nanoseconds(),
	}
}

// ID returns the action's freshly-generated schedule-time identity.
func (c *ActionContext) ID() uuid.UUID { return c.id }

// Actor returns the opaque actor handle this action runs against.
func (c *ActionContext) Actor() Actor { return c.actor }

// Engine returns the owning engine façade.
func (c *ActionContext) Engine() Facade { return c.engine }

// Period returns the configured repeat period; zero for one-shot actions.
func (c *ActionContext) Period() time.Duration { return time.Duration(c.periodNs) }

// IsPeriodic reports whether Period() > 0.
func (c *ActionContext) IsPeriodic() bool { return c.periodNs > 0 }

// TickDelta returns the current tick's delta-since-previous-tick, as
// observed by the Control Loop at dispatch time.
func (c *ActionContext) TickDelta() time.Duration { return c.tickDelta }

// EngineTick returns the tick counter value at dispatch time.
func (c *ActionContext) EngineTick() uint64 { return c.engineTick }

// Bindings returns the engine's live bindings handle.
func (c *ActionContext) Bindings() BindingsView { return c.engine.GetBindings() }

// Cancel delegates to engine.Cancel(id) (spec.md §4.3).
func (c *ActionContext) Cancel() (bool, error) { return c.engine.Cancel(c.id) }

// Done returns a channel that is closed once cancellation has been
// requested for this action's in-flight execution (spec.md §5, §8 scenario
// 4: "if the action does not honor interruption, it runs to completion" —
// implying that honoring it is possible). An Action that runs long work
// should select on Done alongside its own work and return early when it
// fires; nothing forces it to. Done returns nil for a context with no
// attached in-flight future (first/last hooks), which blocks forever in a
// select exactly like any other nil channel.
func (c *ActionContext) Done() <-chan struct{} { return c.done }

// withTick returns a shallow copy of c stamped with the current tick's
// delta and counter and this dispatch's cancellation channel, used by the
// Control Loop just before dispatch so that the context an Action observes
// reflects the tick and in-flight future it runs under.
func (c *ActionContext) withTick(delta time.Duration, tick uint64, done <-chan struct{}) *ActionContext {
	cp := *c
	cp.tickDelta = delta
	cp.engineTick = tick
	cp.done = done
	return &cp
}

// BindingsView is the subset of *bindings.Bindings exposed to collaborators
// and Actions.
type BindingsView interface {
	Get(key string) any
	Put(key string, value any) (any, error)
	PutForTick(key string, value any) (any, error)
	Remove(key string) any
	ContainsKey(key string) bool
}

package engine

import (
	"time"

	"github.com/google/uuid"

	"cpra/internal/clock"
)

// Schedule implements spec.md §4.4's schedule(actor, action, delay, period).
// delay == 0 means "as soon as the next tick is due"; period == 0 means
// one-shot.
func (c *loopCore) Schedule(actor Actor, action Action, delay, period time.Duration) (uuid.UUID, error) {
	if action == nil {
		return uuid.Nil, ErrInvalidArgument
	}
	if c.state.get() == Stopped {
		return uuid.Nil, ErrEngineStopped
	}
	if delay < 0 || period < 0 {
		return uuid.Nil, ErrInvalidArgument
	}
	ctx := newActionContext(actor, c.self, period)
	job := newJob(action, ctx, clock.Now().Add(delay))
	c.queue.enqueue(job)
	return ctx.ID(), nil
}

// Cancel implements spec.md §4.4's cancel(id).
func (c *loopCore) Cancel(id uuid.UUID) (bool, error) {
	if c.state.get() == Stopped {
		return false, ErrEngineStopped
	}
	return c.queue.cancel(id), nil
}

// IsActive implements spec.md §4.4's isActive(id).
func (c *loopCore) IsActive(id uuid.UUID) (bool, error) {
	if c.state.get() == Stopped {
		return false, ErrEngineStopped
	}
	return c.queue.isActive(id), nil
}

// GetBindings returns the live bindings handle.
func (c *loopCore) GetBindings() BindingsView { return c.bindings }

// GetState returns the current operational state.
func (c *loopCore) GetState() State { return c.state.get() }

// GetTickInfo returns the live tick statistics handle.
func (c *loopCore) GetTickInfo() *TickInfo { return c.tick }

// SetFirstAction installs the hook run at the start of every tick, before
// any scheduled job, bound to actor the same way a scheduled job is bound to
// one (spec.md §4.2, §4.8).
func (c *loopCore) SetFirstAction(a Action, actor Actor) { c.setFirst(a, actor) }

// SetLastAction installs the hook run at the end of every tick, after all
// dispatched jobs complete, bound to actor (spec.md §4.2, §4.8).
func (c *loopCore) SetLastAction(a Action, actor Actor) { c.setLast(a, actor) }

// AddEngineListener registers l to be notified of tick boundaries and
// action failures.
func (c *loopCore) AddEngineListener(l EngineListener) { c.listeners.Add(l) }

// RemoveEngineListener deregisters l.
func (c *loopCore) RemoveEngineListener(l EngineListener) bool {
	return c.listeners.Remove(l, func(a, b EngineListener) bool { return a == b })
}

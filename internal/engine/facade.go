package engine

import (
	"time"

	"github.com/google/uuid"
)

// Facade is the engine-facing surface an ActionContext holds onto (spec.md
// §4.3, §4.8). Both *Engine and *ManualEngine satisfy it. It is deliberately
// narrower than the full public API: Actions must not be able to, say,
// replace the first/last hooks of the engine that is running them from
// inside an Action body, only schedule/cancel work and read state.
type Facade interface {
	// Schedule enqueues action to run against actor once, after delay, or
	// (if period > 0) repeatedly every period starting after delay.
	Schedule(actor Actor, action Action, delay, period time.Duration) (uuid.UUID, error)

	// Cancel cancels a queued or in-flight action by id (spec.md §4.4).
	Cancel(id uuid.UUID) (bool, error)

	// IsActive reports whether id is queued or currently executing.
	IsActive(id uuid.UUID) (bool, error)

	// GetBindings returns the live bindings handle.
	GetBindings() BindingsView

	// GetState returns the current operational state.
	GetState() State

	// GetTickInfo returns the live tick statistics handle.
	GetTickInfo() *TickInfo
}

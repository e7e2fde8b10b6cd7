package engine

import "errors"

// Error kinds per spec.md §7. EngineStopped and InvalidArgument are the
// only two kinds ever surfaced to a caller; InvalidStateTransition is
// surfaced as a bool return instead (except from Stopped), and
// ActionFailure / WorkerRejection never leave the engine.
var (
	// ErrEngineStopped is returned by every mutating façade operation once
	// the engine has entered the Stopped state.
	ErrEngineStopped = errors.New("engine: stopped")

	// ErrInvalidArgument is returned by Schedule for a nil action or a
	// negative delay/period, and by NewEngine for a zero or negative tps or a
	// non-positive worker thread count. A nil actor is accepted. Empty
	// binding keys are rejected by the bindings package with its own
	// bindings.ErrEmptyKey, not with this error.
	ErrInvalidArgument = errors.New("engine: invalid argument")
)

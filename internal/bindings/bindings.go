// Package bindings implements the engine's two-layer key/value map: a
// persistent layer and a per-tick layer overlaid on top of it. Grounded on
// the teacher's mutex-guarded registries (internal/queue.QueueManager's
// jobStore, internal/controller/metrics.go's mutex-guarded system map).
package bindings

import "errors"

// ErrEmptyKey is returned when a binding key is the empty string.
var ErrEmptyKey = errors.New("bindings: key must not be empty")

// Bindings is a concurrency-safe two-layer map visible to every action
// running in a tick via the Action Context. Reads prefer the tick-scoped
// layer; put clears any shadowing tick-scoped entry so a fresh persistent
// write is immediately visible.
type Bindings struct {
	persistent *layer
	tick       *layer
}

// New creates an empty Bindings instance.
func New() *Bindings {
	return &Bindings{
		persistent: newLayer(),
		tick:       newLayer(),
	}
}

// Get returns the tick-scoped value if present, else the persistent value,
// else nil.
func (b *Bindings) Get(key string) any {
	if v, ok := b.tick.load(key); ok {
		return v
	}
	if v, ok := b.persistent.load(key); ok {
		return v
	}
	return nil
}

// ContainsKey reports whether Get would return a non-nil value.
func (b *Bindings) ContainsKey(key string) bool {
	return b.Get(key) != nil
}

// Put writes to the persistent layer and clears any tick-scoped shadow for
// key, returning the value Get would have returned before the call. value
// must be non-nil.
func (b *Bindings) Put(key string, value any) (any, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	prior := b.Get(key)
	b.persistent.store(key, value)
	b.tick.delete(key)
	return prior, nil
}

// PutForTick writes to the tick-scoped layer only, returning the prior
// effective value.
func (b *Bindings) PutForTick(key string, value any) (any, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	prior := b.Get(key)
	b.tick.store(key, value)
	return prior, nil
}

// Remove clears key from both layers, returning the prior effective value.
func (b *Bindings) Remove(key string) any {
	prior := b.Get(key)
	b.persistent.delete(key)
	b.tick.delete(key)
	return prior
}

// ClearTickBindings clears the tick-scoped layer only. Called exactly once
// per completed tick by the Control Loop, after the last hook runs.
func (b *Bindings) ClearTickBindings() {
	b.tick.clear()
}

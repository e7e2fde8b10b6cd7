package actor

import (
	"github.com/mlange-42/ark/ecs"

	"cpra/internal/interning"
)

// Handle is the Actor opaque value the engine schedules work against
// (spec.md §6: "the engine never introspects it"). It satisfies
// engine.Actor trivially, being an any-typed value itself.
type Handle struct {
	world  *World
	entity ecs.Entity
}

// Entity exposes the underlying ark entity id for collaborators that need
// it (e.g. reconcile's mutation keys).
func (h Handle) Entity() ecs.Entity { return h.entity }

// Alive reports whether the entity this Handle names is still live.
func (h Handle) Alive() bool { return h.world.Alive(h.entity) }

// GetAttribute returns the named attribute, or nil if unset.
func (h Handle) GetAttribute(key string) any {
	a := h.world.attrMap.Get(h.entity)
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.data[key]
}

// SetAttribute sets the named attribute.
func (h Handle) SetAttribute(key string, value any) {
	a := h.world.attrMap.Get(h.entity)
	a.mu.Lock()
	a.data[key] = value
	a.mu.Unlock()

	h.world.notifyMutation(AttributeChanged, h.entity, key)
}

// RemoveAttribute deletes the named attribute.
func (h Handle) RemoveAttribute(key string) {
	a := h.world.attrMap.Get(h.entity)
	a.mu.Lock()
	delete(a.data, key)
	a.mu.Unlock()

	h.world.notifyMutation(AttributeChanged, h.entity, key)
}

// AddTag adds tag to this actor's tag set. Tags are low-cardinality
// (a small fixed vocabulary shared across many actors), so the string is
// interned before insertion.
func (h Handle) AddTag(tag string) {
	tag = interning.Intern(tag)
	t := h.world.tagMap.Get(h.entity)
	t.mu.Lock()
	t.set[tag] = struct{}{}
	t.mu.Unlock()

	h.world.notifyMutation(AttributeChanged, h.entity, tag)
}

// HasTag reports whether this actor carries tag.
func (h Handle) HasTag(tag string) bool {
	t := h.world.tagMap.Get(h.entity)
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.set[tag]
	return ok
}

// RemoveTag removes tag from this actor's tag set.
func (h Handle) RemoveTag(tag string) {
	t := h.world.tagMap.Get(h.entity)
	t.mu.Lock()
	delete(t.set, tag)
	t.mu.Unlock()

	h.world.notifyMutation(AttributeChanged, h.entity, tag)
}

// SetParent establishes a parent/child relationship used by Children.
func (h Handle) SetParent(parent Handle) {
	t := h.world.tagMap.Get(h.entity)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.parent = parent.entity
	t.hasParent = true
}

// Parent returns this actor's parent Handle and whether one is set.
func (h Handle) Parent() (Handle, bool) {
	t := h.world.tagMap.Get(h.entity)
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.hasParent {
		return Handle{}, false
	}
	return Handle{world: h.world, entity: t.parent}, true
}

// Children returns every live actor whose parent is h. O(n) in the world's
// actor count — acceptable given spec.md's explicit non-goal of supporting
// arbitrarily large actor populations with this collaborator (the engine
// core, not this package, is where the scale requirements live).
func (h Handle) Children() []Handle {
	var kids []Handle
	h.world.ForEach(func(candidate Handle) {
		if p, ok := candidate.Parent(); ok && p.entity == h.entity {
			kids = append(kids, candidate)
		}
	})
	return kids
}

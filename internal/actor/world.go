// Package actor provides the ECS-backed Actor implementation the engine
// schedules work against (spec.md §6). Grounded on the teacher's ark-based
// controller code (optimal_implementation.go, optimized_ark_system.go,
// internal/controller/optimized_controller.go) rather than its older,
// arche-based internal/controller/world.go — that file imports
// github.com/mlange-42/arche/ecs, a module not even present in the
// teacher's go.mod, and is dead weight from a pre-migration-to-ark era
// (see DESIGN.md's "Deleted" section).
package actor

import (
	"sync"

	"github.com/mlange-42/ark/ecs"

	"cpra/internal/listener"
)

// MutationKind classifies what changed about an actor. Its values line up
// positionally with internal/reconcile.Kind so a MutationListener adapter
// can convert between the two with a plain type conversion instead of a
// switch (see cmd/simrt's wiring of World onto a Reconciler).
type MutationKind int

const (
	EntityCreated MutationKind = iota
	EntityRemoved
	AttributeChanged
)

// MutationListener is notified synchronously, on the mutating goroutine,
// whenever World creates or removes an actor or changes one of its
// attributes or tags (spec.md §1: "listener callbacks fired by entity and
// attribute mutations"). World deliberately does not depend on
// internal/reconcile's concrete Mutation/Reconciler types — a listener
// wanting deduplication and rate-limited fan-out (internal/reconcile)
// registers an adapter satisfying this interface instead, keeping the
// dependency one-directional.
type MutationListener interface {
	OnMutation(kind MutationKind, e ecs.Entity, key string)
}

// attributes is the single component every actor entity carries: an
// arbitrary key/value bag, mirroring the teacher's own pattern of stashing
// dynamic maps inside one coarse ark component
// (internal/controller/components.JobStorage, CodeStatus.Status) instead of
// registering a component type per attribute.
type attributes struct {
	mu   sync.RWMutex
	data map[string]any
}

// tags is the second component: a set of string tags plus an optional
// parent entity, letting World build parent/child trees without a
// dedicated relationship component type.
type tags struct {
	mu     sync.Mutex
	set    map[string]struct{}
	parent ecs.Entity
	hasParent bool
}

// World wraps an ark ECS world behind a mutex, the same SafeAccess idiom
// internal/controller/world.go uses (arche in that file, ark here).
type World struct {
	mu        sync.Mutex
	ecsWorld  ecs.World
	attrMap   *ecs.Map1[attributes]
	tagMap    *ecs.Map1[tags]
	listeners *listener.Set[MutationListener]
}

// NewWorld creates an empty actor World.
func NewWorld() *World {
	return NewWorldFromECS(ecs.NewWorld())
}

// NewWorldFromECS wraps an already-constructed ecs.World, letting callers
// that need capacity preallocation or a seeded RNG (e.g. cmd/simrt's use of
// ark-tools/app.New(capacity).Seed(seed)) supply their own World up front
// instead of going through the zero-value ecs.NewWorld().
func NewWorldFromECS(w ecs.World) *World {
	return &World{
		ecsWorld:  w,
		attrMap:   ecs.NewMap1[attributes](&w),
		tagMap:    ecs.NewMap1[tags](&w),
		listeners: listener.NewSet[MutationListener](),
	}
}

// AddMutationListener registers l to be notified of future entity/attribute
// mutations.
func (w *World) AddMutationListener(l MutationListener) { w.listeners.Add(l) }

// RemoveMutationListener deregisters l.
func (w *World) RemoveMutationListener(l MutationListener) bool {
	return w.listeners.Remove(l, func(a, b MutationListener) bool { return a == b })
}

func (w *World) notifyMutation(kind MutationKind, e ecs.Entity, key string) {
	listener.Notify(w.listeners, func(l MutationListener) {
		l.OnMutation(kind, e, key)
	}, nil)
}

// NewActor creates a fresh entity with empty attributes and tags and
// returns a Handle bound to it.
func (w *World) NewActor() Handle {
	w.mu.Lock()
	e := w.ecsWorld.NewEntity()
	w.attrMap.Add(e, &attributes{data: make(map[string]any)})
	w.tagMap.Add(e, &tags{set: make(map[string]struct{})})
	w.mu.Unlock()

	w.notifyMutation(EntityCreated, e, "")
	return Handle{world: w, entity: e}
}

// Alive reports whether e still names a live entity.
func (w *World) Alive(e ecs.Entity) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ecsWorld.Alive(e)
}

// Remove destroys an entity, invalidating every Handle referencing it.
func (w *World) Remove(e ecs.Entity) {
	w.mu.Lock()
	alive := w.ecsWorld.Alive(e)
	if alive {
		w.ecsWorld.RemoveEntity(e)
	}
	w.mu.Unlock()

	if alive {
		w.notifyMutation(EntityRemoved, e, "")
	}
}

// ForEach iterates every live actor entity, invoking fn with its Handle.
// Grounded on optimal_implementation.go's processMonitors query loop
// (Query/Next/Close).
func (w *World) ForEach(fn func(Handle)) {
	w.mu.Lock()
	query := w.attrMap.Query(&w.ecsWorld)
	var entities []ecs.Entity
	for query.Next() {
		entities = append(entities, query.Entity())
	}
	query.Close()
	w.mu.Unlock()

	for _, e := range entities {
		fn(Handle{world: w, entity: e})
	}
}

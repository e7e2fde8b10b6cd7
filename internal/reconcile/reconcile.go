// Package reconcile fans out entity/attribute mutations to subscribers
// through a deduplicating, rate-limited queue (spec.md §1's "listener
// callbacks fired by entity and attribute mutations"). Grounded on
// internal/queue/queue.go's QueueManager, generalized from three fixed
// pulse/intervention/code workqueues to one queue parameterized by mutation
// Kind.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mlange-42/ark/ecs"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/time/rate"
	"k8s.io/client-go/util/workqueue"
)

// Kind classifies what changed about an entity.
type Kind int

const (
	EntityCreated Kind = iota
	EntityRemoved
	AttributeChanged
)

func (k Kind) String() string {
	switch k {
	case EntityCreated:
		return "EntityCreated"
	case EntityRemoved:
		return "EntityRemoved"
	case AttributeChanged:
		return "AttributeChanged"
	default:
		return "Unknown"
	}
}

// Mutation is one reconcile-worthy change.
type Mutation struct {
	Kind   Kind
	Entity ecs.Entity
	Key    string // attribute name, set only for AttributeChanged
}

// MutationListener is notified, off the mutation's own goroutine, once a
// Mutation has been dequeued and rate-limited.
type MutationListener interface {
	Reconcile(m Mutation)
}

type limiter struct {
	rl *rate.Limiter
}

func (l *limiter) When(item string) time.Duration { return l.rl.Reserve().Delay() }
func (l *limiter) Forget(item string)             {}
func (l *limiter) NumRequeues(item string) int    { return 0 }

// Reconciler dequeues deduplicated mutation keys and dispatches them to
// listeners via a bounded worker pool, same three-part shape as the
// teacher's QueueManager (workqueue + rate limiter + ants pool) collapsed
// to a single queue.
type Reconciler struct {
	queue workqueue.TypedRateLimitingInterface[string]
	pool  *ants.Pool

	mu      sync.Mutex
	pending map[string]Mutation
	seq     uint64

	listeners []MutationListener
	lmu       sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Reconciler with workers concurrent dispatch slots and a
// token-bucket rate of ratePerSec mutations/second, burst-sized burst.
func New(workers int, ratePerSec float64, burst int) (*Reconciler, error) {
	rl := &limiter{rl: rate.NewLimiter(rate.Limit(ratePerSec), burst)}
	q := workqueue.NewTypedRateLimitingQueueWithConfig(rl, workqueue.TypedRateLimitingQueueConfig[string]{
		Name: "reconcile-queue",
	})

	pool, err := ants.NewPool(workers, ants.WithPreAlloc(true))
	if err != nil {
		return nil, fmt.Errorf("reconcile: new pool: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Reconciler{
		queue:   q,
		pool:    pool,
		pending: make(map[string]Mutation),
		ctx:     ctx,
		cancel:  cancel,
	}
	r.wg.Add(1)
	go r.run()
	return r, nil
}

// Enqueue records a mutation for reconciliation, deduplicating by entity+
// kind+key the way the teacher's JobKey.String() does for job identity.
func (r *Reconciler) Enqueue(m Mutation) {
	key := fmt.Sprintf("%d:%s:%s", m.Entity.ID(), m.Kind, m.Key)

	r.mu.Lock()
	r.pending[key] = m
	r.mu.Unlock()

	r.queue.Add(key)
}

// AddListener registers l to receive dequeued mutations.
func (r *Reconciler) AddListener(l MutationListener) {
	r.lmu.Lock()
	defer r.lmu.Unlock()
	r.listeners = append(r.listeners[:len(r.listeners):len(r.listeners)], l)
}

func (r *Reconciler) run() {
	defer r.wg.Done()
	for {
		key, shutdown := r.queue.Get()
		if shutdown {
			return
		}
		r.dispatch(key)
	}
}

func (r *Reconciler) dispatch(key string) {
	defer r.queue.Done(key)

	r.mu.Lock()
	m, ok := r.pending[key]
	delete(r.pending, key)
	r.mu.Unlock()
	if !ok {
		r.queue.Forget(key)
		return
	}

	err := r.pool.Submit(func() {
		r.lmu.RLock()
		ls := r.listeners
		r.lmu.RUnlock()
		for _, l := range ls {
			l.Reconcile(m)
		}
		r.queue.Forget(key)
	})
	if err != nil {
		r.queue.AddRateLimited(key)
	}
}

// Close stops the dispatch goroutine and releases the worker pool.
func (r *Reconciler) Close() {
	r.cancel()
	r.queue.ShutDown()
	r.wg.Wait()
	r.pool.Release()
}

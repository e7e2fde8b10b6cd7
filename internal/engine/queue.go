package engine

import (
	"container/heap"
	"sync"
	"time"

	"github.com/google/uuid"
)

// jobHeap is a min-heap of *Job ordered by Estimated(), implementing
// container/heap.Interface. Grounded directly on the timerHeap pattern in
// joeycumines-go-utilpkg/eventloop/loop.go — the one place in the example
// pack that implements exactly this "min-heap of scheduled-time items"
// shape (see DESIGN.md).
type jobHeap []*Job

func (h jobHeap) Len() int            { return len(h) }
func (h jobHeap) Less(i, j int) bool  { return h[i].estimated.Before(h[j].estimated) }
func (h jobHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *jobHeap) Push(x any)         { *h = append(*h, x.(*Job)) }
func (h *jobHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// jobQueue implements spec.md §4.4: a priority queue of jobs keyed by
// estimated time, supporting lookup/removal by id and a "drain all jobs
// estimated strictly before cutoff" operation, plus a parallel in-flight
// futures map. Both live under one mutex, as spec.md §5 requires.
type jobQueue struct {
	mu      sync.Mutex
	heap    jobHeap
	byID    map[uuid.UUID]*Job
	futures map[uuid.UUID]*future
}

// future tracks a job currently executing on the worker pool: whether
// cancellation has been requested and whether it has completed. cancelCh is
// closed the first time cancellation is requested, giving the running
// Action itself (via ActionContext.Done) a way to observe an in-flight
// cancel() and honor it cooperatively (spec.md §5, §8 scenario 4) instead of
// only suppressing rescheduling after the fact.
type future struct {
	mu        sync.Mutex
	cancelled bool
	done      bool
	cancelCh  chan struct{}
}

func newFuture() *future {
	return &future{cancelCh: make(chan struct{})}
}

func (f *future) requestCancel() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return false
	}
	if !f.cancelled {
		f.cancelled = true
		close(f.cancelCh)
	}
	return true
}

// Done returns the channel closed when cancellation is requested for this
// future, for ActionContext.Done().
func (f *future) Done() <-chan struct{} { return f.cancelCh }

func (f *future) isDone() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

func (f *future) isCancelled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

func (f *future) markDone() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done = true
}

func newJobQueue() *jobQueue {
	return &jobQueue{
		byID:    make(map[uuid.UUID]*Job),
		futures: make(map[uuid.UUID]*future),
	}
}

// enqueue inserts job into the priority heap. The invariant "at-most-one
// job per action id in the queue simultaneously" (spec.md §3) is the
// caller's responsibility — schedule() and the periodic-reschedule path
// never enqueue an id that is already present.
func (q *jobQueue) enqueue(job *Job) {
	q.mu.Lock()
	defer q.mu.Unlock()
	heap.Push(&q.heap, job)
	q.byID[job.ID()] = job
}

// drainBefore removes and returns, in ascending estimated-time order, every
// job with Estimated() strictly before cutoff (spec.md §4.4, §4.6). For
// each drained job a future entry is registered so cancel/isActive can find
// it while it executes.
func (q *jobQueue) drainBefore(cutoff time.Time) []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()

	var drained []*Job
	for len(q.heap) > 0 && q.heap[0].estimated.Before(cutoff) {
		job := heap.Pop(&q.heap).(*Job)
		delete(q.byID, job.ID())
		fut := newFuture()
		q.futures[job.ID()] = fut
		job.future = fut
		drained = append(drained, job)
	}
	return drained
}

// peek returns the queue head without removing it, or nil if empty.
func (q *jobQueue) peek() *Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.heap) == 0 {
		return nil
	}
	return q.heap[0]
}

// removeByID removes a queued (not in-flight) job by id, reporting whether
// one was removed.
func (q *jobQueue) removeByID(id uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.byID[id]
	if !ok {
		return false
	}
	for i, j := range q.heap {
		if j == job {
			heap.Remove(&q.heap, i)
			break
		}
	}
	delete(q.byID, id)
	return true
}

// containsID reports whether id is currently queued (not in-flight).
func (q *jobQueue) containsID(id uuid.UUID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.byID[id]
	return ok
}

// cancel implements spec.md §4.4's cancel(id): if the job is in flight,
// request cooperative cancellation; else remove it from the queue.
func (q *jobQueue) cancel(id uuid.UUID) bool {
	q.mu.Lock()
	fut, inFlight := q.futures[id]
	q.mu.Unlock()

	if inFlight {
		return fut.requestCancel()
	}
	return q.removeByID(id)
}

// isActive implements spec.md §4.4's isActive(id).
func (q *jobQueue) isActive(id uuid.UUID) bool {
	q.mu.Lock()
	fut, inFlight := q.futures[id]
	_, queued := q.byID[id]
	q.mu.Unlock()

	if inFlight {
		return !fut.isDone()
	}
	return queued
}

// completeFuture removes id's futures entry after its job has finished
// executing, reporting whether cancellation had been requested for it (a
// periodic job that is cancelled while in flight is not rescheduled).
func (q *jobQueue) completeFuture(id uuid.UUID) (wasCancelled bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	fut, ok := q.futures[id]
	if !ok {
		return false
	}
	fut.markDone()
	wasCancelled = fut.isCancelled()
	delete(q.futures, id)
	return wasCancelled
}

// clear drops every queued job (used by stop()); it does not touch
// in-flight futures, whose cancellation is requested separately.
func (q *jobQueue) clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.heap = nil
	clear(q.byID)
}

// cancelAllInFlight requests cooperative cancellation on every currently
// in-flight job (used by stop()).
func (q *jobQueue) cancelAllInFlight() {
	q.mu.Lock()
	futs := make([]*future, 0, len(q.futures))
	for _, f := range q.futures {
		futs = append(futs, f)
	}
	q.mu.Unlock()
	for _, f := range futs {
		f.requestCancel()
	}
}

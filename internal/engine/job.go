package engine

import (
	"time"

	"github.com/google/uuid"
)

// Job is the scheduler's internal record: an Action plus its context and
// next estimated execution time (spec.md §3). Jobs are ordered ascending
// by estimated; identity for lookup/removal is context.ID().
type Job struct {
	action    Action
	context   *ActionContext
	estimated time.Time

	// future is attached by jobQueue.drainBefore when the job is dequeued
	// for execution; nil for hook invocations, which have no in-flight
	// cancellation to observe.
	future *future
}

func newJob(action Action, ctx *ActionContext, estimated time.Time) *Job {
	return &Job{action: action, context: ctx, estimated: estimated}
}

// ID returns the job's action identity.
func (j *Job) ID() uuid.UUID { return j.context.ID() }

// Estimated returns the job's next target execution time.
func (j *Job) Estimated() time.Time { return j.estimated }

// run invokes the underlying Action, catching any panic and passing it, or
// any returned error, to onFailure as an ActionFailure (spec.md §4.3, §7);
// run itself does not log. It never lets a panic or error escape to the
// caller (the worker pool).
func (j *Job) run(delta time.Duration, tick uint64, onFailure func(id uuid.UUID, err error, recovered any)) {
	var done <-chan struct{}
	if j.future != nil {
		done = j.future.Done()
	}
	ctx := j.context.withTick(delta, tick, done)
	defer func() {
		if r := recover(); r != nil && onFailure != nil {
			onFailure(ctx.ID(), nil, r)
		}
	}()
	if err := j.action.Perform(ctx); err != nil && onFailure != nil {
		onFailure(ctx.ID(), err, nil)
	}
}

// Package telemetry aggregates per-tick and per-action performance metrics
// and lightweight trace spans. Grounded on internal/controller/metrics.go's
// MetricsAggregator and tracing.go's Tracer, generalized from "per ECS
// system" to "per tick / per action", and kept on the standard library
// since the teacher's own tracer is not otel-backed either (see
// DESIGN.md).
package telemetry

import (
	"sync"
	"time"
)

// ActionMetrics accumulates timing for one action identity across every
// tick it has run in.
type ActionMetrics struct {
	Name         string
	Invocations  int64
	Failures     int64
	TotalElapsed time.Duration
	MaxElapsed   time.Duration
	MinElapsed   time.Duration
	LastRun      time.Time
}

// Aggregator collects per-action metrics plus tick-level counters.
// Grounded on MetricsAggregator's systems map + sync.RWMutex.
type Aggregator struct {
	mu      sync.RWMutex
	actions map[string]*ActionMetrics

	ticks      int64
	tickErrors int64
}

func NewAggregator() *Aggregator {
	return &Aggregator{actions: make(map[string]*ActionMetrics)}
}

// RecordAction folds one action invocation's elapsed time and outcome into
// its running metrics, auto-registering on first sight just like
// MetricsAggregator.RecordSystemUpdate.
func (a *Aggregator) RecordAction(name string, elapsed time.Duration, failed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	m, ok := a.actions[name]
	if !ok {
		m = &ActionMetrics{Name: name, MinElapsed: time.Hour}
		a.actions[name] = m
	}
	m.Invocations++
	if failed {
		m.Failures++
	}
	m.TotalElapsed += elapsed
	m.LastRun = time.Now()
	if elapsed > m.MaxElapsed {
		m.MaxElapsed = elapsed
	}
	if elapsed < m.MinElapsed {
		m.MinElapsed = elapsed
	}
}

// RecordTick increments the tick counter, and the tick-error counter if the
// tick produced at least one action failure.
func (a *Aggregator) RecordTick(hadFailure bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ticks++
	if hadFailure {
		a.tickErrors++
	}
}

// Snapshot returns a copy of every action's current metrics.
func (a *Aggregator) Snapshot() map[string]ActionMetrics {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make(map[string]ActionMetrics, len(a.actions))
	for name, m := range a.actions {
		out[name] = *m
	}
	return out
}

// TickCounts returns the total ticks observed and how many contained at
// least one action failure.
func (a *Aggregator) TickCounts() (ticks, failed int64) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ticks, a.tickErrors
}

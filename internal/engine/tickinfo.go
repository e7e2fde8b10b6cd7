package engine

import (
	"sync/atomic"
	"time"
)

// TickInfo exposes mutable tick statistics (spec.md §3). All fields are
// read concurrently; writes occur only from the Control Loop. Grounded on
// the rolling tick-duration/TPS sampling in
// dm-vev-adamant/server/world/tick.go.
type TickInfo struct {
	tps          int
	intervalNs   int64
	currentTps   atomic.Int64
	deltaNs      atomic.Int64
	tickCount    atomic.Uint64
	lastTpsCalc  time.Time
}

func newTickInfo(tps int) *TickInfo {
	ti := &TickInfo{
		tps:        tps,
		intervalNs: int64(time.Second) / int64(tps),
	}
	return ti
}

// TPS returns the configured, fixed ticks-per-second.
func (t *TickInfo) TPS() int { return t.tps }

// Interval returns the derived, fixed target tick length.
func (t *TickInfo) Interval() time.Duration { return time.Duration(t.intervalNs) }

// CurrentTPS returns the most recently measured ticks-per-second.
func (t *TickInfo) CurrentTPS() int64 { return t.currentTps.Load() }

// Delta returns the time elapsed since the previous tick started.
func (t *TickInfo) Delta() time.Duration { return time.Duration(t.deltaNs.Load()) }

// TickCount returns the monotonically increasing tick counter.
func (t *TickInfo) TickCount() uint64 { return t.tickCount.Load() }

// recordTickStart is called once per tick, on the Control Loop thread
// only, at the start of the tick body (spec.md §4.6 pseudocode).
func (t *TickInfo) recordTickStart(start, lastStart time.Time) {
	t.deltaNs.Store(int64(start.Sub(lastStart)))
}

// sampleTps implements the "if start - lastTpsCalc >= 1s" branch of the
// Control Loop pseudocode: it folds the running per-second tick count into
// CurrentTPS once a full second has elapsed, and resets the running
// window.
func (t *TickInfo) sampleTps(start time.Time, runningCount *int64) {
	if t.lastTpsCalc.IsZero() {
		t.lastTpsCalc = start
	}
	if start.Sub(t.lastTpsCalc) >= time.Second {
		t.currentTps.Store(*runningCount)
		t.lastTpsCalc = start
		*runningCount = 0
	}
}

// advance increments the tick counter at the end of a completed tick.
func (t *TickInfo) advance() {
	t.tickCount.Add(1)
}

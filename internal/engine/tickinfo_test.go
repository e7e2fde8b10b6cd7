package engine

import (
	"testing"
	"time"
)

func TestTickInfoIntervalDerivedFromTPS(t *testing.T) {
	ti := newTickInfo(100)
	if ti.TPS() != 100 {
		t.Fatalf("TPS() = %d, want 100", ti.TPS())
	}
	if ti.Interval() != 10*time.Millisecond {
		t.Fatalf("Interval() = %v, want 10ms", ti.Interval())
	}
}

func TestTickInfoAdvanceIncrementsCount(t *testing.T) {
	ti := newTickInfo(10)
	if ti.TickCount() != 0 {
		t.Fatalf("TickCount() = %d, want 0", ti.TickCount())
	}
	ti.advance()
	ti.advance()
	if ti.TickCount() != 2 {
		t.Fatalf("TickCount() = %d, want 2", ti.TickCount())
	}
}

func TestTickInfoRecordTickStartSetsDelta(t *testing.T) {
	ti := newTickInfo(10)
	start := time.Now()
	last := start.Add(-25 * time.Millisecond)
	ti.recordTickStart(start, last)
	if ti.Delta() != 25*time.Millisecond {
		t.Fatalf("Delta() = %v, want 25ms", ti.Delta())
	}
}

func TestTickInfoSampleTpsFoldsOncePerSecond(t *testing.T) {
	ti := newTickInfo(10)
	start := time.Now()
	var running int64 = 5

	// Less than a second since lastTpsCalc (which sampleTps initializes to
	// start on first call): no fold yet.
	ti.sampleTps(start, &running)
	if ti.CurrentTPS() != 0 {
		t.Fatalf("CurrentTPS() = %d, want 0 before a full second elapses", ti.CurrentTPS())
	}
	if running != 5 {
		t.Fatalf("running = %d, want unchanged 5", running)
	}

	later := start.Add(time.Second)
	ti.sampleTps(later, &running)
	if ti.CurrentTPS() != 5 {
		t.Fatalf("CurrentTPS() = %d, want 5", ti.CurrentTPS())
	}
	if running != 0 {
		t.Fatalf("running = %d, want reset to 0", running)
	}
}

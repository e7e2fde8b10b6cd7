package telemetry

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestStartFinishSpanRecordsHistory(t *testing.T) {
	tr := NewTracer(0)
	id := uuid.New()

	s := tr.StartSpan("pulse", id, 1)
	if s == nil {
		t.Fatalf("StartSpan returned nil while enabled")
	}
	if tr.Inflight() != 1 {
		t.Fatalf("Inflight() = %d, want 1", tr.Inflight())
	}

	tr.AddTag(s, "severity", "warn")
	tr.AddMetadata(s, "attempt", 2)
	tr.FinishSpan(s, nil)

	if tr.Inflight() != 0 {
		t.Fatalf("Inflight() = %d after finish, want 0", tr.Inflight())
	}
	recent := tr.Recent("pulse")
	if len(recent) != 1 {
		t.Fatalf("Recent(pulse) = %d spans, want 1", len(recent))
	}
	if recent[0].Tags["severity"] != "warn" {
		t.Fatalf("tag not recorded: %+v", recent[0].Tags)
	}
	if recent[0].Metadata["attempt"] != 2 {
		t.Fatalf("metadata not recorded: %+v", recent[0].Metadata)
	}
}

func TestFinishSpanRecordsError(t *testing.T) {
	tr := NewTracer(0)
	s := tr.StartSpan("tcp", uuid.New(), 1)
	boom := errors.New("boom")
	tr.FinishSpan(s, boom)

	recent := tr.Recent("tcp")
	if len(recent) != 1 || recent[0].Err != boom {
		t.Fatalf("recent[0].Err = %v, want %v", recent, boom)
	}
}

func TestDisabledTracerReturnsNilSpan(t *testing.T) {
	tr := NewTracer(0)
	tr.SetEnabled(false)
	if s := tr.StartSpan("pulse", uuid.New(), 1); s != nil {
		t.Fatalf("StartSpan returned non-nil span while disabled")
	}
}

func TestRecentIsBoundedByMaxKept(t *testing.T) {
	tr := NewTracer(2)
	for i := 0; i < 5; i++ {
		s := tr.StartSpan("pulse", uuid.New(), uint64(i))
		tr.FinishSpan(s, nil)
	}
	if got := len(tr.Recent("pulse")); got != 2 {
		t.Fatalf("Recent(pulse) kept %d spans, want 2 (maxKept)", got)
	}
}

func TestFinishNilSpanIsNoop(t *testing.T) {
	tr := NewTracer(0)
	tr.FinishSpan(nil, nil) // must not panic
	tr.AddTag(nil, "k", "v")
	tr.AddMetadata(nil, "k", "v")
}

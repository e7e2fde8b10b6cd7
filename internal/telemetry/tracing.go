package telemetry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Span records one action invocation's lifecycle: start, optional tags and
// metadata accumulated while it runs, and a finish time once complete.
// Grounded on tracing.go's TraceSpan.
type Span struct {
	ID        string
	ActionID  uuid.UUID
	Tick      uint64
	Name      string
	StartedAt time.Time
	EndedAt   time.Time
	Tags      map[string]string
	Metadata  map[string]any
	Err       error
}

// Duration returns how long the span ran, or the elapsed time so far if it
// hasn't finished.
func (s *Span) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// Tracer keeps a bounded window of recent spans per action, grounded on
// tracing.go's Tracer (spans/traces maps guarded by sync.RWMutex). It is
// plain in-process bookkeeping, not an OpenTelemetry exporter: the teacher's
// own Tracer is not otel-backed either, despite go.opentelemetry.io
// appearing as an indirect dependency (see DESIGN.md).
type Tracer struct {
	mu      sync.RWMutex
	enabled bool
	spans   map[string]*Span
	byName  map[string][]*Span
	maxKept int
}

// NewTracer returns a Tracer that keeps up to maxKept finished spans per
// action name.
func NewTracer(maxKept int) *Tracer {
	if maxKept <= 0 {
		maxKept = 256
	}
	return &Tracer{
		enabled: true,
		spans:   make(map[string]*Span),
		byName:  make(map[string][]*Span),
		maxKept: maxKept,
	}
}

// SetEnabled toggles span recording; StartSpan is a no-op while disabled.
func (t *Tracer) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

// StartSpan opens a new span for an action's invocation in the given tick.
func (t *Tracer) StartSpan(name string, actionID uuid.UUID, tick uint64) *Span {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled {
		return nil
	}

	s := &Span{
		ID:        fmt.Sprintf("%s-%d-%s", name, tick, actionID),
		ActionID:  actionID,
		Tick:      tick,
		Name:      name,
		StartedAt: time.Now(),
		Tags:      make(map[string]string),
		Metadata:  make(map[string]any),
	}
	t.spans[s.ID] = s
	return s
}

// AddTag attaches a tag to an in-flight span.
func (t *Tracer) AddTag(s *Span, key, value string) {
	if s == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s.Tags[key] = value
}

// AddMetadata attaches arbitrary metadata to an in-flight span.
func (t *Tracer) AddMetadata(s *Span, key string, value any) {
	if s == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s.Metadata[key] = value
}

// FinishSpan closes a span, recording err if the action failed, and files
// it into the bounded per-name history.
func (t *Tracer) FinishSpan(s *Span, err error) {
	if s == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	s.EndedAt = time.Now()
	s.Err = err
	delete(t.spans, s.ID)

	hist := append(t.byName[s.Name], s)
	if len(hist) > t.maxKept {
		hist = hist[len(hist)-t.maxKept:]
	}
	t.byName[s.Name] = hist
}

// Recent returns the most recently finished spans for an action name, most
// recent last.
func (t *Tracer) Recent(name string) []*Span {
	t.mu.RLock()
	defer t.mu.RUnlock()

	hist := t.byName[name]
	out := make([]*Span, len(hist))
	copy(out, hist)
	return out
}

// Inflight returns the number of spans currently open.
func (t *Tracer) Inflight() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.spans)
}

package actions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"cpra/internal/engine"
)

// logEntryBufPool recycles the bytes.Buffer used to marshal each log entry,
// generalizing internal/jobs/pool.go's sync.Pool-based job recycling from
// whole per-invocation Job structs (no longer applicable now that actions
// are long-lived, reused across every tick they fire on) to the one piece
// of per-invocation garbage LogNotify still produces.
var logEntryBufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// LogNotify appends a structured JSON line to File on every invocation.
// Grounded on internal/jobs/jobs.go's CodeLogJob.Execute.
type LogNotify struct {
	File     string
	Monitor  string
	Message  string
	Severity string
	Status   string
}

type logLine struct {
	Timestamp string `json:"timestamp"`
	Monitor   string `json:"monitor"`
	ActionID  string `json:"action_id"`
	Tick      uint64 `json:"tick"`
	Status    string `json:"status"`
	Severity  string `json:"severity"`
	Message   string `json:"message,omitempty"`
}

func (l *LogNotify) Perform(ctx *engine.ActionContext) error {
	f, err := os.OpenFile(l.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("actions: open log file: %w", err)
	}
	defer f.Close()

	entry := logLine{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Monitor:   l.Monitor,
		ActionID:  ctx.ID().String(),
		Tick:      ctx.EngineTick(),
		Status:    l.Status,
		Severity:  l.Severity,
		Message:   l.Message,
	}

	buf := logEntryBufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer logEntryBufPool.Put(buf)

	enc := json.NewEncoder(buf)
	if err := enc.Encode(entry); err != nil {
		return fmt.Errorf("actions: marshal log entry: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("actions: write log entry: %w", err)
	}
	return nil
}

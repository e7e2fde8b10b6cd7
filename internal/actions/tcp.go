package actions

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"cpra/internal/engine"
)

// TCPPulse dials a host:port and treats a successful connect as healthy.
// Grounded on internal/jobs/jobs.go's PulseTCPJob.Execute.
type TCPPulse struct {
	Host    string
	Port    int
	Timeout time.Duration
	Retries int
}

func (p *TCPPulse) Perform(ctx *engine.ActionContext) error {
	attempts := p.Retries + 1
	if attempts < 1 {
		attempts = 1
	}
	address := net.JoinHostPort(p.Host, strconv.Itoa(p.Port))
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		conn, err := net.DialTimeout("tcp", address, p.Timeout)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		lastErr = err
		if attempt < attempts-1 {
			time.Sleep(50 * time.Millisecond)
		}
	}
	return fmt.Errorf("actions: tcp pulse %s failed after %d attempt(s): %w", address, attempts, lastErr)
}

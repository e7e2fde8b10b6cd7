// Package actions provides concrete engine.Action implementations adapted
// from the teacher's internal/jobs package: each of its bespoke Job types
// (PulseHTTPJob, PulseTCPJob, InterventionDockerJob, CodeLogJob) is
// generalized here into the engine's single Action/ActionContext contract.
package actions

import (
	"fmt"
	"net/http"
	"time"

	"cpra/internal/engine"
)

// HTTPPulse repeatedly probes a URL, treating any 2xx response as healthy.
// Grounded on internal/jobs/jobs.go's PulseHTTPJob.Execute.
type HTTPPulse struct {
	URL     string
	Method  string
	Timeout time.Duration
	Retries int
	client  http.Client
}

func NewHTTPPulse(url, method string, timeout time.Duration, retries int) *HTTPPulse {
	if method == "" {
		method = http.MethodGet
	}
	return &HTTPPulse{URL: url, Method: method, Timeout: timeout, Retries: retries, client: http.Client{Timeout: timeout}}
}

func (p *HTTPPulse) Perform(ctx *engine.ActionContext) error {
	attempts := p.Retries + 1
	var lastErr error
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequest(p.Method, p.URL, nil)
		if err != nil {
			return fmt.Errorf("actions: build http request: %w", err)
		}
		resp, err := p.client.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(50 * time.Millisecond)
			continue
		}
		ok := resp.StatusCode >= 200 && resp.StatusCode < 300
		resp.Body.Close()
		if ok {
			return nil
		}
		lastErr = fmt.Errorf("non-2xx status: %s", resp.Status)
	}
	return fmt.Errorf("actions: http pulse %s failed after %d attempt(s): %w", p.URL, attempts, lastErr)
}

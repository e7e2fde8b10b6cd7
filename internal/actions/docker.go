package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/client"

	"cpra/internal/engine"
)

// DockerRestart restarts a container by name, retrying on failure.
// Grounded on internal/jobs/jobs.go's InterventionDockerJob.Execute.
type DockerRestart struct {
	Container string
	Timeout   time.Duration
	Retries   int
}

func (d *DockerRestart) Perform(ctx *engine.ActionContext) error {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return fmt.Errorf("actions: new docker client: %w", err)
	}
	defer cli.Close()

	attempts := d.Retries + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		timeout := int(d.Timeout.Seconds())
		cctx, cancel := context.WithTimeout(context.Background(), d.Timeout)
		err := cli.ContainerRestart(cctx, d.Container, container.StopOptions{Timeout: &timeout})
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("actions: docker restart %q failed after %d attempt(s): %w", d.Container, attempts, lastErr)
}

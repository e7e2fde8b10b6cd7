package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"cpra/internal/actions"
	"cpra/internal/actor"
	"cpra/internal/engine"
)

// yamlDuration accepts either a Go duration string ("5s", "1m30s") or a
// bare integer number of seconds, the same leniency teacher's
// internal/loader/schema.DurationSeconds offers for monitor intervals.
type yamlDuration time.Duration

func (d *yamlDuration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw string
	if err := unmarshal(&raw); err == nil {
		if seconds, convErr := strconv.Atoi(raw); convErr == nil {
			*d = yamlDuration(time.Duration(seconds) * time.Second)
			return nil
		}
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", raw, err)
		}
		*d = yamlDuration(parsed)
		return nil
	}
	var seconds int
	if err := unmarshal(&seconds); err != nil {
		return fmt.Errorf("duration must be a string or integer seconds")
	}
	*d = yamlDuration(time.Duration(seconds) * time.Second)
	return nil
}

func (d yamlDuration) asDuration() time.Duration { return time.Duration(d) }

// scheduleSpec is the yaml shape of one actor's recurring action, generalized
// from the teacher's per-kind monitor schema (schema.PulseHTTPConfig,
// schema.PulseTCPConfig) plus its InterventionDockerConfig/CodeConfig into a
// single tagged-union-by-Kind record.
type scheduleSpec struct {
	Kind    string       `yaml:"kind"`
	Delay   yamlDuration `yaml:"delay"`
	Period  yamlDuration `yaml:"period"`
	Timeout yamlDuration `yaml:"timeout"`
	Retries int          `yaml:"retries"`

	// kind: http
	URL    string `yaml:"url"`
	Method string `yaml:"method"`

	// kind: tcp
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// kind: docker
	Container string `yaml:"container"`

	// kind: log
	Message  string `yaml:"message"`
	Severity string `yaml:"severity"`
	Status   string `yaml:"status"`
}

func (s scheduleSpec) buildAction(logFile string) (engine.Action, error) {
	switch s.Kind {
	case "http":
		return actions.NewHTTPPulse(s.URL, s.Method, s.Timeout.asDuration(), s.Retries), nil
	case "tcp":
		return &actions.TCPPulse{Host: s.Host, Port: s.Port, Timeout: s.Timeout.asDuration(), Retries: s.Retries}, nil
	case "docker":
		return &actions.DockerRestart{Container: s.Container, Timeout: s.Timeout.asDuration(), Retries: s.Retries}, nil
	case "log":
		return &actions.LogNotify{File: logFile, Severity: s.Severity, Status: s.Status, Message: s.Message}, nil
	default:
		return nil, fmt.Errorf("manifest: unknown schedule kind %q", s.Kind)
	}
}

// actorSpec is one entry under the manifest's top-level actors list.
type actorSpec struct {
	Name     string       `yaml:"name"`
	Tags     []string     `yaml:"tags"`
	Schedule scheduleSpec `yaml:"schedule"`
}

// manifest is the full yaml document cmd/simrt loads, grounded on the
// teacher's internal/loader/schema.Manifest (a Monitors slice) generalized
// from monitor configuration to actor + schedule configuration.
type manifest struct {
	LogFile string      `yaml:"log_file"`
	Actors  []actorSpec `yaml:"actors"`
}

func loadManifest(path string) (manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return manifest{}, fmt.Errorf("manifest: read %s: %w", path, err)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return manifest{}, fmt.Errorf("manifest: parse %s: %w", path, err)
	}
	if m.LogFile == "" {
		m.LogFile = "simrt.log"
	}
	return m, nil
}

// materialize creates one actor.Handle per spec and schedules its action on
// eng, returning the schedule ids keyed by actor name.
func materialize(m manifest, world *actor.World, eng *engine.Engine) (map[string]engineScheduleResult, error) {
	out := make(map[string]engineScheduleResult, len(m.Actors))
	for _, spec := range m.Actors {
		handle := world.NewActor()
		for _, tag := range spec.Tags {
			handle.AddTag(tag)
		}
		handle.SetAttribute("name", spec.Name)

		action, err := spec.Schedule.buildAction(m.LogFile)
		if err != nil {
			return nil, fmt.Errorf("manifest: actor %s: %w", spec.Name, err)
		}

		id, err := eng.Schedule(handle, action, spec.Schedule.Delay.asDuration(), spec.Schedule.Period.asDuration())
		if err != nil {
			return nil, fmt.Errorf("manifest: schedule actor %s: %w", spec.Name, err)
		}
		out[spec.Name] = engineScheduleResult{handle: handle, id: id}
	}
	return out, nil
}

type engineScheduleResult struct {
	handle actor.Handle
	id     uuid.UUID
}

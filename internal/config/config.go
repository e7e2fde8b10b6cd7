// Package config loads the engine's runtime knobs from YAML, the same
// yaml-tag-per-field convention pkg/logger.Config (née the teacher's
// LoggerConfig) uses.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"cpra/internal/engine"
	"cpra/pkg/logger"
)

// EngineConfig is the on-disk configuration for a Continuous engine
// (spec.md §4's TPS/TotalThreads/SpinYieldThreshold/TerminationTimeout
// knobs), plus the logger configuration every ambient component shares.
type EngineConfig struct {
	TPS                int           `yaml:"tps"`
	TotalThreads        int           `yaml:"total_threads"`
	SpinYieldThresholdMS int          `yaml:"spin_yield_threshold_ms"`
	TerminationTimeoutMS int          `yaml:"termination_timeout_ms"`
	Logging            logger.Config `yaml:"logging"`
}

// DefaultConfig returns the engine's default runtime configuration.
func DefaultConfig() EngineConfig {
	return EngineConfig{
		TPS:                  20,
		TotalThreads:         64,
		SpinYieldThresholdMS: 10,
		TerminationTimeoutMS: 2000,
		Logging:              logger.DefaultConfig(),
	}
}

// ToEngineConfig converts the YAML-shaped config into the
// engine.EngineConfig the Continuous engine constructor expects.
func (c EngineConfig) ToEngineConfig() engine.EngineConfig {
	return engine.EngineConfig{
		TPS:                c.TPS,
		TotalThreads:       c.TotalThreads,
		SpinYieldThreshold: time.Duration(c.SpinYieldThresholdMS) * time.Millisecond,
		TerminationTimeout: time.Duration(c.TerminationTimeoutMS) * time.Millisecond,
	}
}

// Load reads and parses an EngineConfig from a YAML file at path, filling
// in defaults for anything the file omits.
func Load(path string) (EngineConfig, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

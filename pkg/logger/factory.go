package logger

import (
	"os"
	"strconv"
	"strings"
)

// NewFromEnv creates a logger based on environment variables, same
// CPRA_LOG_*/CPRA_ENV convention as the teacher's NewLoggerFromEnv.
func NewFromEnv() (Logger, error) {
	cfg := configFromEnv()
	return NewZapLogger(cfg)
}

// NewWithComponent creates a logger with a component field pre-set.
func NewWithComponent(component string) (Logger, error) {
	cfg := configFromEnv()
	l, err := NewZapLogger(cfg)
	if err != nil {
		return nil, err
	}
	return l.With(Component(component)), nil
}

func configFromEnv() Config {
	cfg := DefaultConfig()

	isDev := strings.ToLower(os.Getenv("CPRA_ENV")) != "production"
	if isDev {
		cfg = DevelopmentConfig()
	}

	if level := os.Getenv("CPRA_LOG_LEVEL"); level != "" {
		cfg.Level = level
	}
	if format := os.Getenv("CPRA_LOG_FORMAT"); format != "" {
		cfg.Format = format
	}
	if sampling := os.Getenv("CPRA_LOG_SAMPLING"); sampling != "" {
		cfg.EnableSampling = strings.ToLower(sampling) == "true"
	}
	if initial := os.Getenv("CPRA_LOG_SAMPLE_INITIAL"); initial != "" {
		if val, err := strconv.Atoi(initial); err == nil {
			cfg.SampleInitial = val
		}
	}
	if thereafter := os.Getenv("CPRA_LOG_SAMPLE_THEREAFTER"); thereafter != "" {
		if val, err := strconv.Atoi(thereafter); err == nil {
			cfg.SampleThereafter = val
		}
	}
	if dev := os.Getenv("CPRA_LOG_DEVELOPMENT"); dev != "" {
		cfg.Development = strings.ToLower(dev) == "true"
	}
	return cfg
}

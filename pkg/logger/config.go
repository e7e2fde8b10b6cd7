package logger

// Config defines logging configuration. Renamed from the teacher's
// LoggerConfig since it now lives in its own logger package (the Logger
// prefix was only needed to disambiguate inside internal/logger's caller
// packages).
type Config struct {
	Level            string `yaml:"level" env:"CPRA_LOG_LEVEL"`
	Format           string `yaml:"format" env:"CPRA_LOG_FORMAT"` // json or console
	EnableSampling   bool   `yaml:"enable_sampling" env:"CPRA_LOG_SAMPLING"`
	SampleInitial    int    `yaml:"sample_initial" env:"CPRA_LOG_SAMPLE_INITIAL"`
	SampleThereafter int    `yaml:"sample_thereafter" env:"CPRA_LOG_SAMPLE_THEREAFTER"`
	Development      bool   `yaml:"development" env:"CPRA_LOG_DEVELOPMENT"`
}

// DefaultConfig returns production-ready default configuration.
func DefaultConfig() Config {
	return Config{
		Level:            "info",
		Format:           "json",
		EnableSampling:   true,
		SampleInitial:    100,
		SampleThereafter: 1000,
		Development:      false,
	}
}

// DevelopmentConfig returns development configuration.
func DevelopmentConfig() Config {
	return Config{
		Level:            "debug",
		Format:           "console",
		EnableSampling:   false,
		SampleInitial:    0,
		SampleThereafter: 0,
		Development:      true,
	}
}

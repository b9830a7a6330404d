package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the process-level configuration for a single matchengine
// instance. It deliberately has no Server/Database/Redis/Auth sections:
// this process has no transport, persistence, or identity surface of its
// own (those are the command source's and event sink's job).
type Config struct {
	Engine  EngineConfig  `json:"engine" yaml:"engine"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// EngineConfig configures the single bound instrument and its channel sizing.
type EngineConfig struct {
	Symbol            string        `json:"symbol" yaml:"symbol"`
	CommandBufferSize int           `json:"command_buffer_size" yaml:"command_buffer_size"`
	EventWorkerPool   int           `json:"event_worker_pool" yaml:"event_worker_pool"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// LoggingConfig controls the shared zap logger.
type LoggingConfig struct {
	Level        string `json:"level" yaml:"level"`
	Format       string `json:"format" yaml:"format"`
	EnableCaller bool   `json:"enable_caller" yaml:"enable_caller"`
}

// MetricsConfig controls the Prometheus collectors registered by the engine.
type MetricsConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Provider string `json:"provider" yaml:"provider"`
	Address  string `json:"address" yaml:"address"`
	Path     string `json:"path" yaml:"path"`
}

// Validation errors.
var (
	ErrMissingSymbol        = errors.New("engine.symbol must not be empty")
	ErrInvalidBufferSize    = errors.New("engine.command_buffer_size must be positive")
	ErrInvalidEventPoolSize = errors.New("engine.event_worker_pool must be positive")
)

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Engine.Symbol == "" {
		return ErrMissingSymbol
	}
	if c.Engine.CommandBufferSize <= 0 {
		return ErrInvalidBufferSize
	}
	if c.Engine.EventWorkerPool <= 0 {
		return ErrInvalidEventPoolSize
	}
	return nil
}

// DefaultConfig returns sane defaults for local/demo use.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Symbol:            "DEMO",
			CommandBufferSize: 1024,
			EventWorkerPool:   8,
			ShutdownTimeout:   5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:        "info",
			Format:       "console",
			EnableCaller: true,
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Provider: "prometheus",
			Address:  "0.0.0.0:9090",
			Path:     "/metrics",
		},
	}
}

// LoadConfig loads configuration from a YAML file. A missing path or a
// missing file both fall back to DefaultConfig: no config means defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

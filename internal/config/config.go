// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all viewer settings.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Viewer  ViewerConfig  `yaml:"viewer"`
	Export  ExportConfig  `yaml:"export"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig holds geometry engine settings.
type EngineConfig struct {
	WorkerEndpoint     string        `yaml:"worker_endpoint"`
	WasmPath           string        `yaml:"wasm_path"`
	CoordinateToOrigin bool          `yaml:"coordinate_to_origin"`
	LoadTimeout        time.Duration `yaml:"load_timeout"` // 0 disables the timeout
}

// ViewerConfig holds model lifecycle settings.
type ViewerConfig struct {
	HiddenClasses      []string `yaml:"hidden_classes"`      // Classes hidden after classification
	FixMaterials       bool     `yaml:"fix_materials"`       // Force loaded materials visible
	DisposeConcurrency int      `yaml:"dispose_concurrency"` // Parallel removals on shutdown
}

// ExportConfig holds export settings.
type ExportConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			WorkerEndpoint:     "inproc://geometry-worker",
			CoordinateToOrigin: true,
			LoadTimeout:        2 * time.Minute,
		},
		Viewer: ViewerConfig{
			HiddenClasses:      []string{"Space"},
			FixMaterials:       true,
			DisposeConcurrency: 4,
		},
		Export: ExportConfig{
			OutputDir: ".",
		},
		Metrics: MetricsConfig{
			Enabled:   false,
			Namespace: "bimview",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if c.Engine.WorkerEndpoint == "" {
		err = multierr.Append(err, fmt.Errorf("%w: engine.worker_endpoint is empty", ErrInvalid))
	}
	if c.Engine.LoadTimeout < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: engine.load_timeout %v is negative", ErrInvalid, c.Engine.LoadTimeout))
	}
	if c.Viewer.DisposeConcurrency < 0 {
		err = multierr.Append(err, fmt.Errorf("%w: viewer.dispose_concurrency %d is negative", ErrInvalid, c.Viewer.DisposeConcurrency))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level))
	}
	return err
}

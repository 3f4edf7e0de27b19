package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Overrides holds CLI flag values. Only flags the user set are applied.
type Overrides struct {
	fs *pflag.FlagSet

	ConfigPath    string
	Debug         bool
	LogFile       string
	Endpoint      string
	WasmPath      string
	NoRecenter    bool
	HiddenClasses []string
	LoadTimeout   time.Duration
	Metrics       bool
}

// BindFlags registers the config flags on fs.
func BindFlags(fs *pflag.FlagSet) *Overrides {
	ov := &Overrides{fs: fs}
	fs.StringVar(&ov.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&ov.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&ov.LogFile, "log-file", "", "Write logs to this file")
	fs.StringVar(&ov.Endpoint, "endpoint", "", "Geometry worker endpoint")
	fs.StringVar(&ov.WasmPath, "wasm", "", "Geometry engine runtime path")
	fs.BoolVar(&ov.NoRecenter, "no-recenter", false, "Keep source coordinates")
	fs.StringSliceVar(&ov.HiddenClasses, "hide", nil, "Classes hidden after loading (repeatable)")
	fs.DurationVar(&ov.LoadTimeout, "timeout", 0, "Load timeout")
	fs.BoolVar(&ov.Metrics, "metrics", false, "Collect Prometheus metrics")
	return ov
}

func (ov *Overrides) changed(name string) bool {
	if ov.fs == nil {
		return true
	}
	return ov.fs.Changed(name)
}

// configPath returns the explicit config path if provided via --config.
func (ov *Overrides) configPath() string {
	if ov == nil {
		return ""
	}
	return ov.ConfigPath
}

// apply applies CLI flag overrides to the config.
func (ov *Overrides) apply(cfg *Config) {
	if ov == nil {
		return
	}
	if ov.Debug {
		cfg.Logging.Level = "debug"
	}
	if ov.LogFile != "" {
		cfg.Logging.LogFile = ov.LogFile
	}
	if ov.Endpoint != "" {
		cfg.Engine.WorkerEndpoint = ov.Endpoint
	}
	if ov.WasmPath != "" {
		cfg.Engine.WasmPath = ov.WasmPath
	}
	if ov.NoRecenter {
		cfg.Engine.CoordinateToOrigin = false
	}
	if ov.changed("hide") && ov.HiddenClasses != nil {
		cfg.Viewer.HiddenClasses = ov.HiddenClasses
	}
	if ov.changed("timeout") && ov.LoadTimeout != 0 {
		cfg.Engine.LoadTimeout = ov.LoadTimeout
	}
	if ov.Metrics {
		cfg.Metrics.Enabled = true
	}
}

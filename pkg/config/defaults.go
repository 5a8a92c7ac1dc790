package config

import (
	"strings"
	"time"

	"github.com/harbouros/harbourd/pkg/controlplane/api"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values (0, "", false, nil) are replaced with defaults; explicit
// values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyPathsDefaults(&cfg.Paths)
	applyShutdownTimeoutDefaults(cfg)
	applyMetricsDefaults(&cfg.Metrics)
	applyControlPlaneDefaults(&cfg.ControlPlane)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyPathsDefaults sets the filesystem layout defaults. Dev mode
// relocates state under the user config directory so the daemon can
// run unprivileged.
func applyPathsDefaults(cfg *PathsConfig) {
	if cfg.DevMode {
		if cfg.StateDir == "" {
			cfg.StateDir = getConfigDir()
		}
		if cfg.MountBase == "" {
			cfg.MountBase = getConfigDir() + "/media"
		}
		if cfg.SystemdDir == "" {
			cfg.SystemdDir = getConfigDir() + "/systemd"
		}
		return
	}

	if cfg.StateDir == "" {
		cfg.StateDir = "/etc/harbourd"
	}
	if cfg.MountBase == "" {
		cfg.MountBase = "/media/nas"
	}
	if cfg.SystemdDir == "" {
		cfg.SystemdDir = "/etc/systemd/system"
	}
}

// applyShutdownTimeoutDefaults sets shutdown timeout defaults.
func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	// Enabled defaults to false (opt-in for metrics)
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

// applyControlPlaneDefaults sets control plane API server defaults.
func applyControlPlaneDefaults(cfg *api.APIConfig) {
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 10 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = 60 * time.Second
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for generating sample configuration files, testing,
// and documentation.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

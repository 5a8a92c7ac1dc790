package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Logging.Level != "INFO" || cfg.Logging.Format != "text" || cfg.Logging.Output != "stdout" {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}
	if cfg.Paths.StateDir != "/etc/harbourd" {
		t.Errorf("StateDir = %q", cfg.Paths.StateDir)
	}
	if cfg.Paths.MountBase != "/media/nas" {
		t.Errorf("MountBase = %q", cfg.Paths.MountBase)
	}
	if cfg.Paths.SystemdDir != "/etc/systemd/system" {
		t.Errorf("SystemdDir = %q", cfg.Paths.SystemdDir)
	}
	if cfg.Paths.MountsFile() != "/etc/harbourd/mounts.json" {
		t.Errorf("MountsFile = %q", cfg.Paths.MountsFile())
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
	if cfg.ControlPlane.Port != 8080 {
		t.Errorf("API port = %d", cfg.ControlPlane.Port)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics should default to disabled")
	}
}

func TestDevModeRelocatesPaths(t *testing.T) {
	cfg := &Config{Paths: PathsConfig{DevMode: true}}
	ApplyDefaults(cfg)

	if cfg.Paths.StateDir == "/etc/harbourd" {
		t.Errorf("dev mode StateDir = %q, should be relocated", cfg.Paths.StateDir)
	}
	if cfg.Paths.SystemdDir == "/etc/systemd/system" {
		t.Errorf("dev mode SystemdDir = %q, should be relocated", cfg.Paths.SystemdDir)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
logging:
  level: debug
  format: json
paths:
  state_dir: /var/lib/harbourd
shutdown_timeout: 10s
controlplane:
  port: 9000
metrics:
  enabled: true
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Level = %q, should be normalized to uppercase", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format = %q", cfg.Logging.Format)
	}
	if cfg.Paths.StateDir != "/var/lib/harbourd" {
		t.Errorf("StateDir = %q", cfg.Paths.StateDir)
	}
	if cfg.Paths.MountBase != "/media/nas" {
		t.Error("unset fields should fall back to defaults")
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
	if cfg.ControlPlane.Port != 9000 {
		t.Errorf("API port = %d", cfg.ControlPlane.Port)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Port != 9090 {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}
}

func TestLoadRejectsInvalidLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: verbose\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load should reject unknown log level")
	}
}

func TestValidateRejectsPortCollision(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = cfg.ControlPlane.Port
	if err := Validate(cfg); err == nil {
		t.Error("Validate should reject metrics port colliding with API port")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.ControlPlane.Port = 9999
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("mode = %o, want 0600", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ControlPlane.Port != 9999 {
		t.Errorf("round-trip port = %d", loaded.ControlPlane.Port)
	}
}

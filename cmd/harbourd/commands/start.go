package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harbouros/harbourd/internal/logger"
	"github.com/harbouros/harbourd/pkg/config"
	"github.com/harbouros/harbourd/pkg/controlplane/api"
	"github.com/harbouros/harbourd/pkg/discovery"
	"github.com/harbouros/harbourd/pkg/metrics"
	"github.com/harbouros/harbourd/pkg/mount/creds"
	"github.com/harbouros/harbourd/pkg/mount/manager"
	"github.com/harbouros/harbourd/pkg/mount/registry"
	"github.com/harbouros/harbourd/pkg/system"
)

var devMode bool

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the harbourd daemon",
	Long: `Start the harbourd daemon with the specified configuration.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/harbourd/config.yaml.

Examples:
  # Start with default config location
  harbourd start

  # Start with custom config file
  harbourd start --config /etc/harbourd/config.yaml

  # Unprivileged development mode (no sudo, no systemctl)
  harbourd start --dev

  # Use environment variables to override config
  HARBOURD_LOGGING_LEVEL=DEBUG harbourd start`,
	RunE: runStart,
}

func init() {
	startCmd.Flags().BoolVar(&devMode, "dev", false, "Run unprivileged: skip sudo and systemctl, relocate state to user directories")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}
	if devMode {
		cfg.Paths = config.PathsConfig{DevMode: true}
		config.ApplyDefaults(cfg)
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	logger.Info("Filesystem layout",
		"state_dir", cfg.Paths.StateDir,
		"mount_base", cfg.Paths.MountBase,
		"systemd_dir", cfg.Paths.SystemdDir,
		"dev_mode", cfg.Paths.DevMode,
	)

	// Metrics must be initialized before the adapter so command
	// durations are recorded from the first call.
	var mountMetrics *metrics.MountMetrics
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		mountMetrics = metrics.NewMountMetrics()
		metricsServer = metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})
		logger.Info("Metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("Metrics collection disabled")
	}

	sys := system.NewExec(system.Config{DevMode: cfg.Paths.DevMode}, mountMetrics)

	if cfg.Paths.DevMode {
		for _, dir := range []string{cfg.Paths.StateDir, cfg.Paths.MountBase, cfg.Paths.SystemdDir} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("creating %s: %w", dir, err)
			}
		}
	}

	svc := manager.New(manager.Config{
		MountBase:  cfg.Paths.MountBase,
		SystemdDir: cfg.Paths.SystemdDir,
	},
		registry.New(cfg.Paths.MountsFile()),
		creds.NewStore(cfg.Paths.StateDir, sys),
		sys,
		mountMetrics,
	)

	apiServer := api.NewServer(cfg.ControlPlane, svc, discovery.NewService(sys))
	logger.Info("API server enabled", "port", apiServer.Port())

	// Start servers in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- apiServer.Start(ctx)
	}()
	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("metrics server error", "error", err)
			}
		}()
	}

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("harbourd is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		logger.Info("harbourd stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("harbourd stopped")
	}

	return nil
}

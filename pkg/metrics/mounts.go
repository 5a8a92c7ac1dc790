package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MountMetrics records mount manager activity: CRUD and mount/unmount
// operations by outcome, and the latency of the OS commands they run.
type MountMetrics struct {
	operations      *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	mountsGauge     prometheus.Gauge
}

// NewMountMetrics creates a Prometheus-backed MountMetrics instance.
// Returns nil when metrics are disabled; all methods are nil-safe.
func NewMountMetrics() *MountMetrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &MountMetrics{
		operations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "harbourd_mount_operations_total",
				Help: "Mount manager operations by action and outcome",
			},
			[]string{"action", "outcome"}, // action: add, update, remove, mount, unmount, test; outcome: ok, error
		),
		commandDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "harbourd_system_command_duration_seconds",
				Help:    "Duration of OS adapter commands",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"command"},
		),
		mountsGauge: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "harbourd_mounts_configured",
				Help: "Number of mounts in the registry",
			},
		),
	}
}

// RecordOperation counts one manager operation.
func (m *MountMetrics) RecordOperation(action string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(action, outcome).Inc()
}

// ObserveCommand records the duration of one OS adapter command.
func (m *MountMetrics) ObserveCommand(command string, d time.Duration) {
	if m == nil {
		return
	}
	m.commandDuration.WithLabelValues(command).Observe(d.Seconds())
}

// SetConfiguredMounts records the current registry size.
func (m *MountMetrics) SetConfiguredMounts(n int) {
	if m == nil {
		return
	}
	m.mountsGauge.Set(float64(n))
}

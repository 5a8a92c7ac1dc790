package system

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/harbouros/harbourd/internal/logger"
	"github.com/harbouros/harbourd/pkg/metrics"
	units "github.com/harbouros/harbourd/pkg/mount/systemd"
)

// Per-operation timeouts. Light file operations get the short bound;
// systemctl queries and discovery commands the middle one; starting or
// stopping a mount can legitimately block on an unreachable server and
// gets the long bound.
const (
	fileOpTimeout    = 5 * time.Second
	escapeTimeout    = 5 * time.Second
	serviceOpTimeout = 10 * time.Second
	discoveryTimeout = 10 * time.Second
	startStopTimeout = 30 * time.Second
)

// Config configures the exec-backed adapter.
type Config struct {
	// DevMode disables elevation and service-manager calls so the
	// daemon can run unprivileged against relocated paths. File
	// operations still happen.
	DevMode bool
}

// Exec is the production Adapter: it shells out to the system
// utilities (mkdir, tee, rm, systemctl, systemd-escape, showmount,
// smbclient, avahi-browse), elevating with sudo when the process is
// not running as root.
type Exec struct {
	devMode bool
	metrics *metrics.MountMetrics
}

// NewExec creates the exec-backed adapter. metrics may be nil.
func NewExec(cfg Config, m *metrics.MountMetrics) *Exec {
	return &Exec{devMode: cfg.DevMode, metrics: m}
}

// privileged reports whether the process can write privileged paths
// directly, without going through sudo.
func (e *Exec) privileged() bool {
	return e.devMode || os.Geteuid() == 0
}

// sudo prepends sudo to argv when elevation is required.
func (e *Exec) sudo(argv []string) []string {
	if e.privileged() {
		return argv
	}
	return append([]string{"sudo"}, argv...)
}

// run executes argv with a bounded timeout, returning stdout. Failures
// are returned as *OpError carrying the captured stderr (or stdout
// when stderr is empty) as diagnostic text.
func (e *Exec) run(ctx context.Context, timeout time.Duration, op, stdin string, argv ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	e.metrics.ObserveCommand(op, time.Since(start))

	if err != nil {
		diag := stderr.String()
		if strings.TrimSpace(diag) == "" {
			diag = stdout.String()
		}
		if ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("timed out after %s", timeout)
		}
		return "", &OpError{Op: op, Output: diag, Err: err}
	}
	return stdout.String(), nil
}

// CreateDir creates path and any missing parents.
func (e *Exec) CreateDir(ctx context.Context, path string) error {
	if e.privileged() {
		if err := os.MkdirAll(path, 0755); err != nil {
			return &OpError{Op: "mkdir", Err: err}
		}
		return nil
	}
	_, err := e.run(ctx, fileOpTimeout, "mkdir", "", e.sudo([]string{"mkdir", "-p", path})...)
	return err
}

// RemoveDir removes an empty directory.
func (e *Exec) RemoveDir(ctx context.Context, path string) error {
	if e.privileged() {
		if err := os.Remove(path); err != nil {
			return &OpError{Op: "rmdir", Err: err}
		}
		return nil
	}
	_, err := e.run(ctx, fileOpTimeout, "rmdir", "", e.sudo([]string{"rmdir", path})...)
	return err
}

// WritePrivilegedFile writes content to a root-owned path, via sudo
// tee when not privileged.
func (e *Exec) WritePrivilegedFile(ctx context.Context, path, content string) error {
	if e.privileged() {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return &OpError{Op: "write file", Err: err}
		}
		return nil
	}
	_, err := e.run(ctx, fileOpTimeout, "tee", content, "sudo", "tee", path)
	return err
}

// WriteSecretFile writes content to path with 0600 permissions. When
// privileged the file is created restrictive from the start; through
// sudo the permissions are tightened immediately after the write and
// the file is only considered valid once chmod succeeds.
func (e *Exec) WriteSecretFile(ctx context.Context, path, content string) error {
	if e.privileged() {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			return &OpError{Op: "write secret", Err: err}
		}
		_, werr := f.WriteString(content)
		cerr := f.Close()
		if werr != nil {
			return &OpError{Op: "write secret", Err: werr}
		}
		if cerr != nil {
			return &OpError{Op: "write secret", Err: cerr}
		}
		return nil
	}

	if _, err := e.run(ctx, fileOpTimeout, "tee", content, "sudo", "tee", path); err != nil {
		return err
	}
	_, err := e.run(ctx, fileOpTimeout, "chmod", "", "sudo", "chmod", "600", path)
	return err
}

// RemovePrivilegedFile removes a root-owned file. A missing file is
// not an error.
func (e *Exec) RemovePrivilegedFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if e.privileged() {
		if err := os.Remove(path); err != nil {
			return &OpError{Op: "rm", Err: err}
		}
		return nil
	}
	_, err := e.run(ctx, fileOpTimeout, "rm", "", e.sudo([]string{"rm", path})...)
	return err
}

// EscapePath converts a path to a systemd unit name via
// systemd-escape, falling back to the built-in escaper when the
// utility is missing or fails.
func (e *Exec) EscapePath(ctx context.Context, path string) string {
	out, err := e.run(ctx, escapeTimeout, "systemd-escape", "", "systemd-escape", "--path", path)
	if err != nil {
		logger.Debug("systemd-escape unavailable, using fallback", "path", path, "error", err)
		return units.EscapePath(path)
	}
	escaped := strings.TrimSpace(out)
	if escaped == "" {
		return units.EscapePath(path)
	}
	return escaped
}

func (e *Exec) systemctl(ctx context.Context, timeout time.Duration, args ...string) error {
	if e.devMode {
		return nil
	}
	argv := e.sudo(append([]string{"systemctl"}, args...))
	_, err := e.run(ctx, timeout, "systemctl "+args[0], "", argv...)
	return err
}

// EnableUnit enables a unit so it comes up on boot.
func (e *Exec) EnableUnit(ctx context.Context, unit string) error {
	return e.systemctl(ctx, serviceOpTimeout, "enable", unit)
}

// DisableUnit disables and stops a unit. Disabling an already-disabled
// unit is reported as an error by systemctl on some versions; callers
// treat this as best-effort.
func (e *Exec) DisableUnit(ctx context.Context, unit string) error {
	return e.systemctl(ctx, serviceOpTimeout, "disable", "--now", unit)
}

// StartUnit starts a unit, blocking until the mount completes or the
// operation times out.
func (e *Exec) StartUnit(ctx context.Context, unit string) error {
	return e.systemctl(ctx, startStopTimeout, "start", unit)
}

// StopUnit stops a unit.
func (e *Exec) StopUnit(ctx context.Context, unit string) error {
	return e.systemctl(ctx, startStopTimeout, "stop", unit)
}

// DaemonReload makes the service manager pick up unit file changes.
func (e *Exec) DaemonReload(ctx context.Context) error {
	return e.systemctl(ctx, serviceOpTimeout, "daemon-reload")
}

// IsMountPoint reports whether path is currently mounted, by scanning
// the process mount table.
func (e *Exec) IsMountPoint(path string) bool {
	mounted, err := isMountPoint(path)
	if err != nil {
		logger.Debug("mount table scan failed", "path", path, "error", err)
		return false
	}
	return mounted
}

// ListExports runs showmount -e against host.
func (e *Exec) ListExports(ctx context.Context, host string) (string, error) {
	return e.run(ctx, discoveryTimeout, "showmount", "", "showmount", "-e", host)
}

// ListShares runs smbclient -L against host, anonymously unless a
// username is given.
func (e *Exec) ListShares(ctx context.Context, host, username, password string) (string, error) {
	argv := []string{"smbclient", "-L", "//" + host}
	if username != "" {
		argv = append(argv, "-U", username+"%"+password)
	} else {
		argv = append(argv, "-N")
	}
	return e.run(ctx, discoveryTimeout, "smbclient", "", argv...)
}

// BrowseServices browses mDNS for the given service type (terminate,
// parsable, resolve, no-db-lookup flags).
func (e *Exec) BrowseServices(ctx context.Context, serviceType string) (string, error) {
	return e.run(ctx, discoveryTimeout, "avahi-browse", "", "avahi-browse", "-tprk", serviceType)
}

// Package manager orchestrates the mount lifecycle: it owns the order
// in which registry writes, credential files, unit installation and
// service-manager calls happen for every operation. The registry is
// the primary store; runtime synchronization (units, directories,
// systemctl) is secondary and best-effort, so a degraded host never
// loses declared configuration.
package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/harbouros/harbourd/internal/logger"
	"github.com/harbouros/harbourd/pkg/metrics"
	"github.com/harbouros/harbourd/pkg/mount"
	"github.com/harbouros/harbourd/pkg/mount/creds"
	"github.com/harbouros/harbourd/pkg/mount/registry"
	units "github.com/harbouros/harbourd/pkg/mount/systemd"
	"github.com/harbouros/harbourd/pkg/system"
)

// Config carries the filesystem layout the manager projects mounts
// into.
type Config struct {
	// MountBase is the directory mount points are created under.
	MountBase string
	// SystemdDir is where unit files are installed.
	SystemdDir string
}

// Manager is the mount control plane service.
type Manager struct {
	cfg     Config
	reg     *registry.Registry
	creds   *creds.Store
	sys     system.Adapter
	metrics *metrics.MountMetrics
}

// New creates a Manager. metrics may be nil.
func New(cfg Config, reg *registry.Registry, cs *creds.Store, sys system.Adapter, m *metrics.MountMetrics) *Manager {
	return &Manager{cfg: cfg, reg: reg, creds: cs, sys: sys, metrics: m}
}

// ActionResult is the outcome of a mount or unmount action.
type ActionResult struct {
	ID      string       `json:"id"`
	Status  mount.Status `json:"status"`
	Message string       `json:"message,omitempty"`
}

// TestResult is the outcome of a connectivity probe.
type TestResult struct {
	Reachable bool   `json:"reachable"`
	Detail    string `json:"detail,omitempty"`
}

// unitNames resolves the mount and automount unit names for m.
func (mg *Manager) unitNames(ctx context.Context, m *mount.Mount) (mountUnit, automountUnit string) {
	base := mg.sys.EscapePath(ctx, m.MountPath(mg.cfg.MountBase))
	return base + ".mount", base + ".automount"
}

func (mg *Manager) unitPath(name string) string {
	return mg.cfg.SystemdDir + "/" + name
}

func (mg *Manager) view(m *mount.Mount) mount.View {
	target := m.MountPath(mg.cfg.MountBase)
	status := mount.StatusUnmounted
	if mg.sys.IsMountPoint(target) {
		status = mount.StatusMounted
	}
	return mount.View{
		ID:      m.ID,
		Name:    m.Name,
		Type:    m.Type,
		Host:    m.Host,
		Share:   m.Share,
		Options: m.Options,
		Target:  target,
		Status:  status,
	}
}

// List returns every declared mount with its live status.
func (mg *Manager) List(ctx context.Context) ([]mount.View, error) {
	mounts, err := mg.reg.List()
	if err != nil {
		return nil, err
	}
	views := make([]mount.View, 0, len(mounts))
	for i := range mounts {
		views = append(views, mg.view(&mounts[i]))
	}
	mg.metrics.SetConfiguredMounts(len(mounts))
	return views, nil
}

// Get returns one mount with its live status.
func (mg *Manager) Get(ctx context.Context, id string) (mount.View, error) {
	m, err := mg.reg.Get(id)
	if err != nil {
		return mount.View{}, err
	}
	return mg.view(&m), nil
}

// Add validates and persists a new mount, then projects it onto the
// host. The registry write is the primary step; any later failure
// leaves the declaration in place and is reported in the result
// message so the operator can retry the runtime side.
func (mg *Manager) Add(ctx context.Context, spec mount.Spec) (mount.View, string, error) {
	spec, err := mount.ValidateSpec(spec)
	if err != nil {
		mg.metrics.RecordOperation("add", err)
		return mount.View{}, "", err
	}

	m := mount.Mount{
		ID:      newID(),
		Name:    spec.Name,
		Type:    spec.Type,
		Host:    spec.Host,
		Share:   spec.Share,
		Options: spec.Options,
	}
	if err := mg.reg.Add(m); err != nil {
		mg.metrics.RecordOperation("add", err)
		return mount.View{}, "", err
	}

	if m.Type == mount.TypeSMB && spec.Username != "" {
		if err := mg.creds.Write(ctx, m.Slug(), creds.Credentials{
			Username: spec.Username,
			Password: spec.Password,
			Domain:   spec.Domain,
		}); err != nil {
			logger.Error("writing credentials failed", "mount", m.Name, "error", err)
			mg.metrics.RecordOperation("add", err)
			return mg.view(&m), "mount saved but credentials could not be written: " + diagnostic(err), nil
		}
	}

	msg := ""
	if err := mg.install(ctx, &m); err != nil {
		logger.Error("installing units failed", "mount", m.Name, "error", err)
		msg = "mount saved but activation failed: " + diagnostic(err)
	}
	mg.metrics.RecordOperation("add", nil)
	return mg.view(&m), msg, nil
}

// Update applies a partial update. The units installed under the
// pre-update name are torn down first, because the slug (and with it
// every derived path) may change; then the merged record is validated,
// stored and reinstalled.
func (mg *Manager) Update(ctx context.Context, id string, patch mount.Patch) (mount.View, string, error) {
	old, err := mg.reg.Get(id)
	if err != nil {
		mg.metrics.RecordOperation("update", err)
		return mount.View{}, "", err
	}

	updated := old
	patch.Apply(&updated)
	norm, err := mount.ValidateSpec(mount.Spec{
		Name:    updated.Name,
		Type:    updated.Type,
		Host:    updated.Host,
		Share:   updated.Share,
		Options: updated.Options,
	})
	if err != nil {
		mg.metrics.RecordOperation("update", err)
		return mount.View{}, "", err
	}
	updated.Host = norm.Host
	updated.Share = norm.Share
	updated.Options = norm.Options

	if err := mg.reg.Update(updated); err != nil {
		mg.metrics.RecordOperation("update", err)
		return mount.View{}, "", err
	}

	mg.teardown(ctx, &old, false)
	if err := mg.syncCredentials(ctx, &old, &updated, patch); err != nil {
		logger.Error("updating credentials failed", "mount", updated.Name, "error", err)
	}

	msg := ""
	if err := mg.install(ctx, &updated); err != nil {
		logger.Error("reinstalling units failed", "mount", updated.Name, "error", err)
		msg = "mount updated but activation failed: " + diagnostic(err)
	}
	mg.metrics.RecordOperation("update", nil)
	return mg.view(&updated), msg, nil
}

// Remove tears down a mount's runtime state and deletes it from the
// registry. Runtime teardown is best-effort so the declaration cannot
// be orphaned by a failing host.
func (mg *Manager) Remove(ctx context.Context, id string) error {
	m, err := mg.reg.Get(id)
	if err != nil {
		mg.metrics.RecordOperation("remove", err)
		return err
	}

	mg.teardown(ctx, &m, true)
	if _, err := mg.reg.Remove(id); err != nil {
		mg.metrics.RecordOperation("remove", err)
		return err
	}
	mg.metrics.RecordOperation("remove", nil)
	return nil
}

// Mount starts the mount unit and reports the resulting status.
func (mg *Manager) Mount(ctx context.Context, id string) (ActionResult, error) {
	m, err := mg.reg.Get(id)
	if err != nil {
		return ActionResult{}, err
	}
	mountUnit, _ := mg.unitNames(ctx, &m)

	if err := mg.sys.StartUnit(ctx, mountUnit); err != nil {
		mg.metrics.RecordOperation("mount", err)
		return ActionResult{}, fmt.Errorf("starting %s: %w", mountUnit, err)
	}
	mg.metrics.RecordOperation("mount", nil)
	return ActionResult{ID: m.ID, Status: mg.status(&m), Message: "mount started"}, nil
}

// Unmount stops the automount trigger and the mount itself. Stopping
// only the mount would let the automount re-trigger on the next path
// access.
func (mg *Manager) Unmount(ctx context.Context, id string) (ActionResult, error) {
	m, err := mg.reg.Get(id)
	if err != nil {
		return ActionResult{}, err
	}
	mountUnit, automountUnit := mg.unitNames(ctx, &m)

	if err := mg.sys.StopUnit(ctx, automountUnit); err != nil {
		logger.Warn("stopping automount failed", "unit", automountUnit, "error", err)
	}
	if err := mg.sys.StopUnit(ctx, mountUnit); err != nil {
		mg.metrics.RecordOperation("unmount", err)
		return ActionResult{}, fmt.Errorf("stopping %s: %w", mountUnit, err)
	}
	mg.metrics.RecordOperation("unmount", nil)
	return ActionResult{ID: m.ID, Status: mg.status(&m), Message: "mount stopped"}, nil
}

// TestRequest describes a connectivity probe. Share is optional: when
// set for NFS the export list must mention it.
type TestRequest struct {
	Host     string
	Type     mount.Type
	Share    string
	Username string
	Password string
}

// Test probes a remote server without touching any local state. A
// command failure is a probe result, not an error: only invalid input
// is rejected.
func (mg *Manager) Test(ctx context.Context, req TestRequest) (TestResult, error) {
	host, err := mount.ValidateHost(req.Host)
	if err != nil {
		mg.metrics.RecordOperation("test", err)
		return TestResult{}, err
	}
	req.Host = host

	switch req.Type {
	case mount.TypeNFS:
		out, err := mg.sys.ListExports(ctx, req.Host)
		mg.metrics.RecordOperation("test", nil)
		if err != nil {
			return TestResult{Reachable: false, Detail: diagnostic(err)}, nil
		}
		if req.Share != "" {
			share := "/" + strings.TrimPrefix(req.Share, "/")
			if !strings.Contains(out, share) {
				return TestResult{Reachable: false, Detail: fmt.Sprintf("server reachable but export %s not listed", share)}, nil
			}
		}
		return TestResult{Reachable: true, Detail: "export list retrieved"}, nil

	case mount.TypeSMB:
		_, err := mg.sys.ListShares(ctx, req.Host, req.Username, req.Password)
		mg.metrics.RecordOperation("test", nil)
		if err != nil {
			return TestResult{Reachable: false, Detail: diagnostic(err)}, nil
		}
		return TestResult{Reachable: true, Detail: "share listing succeeded"}, nil
	}
	err = fmt.Errorf("mount type %q: %w", req.Type, mount.ErrInvalidInput)
	mg.metrics.RecordOperation("test", err)
	return TestResult{}, err
}

// install projects m onto the host: mount point directory, unit files,
// daemon reload, automount enablement and start.
func (mg *Manager) install(ctx context.Context, m *mount.Mount) error {
	target := m.MountPath(mg.cfg.MountBase)
	if err := mg.sys.CreateDir(ctx, target); err != nil {
		return err
	}

	credsPath := ""
	if m.Type == mount.TypeSMB && mg.creds.Exists(m.Slug()) {
		credsPath = mg.creds.Path(m.Slug())
	}
	mountUnit, automountUnit := mg.unitNames(ctx, m)

	if err := mg.sys.WritePrivilegedFile(ctx, mg.unitPath(mountUnit), units.MountUnit(m, target, credsPath)); err != nil {
		return err
	}
	if err := mg.sys.WritePrivilegedFile(ctx, mg.unitPath(automountUnit), units.AutomountUnit(m, target)); err != nil {
		return err
	}
	if err := mg.sys.DaemonReload(ctx); err != nil {
		return err
	}
	if err := mg.sys.EnableUnit(ctx, automountUnit); err != nil {
		return err
	}
	return mg.sys.StartUnit(ctx, automountUnit)
}

// teardown removes m's runtime state. Every step is best-effort and
// logged; removeCreds additionally deletes the credentials file.
func (mg *Manager) teardown(ctx context.Context, m *mount.Mount, removeCreds bool) {
	mountUnit, automountUnit := mg.unitNames(ctx, m)

	if err := mg.sys.StopUnit(ctx, automountUnit); err != nil {
		logger.Warn("stopping automount failed", "unit", automountUnit, "error", err)
	}
	if err := mg.sys.StopUnit(ctx, mountUnit); err != nil {
		logger.Warn("stopping mount failed", "unit", mountUnit, "error", err)
	}
	if err := mg.sys.DisableUnit(ctx, automountUnit); err != nil {
		logger.Warn("disabling automount failed", "unit", automountUnit, "error", err)
	}
	for _, name := range []string{mountUnit, automountUnit} {
		if err := mg.sys.RemovePrivilegedFile(ctx, mg.unitPath(name)); err != nil {
			logger.Warn("removing unit file failed", "unit", name, "error", err)
		}
	}
	if err := mg.sys.DaemonReload(ctx); err != nil {
		logger.Warn("daemon-reload failed", "error", err)
	}
	if err := mg.sys.RemoveDir(ctx, m.MountPath(mg.cfg.MountBase)); err != nil {
		logger.Warn("removing mount point failed", "path", m.MountPath(mg.cfg.MountBase), "error", err)
	}
	if removeCreds && m.Type == mount.TypeSMB {
		if err := mg.creds.Remove(ctx, m.Slug()); err != nil {
			logger.Warn("removing credentials failed", "mount", m.Name, "error", err)
		}
	}
}

// syncCredentials keeps the credentials file consistent across an
// update: new credential material wins; otherwise an existing file
// follows a slug rename; a type change away from SMB or a cleared
// username drops the file.
func (mg *Manager) syncCredentials(ctx context.Context, old, updated *mount.Mount, patch mount.Patch) error {
	oldSlug, newSlug := old.Slug(), updated.Slug()

	if updated.Type != mount.TypeSMB {
		if old.Type == mount.TypeSMB {
			return mg.creds.Remove(ctx, oldSlug)
		}
		return nil
	}

	if patch.HasCredentials() {
		c := creds.Credentials{}
		if mg.creds.Exists(oldSlug) {
			if existing, err := mg.creds.Read(oldSlug); err == nil {
				c = existing
			}
		}
		if patch.Username != nil {
			c.Username = *patch.Username
		}
		if patch.Password != nil {
			c.Password = *patch.Password
		}
		if patch.Domain != nil {
			c.Domain = *patch.Domain
		}
		if oldSlug != newSlug && mg.creds.Exists(oldSlug) {
			if err := mg.creds.Remove(ctx, oldSlug); err != nil {
				logger.Warn("removing stale credentials failed", "slug", oldSlug, "error", err)
			}
		}
		if c.Username == "" {
			return mg.creds.Remove(ctx, newSlug)
		}
		return mg.creds.Write(ctx, newSlug, c)
	}

	if oldSlug != newSlug && mg.creds.Exists(oldSlug) {
		c, err := mg.creds.Read(oldSlug)
		if err != nil {
			return err
		}
		if err := mg.creds.Write(ctx, newSlug, c); err != nil {
			return err
		}
		return mg.creds.Remove(ctx, oldSlug)
	}
	return nil
}

func (mg *Manager) status(m *mount.Mount) mount.Status {
	if mg.sys.IsMountPoint(m.MountPath(mg.cfg.MountBase)) {
		return mount.StatusMounted
	}
	return mount.StatusUnmounted
}

// diagnostic extracts operator-facing detail from adapter errors.
func diagnostic(err error) string {
	var opErr *system.OpError
	if errors.As(err, &opErr) {
		return opErr.Diagnostic()
	}
	return err.Error()
}

// newID returns a short random identifier, the first uuid segment.
func newID() string {
	return uuid.NewString()[:8]
}

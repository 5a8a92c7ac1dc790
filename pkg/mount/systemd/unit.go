// Package systemd generates the systemd mount and automount unit
// descriptors for configured NAS mounts, and derives unit names from
// mount point paths.
//
// Generation is pure: no filesystem or service-manager access happens
// here. Installing, enabling and removing the generated units is the
// OS adapter's job.
package systemd

import (
	"fmt"
	"io"
	"strings"

	sdunit "github.com/coreos/go-systemd/unit"

	"github.com/harbouros/harbourd/pkg/mount"
)

const (
	// mountTimeoutSec bounds a single mount attempt.
	mountTimeoutSec = 30
	// idleTimeoutSec is how long an automounted share stays mounted
	// after the last access before it is torn down.
	idleTimeoutSec = 600

	defaultNFSOptions = "nfsvers=4,soft,timeo=150,retrans=3"
)

// Source returns the remote source field for the mount unit:
// "host:/share" for NFS, "//host/share" for SMB.
func Source(m *mount.Mount) string {
	if m.Type == mount.TypeNFS {
		share := m.Share
		if !strings.HasPrefix(share, "/") {
			share = "/" + share
		}
		return m.Host + ":" + share
	}
	return "//" + m.Host + "/" + strings.TrimLeft(m.Share, "/")
}

// FilesystemType returns the fstype for the mount unit.
func FilesystemType(m *mount.Mount) string {
	if m.Type == mount.TypeNFS {
		return "nfs"
	}
	return "cifs"
}

// EffectiveOptions returns the mount options to render: the mount's
// explicit options if set, otherwise the type-specific default. SMB
// defaults point at the credential store file for this mount; with no
// credentials file (empty credsPath) the share is mounted as guest.
func EffectiveOptions(m *mount.Mount, credsPath string) string {
	if m.Options != "" {
		return m.Options
	}
	if m.Type == mount.TypeNFS {
		return defaultNFSOptions
	}
	if credsPath == "" {
		return "vers=3.0,guest,iocharset=utf8,file_mode=0775,dir_mode=0775"
	}
	return fmt.Sprintf("vers=3.0,credentials=%s,iocharset=utf8,file_mode=0775,dir_mode=0775", credsPath)
}

// MountUnit renders the .mount unit descriptor for m.
//
// mountPath is the local mount point; credsPath is the credential file
// location used in default SMB options (ignored for NFS).
func MountUnit(m *mount.Mount, mountPath, credsPath string) string {
	opts := []*sdunit.UnitOption{
		{Section: "Unit", Name: "Description", Value: "NAS Mount: " + m.Name},
		{Section: "Unit", Name: "After", Value: "network-online.target"},
		{Section: "Unit", Name: "Wants", Value: "network-online.target"},
		{Section: "Mount", Name: "What", Value: Source(m)},
		{Section: "Mount", Name: "Where", Value: mountPath},
		{Section: "Mount", Name: "Type", Value: FilesystemType(m)},
		{Section: "Mount", Name: "Options", Value: EffectiveOptions(m, credsPath)},
		{Section: "Mount", Name: "TimeoutSec", Value: fmt.Sprintf("%d", mountTimeoutSec)},
		{Section: "Install", Name: "WantedBy", Value: "multi-user.target"},
	}
	return serialize(opts)
}

// AutomountUnit renders the .automount unit descriptor for m. The
// automount defers mounting until first access and unmounts after
// idleTimeoutSec of inactivity.
func AutomountUnit(m *mount.Mount, mountPath string) string {
	opts := []*sdunit.UnitOption{
		{Section: "Unit", Name: "Description", Value: "Automount NAS: " + m.Name},
		{Section: "Unit", Name: "After", Value: "network-online.target"},
		{Section: "Unit", Name: "Wants", Value: "network-online.target"},
		{Section: "Automount", Name: "Where", Value: mountPath},
		{Section: "Automount", Name: "TimeoutIdleSec", Value: fmt.Sprintf("%d", idleTimeoutSec)},
		{Section: "Install", Name: "WantedBy", Value: "multi-user.target"},
	}
	return serialize(opts)
}

func serialize(opts []*sdunit.UnitOption) string {
	data, err := io.ReadAll(sdunit.Serialize(opts))
	if err != nil {
		// Serialize reads from an in-memory buffer; this cannot fail.
		panic(err)
	}
	return string(data)
}

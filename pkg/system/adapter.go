// Package system is the boundary between the mount manager and the
// operating system. All privileged operations (directory creation,
// unit installation, systemctl control) and read-only probes
// (mount-point checks, export listings, service browsing) go through
// the Adapter interface, so the core never shells out directly and
// never decides whether elevation is needed.
package system

import (
	"context"
	"fmt"
	"strings"
)

// Adapter exposes the privileged and read-only OS operations the mount
// manager needs. Every call is bounded by an explicit timeout and
// returns a structured error; none are retried automatically.
//
// Implementations must work both when the process already runs with
// sufficient privilege and when each call must elevate (sudo) —
// callers never branch on privilege.
type Adapter interface {
	// CreateDir creates a directory (and parents) at path.
	CreateDir(ctx context.Context, path string) error

	// RemoveDir removes an empty directory at path. Callers treat
	// failures as best-effort: a mounted or non-empty directory is
	// left in place.
	RemoveDir(ctx context.Context, path string) error

	// WritePrivilegedFile writes content to a root-owned path.
	WritePrivilegedFile(ctx context.Context, path, content string) error

	// WriteSecretFile writes content to path with owner-only (0600)
	// permissions. The file must never be group/world readable, not
	// even transiently.
	WriteSecretFile(ctx context.Context, path, content string) error

	// RemovePrivilegedFile removes a root-owned file. Removing a file
	// that does not exist is not an error.
	RemovePrivilegedFile(ctx context.Context, path string) error

	// EscapePath converts a filesystem path into a systemd unit name.
	// Prefers the systemd-escape utility; falls back to the built-in
	// deterministic escaper when the utility is unavailable.
	EscapePath(ctx context.Context, path string) string

	// Service-manager control. Unit names include their suffix
	// (".mount", ".automount").
	EnableUnit(ctx context.Context, unit string) error
	DisableUnit(ctx context.Context, unit string) error
	StartUnit(ctx context.Context, unit string) error
	StopUnit(ctx context.Context, unit string) error
	DaemonReload(ctx context.Context) error

	// IsMountPoint reports whether path is currently a mount point.
	IsMountPoint(path string) bool

	// ListExports runs an NFS export listing (showmount -e) against
	// host and returns the raw output.
	ListExports(ctx context.Context, host string) (string, error)

	// ListShares runs an SMB share listing (smbclient -L) against
	// host, authenticating when username is non-empty, and returns
	// the raw output.
	ListShares(ctx context.Context, host, username, password string) (string, error)

	// BrowseServices browses the local network for the given mDNS
	// service type and returns the raw output.
	BrowseServices(ctx context.Context, serviceType string) (string, error)
}

// OpError is the structured failure of an adapter operation. Output
// carries the captured diagnostic text (typically stderr) so primary
// failures can be surfaced verbatim to the operator.
type OpError struct {
	Op     string // operation name, e.g. "systemctl start"
	Output string // captured diagnostic output, may be empty
	Err    error  // underlying error (exit status, timeout)
}

func (e *OpError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out != "" {
		return fmt.Sprintf("%s: %s", e.Op, out)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Diagnostic returns the text to surface to an API caller: captured
// output when present, the underlying error otherwise.
func (e *OpError) Diagnostic() string {
	if out := strings.TrimSpace(e.Output); out != "" {
		return out
	}
	return e.Err.Error()
}

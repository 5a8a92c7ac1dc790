// Package mount implements the NAS mount manager: the declarative
// registry of remote file shares and the machinery that projects it
// into systemd mount units, credential files and mount point
// directories.
package mount

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Type is the share protocol of a configured mount.
type Type string

const (
	// TypeNFS represents an NFS export.
	TypeNFS Type = "nfs"
	// TypeSMB represents an SMB/CIFS share.
	TypeSMB Type = "smb"
)

// Valid reports whether t is a known mount type.
func (t Type) Valid() bool {
	return t == TypeNFS || t == TypeSMB
}

// Status represents the live state of a mount point.
type Status string

const (
	StatusMounted   Status = "mounted"
	StatusUnmounted Status = "unmounted"
)

// Mount is one configured remote share. The registry document is the
// single source of desired state; unit files and credential files are
// projections recomputable from these fields alone. Credentials are
// never part of this record.
type Mount struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    Type   `json:"type"`
	Host    string `json:"host"`
	Share   string `json:"share"`
	Options string `json:"options,omitempty"`
}

// Slug returns the filesystem-safe form of the mount name, used for
// the mount point directory and the credentials file name. It is a
// pure function of Name so it can always be recomputed, which unit
// removal depends on.
func (m *Mount) Slug() string {
	return Sanitize(m.Name)
}

// MountPath returns the local mount point under base.
func (m *Mount) MountPath(base string) string {
	return filepath.Join(base, m.Slug())
}

// CredsPath returns the credentials file path for SMB mounts under
// the given configuration directory.
func (m *Mount) CredsPath(configDir string) string {
	return CredsPath(configDir, m.Slug())
}

// CredsPath returns the credentials file path for a slug.
func CredsPath(configDir, slug string) string {
	return filepath.Join(configDir, "smb-"+slug+".creds")
}

var (
	unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	hyphenRuns      = regexp.MustCompile(`-{2,}`)
)

// Sanitize lowercases and trims a user-supplied name, replaces every
// character outside [a-zA-Z0-9_-] with a hyphen, collapses hyphen runs
// and strips leading/trailing hyphens. Names made entirely of unsafe
// characters therefore sanitize to the empty string, which validation
// rejects. Deterministic: the same name always yields the same slug.
func Sanitize(name string) string {
	slug := unsafeNameChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	slug = hyphenRuns.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// Spec carries the fields of a mount creation request. Credentials are
// handed to the credential store and discarded; they never reach the
// registry.
type Spec struct {
	Name     string
	Type     Type
	Host     string
	Share    string
	Options  string
	Username string
	Password string
	Domain   string
}

// Patch describes a partial mount update. A nil field leaves the
// current value untouched; a non-nil field overwrites it.
type Patch struct {
	Name     *string
	Type     *Type
	Host     *string
	Share    *string
	Options  *string
	Username *string
	Password *string
	Domain   *string
}

// Apply merges the patch into m, overwriting only the fields that are
// present. Credential fields are not part of the registry record and
// are handled by the caller.
func (p Patch) Apply(m *Mount) {
	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Type != nil {
		m.Type = *p.Type
	}
	if p.Host != nil {
		m.Host = *p.Host
	}
	if p.Share != nil {
		m.Share = *p.Share
	}
	if p.Options != nil {
		m.Options = *p.Options
	}
}

// HasCredentials reports whether the patch carries credential material.
func (p Patch) HasCredentials() bool {
	return p.Username != nil || p.Password != nil || p.Domain != nil
}

// View is a mount record augmented with its derived mount point and
// live status, as returned by list operations.
type View struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    Type   `json:"type"`
	Host    string `json:"host"`
	Share   string `json:"share"`
	Options string `json:"options,omitempty"`
	Target  string `json:"target"`
	Status  Status `json:"status"`
}

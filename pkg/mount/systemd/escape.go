package systemd

import "strings"

// EscapePath converts a mount point path into a systemd unit name the
// way `systemd-escape --path` names it for the common case. This is
// the deterministic fallback used when the systemd-escape binary is
// unavailable; the OS adapter prefers the real utility and falls back
// here so unit file names are reproducible either way.
//
// Algorithm: trim leading/trailing slashes, split on "/", escape
// literal backslashes and hyphens within each segment as \x5c and
// \x2d, then join segments with "-".
func EscapePath(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	escaped := make([]string, len(parts))
	for i, part := range parts {
		part = strings.ReplaceAll(part, `\`, `\x5c`)
		part = strings.ReplaceAll(part, "-", `\x2d`)
		escaped[i] = part
	}
	return strings.Join(escaped, "-")
}

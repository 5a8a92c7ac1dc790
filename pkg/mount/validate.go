package mount

import (
	"fmt"
	"regexp"
	"strings"
)

// maxHostLen is the DNS limit on a fully qualified hostname.
const maxHostLen = 253

var hostPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// loopback literals that must never be mounted from.
var forbiddenHosts = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"0.0.0.0":   {},
	"::1":       {},
}

// ValidateHost checks that host is a plausible hostname or IP address
// and not a loopback/any-address literal. Returns the trimmed host.
//
// Host strings end up inside systemd unit files and on showmount and
// smbclient command lines, so the character set is restricted up front.
func ValidateHost(host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("%w: host is required", ErrInvalidInput)
	}
	if !hostPattern.MatchString(host) {
		return "", fmt.Errorf("%w: host contains invalid characters", ErrInvalidInput)
	}
	if _, ok := forbiddenHosts[host]; ok {
		return "", fmt.Errorf("%w: cannot mount localhost", ErrInvalidInput)
	}
	if len(host) > maxHostLen {
		return "", fmt.Errorf("%w: hostname too long", ErrInvalidInput)
	}
	return host, nil
}

// ValidateShare checks a remote export path or share name, blocking
// parent-directory traversal.
func ValidateShare(share string) (string, error) {
	if share == "" {
		return "", fmt.Errorf("%w: share path is required", ErrInvalidInput)
	}
	if strings.Contains(share, "..") {
		return "", fmt.Errorf("%w: share path cannot contain '..'", ErrInvalidInput)
	}
	return share, nil
}

// safeMountOptions is the allow-list of mount option keys. Everything
// else fails closed: option strings end up verbatim in unit files.
var safeMountOptions = map[string]struct{}{
	"nfsvers":     {},
	"vers":        {},
	"soft":        {},
	"hard":        {},
	"timeo":       {},
	"retrans":     {},
	"ro":          {},
	"rw":          {},
	"credentials": {},
	"iocharset":   {},
	"file_mode":   {},
	"dir_mode":    {},
	"uid":         {},
	"gid":         {},
	"sec":         {},
	"noacl":       {},
	"nolock":      {},
	"intr":        {},
}

// ValidateOptions checks a comma-separated key[=value] option string
// against the allow-list. Empty input is valid and means "use the
// type default".
func ValidateOptions(options string) (string, error) {
	if options == "" {
		return "", nil
	}
	for _, opt := range strings.Split(options, ",") {
		key := strings.TrimSpace(strings.SplitN(opt, "=", 2)[0])
		if key == "" {
			continue
		}
		if _, ok := safeMountOptions[key]; !ok {
			return "", fmt.Errorf("%w: mount option %q is not allowed", ErrInvalidInput, key)
		}
	}
	return options, nil
}

// ValidateSpec runs all field validators over a creation spec and
// returns the spec with normalized fields. No side effects: this runs
// before anything is persisted or executed.
func ValidateSpec(spec Spec) (Spec, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return spec, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if Sanitize(spec.Name) == "" {
		return spec, fmt.Errorf("%w: name contains no usable characters", ErrInvalidInput)
	}
	if !spec.Type.Valid() {
		return spec, fmt.Errorf("%w: type must be %q or %q", ErrInvalidInput, TypeNFS, TypeSMB)
	}

	host, err := ValidateHost(spec.Host)
	if err != nil {
		return spec, err
	}
	spec.Host = host

	share, err := ValidateShare(spec.Share)
	if err != nil {
		return spec, err
	}
	spec.Share = share

	options, err := ValidateOptions(spec.Options)
	if err != nil {
		return spec, err
	}
	spec.Options = options

	return spec, nil
}

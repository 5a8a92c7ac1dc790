// Package creds manages SMB credentials files. Each SMB mount gets a
// smb-<slug>.creds file in the daemon config directory, written with
// 0600 permissions and referenced from the generated mount unit via
// the credentials= option. Credentials never enter the mount registry.
package creds

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/harbouros/harbourd/pkg/mount"
	"github.com/harbouros/harbourd/pkg/system"
)

// DefaultDomain is used when no domain is supplied.
const DefaultDomain = "WORKGROUP"

// Credentials is the content of one credentials file.
type Credentials struct {
	Username string
	Password string
	Domain   string
}

// Store reads and writes credentials files under a config directory.
type Store struct {
	configDir string
	sys       system.Adapter
}

// NewStore creates a credentials store rooted at configDir.
func NewStore(configDir string, sys system.Adapter) *Store {
	return &Store{configDir: configDir, sys: sys}
}

// Path returns the credentials file path for a mount slug.
func (s *Store) Path(slug string) string {
	return mount.CredsPath(s.configDir, slug)
}

// Write creates or replaces the credentials file for slug. The file is
// created restrictive before it carries any secret content.
func (s *Store) Write(ctx context.Context, slug string, c Credentials) error {
	domain := c.Domain
	if domain == "" {
		domain = DefaultDomain
	}
	content := fmt.Sprintf("username=%s\npassword=%s\ndomain=%s\n", c.Username, c.Password, domain)
	return s.sys.WriteSecretFile(ctx, s.Path(slug), content)
}

// Read loads the credentials file for slug. Returns os.ErrNotExist
// wrapped when no file is present.
func (s *Store) Read(slug string) (Credentials, error) {
	data, err := os.ReadFile(s.Path(slug))
	if err != nil {
		return Credentials{}, fmt.Errorf("reading credentials for %q: %w", slug, err)
	}
	return parse(string(data)), nil
}

// Remove deletes the credentials file for slug. A missing file is not
// an error.
func (s *Store) Remove(ctx context.Context, slug string) error {
	return s.sys.RemovePrivilegedFile(ctx, s.Path(slug))
}

// Exists reports whether a credentials file is present for slug.
func (s *Store) Exists(slug string) bool {
	_, err := os.Stat(s.Path(slug))
	return err == nil
}

func parse(content string) Credentials {
	var c Credentials
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "username":
			c.Username = value
		case "password":
			c.Password = value
		case "domain":
			c.Domain = value
		}
	}
	return c
}

// Package discovery finds NAS devices and their shares on the local
// network. Devices are found over mDNS (avahi-browse); shares are
// enumerated per protocol with showmount and smbclient. Discovery is
// advisory: a failing probe degrades to an empty result instead of an
// error, since a quiet network is indistinguishable from a broken
// browser.
package discovery

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/harbouros/harbourd/internal/logger"
	"github.com/harbouros/harbourd/pkg/system"
)

// mDNS service types browsed for NAS devices.
var serviceTypes = map[string]string{
	"_nfs._tcp": "nfs",
	"_smb._tcp": "smb",
}

// Device is a discovered NAS device. A device advertising both
// protocols appears once with both listed.
type Device struct {
	Name      string   `json:"name"`
	Hostname  string   `json:"hostname"`
	Address   string   `json:"address"`
	Protocols []string `json:"protocols"`
}

// Share is one exported share on a device.
type Share struct {
	Name    string `json:"name"`
	Comment string `json:"comment,omitempty"`
}

// Service runs network discovery through the system adapter.
type Service struct {
	sys system.Adapter
}

// NewService creates a discovery service.
func NewService(sys system.Adapter) *Service {
	return &Service{sys: sys}
}

// Devices browses for NFS and SMB services and merges the results by
// address.
func (s *Service) Devices(ctx context.Context) []Device {
	byAddress := map[string]*Device{}
	var order []string

	for serviceType, protocol := range serviceTypes {
		out, err := s.sys.BrowseServices(ctx, serviceType)
		if err != nil {
			logger.Warn("service browse failed", "type", serviceType, "error", err)
			continue
		}
		for _, d := range parseAvahi(out) {
			existing, ok := byAddress[d.Address]
			if !ok {
				dev := d
				dev.Protocols = []string{protocol}
				byAddress[d.Address] = &dev
				order = append(order, d.Address)
				continue
			}
			if !contains(existing.Protocols, protocol) {
				existing.Protocols = append(existing.Protocols, protocol)
			}
		}
	}

	devices := make([]Device, 0, len(order))
	for _, addr := range order {
		devices = append(devices, *byAddress[addr])
	}
	return devices
}

// Shares enumerates the shares a host exports over the given protocol.
func (s *Service) Shares(ctx context.Context, host, protocol, username, password string) []Share {
	switch protocol {
	case "nfs":
		out, err := s.sys.ListExports(ctx, host)
		if err != nil {
			logger.Warn("export listing failed", "host", host, "error", err)
			return nil
		}
		return parseExports(out)
	case "smb":
		out, err := s.sys.ListShares(ctx, host, username, password)
		if err != nil {
			logger.Warn("share listing failed", "host", host, "error", err)
			return nil
		}
		return parseSMBShares(out)
	}
	return nil
}

// parseAvahi extracts resolved entries from avahi-browse parsable
// output. Resolved lines start with "=" and carry semicolon-separated
// fields: =;iface;proto;name;type;domain;hostname;address;port;txt.
func parseAvahi(out string) []Device {
	var devices []Device
	for _, line := range strings.Split(out, "\n") {
		if !strings.HasPrefix(line, "=") {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) < 8 {
			continue
		}
		devices = append(devices, Device{
			Name:     unescapeAvahi(fields[3]),
			Hostname: fields[6],
			Address:  fields[7],
		})
	}
	return devices
}

// unescapeAvahi decodes the \032-style decimal escapes avahi uses in
// parsable output.
func unescapeAvahi(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) {
			if n, err := strconv.Atoi(s[i+1 : i+4]); err == nil && n < 256 {
				b.WriteByte(byte(n))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// parseExports reads showmount -e output: a header line followed by
// one export per line, the path in the first column.
func parseExports(out string) []Share {
	var shares []Share
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i, line := range lines {
		if i == 0 {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		comment := ""
		if len(fields) > 1 {
			comment = strings.Join(fields[1:], " ")
		}
		shares = append(shares, Share{Name: fields[0], Comment: comment})
	}
	return shares
}

// smbclient share lines: whitespace, share name, "Disk", optional
// comment. Administrative shares (trailing $) are skipped.
var smbShareLine = regexp.MustCompile(`^\s+(\S+)\s+Disk\s*(.*)$`)

// parseSMBShares reads smbclient -L output.
func parseSMBShares(out string) []Share {
	var shares []Share
	for _, line := range strings.Split(out, "\n") {
		m := smbShareLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := m[1]
		if strings.HasSuffix(name, "$") {
			continue
		}
		shares = append(shares, Share{Name: name, Comment: strings.TrimSpace(m[2])})
	}
	return shares
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

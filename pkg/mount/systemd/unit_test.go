package systemd

import (
	"strings"
	"testing"

	"github.com/harbouros/harbourd/pkg/mount"
)

func TestMountUnitNFS(t *testing.T) {
	m := &mount.Mount{
		ID:    "a1b2c3d4",
		Name:  "movies",
		Type:  mount.TypeNFS,
		Host:  "192.168.1.100",
		Share: "/media/Movies",
	}

	content := MountUnit(m, "/media/nas/movies", "")

	for _, want := range []string{
		"[Unit]",
		"Description=NAS Mount: movies",
		"After=network-online.target",
		"Wants=network-online.target",
		"[Mount]",
		"What=192.168.1.100:/media/Movies",
		"Where=/media/nas/movies",
		"Type=nfs",
		"Options=nfsvers=4,soft,timeo=150,retrans=3",
		"TimeoutSec=30",
		"[Install]",
		"WantedBy=multi-user.target",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("mount unit missing %q:\n%s", want, content)
		}
	}
}

func TestMountUnitNFSShareWithoutLeadingSlash(t *testing.T) {
	m := &mount.Mount{Name: "music", Type: mount.TypeNFS, Host: "nas.local", Share: "volume1/music"}

	content := MountUnit(m, "/media/nas/music", "")
	if !strings.Contains(content, "What=nas.local:/volume1/music") {
		t.Errorf("NFS share should be forced to an absolute export path:\n%s", content)
	}
}

func TestMountUnitSMB(t *testing.T) {
	m := &mount.Mount{
		ID:    "e5f6a7b8",
		Name:  "docs",
		Type:  mount.TypeSMB,
		Host:  "192.168.1.200",
		Share: "Documents",
	}

	content := MountUnit(m, "/media/nas/docs", "/etc/harbouros/smb-docs.creds")

	for _, want := range []string{
		"What=//192.168.1.200/Documents",
		"Type=cifs",
		"Options=vers=3.0,credentials=/etc/harbouros/smb-docs.creds,iocharset=utf8,file_mode=0775,dir_mode=0775",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("mount unit missing %q:\n%s", want, content)
		}
	}
}

func TestMountUnitSMBAnonymous(t *testing.T) {
	m := &mount.Mount{Name: "public", Type: mount.TypeSMB, Host: "nas.local", Share: "public"}

	content := MountUnit(m, "/media/nas/public", "")
	if !strings.Contains(content, "Options=vers=3.0,guest,iocharset=utf8,file_mode=0775,dir_mode=0775") {
		t.Errorf("anonymous mount missing guest options:\n%s", content)
	}
	if strings.Contains(content, "credentials=") {
		t.Errorf("anonymous mount references a credentials file:\n%s", content)
	}
}

func TestMountUnitExplicitOptionsWin(t *testing.T) {
	m := &mount.Mount{Name: "ro-share", Type: mount.TypeNFS, Host: "nas.local", Share: "/export", Options: "nfsvers=4,ro"}

	content := MountUnit(m, "/media/nas/ro-share", "")
	if !strings.Contains(content, "Options=nfsvers=4,ro\n") {
		t.Errorf("explicit options should override defaults:\n%s", content)
	}
	if strings.Contains(content, "retrans") {
		t.Errorf("default options leaked despite explicit options:\n%s", content)
	}
}

func TestAutomountUnit(t *testing.T) {
	m := &mount.Mount{Name: "movies", Type: mount.TypeNFS, Host: "192.168.1.100", Share: "/media/Movies"}

	content := AutomountUnit(m, "/media/nas/movies")

	for _, want := range []string{
		"[Automount]",
		"Description=Automount NAS: movies",
		"Where=/media/nas/movies",
		"TimeoutIdleSec=600",
		"WantedBy=multi-user.target",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("automount unit missing %q:\n%s", want, content)
		}
	}
	if strings.Contains(content, "[Mount]") {
		t.Errorf("automount unit should not carry a [Mount] section:\n%s", content)
	}
}

func TestEscapePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{name: "simple", path: "/media/nas/movies", want: "media-nas-movies"},
		{name: "hyphen in segment", path: "/media/nas/tv-shows", want: `media-nas-tv\x2dshows`},
		{name: "backslash in segment", path: `/media/na\s`, want: `media-na\x5cs`},
		{name: "trailing slash", path: "/media/nas/", want: "media-nas"},
		{name: "no leading slash", path: "media/nas", want: "media-nas"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapePath(tt.path); got != tt.want {
				t.Errorf("EscapePath(%q) = %q, want %q", tt.path, got, tt.want)
			}
			if again := EscapePath(tt.path); again != EscapePath(tt.path) {
				t.Errorf("EscapePath(%q) not deterministic", tt.path)
			}
		})
	}
}

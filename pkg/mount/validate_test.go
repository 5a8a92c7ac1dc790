package mount

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateHost(t *testing.T) {
	tests := []struct {
		name    string
		host    string
		wantErr bool
	}{
		{name: "ipv4", host: "192.168.1.100", wantErr: false},
		{name: "mdns hostname", host: "nas.local", wantErr: false},
		{name: "fqdn", host: "storage.example.com", wantErr: false},
		{name: "trims whitespace", host: "  nas.local  ", wantErr: false},
		{name: "empty", host: "", wantErr: true},
		{name: "whitespace only", host: "   ", wantErr: true},
		{name: "localhost", host: "localhost", wantErr: true},
		{name: "loopback ipv4", host: "127.0.0.1", wantErr: true},
		{name: "any address", host: "0.0.0.0", wantErr: true},
		{name: "loopback ipv6", host: "::1", wantErr: true},
		{name: "slash", host: "nas/../etc", wantErr: true},
		{name: "shell metachars", host: "nas;reboot", wantErr: true},
		{name: "space inside", host: "nas local", wantErr: true},
		{name: "too long", host: strings.Repeat("a", 254), wantErr: true},
		{name: "max length ok", host: strings.Repeat("a", 253), wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateHost(tt.host)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateHost(%q) error = %v, wantErr %v", tt.host, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("ValidateHost(%q) error not classified as ErrInvalidInput: %v", tt.host, err)
			}
			if err == nil && got != strings.TrimSpace(tt.host) {
				t.Errorf("ValidateHost(%q) = %q, want trimmed input", tt.host, got)
			}
		})
	}
}

func TestValidateShare(t *testing.T) {
	tests := []struct {
		name    string
		share   string
		wantErr bool
	}{
		{name: "nfs export", share: "/media/Movies", wantErr: false},
		{name: "smb share name", share: "Documents", wantErr: false},
		{name: "empty", share: "", wantErr: true},
		{name: "traversal", share: "/media/../etc", wantErr: true},
		{name: "bare traversal", share: "..", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateShare(tt.share)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateShare(%q) error = %v, wantErr %v", tt.share, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOptions(t *testing.T) {
	tests := []struct {
		name    string
		options string
		wantErr bool
	}{
		{name: "empty is valid", options: "", wantErr: false},
		{name: "nfs defaults", options: "nfsvers=4,soft,timeo=150", wantErr: false},
		{name: "smb options", options: "vers=3.0,iocharset=utf8,file_mode=0775,dir_mode=0775", wantErr: false},
		{name: "bare flags", options: "ro,hard,nolock", wantErr: false},
		{name: "unknown key", options: "evil=1", wantErr: true},
		{name: "unknown among valid", options: "soft,exec=1", wantErr: true},
		{name: "value with equals", options: "sec=krb5", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateOptions(tt.options)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateOptions(%q) error = %v, wantErr %v", tt.options, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSpec(t *testing.T) {
	valid := Spec{Name: "movies", Type: TypeNFS, Host: "192.168.1.100", Share: "/media/Movies"}

	if _, err := ValidateSpec(valid); err != nil {
		t.Fatalf("ValidateSpec(valid) error = %v", err)
	}

	tests := []struct {
		name   string
		mutate func(s Spec) Spec
	}{
		{name: "missing name", mutate: func(s Spec) Spec { s.Name = ""; return s }},
		{name: "unusable name", mutate: func(s Spec) Spec { s.Name = "///"; return s }},
		{name: "bad type", mutate: func(s Spec) Spec { s.Type = "ftp"; return s }},
		{name: "bad host", mutate: func(s Spec) Spec { s.Host = "localhost"; return s }},
		{name: "bad share", mutate: func(s Spec) Spec { s.Share = "/a/../b"; return s }},
		{name: "bad options", mutate: func(s Spec) Spec { s.Options = "evil=1"; return s }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateSpec(tt.mutate(valid))
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("ValidateSpec() error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

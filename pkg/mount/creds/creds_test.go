package creds

import (
	"context"
	"os"
	"testing"

	"github.com/harbouros/harbourd/pkg/system"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), system.NewExec(system.Config{DevMode: true}, nil))
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := Credentials{Username: "alice", Password: "s3cret", Domain: "HOME"}
	if err := s.Write(ctx, "docs", in); err != nil {
		t.Fatalf("Write: %v", err)
	}

	info, err := os.Stat(s.Path("docs"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("mode = %o, want 0600", perm)
	}

	got, err := s.Read("docs")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != in {
		t.Errorf("Read = %+v, want %+v", got, in)
	}
}

func TestWriteDefaultsDomain(t *testing.T) {
	s := newTestStore(t)
	if err := s.Write(context.Background(), "docs", Credentials{Username: "bob", Password: "pw"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("docs")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Domain != DefaultDomain {
		t.Errorf("Domain = %q, want %q", got.Domain, DefaultDomain)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Write(ctx, "docs", Credentials{Username: "a", Password: "b"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := s.Remove(ctx, "docs"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if s.Exists("docs") {
		t.Error("file should be gone after Remove")
	}
	if err := s.Remove(ctx, "docs"); err != nil {
		t.Errorf("second Remove should be a no-op, got %v", err)
	}
}

func TestReadMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Read("nope"); err == nil {
		t.Error("Read of missing file should fail")
	}
}

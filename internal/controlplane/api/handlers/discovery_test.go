package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/harbouros/harbourd/pkg/discovery"
)

func setupDiscoveryTest(sys *stubSystem) http.Handler {
	h := NewDiscoveryHandler(discovery.NewService(sys))
	r := chi.NewRouter()
	r.Get("/api/v1/mounts/discover", h.Devices)
	r.Post("/api/v1/mounts/discover/shares", h.Shares)
	return r
}

func TestDiscoverDevices(t *testing.T) {
	sys := newStubSystem()
	sys.browse = "=;eth0;IPv4;NAS;_nfs._tcp;local;nas.local;192.168.1.10;2049;\n"
	h := setupDiscoveryTest(sys)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/mounts/discover", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var devices []discovery.Device
	if err := json.Unmarshal(rec.Body.Bytes(), &devices); err != nil {
		t.Fatal(err)
	}
	if len(devices) == 0 {
		t.Fatal("expected at least one device")
	}
	if devices[0].Address != "192.168.1.10" {
		t.Errorf("device = %+v", devices[0])
	}
}

func TestDiscoverSharesValidation(t *testing.T) {
	h := setupDiscoveryTest(newStubSystem())

	rec := doJSON(t, h, http.MethodPost, "/api/v1/mounts/discover/shares", DiscoverSharesRequest{Type: "nfs"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing host = %d, want 400", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/mounts/discover/shares", DiscoverSharesRequest{Host: "nas.local", Type: "ftp"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad type = %d, want 400", rec.Code)
	}

	for _, host := range []string{"localhost", "127.0.0.1", "nas;rm -rf /"} {
		rec = doJSON(t, h, http.MethodPost, "/api/v1/mounts/discover/shares", DiscoverSharesRequest{Host: host, Type: "nfs"})
		if rec.Code != http.StatusBadRequest {
			t.Errorf("host %q = %d, want 400", host, rec.Code)
		}
	}
}

func TestDiscoverSharesNFS(t *testing.T) {
	sys := newStubSystem()
	sys.exports = "Export list for nas.local:\n/export/movies *\n"
	h := setupDiscoveryTest(sys)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/mounts/discover/shares", DiscoverSharesRequest{
		Host: "nas.local", Type: "nfs",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var shares []discovery.Share
	if err := json.Unmarshal(rec.Body.Bytes(), &shares); err != nil {
		t.Fatal(err)
	}
	if len(shares) != 1 || shares[0].Name != "/export/movies" {
		t.Errorf("shares = %+v", shares)
	}
}

package handlers

import (
	"net/http"

	"github.com/harbouros/harbourd/pkg/discovery"
	"github.com/harbouros/harbourd/pkg/mount"
)

// DiscoveryHandler serves the network discovery endpoints.
type DiscoveryHandler struct {
	svc *discovery.Service
}

// NewDiscoveryHandler creates a handler for discovery endpoints.
func NewDiscoveryHandler(svc *discovery.Service) *DiscoveryHandler {
	return &DiscoveryHandler{svc: svc}
}

// Devices handles GET /api/v1/mounts/discover.
func (h *DiscoveryHandler) Devices(w http.ResponseWriter, r *http.Request) {
	devices := h.svc.Devices(r.Context())
	if devices == nil {
		devices = []discovery.Device{}
	}
	WriteJSONOK(w, devices)
}

// DiscoverSharesRequest is the JSON body for POST /api/v1/mounts/discover/shares.
type DiscoverSharesRequest struct {
	Host     string `json:"host"`
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Shares handles POST /api/v1/mounts/discover/shares.
func (h *DiscoveryHandler) Shares(w http.ResponseWriter, r *http.Request) {
	var req DiscoverSharesRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	host, err := mount.ValidateHost(req.Host)
	if err != nil {
		BadRequest(w, err.Error())
		return
	}
	if req.Type != "nfs" && req.Type != "smb" {
		BadRequest(w, "type must be nfs or smb")
		return
	}

	shares := h.svc.Shares(r.Context(), host, req.Type, req.Username, req.Password)
	if shares == nil {
		shares = []discovery.Share{}
	}
	WriteJSONOK(w, shares)
}

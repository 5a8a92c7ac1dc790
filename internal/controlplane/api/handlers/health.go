package handlers

import (
	"net/http"

	"github.com/harbouros/harbourd/pkg/mount"
	"github.com/harbouros/harbourd/pkg/mount/manager"
)

// HealthHandler serves the liveness endpoint.
type HealthHandler struct {
	svc *manager.Manager
}

// NewHealthHandler creates a handler for health endpoints.
func NewHealthHandler(svc *manager.Manager) *HealthHandler {
	return &HealthHandler{svc: svc}
}

// HealthResponse summarizes daemon health: whether the mount registry
// is readable plus a count of declared and currently mounted shares.
type HealthResponse struct {
	Status  string `json:"status"`
	Mounts  int    `json:"mounts"`
	Mounted int    `json:"mounted"`
	Error   string `json:"error,omitempty"`
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.List(r.Context())
	if err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unhealthy",
			Error:  err.Error(),
		})
		return
	}

	mounted := 0
	for _, v := range views {
		if v.Status == mount.StatusMounted {
			mounted++
		}
	}
	WriteJSONOK(w, HealthResponse{Status: "healthy", Mounts: len(views), Mounted: mounted})
}

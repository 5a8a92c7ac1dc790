package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/harbouros/harbourd/pkg/mount"
	"github.com/harbouros/harbourd/pkg/mount/manager"
)

// MountHandler handles the mount management API endpoints.
type MountHandler struct {
	svc *manager.Manager
}

// NewMountHandler creates a handler for mount endpoints.
func NewMountHandler(svc *manager.Manager) *MountHandler {
	return &MountHandler{svc: svc}
}

// CreateMountRequest is the JSON body for POST /api/v1/mounts.
// Credentials are forwarded to the credentials store and never echoed
// back in any response.
type CreateMountRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Host     string `json:"host"`
	Share    string `json:"share"`
	Options  string `json:"options,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Domain   string `json:"domain,omitempty"`
}

// UpdateMountRequest is the JSON body for PUT /api/v1/mounts/{id}.
// Absent fields leave the current value untouched.
type UpdateMountRequest struct {
	Name     *string `json:"name,omitempty"`
	Type     *string `json:"type,omitempty"`
	Host     *string `json:"host,omitempty"`
	Share    *string `json:"share,omitempty"`
	Options  *string `json:"options,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	Domain   *string `json:"domain,omitempty"`
}

// MountResponse is the JSON representation of a configured mount.
type MountResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Host    string `json:"host"`
	Share   string `json:"share"`
	Options string `json:"options,omitempty"`
	Target  string `json:"target"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ActionResponse is the JSON result of mount/unmount actions.
type ActionResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// TestResponse is the JSON result of a connectivity probe.
type TestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func viewToResponse(v mount.View, msg string) MountResponse {
	return MountResponse{
		ID:      v.ID,
		Name:    v.Name,
		Type:    string(v.Type),
		Host:    v.Host,
		Share:   v.Share,
		Options: v.Options,
		Target:  v.Target,
		Status:  string(v.Status),
		Message: msg,
	}
}

// writeMountError maps service errors onto problem responses.
func writeMountError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, mount.ErrInvalidInput):
		BadRequest(w, err.Error())
	case errors.Is(err, mount.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, mount.ErrDuplicateMount):
		Conflict(w, err.Error())
	default:
		InternalServerError(w, err.Error())
	}
}

// List handles GET /api/v1/mounts.
func (h *MountHandler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.List(r.Context())
	if err != nil {
		writeMountError(w, err)
		return
	}
	result := make([]MountResponse, 0, len(views))
	for _, v := range views {
		result = append(result, viewToResponse(v, ""))
	}
	WriteJSONOK(w, result)
}

// Get handles GET /api/v1/mounts/{id}.
func (h *MountHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeMountError(w, err)
		return
	}
	WriteJSONOK(w, viewToResponse(view, ""))
}

// Create handles POST /api/v1/mounts.
func (h *MountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMountRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	view, msg, err := h.svc.Add(r.Context(), mount.Spec{
		Name:     req.Name,
		Type:     mount.Type(req.Type),
		Host:     req.Host,
		Share:    req.Share,
		Options:  req.Options,
		Username: req.Username,
		Password: req.Password,
		Domain:   req.Domain,
	})
	if err != nil {
		writeMountError(w, err)
		return
	}
	WriteJSONCreated(w, viewToResponse(view, msg))
}

// Update handles PUT /api/v1/mounts/{id}.
func (h *MountHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateMountRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	patch := mount.Patch{
		Name:     req.Name,
		Host:     req.Host,
		Share:    req.Share,
		Options:  req.Options,
		Username: req.Username,
		Password: req.Password,
		Domain:   req.Domain,
	}
	if req.Type != nil {
		t := mount.Type(*req.Type)
		patch.Type = &t
	}

	view, msg, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeMountError(w, err)
		return
	}
	WriteJSONOK(w, viewToResponse(view, msg))
}

// Delete handles DELETE /api/v1/mounts/{id}.
func (h *MountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeMountError(w, err)
		return
	}
	WriteJSONOK(w, ActionResponse{Success: true, Message: "mount removed"})
}

// Mount handles POST /api/v1/mounts/{id}/mount.
func (h *MountHandler) Mount(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Mount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeMountError(w, err)
		return
	}
	WriteJSONOK(w, ActionResponse{Success: true, Status: string(res.Status), Message: res.Message})
}

// Unmount handles POST /api/v1/mounts/{id}/unmount.
func (h *MountHandler) Unmount(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Unmount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeMountError(w, err)
		return
	}
	WriteJSONOK(w, ActionResponse{Success: true, Status: string(res.Status), Message: res.Message})
}

// TestRequest is the JSON body for POST /api/v1/mounts/test.
type TestRequest struct {
	Host     string `json:"host"`
	Type     string `json:"type"`
	Share    string `json:"share,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// Test handles POST /api/v1/mounts/test.
func (h *MountHandler) Test(w http.ResponseWriter, r *http.Request) {
	var req TestRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	res, err := h.svc.Test(r.Context(), manager.TestRequest{
		Host:     req.Host,
		Type:     mount.Type(req.Type),
		Share:    req.Share,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		writeMountError(w, err)
		return
	}
	WriteJSONOK(w, TestResponse{Success: res.Reachable, Message: res.Detail})
}

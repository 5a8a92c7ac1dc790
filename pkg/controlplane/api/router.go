package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/harbouros/harbourd/internal/controlplane/api/handlers"
	"github.com/harbouros/harbourd/internal/logger"
	"github.com/harbouros/harbourd/pkg/discovery"
	"github.com/harbouros/harbourd/pkg/mount/manager"
)

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET    /health - Liveness probe with mount summary
//   - GET    /api/v1/mounts - List configured mounts with live status
//   - POST   /api/v1/mounts - Declare a new mount
//   - GET    /api/v1/mounts/{id} - One mount with live status
//   - PUT    /api/v1/mounts/{id} - Partial update
//   - DELETE /api/v1/mounts/{id} - Remove a mount
//   - POST   /api/v1/mounts/{id}/mount - Activate now
//   - POST   /api/v1/mounts/{id}/unmount - Deactivate now
//   - POST   /api/v1/mounts/test - Connectivity probe
//   - GET    /api/v1/mounts/discover - Browse the network for NAS devices
//   - POST   /api/v1/mounts/discover/shares - Enumerate a device's shares
func NewRouter(svc *manager.Manager, disc *discovery.Service) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	healthHandler := handlers.NewHealthHandler(svc)
	r.Get("/health", healthHandler.Liveness)

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	mountHandler := handlers.NewMountHandler(svc)
	discoveryHandler := handlers.NewDiscoveryHandler(disc)

	r.Route("/api/v1/mounts", func(r chi.Router) {
		r.Get("/", mountHandler.List)
		r.Post("/", mountHandler.Create)
		r.Post("/test", mountHandler.Test)

		r.Get("/discover", discoveryHandler.Devices)
		r.Post("/discover/shares", discoveryHandler.Shares)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", mountHandler.Get)
			r.Put("/", mountHandler.Update)
			r.Delete("/", mountHandler.Delete)
			r.Post("/mount", mountHandler.Mount)
			r.Post("/unmount", mountHandler.Unmount)
		})
	})

	return r
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
//   - Healthcheck requests are logged at DEBUG level to reduce noise
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		}

		if r.URL.Path == "/health" {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}

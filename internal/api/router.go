package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/metrics", s.handleMetrics)

		// Controller identity and capabilities
		r.Route("/controller", func(r chi.Router) {
			r.Get("/", s.handleGetController)
			r.Post("/refresh", s.handleRefreshController)
		})

		// Parameter endpoints
		r.Route("/parameters/{name}", func(r chi.Router) {
			r.Get("/", s.handleGetParameter)
			r.Put("/", s.handleSetParameter)
		})

		// Schedule endpoints
		r.Route("/schedules/{type}", func(r chi.Router) {
			r.Get("/", s.handleGetSchedule)
			r.Put("/", s.handleSetSchedule)
		})

		// Config entry endpoints
		r.Route("/entries", func(r chi.Router) {
			r.Get("/", s.handleListEntries)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetEntry)
				r.Patch("/", s.handleUpdateEntry)
				r.Delete("/", s.handleDeleteEntry)
			})
		})

		// Device registry endpoints
		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Get("/{id}", s.handleGetDevice)
		})

		// Alert history
		r.Get("/alerts/recent", s.handleRecentAlerts)

		// Control-audit history
		r.Get("/audit", s.handleListAudit)

		// WebSocket for real-time alert events
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"connected": s.coordinator.Ready(),
	})
}

// handleMetrics returns basic runtime counters for dashboards.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	deviceCount := 0
	if s.registry != nil {
		deviceCount = len(s.registry.List())
	}
	wsClients := 0
	if s.hub != nil {
		wsClients = s.hub.ClientCount()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"uptime_seconds":    int64(time.Since(s.started).Seconds()),
		"connected":         s.coordinator.Ready(),
		"device_count":      deviceCount,
		"websocket_clients": wsClients,
	})
}

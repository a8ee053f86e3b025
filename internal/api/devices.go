package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emberlink/ecomax-bridge/internal/device"
)

// handleListDevices returns all registered devices (controller and mixers).
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	if s.registry == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeNotReady, "device registry not configured")
		return
	}

	devices := s.registry.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleGetDevice returns a single registered device by ID.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeNotReady, "device registry not configured")
		return
	}

	id := chi.URLParam(r, "id")
	info, err := s.registry.GetByID(id)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			writeNotFound(w, "device not found: "+id)
			return
		}
		writeInternalError(w, "reading device: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, info)
}

package api

import (
	"net/http"

	"github.com/emberlink/ecomax-bridge/internal/audit"
)

// controllerResponse describes the connected controller.
type controllerResponse struct {
	Name         string   `json:"name"`
	Model        string   `json:"model"`
	UID          string   `json:"uid"`
	Software     string   `json:"software"`
	ProductType  int      `json:"product_type"`
	ProductID    int      `json:"product_id"`
	Host         string   `json:"host"`
	Capabilities []string `json:"capabilities"`
}

// handleGetController returns the identity and capabilities of the
// connected controller.
func (s *Server) handleGetController(w http.ResponseWriter, _ *http.Request) {
	if !s.coordinator.Ready() {
		writeError(w, http.StatusServiceUnavailable, ErrCodeNotReady, "controller connection not established")
		return
	}

	writeJSON(w, http.StatusOK, controllerResponse{
		Name:         s.coordinator.Name(),
		Model:        s.coordinator.Model(),
		UID:          s.coordinator.UID(),
		Software:     s.coordinator.Software(),
		ProductType:  int(s.coordinator.ProductType()),
		ProductID:    s.coordinator.ProductID(),
		Host:         s.coordinator.Host(),
		Capabilities: s.coordinator.Capabilities().Strings(),
	})
}

// handleRefreshController re-runs capability discovery against the live
// device and persists the new set on the config record.
//
// POST /api/v1/controller/refresh
func (s *Server) handleRefreshController(w http.ResponseWriter, r *http.Request) {
	if err := s.coordinator.RefreshCapabilities(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}

	caps := s.coordinator.Capabilities().Strings()
	s.recordAudit(r.Context(), audit.Entry{
		Action:   audit.ActionRefresh,
		Target:   audit.TargetController,
		TargetID: s.coordinator.UID(),
		Details:  map[string]any{"tokens": len(caps)},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"capabilities": caps,
	})
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/emberlink/ecomax-bridge/internal/audit"
)

// setParameterRequest is the body for PUT /parameters/{name}.
// Value accepts a number or the strings "on"/"off" for switch
// parameters such as ecomax_control.
type setParameterRequest struct {
	Value float64

	// Devices lists target selectors ("ecomax", "ecomax-mixer-2").
	// Empty targets the controller.
	Devices []string
}

func (p *setParameterRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		Value   json.RawMessage `json:"value"`
		Devices []string        `json:"devices"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Devices = raw.Devices

	if len(raw.Value) == 0 {
		return fmt.Errorf("value is required")
	}

	var num float64
	if err := json.Unmarshal(raw.Value, &num); err == nil {
		p.Value = num
		return nil
	}

	var state string
	if err := json.Unmarshal(raw.Value, &state); err != nil {
		return fmt.Errorf(`value must be a number or "on"/"off"`)
	}
	switch strings.ToLower(state) {
	case "on":
		p.Value = 1
	case "off":
		p.Value = 0
	default:
		return fmt.Errorf(`value must be a number or "on"/"off", got %q`, state)
	}
	return nil
}

// handleGetParameter reads a parameter from one or more devices.
//
// GET /api/v1/parameters/{name}?device=ecomax&device=ecomax-mixer-1
func (s *Server) handleGetParameter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeBadRequest(w, "parameter name is required")
		return
	}

	selectors := r.URL.Query()["device"]

	results, err := s.services.GetParameter(r.Context(), name, selectors)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"parameters": results,
	})
}

// handleSetParameter writes a parameter on one or more devices.
//
// PUT /api/v1/parameters/{name}
func (s *Server) handleSetParameter(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeBadRequest(w, "parameter name is required")
		return
	}

	var req setParameterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	if err := s.services.SetParameter(r.Context(), name, req.Value, req.Devices); err != nil {
		writeServiceError(w, err)
		return
	}

	details := map[string]any{"value": req.Value}
	if len(req.Devices) > 0 {
		details["devices"] = req.Devices
	}
	s.recordAudit(r.Context(), audit.Entry{
		Action:   audit.ActionSetParameter,
		Target:   audit.TargetParameter,
		TargetID: name,
		Details:  details,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"name":  name,
		"value": req.Value,
	})
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emberlink/ecomax-bridge/internal/audit"
	"github.com/emberlink/ecomax-bridge/internal/bridge"
	"github.com/emberlink/ecomax-bridge/internal/ecomax"
)

// setScheduleRequest is the body for PUT /schedules/{type}.
type setScheduleRequest struct {
	Weekdays []string `json:"weekdays,omitempty"`
	Preset   string   `json:"preset"`
	Start    string   `json:"start,omitempty"`
	End      string   `json:"end,omitempty"`
}

// handleGetSchedule renders the schedule for the requested weekdays.
//
// GET /api/v1/schedules/{type}?weekday=monday&weekday=tuesday
// Omitting weekday returns the full week.
func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleType := chi.URLParam(r, "type")

	weekdays := r.URL.Query()["weekday"]
	if len(weekdays) == 0 {
		weekdays = ecomax.Weekdays
	}

	days, err := s.services.GetSchedule(r.Context(), scheduleType, weekdays)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"type": scheduleType,
		"days": days,
	})
}

// handleSetSchedule applies a preset interval to the requested weekdays
// and commits the change to the controller.
//
// PUT /api/v1/schedules/{type}
func (s *Server) handleSetSchedule(w http.ResponseWriter, r *http.Request) {
	scheduleType := chi.URLParam(r, "type")

	var req setScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if req.Preset == "" {
		writeBadRequest(w, "preset is required")
		return
	}

	weekdays := req.Weekdays
	if len(weekdays) == 0 {
		weekdays = ecomax.Weekdays
	}

	err := s.services.SetSchedule(r.Context(), bridge.SetScheduleRequest{
		Type:     scheduleType,
		Weekdays: weekdays,
		Preset:   req.Preset,
		Start:    req.Start,
		End:      req.End,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	s.recordAudit(r.Context(), audit.Entry{
		Action:   audit.ActionSetSchedule,
		Target:   audit.TargetSchedule,
		TargetID: scheduleType,
		Details: map[string]any{
			"weekdays": weekdays,
			"preset":   req.Preset,
			"start":    req.Start,
			"end":      req.End,
		},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"type":     scheduleType,
		"weekdays": weekdays,
	})
}

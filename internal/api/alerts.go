package api

import (
	"net/http"
	"strconv"
	"time"
)

// Alert history query bounds.
const (
	defaultAlertLookbackHours = 24
	maxAlertLookbackHours     = 24 * 30
)

// handleRecentAlerts returns alert events recorded within the lookback
// window, newest first.
//
// GET /api/v1/alerts/recent?device_id=...&hours=24
func (s *Server) handleRecentAlerts(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeNotReady, "alert history not configured")
		return
	}

	hours := defaultAlertLookbackHours
	if raw := r.URL.Query().Get("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxAlertLookbackHours {
			writeBadRequest(w, "hours must be between 1 and 720")
			return
		}
		hours = parsed
	}

	deviceID := r.URL.Query().Get("device_id")

	entries, err := s.history.QueryRecentAlerts(r.Context(), deviceID, time.Duration(hours)*time.Hour)
	if err != nil {
		writeInternalError(w, "querying alert history: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"alerts": entries,
		"count":  len(entries),
	})
}

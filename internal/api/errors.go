package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/emberlink/ecomax-bridge/internal/bridge"
	"github.com/emberlink/ecomax-bridge/internal/ecomax"
	"github.com/emberlink/ecomax-bridge/internal/schedule"
)

// Error is the JSON error body every failing endpoint returns.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Machine-readable error codes carried in the body alongside the HTTP
// status.
const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeNotFound   = "not_found"
	ErrCodeInternal   = "internal_error"
	ErrCodeValidation = "validation_error"
	ErrCodeNotReady   = "not_ready"
	ErrCodeUpstream   = "device_error"
	ErrCodeTimeout    = "device_timeout"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{Status: status, Code: code, Message: message})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeServiceError maps device and schedule errors onto HTTP
// responses: a missing session is 503, an unresponsive controller 504,
// a refused fan-out write 502, bad input 400.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, bridge.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, ErrCodeNotReady, "controller connection not established")
	case errors.Is(err, ecomax.ErrDeviceUnresponsive):
		writeError(w, http.StatusGatewayTimeout, ErrCodeTimeout, "controller did not respond in time")
	case errors.Is(err, ecomax.ErrParameterNotFound), errors.Is(err, ecomax.ErrValueNotFound):
		writeNotFound(w, err.Error())
	case errors.Is(err, ecomax.ErrDayNotFound):
		writeBadRequest(w, err.Error())
	case errors.Is(err, bridge.ErrScheduleNotSupported):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, schedule.ErrInvalidTimeRange), errors.Is(err, schedule.ErrInvalidPreset):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, bridge.ErrAllDevicesFailed):
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}

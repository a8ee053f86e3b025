package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/emberlink/ecomax-bridge/internal/audit"
)

// recordAudit persists a control-audit entry. Audit failures are
// logged, never surfaced to the caller; the write itself already
// succeeded.
func (s *Server) recordAudit(ctx context.Context, entry audit.Entry) {
	if s.audit == nil {
		return
	}

	entry.Source = "api"
	if err := s.audit.Record(ctx, &entry); err != nil {
		s.logger.Warn("recording audit entry",
			"action", entry.Action,
			"target", entry.TargetID,
			"error", err,
		)
	}
}

// handleListAudit returns the control-audit history.
//
// GET /api/v1/audit?action=set_parameter&target=parameter&limit=50&offset=0
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeNotReady, "audit storage not configured")
		return
	}

	filter := audit.Filter{
		Action:   r.URL.Query().Get("action"),
		Target:   r.URL.Query().Get("target"),
		TargetID: r.URL.Query().Get("target_id"),
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			writeBadRequest(w, "offset must be a non-negative integer")
			return
		}
		filter.Offset = offset
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		writeInternalError(w, "listing audit entries: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

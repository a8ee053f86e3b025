package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/emberlink/ecomax-bridge/internal/audit"
	"github.com/emberlink/ecomax-bridge/internal/entry"
)

// updateEntryRequest is the body for PATCH /entries/{id}.
// Only the title can be edited; identity fields are device-owned.
type updateEntryRequest struct {
	Title string `json:"title"`
}

// handleListEntries returns all stored config entries.
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	if s.entries == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeNotReady, "entry storage not configured")
		return
	}

	records, err := s.entries.List(r.Context())
	if err != nil {
		writeInternalError(w, "listing entries: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": records,
		"count":   len(records),
	})
}

// handleGetEntry returns a single config entry by ID.
func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	if s.entries == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeNotReady, "entry storage not configured")
		return
	}

	id := chi.URLParam(r, "id")
	rec, err := s.entries.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, entry.ErrRecordNotFound) {
			writeNotFound(w, "entry not found: "+id)
			return
		}
		writeInternalError(w, "reading entry: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// handleUpdateEntry renames a config entry.
func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	if s.entries == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeNotReady, "entry storage not configured")
		return
	}

	id := chi.URLParam(r, "id")

	var req updateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if req.Title == "" {
		writeBadRequest(w, "title is required")
		return
	}

	rec, err := s.entries.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, entry.ErrRecordNotFound) {
			writeNotFound(w, "entry not found: "+id)
			return
		}
		writeInternalError(w, "reading entry: "+err.Error())
		return
	}

	rec.Title = req.Title
	if err := s.entries.Update(r.Context(), rec); err != nil {
		writeInternalError(w, "updating entry: "+err.Error())
		return
	}

	s.recordAudit(r.Context(), audit.Entry{
		Action:   audit.ActionUpdateEntry,
		Target:   audit.TargetEntry,
		TargetID: id,
		Details:  map[string]any{"title": req.Title},
	})

	writeJSON(w, http.StatusOK, rec)
}

// handleDeleteEntry removes a config entry.
func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if s.entries == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeNotReady, "entry storage not configured")
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.entries.Delete(r.Context(), id); err != nil {
		if errors.Is(err, entry.ErrRecordNotFound) {
			writeNotFound(w, "entry not found: "+id)
			return
		}
		writeInternalError(w, "deleting entry: "+err.Error())
		return
	}

	s.recordAudit(r.Context(), audit.Entry{
		Action:   audit.ActionDeleteEntry,
		Target:   audit.TargetEntry,
		TargetID: id,
	})

	w.WriteHeader(http.StatusNoContent)
}

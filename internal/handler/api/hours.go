package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// AppendEntryRequest is the body of POST /api/tasks/{id}/hours.
type AppendEntryRequest struct {
	Hours   float64 `json:"hours"`
	LogDate string  `json:"log_date,omitempty"`
}

// ListEntries handles GET /api/tasks/{id}/hours.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.TimeLog.ListEntries(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteList(w, entries)
}

// AppendEntry handles POST /api/tasks/{id}/hours.
func (h *Handler) AppendEntry(w http.ResponseWriter, r *http.Request) {
	var req AppendEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	logDate, ok := parseLogDate(w, req.LogDate)
	if !ok {
		return
	}

	entry, err := h.svc.TimeLog.AppendEntry(r.Context(), actor(r), chi.URLParam(r, "id"), req.Hours, logDate)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, entry)
}

package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/safeway/server/internal/safeway/service"
	"github.com/safeway/server/internal/safeway/types"
)

// ── Access log ───────────────────────────────────────────────────────────────

func (s *Server) handleListAccessLogs(w http.ResponseWriter, r *http.Request) {
	s.listAccessLogs(w, r, true)
}

func (s *Server) handleListAllAccessLogs(w http.ResponseWriter, r *http.Request) {
	s.listAccessLogs(w, r, false)
}

func (s *Server) listAccessLogs(w http.ResponseWriter, r *http.Request, paged bool) {
	q, err := logQuery(r, paged)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	logs, err := s.logs.ListAccessLogs(r.Context(), q)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleGetAccessLog(w http.ResponseWriter, r *http.Request) {
	l, err := s.logs.GetAccessLog(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// ── Error reports ────────────────────────────────────────────────────────────

func (s *Server) handleReportError(w http.ResponseWriter, r *http.Request) {
	var in types.ErrorReport
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	l, err := s.logs.ReportError(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

func (s *Server) handleListErrors(w http.ResponseWriter, r *http.Request) {
	s.listErrors(w, r, true)
}

func (s *Server) handleListAllErrors(w http.ResponseWriter, r *http.Request) {
	s.listErrors(w, r, false)
}

func (s *Server) listErrors(w http.ResponseWriter, r *http.Request, paged bool) {
	base, err := logQuery(r, paged)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	q := service.ErrorLogQuery{
		LogQuery:  base,
		Severity:  types.Severity(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("severity")))),
		Component: r.URL.Query().Get("component"),
	}
	logs, err := s.logs.ListErrors(r.Context(), q)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleGetError(w http.ResponseWriter, r *http.Request) {
	l, err := s.logs.GetError(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// ── HTTP request log ─────────────────────────────────────────────────────────

func (s *Server) handleListHTTPLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	logs, err := s.logs.ListHTTPLogs(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

package httpapi

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/safeway/server/internal/safeway/service"
)

// writeServiceError maps service error categories onto HTTP responses.
// Anything unrecognised is a 500 and is logged with its cause.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCardID):
		writeError(w, http.StatusBadRequest, "invalid_card_id", err.Error())
	case errors.Is(err, service.ErrInvalidLocation):
		writeError(w, http.StatusBadRequest, "invalid_location", err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, service.ErrConfiguration):
		s.logger.Error("configuration error", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "configuration_error", "credential configuration is invalid")
	case errors.Is(err, service.ErrStorage):
		s.logger.Error("storage error", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "storage is unavailable, try again")
	default:
		s.logger.Error("unexpected error", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
	}
}

package httpapi

import (
	"errors"
	"net/http"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/safeway/server/internal/safeway/service"
	"github.com/safeway/server/internal/safeway/types"
)

// handleValidateAccess answers a reader's card scan. Every outcome, including
// an unknown card, is a 200; errors mean no decision was made.
func (s *Server) handleValidateAccess(w http.ResponseWriter, r *http.Request) {
	pb := isProtobuf(r)

	var req types.ValidateAccessRequest
	if pb {
		var msg structpb.Struct
		if err := readProto(r, &msg); err != nil {
			status, code := http.StatusBadRequest, "bad_proto"
			if errors.Is(err, errBodyTooLarge) {
				status, code = http.StatusRequestEntityTooLarge, "body_too_large"
			}
			writeProto(w, status, errorToProto(code, err.Error()))
			return
		}
		req = validateRequestFromProto(&msg)
	} else if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}

	resp, err := s.engine.Validate(r.Context(), req)
	if err != nil {
		if pb {
			status, code := accessErrorStatus(err)
			writeProto(w, status, errorToProto(code, err.Error()))
			return
		}
		s.writeServiceError(w, r, err)
		return
	}

	if pb {
		writeProto(w, http.StatusOK, validateResponseToProto(resp))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func accessErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidCardID):
		return http.StatusBadRequest, "invalid_card_id"
	case errors.Is(err, service.ErrInvalidLocation):
		return http.StatusBadRequest, "invalid_location"
	case errors.Is(err, service.ErrConfiguration):
		return http.StatusInternalServerError, "configuration_error"
	case errors.Is(err, service.ErrStorage):
		return http.StatusServiceUnavailable, "storage_unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}

package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/safeway/server/internal/safeway/types"
)

// ── Users ────────────────────────────────────────────────────────────────────

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var in types.UserCreate
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	u, err := s.directory.CreateUser(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pageParams(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	users, err := s.directory.ListUsers(r.Context(), skip, limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.directory.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var in types.UserUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	u, err := s.directory.UpdateUser(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	u, err := s.directory.DeactivateUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ── Credentials ──────────────────────────────────────────────────────────────

func (s *Server) handleCreateCredential(w http.ResponseWriter, r *http.Request) {
	var in types.CredentialCreate
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	c, err := s.directory.CreateCredential(r.Context(), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListCredentials(w http.ResponseWriter, r *http.Request) {
	skip, limit, err := pageParams(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.listCredentials(w, r, skip, limit)
}

func (s *Server) handleListAllCredentials(w http.ResponseWriter, r *http.Request) {
	s.listCredentials(w, r, 0, 0)
}

func (s *Server) listCredentials(w http.ResponseWriter, r *http.Request, skip, limit int) {
	creds, err := s.directory.ListCredentials(r.Context(), skip, limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, creds)
}

func (s *Server) handleGetCredential(w http.ResponseWriter, r *http.Request) {
	c, err := s.directory.GetCredential(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCredential(w http.ResponseWriter, r *http.Request) {
	var in types.CredentialUpdate
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	c, err := s.directory.UpdateCredential(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleSyncCredentials serves the reader sync feed. Readers that send
// Accept: application/x-protobuf get a google.protobuf.Struct.
func (s *Server) handleSyncCredentials(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	size, err := queryInt(r, "page_size", 0)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out, err := s.directory.SyncPage(r.Context(), page, size)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if acceptsProtobuf(r) {
		writeProto(w, http.StatusOK, syncPageToProto(out))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

package httpapi

import (
	"net/http"
)

// handleAPILogin is the single-factor token login for programmatic clients.
func (s *Server) handleAPILogin(w http.ResponseWriter, r *http.Request) {
	req := &loginRequest{}
	if err := decodeJSON(r, req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	token, err := s.users.APILogin(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

func (s *Server) handleAPIStudentList(w http.ResponseWriter, r *http.Request) {
	views, err := s.students.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	result := make([]*studentResponse, 0, len(views))
	for _, v := range views {
		result = append(result, toStudentResponse(v))
	}
	writeJSON(w, http.StatusOK, result)
}

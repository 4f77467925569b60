package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/savelyev/securesms/internal/server/models"
	"github.com/savelyev/securesms/internal/server/services"
)

type studentRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	Grade   string `json:"grade"`
}

type studentResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Address    string `json:"address,omitempty"`
	HasAddress bool   `json:"has_address"`
	Grade      string `json:"grade"`
}

func toStudentResponse(v *services.StudentView) *studentResponse {
	return &studentResponse{
		ID:         v.ID,
		Name:       v.Name,
		Email:      v.Email,
		Address:    v.Address,
		HasAddress: v.HasAddress,
		Grade:      v.Grade,
	}
}

func (s *Server) handleStudentList(w http.ResponseWriter, r *http.Request) {
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

func (s *Server) handleStudentCreate(w http.ResponseWriter, r *http.Request) {
	req := &studentRequest{}
	if err := decodeJSON(r, req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	view, err := s.students.Create(r.Context(), &services.StudentInput{
		Name: req.Name, Email: req.Email, Address: req.Address, Grade: req.Grade,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toStudentResponse(view))
}

func (s *Server) handleStudentGet(w http.ResponseWriter, r *http.Request) {
	view, err := s.students.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStudentResponse(view))
}

func (s *Server) handleStudentUpdate(w http.ResponseWriter, r *http.Request) {
	req := &studentRequest{}
	if err := decodeJSON(r, req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	err := s.students.Update(r.Context(), chi.URLParam(r, "id"), &services.StudentInput{
		Name: req.Name, Email: req.Email, Address: req.Address, Grade: req.Grade,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleStudentDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.students.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type teacherRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

type teacherResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Department string    `json:"department"`
	CreatedAt  time.Time `json:"created_at"`
}

func toTeacherResponse(t *models.Teacher) *teacherResponse {
	return &teacherResponse{
		ID:         t.ID,
		Name:       t.Name,
		Email:      t.Email,
		Department: t.Department,
		CreatedAt:  t.CreatedAt,
	}
}

func (s *Server) handleTeacherList(w http.ResponseWriter, r *http.Request) {
	records, err := s.teachers.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	result := make([]*teacherResponse, 0, len(records))
	for _, t := range records {
		result = append(result, toTeacherResponse(t))
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTeacherCreate(w http.ResponseWriter, r *http.Request) {
	req := &teacherRequest{}
	if err := decodeJSON(r, req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	created, err := s.teachers.Create(r.Context(), &models.Teacher{
		Name: req.Name, Email: req.Email, Department: req.Department,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTeacherResponse(created))
}

func (s *Server) handleTeacherGet(w http.ResponseWriter, r *http.Request) {
	record, err := s.teachers.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTeacherResponse(record))
}

func (s *Server) handleTeacherUpdate(w http.ResponseWriter, r *http.Request) {
	req := &teacherRequest{}
	if err := decodeJSON(r, req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	err := s.teachers.Update(r.Context(), &models.Teacher{
		ID: chi.URLParam(r, "id"), Name: req.Name, Email: req.Email, Department: req.Department,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleTeacherDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.teachers.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

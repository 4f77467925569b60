package httpapi

import (
	"net/http"
	"time"

	"github.com/savelyev/securesms/internal/common"
	"github.com/savelyev/securesms/internal/server/models"
)

type registerRequest struct {
	Username string      `json:"username"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// handleRegister creates an account. Self-registration always yields a
// student account; creating teacher or admin accounts requires a fully
// authenticated admin session.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req := &registerRequest{}
	if err := decodeJSON(r, req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Role == "" {
		req.Role = models.RoleStudent
	}
	if req.Role != models.RoleStudent {
		sess := sessionFromContext(r.Context())
		if sess == nil || !sess.Authenticated() || sess.Role != models.RoleAdmin {
			writeError(w, common.ErrorForbidden)
			return
		}
	}

	user, err := s.users.Register(r.Context(), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":       user.ID,
		"username": user.UserName,
		"role":     string(user.Role),
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req := &loginRequest{}
	if err := decodeJSON(r, req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sess := sessionFromContext(r.Context())
	if _, err := s.flow.VerifyPassword(r.Context(), sess, req.Username, req.Password); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"stage": sess.Stage.String()})
}

func (s *Server) handleOTPIssue(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	issued, err := s.flow.IssueOTP(r.Context(), sess)
	if err != nil {
		writeError(w, err)
		return
	}

	// the code itself travels by mail only
	writeJSON(w, http.StatusOK, map[string]string{
		"stage":      sess.Stage.String(),
		"expires_at": issued.ExpiresAt.Format(time.RFC3339),
	})
}

type otpVerifyRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleOTPVerify(w http.ResponseWriter, r *http.Request) {
	req := &otpVerifyRequest{}
	if err := decodeJSON(r, req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sess := sessionFromContext(r.Context())
	if err := s.flow.VerifyOTP(r.Context(), sess, req.Code); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"stage": sess.Stage.String()})
}

func (s *Server) handleBiometric(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	if err := s.flow.ConfirmBiometric(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"stage": sess.Stage.String()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	s.flow.Logout(r.Context(), sess)
	s.sessions.Delete(sessionTokenFromContext(r.Context()))

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	writeJSON(w, http.StatusOK, map[string]string{"stage": sess.Stage.String()})
}

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"stage":         sess.Stage.String(),
		"username":      sess.Username,
		"role":          string(sess.Role),
		"authenticated": sess.Authenticated(),
	})
}

// Package httpapi exposes the record-management service over HTTP: the
// multi-factor login endpoints, the student and teacher record CRUD, the
// encrypted backup endpoints, and a token-based API surface for
// programmatic clients.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/savelyev/securesms/internal/logging"
	"github.com/savelyev/securesms/internal/server/config"
	"github.com/savelyev/securesms/internal/server/mfa"
	"github.com/savelyev/securesms/internal/server/models"
	"github.com/savelyev/securesms/internal/server/services"
	"github.com/savelyev/securesms/internal/server/sessions"
)

// Server holds the HTTP surface and its collaborators.
type Server struct {
	cfg      *config.Config
	log      logging.Logger
	flow     *mfa.Flow
	sessions *sessions.Store
	users    *services.UserService
	students *services.StudentService
	teachers *services.TeacherService
	backups  *services.BackupService

	srv *http.Server
}

func NewServer(
	cfg *config.Config,
	log logging.Logger,
	flow *mfa.Flow,
	store *sessions.Store,
	users *services.UserService,
	students *services.StudentService,
	teachers *services.TeacherService,
	backups *services.BackupService,
) *Server {
	s := &Server{
		cfg:      cfg,
		log:      log.With("module", "httpapi"),
		flow:     flow,
		sessions: store,
		users:    users,
		students: students,
		teachers: teachers,
		backups:  backups,
	}

	s.srv = &http.Server{
		Addr:         cfg.EndpointAddrHTTP,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Router builds the chi route tree. It is exported so tests can drive the
// handlers through httptest without opening a socket.
func (s *Server) Router() http.Handler {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(s.requestLogger)

	mux.Get("/healthz", s.handleHealthz)

	// interactive surface: cookie session plus the staged login flow
	mux.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/otp/issue", s.handleOTPIssue)
		r.Post("/auth/otp/verify", s.handleOTPVerify)
		r.Post("/auth/biometric", s.handleBiometric)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/auth/session", s.handleSessionStatus)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuthenticated)

			r.With(s.requireRole(models.RoleAdmin, models.RoleTeacher)).Route("/students", func(r chi.Router) {
				r.Get("/", s.handleStudentList)
				r.Post("/", s.handleStudentCreate)
				r.Get("/{id}", s.handleStudentGet)
				r.Put("/{id}", s.handleStudentUpdate)
				r.With(s.requireRole(models.RoleAdmin)).Delete("/{id}", s.handleStudentDelete)
			})

			r.Route("/teachers", func(r chi.Router) {
				r.With(s.requireRole(models.RoleAdmin, models.RoleTeacher)).Get("/", s.handleTeacherList)
				r.With(s.requireRole(models.RoleAdmin)).Post("/", s.handleTeacherCreate)
				r.With(s.requireRole(models.RoleAdmin, models.RoleTeacher)).Get("/{id}", s.handleTeacherGet)
				r.With(s.requireRole(models.RoleAdmin)).Put("/{id}", s.handleTeacherUpdate)
				r.With(s.requireRole(models.RoleAdmin)).Delete("/{id}", s.handleTeacherDelete)
			})

			r.With(s.requireRole(models.RoleAdmin)).Route("/backup", func(r chi.Router) {
				r.Get("/export", s.handleBackupExport)
				r.Post("/import", s.handleBackupImport)
				r.Post("/s3/export", s.handleBackupExportS3)
				r.Post("/s3/import", s.handleBackupImportS3)
			})
		})
	})

	// programmatic surface: bearer tokens instead of cookies
	mux.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleAPILogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireToken)
			r.With(s.requireTokenRole(models.RoleAdmin, models.RoleTeacher)).Get("/students", s.handleAPIStudentList)
		})
	})

	return mux
}

// Run serves until the listener fails or Shutdown is called.
func (s *Server) Run() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

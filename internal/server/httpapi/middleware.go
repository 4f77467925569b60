package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/savelyev/securesms/internal/common"
	"github.com/savelyev/securesms/internal/server/auth"
	"github.com/savelyev/securesms/internal/server/mfa"
	"github.com/savelyev/securesms/internal/server/models"
)

type ctxKey int

const (
	ctxKeySession ctxKey = iota
	ctxKeySessionToken
	ctxKeyClaims
)

const sessionCookieName = "session_token"

func sessionFromContext(ctx context.Context) *mfa.Session {
	sess, _ := ctx.Value(ctxKeySession).(*mfa.Session)
	return sess
}

func sessionTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(ctxKeySessionToken).(string)
	return token
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(ctxKeyClaims).(*auth.Claims)
	return claims
}

// requestLogger logs one line per request with the chi request id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Info(r.Context(), "http request",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// withSession attaches the login session for the request cookie, creating a
// fresh anonymous session (and setting the cookie) when there is none.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var (
			token string
			sess  *mfa.Session
		)

		if c, err := r.Cookie(sessionCookieName); err == nil {
			if existing, ok := s.sessions.Get(c.Value); ok {
				token, sess = c.Value, existing
			}
		}

		if sess == nil {
			token, sess = s.sessions.Create()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), ctxKeySession, sess)
		ctx = context.WithValue(ctx, ctxKeySessionToken, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAuthenticated rejects requests whose session has not completed the
// full factor sequence.
func (s *Server) requireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFromContext(r.Context())
		if sess == nil || !sess.Authenticated() {
			writeError(w, common.ErrorUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireRole gates a route to sessions holding one of the allowed roles.
func (s *Server) requireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFromContext(r.Context())
			if sess == nil || !sess.Role.In(allowed...) {
				writeError(w, common.ErrorForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireToken authenticates the programmatic surface with a bearer JWT.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			writeError(w, common.ErrorUnauthorized)
			return
		}

		claims, err := auth.ParseToken(tokenString, []byte(s.cfg.SecretKey))
		if err != nil {
			writeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireTokenRole(allowed ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromContext(r.Context())
			if claims == nil || !claims.Role.In(allowed...) {
				writeError(w, common.ErrorForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

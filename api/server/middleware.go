package server

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/ValentinKolb/rwKV/lib/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// SessionCookie is the name of the cookie carrying the session id.
const SessionCookie = "UNDOCUMENTED_DEMO_SESSION"

type ctxKey int

const (
	sessionKey ctxKey = iota
	userKey
)

// session is the resolved session of a request.
type session struct {
	token  string
	bundle *store.Bundle
	minted bool // token was created for this request and not yet sent
}

// --------------------------------------------------------------------------
// Middleware (logging + metrics)
// --------------------------------------------------------------------------

// responseWriter is a custom ResponseWriter that captures the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing it
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// observeRequests logs every request and records it in the server metrics
func (s *Server) observeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		s.metrics.observe(r.Method, route, rw.statusCode, duration)
		Logger.Debugf("%s %s => %d took %s", r.Method, r.URL.Path, rw.statusCode, duration)
	})
}

// --------------------------------------------------------------------------
// Middleware (security)
// --------------------------------------------------------------------------

// checkOrigin rejects requests whose Origin header is not allowed. It guards
// the routes that hand out credentials.
func (s *Server) checkOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.config.BypassOriginCheck && !slices.Contains(s.config.AllowedOrigins, r.Header.Get("Origin")) {
			writeError(w, http.StatusForbidden, "Origin header required for CSRF protection")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --------------------------------------------------------------------------
// Middleware (sessions)
// --------------------------------------------------------------------------

// withSession resolves the bundle of the request and holds its lock until the
// handler returns. If mint is set and the request has no session cookie, a
// new session id is created; the handler decides whether to send it.
func (s *Server) withSession(mint bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := &session{token: s.sessionToken(r)}
			if sess.token == "" && mint {
				sess.token = uuid.NewString()
				sess.minted = true
			}

			if sess.token != "" && !s.config.DisableIsolation && !s.container.Contains(sess.token) {
				if !s.limiter.Allow(clientKey(r)) {
					s.metrics.rejectedSession()
					writeError(w, http.StatusTooManyRequests, "Too many new sessions")
					return
				}
			}

			bundle, err := s.container.GetOrCreate(sess.token)
			if err != nil {
				Logger.Errorf("failed to resolve session: %v", err)
				writeError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			sess.bundle = bundle

			bundle.Lock()
			defer bundle.Unlock()
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, sess)))
		})
	}
}

// sessionToken returns the session id sent by the client. Ids that can not
// be valid are treated as absent.
func (s *Server) sessionToken(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil || len(c.Value) > s.config.Limits.MaxIDLen {
		return ""
	}
	return c.Value
}

// issueSessionCookie sends a minted session id to the client.
func issueSessionCookie(w http.ResponseWriter, sess *session) {
	if !sess.minted {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:  SessionCookie,
		Value: sess.token,
		Path:  "/",
	})
}

func sessionFrom(r *http.Request) *session {
	return r.Context().Value(sessionKey).(*session)
}

// --------------------------------------------------------------------------
// Middleware (authentication)
// --------------------------------------------------------------------------

// withUser resolves the user of the Authorization header, if any. Invalid
// tokens are treated as anonymous requests.
func (s *Server) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromHeader(r.Header.Get("Authorization"))
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		subject, err := s.tokens.Verify(token)
		if err != nil {
			Logger.Debugf("rejected token: %v", err)
			next.ServeHTTP(w, r)
			return
		}

		user := sessionFrom(r).bundle.UserByToken(token)
		if user == nil || user.ID != subject {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

// requireUser rejects anonymous requests
func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userFrom(r) == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// userFrom returns the authenticated user, or nil.
func userFrom(r *http.Request) *store.User {
	u, _ := r.Context().Value(userKey).(*store.User)
	return u
}

package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/ValentinKolb/rwKV/api/common"
	"github.com/ValentinKolb/rwKV/lib/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("api")

// Server serves the RealWorld REST API on top of a session container.
type Server struct {
	config    common.ServerConfig
	container *store.Container
	router    chi.Router
	validate  *validator.Validate
	limiter   *sessionLimiter
	metrics   *serverMetrics
	tokens    *tokenIssuer
	now       func() time.Time
}

// NewServer validates the configuration and creates a server with an empty
// session container.
func NewServer(config common.ServerConfig) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	container, err := store.NewContainer(store.Options{
		DisableIsolation: config.DisableIsolation,
		MaxSessions:      config.MaxSessions,
		Limits:           config.Limits,
	})
	if err != nil {
		return nil, err
	}

	secret := []byte(config.TokenSecret)
	if len(secret) == 0 {
		// tokens only need to survive as long as the in-memory data does
		buf := make([]byte, 32)
		if _, err = rand.Read(buf); err != nil {
			return nil, err
		}
		secret = []byte(hex.EncodeToString(buf))
	}

	s := &Server{
		config:    config,
		container: container,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		limiter:   newSessionLimiter(config.SessionsPerMinute, config.SessionBurst),
		tokens:    newTokenIssuer(secret),
		now:       func() time.Time { return time.Now().UTC() },
	}
	s.metrics = newServerMetrics(s.container)
	s.router = s.routes()

	Logger.Infof("Created API Server")
	Logger.Infof("%s", config.String())
	return s, nil
}

// Handler returns the root http.Handler of the API.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Container returns the session container backing the server.
func (s *Server) Container() *store.Container {
	return s.container
}

// Serve listens on the configured endpoint until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Endpoint,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		Logger.Infof("Starting HTTP server on %s", s.config.Endpoint)
		errC <- srv.ListenAndServe()
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
		Logger.Infof("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errC; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

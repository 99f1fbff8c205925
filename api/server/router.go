package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// routes builds the router with all middleware and endpoints
func (s *Server) routes() chi.Router {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(s.observeRequests)
	router.Use(chimiddleware.Recoverer)

	// CORS configuration
	corsOptions := cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}
	if len(s.config.AllowedOrigins) > 0 {
		corsOptions.AllowedOrigins = s.config.AllowedOrigins
		corsOptions.AllowCredentials = true
	}
	router.Use(cors.Handler(corsOptions))

	router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	// Operational endpoints, no session involved
	router.Get("/health", s.health)
	router.Get("/stats", s.stats)
	router.Method(http.MethodGet, "/metrics", s.metrics)

	// Credential endpoints, a session is created if the client has none
	router.Group(func(r chi.Router) {
		r.Use(s.checkOrigin)
		r.Use(s.withSession(true))
		r.Post("/users", s.register)
		r.Post("/users/login", s.login)
	})

	// Session scoped endpoints
	router.Group(func(r chi.Router) {
		r.Use(s.withSession(false))
		r.Use(s.withUser)

		r.Get("/profiles/{username}", s.getProfile)
		r.Get("/articles", s.listArticles)
		r.Get("/articles/{slug}", s.getArticle)
		r.Get("/articles/{slug}/comments", s.listComments)
		r.Get("/tags", s.tags)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Get("/user", s.currentUser)
			r.Put("/user", s.updateUser)
			r.Post("/profiles/{username}/follow", s.follow)
			r.Delete("/profiles/{username}/follow", s.unfollow)
			r.Get("/articles/feed", s.feed)
			r.Post("/articles", s.createArticle)
			r.Put("/articles/{slug}", s.updateArticle)
			r.Delete("/articles/{slug}", s.deleteArticle)
			r.Post("/articles/{slug}/favorite", s.favorite)
			r.Delete("/articles/{slug}/favorite", s.unfavorite)
			r.Post("/articles/{slug}/comments", s.createComment)
			r.Delete("/articles/{slug}/comments/{id}", s.deleteComment)
		})
	})

	return router
}

// stats handles GET /stats
func (s *Server) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.container.Stats())
}

// health handles GET /health
func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.container.Len(),
	})
}

package main

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/dmaher/loanscope/internal/cache"
	"github.com/dmaher/loanscope/internal/clientstore"
	"github.com/dmaher/loanscope/internal/scenario"
)

type server struct {
	auth      *authService
	db        *sql.DB
	scenarios *scenario.Store
	clients   *clientstore.Store
	cache     cache.Cache
	log       *logrus.Logger
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(s.log))
	r.Use(s.authMiddleware)

	r.Get("/healthz", s.handleHealthz)
	r.Post("/api/login", s.handleLogin)
	r.Post("/api/logout", s.handleLogout)

	r.Route("/api/scenarios", func(r chi.Router) {
		r.Get("/", s.handleScenariosList)
		r.Post("/", s.handleScenarioCreate)
		r.Post("/export", s.handleScenariosExport)
		r.Post("/import", s.handleScenariosImport)
		r.Get("/current-state", s.handleCurrentStateGet)
		r.Post("/current-state", s.handleCurrentStateSave)
		r.Get("/{name}", s.handleScenarioGet)
		r.Put("/{name}", s.handleScenarioUpdate)
		r.Delete("/{name}", s.handleScenarioDelete)
	})

	r.Post("/api/compare", s.handleCompare)
	r.Post("/api/export/{format}", s.handleExport)

	r.Route("/api/clients/{scope}", func(r chi.Router) {
		r.Get("/records", s.handleClientRecordsList)
		r.Post("/records", s.handleClientRecordPut)
		r.Get("/records/{id}", s.handleClientRecordGet)
		r.Put("/records/{id}", s.handleClientRecordPut)
		r.Delete("/records/{id}", s.handleClientRecordDelete)
		r.Post("/move", s.handleClientMove)
	})

	return r
}

// Paths reachable without a session.
func isPublicPath(path string) bool {
	return path == "/healthz" || path == "/api/login"
}

func (s *server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) || !strings.HasPrefix(r.URL.Path, "/api/") {
			next.ServeHTTP(w, r)
			return
		}

		if !isAuthenticated(r, s.auth) {
			s.respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	valid, err := s.auth.validateCredentials(req.Email, req.Password)
	if err != nil {
		s.log.WithError(err).Error("credential check failed")
		s.respondError(w, http.StatusInternalServerError, "authentication error")
		return
	}
	if !valid {
		s.respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	s.auth.setSessionCookie(w, req.Email)
	s.respondJSON(w, http.StatusOK, map[string]string{"email": req.Email})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.clearSessionCookie(w)
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/luvhive/hivelink/internal/config"
	"github.com/luvhive/hivelink/internal/observability"
	"github.com/luvhive/hivelink/internal/session"
)

// StatusFunc reports the daemon's dynamic state for /v1/status.
type StatusFunc func() map[string]any

// Server is the daemon's local control surface: health, metrics and a
// status snapshot. It exposes nothing sensitive and binds to localhost by
// default.
type Server struct {
	cfg     config.Config
	session *session.Session
	status  StatusFunc
}

func New(cfg config.Config, sess *session.Session, status StatusFunc) *Server {
	return &Server{cfg: cfg, session: sess, status: status}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})
	r.Get("/v1/status", s.handleStatus)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"signed_in": s.session.Token(r.Context()) != "",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"scope":     s.session.Scope(),
		"signed_in": s.session.Token(r.Context()) != "",
	}
	if p, ok := s.session.Profile(r.Context()); ok {
		body["username"] = p.Username
	}
	if s.status != nil {
		for k, v := range s.status() {
			body[k] = v
		}
	}
	respondJSON(w, http.StatusOK, body)
}

func respondJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

package params

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"decisioncore/internal/httpmw"
)

// Server exposes the Parameter Store's admin HTTP surface: param_hash and
// snapshot reads, threshold upserts, and allowlist mutations. Every route is
// bearer-token gated.
type Server struct {
	store      *Store
	adminToken string
	logger     *slog.Logger
	router     http.Handler
}

// NewServer builds the Parameter Store's chi router.
func NewServer(store *Store, adminToken string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{store: store, adminToken: adminToken, logger: logger}
	srv.router = srv.buildRouter()
	return srv
}

// Handler exposes the configured HTTP router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(httpmw.CORS(httpmw.CORSConfig{}))
	r.Use(func(next http.Handler) http.Handler {
		return RequireBearerToken(s.adminToken, next)
	})

	r.Get("/param/hash", s.handleHash)
	r.Get("/params", s.handleSnapshot)
	r.Post("/param/threshold", s.handleThreshold)
	r.Post("/param/allowlist", s.handleAllowlist)
	return r
}

func (s *Server) handleHash(w http.ResponseWriter, r *http.Request) {
	hash, err := s.store.ParamHash()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"param_hash": hash})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	hash, err := s.store.ParamHash()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"thresholds": s.store.Thresholds(),
		"allowlist":  s.store.Allowlist(),
		"param_hash": hash,
	})
}

func (s *Server) handleThreshold(w http.ResponseWriter, r *http.Request) {
	var req struct {
		K string  `json:"k"`
		V float64 `json:"v"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	hash, err := s.store.UpsertThreshold(req.K, req.V)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"param_hash": hash})
}

func (s *Server) handleAllowlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Country string `json:"country"`
		Action  string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	hash, err := s.store.MutateAllowlist(req.Country, AllowlistAction(req.Action))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"param_hash": hash})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

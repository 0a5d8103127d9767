package engine

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"decisioncore/internal/apierr"
	"decisioncore/internal/httpmw"
)

// Server exposes the Decision Engine's single external operation: decide().
type Server struct {
	engine  *Engine
	logger  *slog.Logger
	limiter *rateLimiter
	router  http.Handler
}

// NewServer builds the Decision Engine's chi router. decidesPerSecond/burst
// configure the per-client rate limit on POST /decide; zero values fall
// back to the limiter's own defaults.
func NewServer(eng *Engine, logger *slog.Logger, decidesPerSecond float64, burst int) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{
		engine:  eng,
		logger:  logger,
		limiter: newRateLimiter(decidesPerSecond, burst),
	}
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

	reqMetrics := httpmw.NewRequestMetrics("decisiond")
	r.Use(httpmw.CORS(httpmw.CORSConfig{}))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/metrics", httpmw.Handler().ServeHTTP)
	r.With(s.limiter.middleware, reqMetrics.Middleware("decisiond", "/decide")).Post("/decide", s.handleDecide)
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type decideRequest struct {
	Amount    float64 `json:"amount"`
	Country   string  `json:"country"`
	Ts        string  `json:"ts"`
	Recent    int     `json:"recent"`
	ContextID string  `json:"context_id"`
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req decideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteJSON(w, apierr.New(apierr.Validation, "invalid request body"))
		return
	}

	ts := time.Now().UTC()
	if req.Ts != "" {
		parsed, err := time.Parse(time.RFC3339, req.Ts)
		if err != nil {
			apierr.WriteJSON(w, apierr.New(apierr.Validation, "ts must be RFC3339"))
			return
		}
		ts = parsed
	}

	result, err := s.engine.Decide(r.Context(), Request{
		Amount:    req.Amount,
		Country:   req.Country,
		Ts:        ts,
		Recent:    req.Recent,
		ContextID: req.ContextID,
	}, r.Header.Get("Idempotency-Key"))
	if err != nil {
		s.logger.Error("decide failed", "error", err)
		apierr.WriteJSON(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"decision":        string(result.Decision),
		"obligations":     result.Obligations,
		"kernel_id":       result.KernelID,
		"param_hash":      result.ParamHash,
		"kid":             result.Kid,
		"signature_b64":   result.SignatureB64,
		"proof_id":        result.ProofID,
		"anchor":          nil,
		"certificate_jws": result.CertificateJWS,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

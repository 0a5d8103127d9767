package attestor

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Server exposes the Attestor's HTTP surface: key listing, sign/verify for
// raw bundles, and sign/verify for JWS certificates.
type Server struct {
	keyring *Keyring
	logger  *slog.Logger
	router  http.Handler
}

// NewServer builds the Attestor's chi router over an existing keyring.
func NewServer(kr *Keyring, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{keyring: kr, logger: logger}
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

	r.Get("/healthz", s.handleHealthz)
	r.Get("/keys", s.handleListKeys)
	r.Get("/pubkey", s.handlePubkey)
	r.Post("/sign", s.handleSign)
	r.Post("/verify", s.handleVerify)
	r.Post("/sign_jws", s.handleSignJWS)
	r.Post("/verify_jws", s.handleVerifyJWS)
	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	keys := make(map[string]string, len(s.keyring.keys))
	for kid, vk := range s.keyring.VerifyKeys() {
		keys[kid] = base64.StdEncoding.EncodeToString(vk)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active": s.keyring.ActiveKid(),
		"keys":   keys,
	})
}

func (s *Server) handlePubkey(w http.ResponseWriter, r *http.Request) {
	active := s.keyring.Active()
	writeJSON(w, http.StatusOK, map[string]any{
		"public_key_b64": base64.StdEncoding.EncodeToString(active.VerifyKey),
	})
}

func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bundle map[string]any `json:"bundle"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	result, err := s.keyring.SignBundle(req.Bundle)
	if err != nil {
		s.logger.Error("sign bundle failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "sign failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"signature_b64":  result.SignatureB64,
		"public_key_b64": result.VerifyKeyB64,
		"digest_hex":     result.DigestHex,
		"kid":            result.Kid,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Bundle       map[string]any `json:"bundle"`
		SignatureB64 string         `json:"signature_b64"`
		Kid          string         `json:"kid"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	result, err := s.keyring.VerifyBundle(req.Bundle, req.SignatureB64, req.Kid)
	if err != nil {
		s.logger.Error("verify bundle failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "verify failed"})
		return
	}
	resp := map[string]any{"valid": result.Valid}
	if result.Kid != "" {
		resp["kid"] = result.Kid
	}
	if result.Reason != "" {
		resp["reason"] = result.Reason
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSignJWS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Payload map[string]any `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	kid, jws, err := s.keyring.SignJWS(req.Payload)
	if err != nil {
		s.logger.Error("sign jws failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "sign failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kid": kid, "jws": jws})
}

func (s *Server) handleVerifyJWS(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JWS string `json:"jws"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid payload"})
		return
	}
	result, err := s.keyring.VerifyJWS(req.JWS)
	if err != nil {
		s.logger.Error("verify jws failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "verify failed"})
		return
	}
	resp := map[string]any{"valid": result.Valid}
	if result.Kid != "" {
		resp["kid"] = result.Kid
	}
	if result.Valid {
		resp["payload"] = result.Payload
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

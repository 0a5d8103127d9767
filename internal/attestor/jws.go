package attestor

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"decisioncore/internal/canon"
)

type jwsHeader struct {
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	Typ string `json:"typ"`
}

// SignJWS produces an RFC 7515 compact serialization over payload: header
// {alg:"EdDSA", kid, typ:"JWT"}, both header and payload canonicalized
// (sorted keys) before being base64url-encoded without padding, signature
// over header_b64 + "." + payload_b64.
func (k *Keyring) SignJWS(payload any) (kid string, jws string, err error) {
	active := k.Active()
	header := jwsHeader{Alg: "EdDSA", Kid: active.Kid, Typ: "JWT"}

	headerCanonical, err := canon.Marshal(header)
	if err != nil {
		return "", "", fmt.Errorf("attestor: canonicalize jws header: %w", err)
	}
	payloadCanonical, err := canon.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("attestor: canonicalize jws payload: %w", err)
	}

	headerB64 := b64url(headerCanonical)
	payloadB64 := b64url(payloadCanonical)
	signingInput := headerB64 + "." + payloadB64
	sig := ed25519.Sign(active.signingKey, []byte(signingInput))

	return active.Kid, signingInput + "." + b64url(sig), nil
}

// JWSVerifyResult is the response shape for JWS verification.
type JWSVerifyResult struct {
	Valid   bool
	Kid     string
	Payload map[string]any
}

// VerifyJWS splits jws on ".", rejects anything that isn't exactly three
// segments, rejects unknown kids, and returns the decoded payload only on a
// valid signature.
func (k *Keyring) VerifyJWS(jws string) (JWSVerifyResult, error) {
	parts := strings.Split(jws, ".")
	if len(parts) != 3 {
		return JWSVerifyResult{Valid: false}, nil
	}
	headerB64, payloadB64, sigB64 := parts[0], parts[1], parts[2]

	headerBytes, err := b64urlDecode(headerB64)
	if err != nil {
		return JWSVerifyResult{Valid: false}, nil
	}
	var header jwsHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return JWSVerifyResult{Valid: false}, nil
	}

	key, ok := k.Lookup(header.Kid)
	if !ok {
		return JWSVerifyResult{Valid: false, Kid: header.Kid}, nil
	}

	sig, err := b64urlDecode(sigB64)
	if err != nil {
		return JWSVerifyResult{Valid: false, Kid: header.Kid}, nil
	}
	signingInput := headerB64 + "." + payloadB64
	if !ed25519.Verify(key.VerifyKey, []byte(signingInput), sig) {
		return JWSVerifyResult{Valid: false, Kid: header.Kid}, nil
	}

	payloadBytes, err := b64urlDecode(payloadB64)
	if err != nil {
		return JWSVerifyResult{Valid: false, Kid: header.Kid}, nil
	}
	var payload map[string]any
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return JWSVerifyResult{Valid: false, Kid: header.Kid}, nil
	}

	return JWSVerifyResult{Valid: true, Kid: header.Kid, Payload: payload}, nil
}

func b64url(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func b64urlDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}

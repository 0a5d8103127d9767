package attestor

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"decisioncore/internal/canon"
)

// SignResult is the response shape for a raw bundle signature.
type SignResult struct {
	SignatureB64 string
	VerifyKeyB64 string
	DigestHex    string
	Kid          string
}

// SignBundle canonicalizes bundle, signs the canonical bytes with the active
// key, and returns the signature alongside the digest the caller can use to
// derive proof_id without recanonicalizing.
func (k *Keyring) SignBundle(bundle any) (SignResult, error) {
	canonical, digestHex, err := canon.Digest(bundle)
	if err != nil {
		return SignResult{}, fmt.Errorf("attestor: canonicalize bundle: %w", err)
	}
	active := k.Active()
	sig := ed25519.Sign(active.signingKey, canonical)
	return SignResult{
		SignatureB64: base64.StdEncoding.EncodeToString(sig),
		VerifyKeyB64: base64.StdEncoding.EncodeToString(active.VerifyKey),
		DigestHex:    digestHex,
		Kid:          active.Kid,
	}, nil
}

// VerifyResult is the response shape for bundle verification.
type VerifyResult struct {
	Valid  bool
	Kid    string
	Reason string
}

// VerifyBundle recanonicalizes bundle and verifies signatureB64 against the
// named kid (the active kid if kid is empty).
func (k *Keyring) VerifyBundle(bundle any, signatureB64, kid string) (VerifyResult, error) {
	if kid == "" {
		kid = k.ActiveKid()
	}
	key, ok := k.Lookup(kid)
	if !ok {
		return VerifyResult{Valid: false, Reason: "unknown_kid"}, nil
	}
	canonical, err := canon.Marshal(bundle)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("attestor: canonicalize bundle: %w", err)
	}
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return VerifyResult{Valid: false, Kid: kid}, nil
	}
	valid := ed25519.Verify(key.VerifyKey, canonical, sig)
	return VerifyResult{Valid: valid, Kid: kid}, nil
}

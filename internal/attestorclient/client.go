// Package attestorclient implements the Decision Engine's HTTP client to the
// Attestor service: raw bundle signing and JWS certificate issuance, over a
// plain (optionally TLS-verified) HTTP connection — the Attestor is a
// private collaborator, not a public-facing HSM proxy, so this client skips
// the mTLS machinery the teacher's hsm.Client uses and keeps only the
// bounded-timeout HTTP client shape.
package attestorclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config captures the attestor client's dependencies.
type Config struct {
	BaseURL            string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Client calls out to the Attestor's /sign and /sign_jws endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New builds an attestor client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("attestorclient: base url required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	transport := &http.Transport{}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
	}, nil
}

// SignResult mirrors the attestor's /sign response.
type SignResult struct {
	SignatureB64 string `json:"signature_b64"`
	PublicKeyB64 string `json:"public_key_b64"`
	DigestHex    string `json:"digest_hex"`
	Kid          string `json:"kid"`
}

// SignBundle requests a raw detached signature over bundle.
func (c *Client) SignBundle(ctx context.Context, bundle map[string]any) (SignResult, error) {
	var result SignResult
	err := c.post(ctx, "/sign", map[string]any{"bundle": bundle}, &result)
	return result, err
}

// JWSResult mirrors the attestor's /sign_jws response.
type JWSResult struct {
	Kid string `json:"kid"`
	JWS string `json:"jws"`
}

// SignJWS requests a compact JWS certificate over payload.
func (c *Client) SignJWS(ctx context.Context, payload map[string]any) (JWSResult, error) {
	var result JWSResult
	err := c.post(ctx, "/sign_jws", map[string]any{"payload": payload}, &result)
	return result, err
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("attestorclient: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("attestorclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("attestorclient: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("attestorclient: status=%d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("attestorclient: decode response: %w", err)
	}
	return nil
}

// Package oracle implements the Decision Engine's client to the external
// one-bit oracle: an opaque yes/no check the engine consults when policy
// yields NEED_ONE_BIT. The oracle is allowed to be slow, lossy, or
// unavailable; this client's only job is converting that unreliability into
// a bounded-latency bool-or-error the engine can act on.
package oracle

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrUnreachable is returned when the oracle call times out or the
// connection fails outright. The engine converts this into a signed
// HOLD_HUMAN decision carrying the "oracle_unreachable" obligation.
var ErrUnreachable = errors.New("oracle: unreachable")

// Config captures the oracle client's dependencies.
type Config struct {
	BaseURL            string
	Timeout            time.Duration
	InsecureSkipVerify bool
}

// Client calls the one-bit oracle's check endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New builds an oracle client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("oracle: base url required")
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

// Request is the opaque payload the oracle accepts.
type Request struct {
	Type  string `json:"type"`
	TxID  string `json:"tx_id,omitempty"`
	Force *bool  `json:"force,omitempty"`
}

// Result is the oracle's opaque response; the engine only consumes Bit.
type Result struct {
	Bit       bool `json:"bit"`
	LatencyMs int  `json:"latency_ms"`
}

// Check asks the oracle for its one bit. Any transport failure or context
// deadline is normalized to ErrUnreachable so callers never need to
// distinguish timeout from connection refused.
func (c *Client) Check(ctx context.Context, req Request) (Result, error) {
	buf, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("oracle: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/check", bytes.NewReader(buf))
	if err != nil {
		return Result{}, fmt.Errorf("oracle: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, ErrUnreachable
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return Result{}, ErrUnreachable
	}
	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Result{}, ErrUnreachable
	}
	return result, nil
}

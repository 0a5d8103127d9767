// Package engine implements the Decision Engine: the single decide()
// operation that orchestrates the Policy Kernel, the One-Bit Oracle, the
// Attestor, and the Ledger into one signed, idempotent decision.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"decisioncore/internal/apierr"
	"decisioncore/internal/attestorclient"
	"decisioncore/internal/canon"
	"decisioncore/internal/kernel"
	"decisioncore/internal/ledger"
	"decisioncore/internal/metrics"
	"decisioncore/internal/oracle"
	"decisioncore/internal/params"
)

// ParamSource is the read side of the Parameter Store the engine depends
// on. A consistent snapshot must be read once per decision; the kernel
// snapshot and the param_hash embedded in the bundle always come from the
// same read.
type ParamSource interface {
	Snapshot() (kernel.Snapshot, error)
}

var _ ParamSource = (*params.Store)(nil)

// Request is a decision request's wire-level inputs.
type Request struct {
	Amount    float64
	Country   string
	Ts        time.Time
	Recent    int
	ContextID string
}

// Result is the full response the Decision Engine returns, including the
// JWS certificate.
type Result struct {
	Decision       kernel.Decision
	Obligations    []string
	KernelID       string
	ParamHash      string
	Kid            string
	SignatureB64   string
	ProofID        string
	CertificateJWS string
}

// Engine wires the kernel, oracle, attestor client, and ledger together.
type Engine struct {
	Params       ParamSource
	Attestor     *attestorclient.Client
	Oracle       *oracle.Client
	Ledger       *ledger.Store
	OracleBudget time.Duration
	Now          func() time.Time
}

// New builds an Engine with a 5s oracle budget unless overridden.
func New(paramsSrc ParamSource, attestor *attestorclient.Client, oracleClient *oracle.Client, ledgerStore *ledger.Store) *Engine {
	return &Engine{
		Params:       paramsSrc,
		Attestor:     attestor,
		Oracle:       oracleClient,
		Ledger:       ledgerStore,
		OracleBudget: 5 * time.Second,
		Now:          func() time.Time { return time.Now().UTC() },
	}
}

// Decide implements spec.md §4.E steps 1-10.
func (e *Engine) Decide(ctx context.Context, req Request, idempotencyKeyHeader string) (Result, error) {
	start := time.Now()
	if req.Amount < 0 {
		return Result{}, apierr.New(apierr.Validation, "amount must be non-negative")
	}
	if req.Country == "" {
		return Result{}, apierr.New(apierr.Validation, "country required")
	}
	if req.Recent < 0 {
		return Result{}, apierr.New(apierr.Validation, "recent must be non-negative")
	}

	// Step 1: compute the effective idempotency key.
	idemKey, err := effectiveIdemKey(idempotencyKeyHeader, req)
	if err != nil {
		return Result{}, apierr.Wrap(apierr.Internal, "compute idempotency key", err)
	}

	// Step 2: idempotency lookup. On hit, return the cached response verbatim.
	if cached, ok, err := e.Ledger.Lookup(idemKey); err != nil {
		return Result{}, apierr.Wrap(apierr.Internal, "idempotency lookup", err)
	} else if ok {
		metrics.Registry().RecordIdempotencyHit()
		result, err := resultFromRow(cached)
		if err == nil {
			metrics.Registry().ObserveDecision(string(result.Decision), time.Since(start))
		}
		return result, err
	}

	// Step 3: evaluate the kernel against a pinned parameter snapshot.
	snapshot, err := e.Params.Snapshot()
	if err != nil {
		return Result{}, apierr.Wrap(apierr.Internal, "read parameter snapshot", err)
	}
	kernelResult := kernel.Decide(kernel.Inputs{
		Amount:  req.Amount,
		Country: req.Country,
		Ts:      req.Ts,
		Recent:  req.Recent,
	}, snapshot)

	decision := kernelResult.Decision
	obligations := append([]string{}, kernelResult.Obligations...)

	// Step 4: resolve NEED_ONE_BIT before anything is signed.
	if decision == kernel.NeedOneBit {
		decision, obligations = e.resolveOneBit(ctx, req, obligations)
	}
	if decision == kernel.NeedOneBit {
		// Post-condition: NEED_ONE_BIT must never reach the bundle.
		return Result{}, apierr.New(apierr.Internal, "kernel decision unresolved before signing")
	}

	// Step 5: build the canonical bundle; the timestamp is set here.
	bundleTs := e.Now().UTC().Truncate(time.Second)
	bundle := map[string]any{
		"ts":          bundleTs.Format(time.RFC3339),
		"decision":    string(decision),
		"obligations": toAnySlice(obligations),
		"kernel_id":   kernelResult.KernelID,
		"param_hash":  kernelResult.ParamHash,
		"inputs": map[string]any{
			"amount":     req.Amount,
			"country":    req.Country,
			"ts":         req.Ts.UTC().Format(time.RFC3339),
			"recent":     req.Recent,
			"context_id": req.ContextID,
		},
	}

	// Step 6: raw signature from the Attestor.
	signed, err := e.Attestor.SignBundle(ctx, bundle)
	if err != nil {
		return Result{}, apierr.Wrap(apierr.AttestorUnavailable, "attestor sign bundle", err)
	}
	metrics.Registry().ObserveAttestorSign("sign_bundle")

	// Step 7: compute proof_id = SHA-256(canonical_bundle || "|" || signature_b64).
	canonicalBundle, err := canon.Marshal(bundle)
	if err != nil {
		return Result{}, apierr.Wrap(apierr.Internal, "canonicalize bundle", err)
	}
	proofID := computeProofID(canonicalBundle, signed.SignatureB64)

	// Step 8: JWS certificate; its kid must equal the raw signature's kid.
	certPayload := map[string]any{
		"sub":         "decision",
		"ts":          bundle["ts"],
		"decision":    bundle["decision"],
		"kernel_id":   bundle["kernel_id"],
		"param_hash":  bundle["param_hash"],
		"inputs":      bundle["inputs"],
		"obligations": bundle["obligations"],
		"proof_id":    proofID,
	}
	jwsResult, err := e.Attestor.SignJWS(ctx, certPayload)
	if err != nil {
		return Result{}, apierr.Wrap(apierr.AttestorUnavailable, "attestor sign jws", err)
	}
	metrics.Registry().ObserveAttestorSign("sign_jws")
	if jwsResult.Kid != signed.Kid {
		return Result{}, apierr.New(apierr.Internal, "jws kid does not match raw signature kid")
	}

	result := Result{
		Decision:       decision,
		Obligations:    obligations,
		KernelID:       kernelResult.KernelID,
		ParamHash:      kernelResult.ParamHash,
		Kid:            signed.Kid,
		SignatureB64:   signed.SignatureB64,
		ProofID:        proofID,
		CertificateJWS: jwsResult.JWS,
	}

	// Step 9: append to the ledger transactionally with the idempotency
	// cache write; on a unique-key race, the loser returns the winner's row.
	responseJSON, err := json.Marshal(result)
	if err != nil {
		return Result{}, apierr.Wrap(apierr.Internal, "marshal response", err)
	}
	appendResult, err := e.Ledger.Append(ledger.Row{
		TsInserted:     e.Now().UTC(),
		ProofID:        proofID,
		KernelID:       kernelResult.KernelID,
		ParamHash:      kernelResult.ParamHash,
		Kid:            signed.Kid,
		Bundle:         string(canonicalBundle),
		CertificateJWS: jwsResult.JWS,
		IdempotencyKey: idemKey,
		Response:       string(responseJSON),
	})
	if err != nil {
		return Result{}, apierr.Wrap(apierr.StorageConflict, "ledger append", err)
	}
	if appendResult.Raced {
		metrics.Registry().RecordIdempotencyRace()
		raced, err := resultFromRow(appendResult.Row)
		if err == nil {
			metrics.Registry().ObserveDecision(string(raced.Decision), time.Since(start))
		}
		return raced, err
	}

	metrics.Registry().ObserveDecision(string(result.Decision), time.Since(start))

	// Step 10.
	return result, nil
}

func (e *Engine) resolveOneBit(ctx context.Context, req Request, obligations []string) (kernel.Decision, []string) {
	oracleCtx, cancel := context.WithTimeout(ctx, e.OracleBudget)
	defer cancel()

	result, err := e.Oracle.Check(oracleCtx, oracle.Request{Type: "decision_check", TxID: req.ContextID})
	if err != nil {
		metrics.Registry().ObserveOracleCall("unreachable")
		return kernel.HoldHuman, append(obligations, "oracle_unreachable")
	}
	obligations = append(obligations, "worldcheck_queried")
	if result.Bit {
		metrics.Registry().ObserveOracleCall("pass")
		return kernel.Pass, obligations
	}
	metrics.Registry().ObserveOracleCall("hold")
	return kernel.HoldHuman, obligations
}

func effectiveIdemKey(header string, req Request) (string, error) {
	if header != "" {
		return header, nil
	}
	canonical, err := canon.Marshal(map[string]any{
		"amount":     req.Amount,
		"country":    req.Country,
		"ts":         req.Ts.UTC().Format(time.RFC3339),
		"recent":     req.Recent,
		"context_id": req.ContextID,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return "auto:" + hex.EncodeToString(sum[:]), nil
}

func computeProofID(canonicalBundle []byte, signatureB64 string) string {
	payload := append(append([]byte{}, canonicalBundle...), []byte("|"+signatureB64)...)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func toAnySlice(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// resultFromRow reconstructs the full Result from a previously committed
// row's cached response, so an idempotency hit returns the exact same
// decision, obligations, and signature the original caller saw — not just
// the fields persisted as dedicated columns.
func resultFromRow(row ledger.Row) (Result, error) {
	var result Result
	if err := json.Unmarshal([]byte(row.Response), &result); err != nil {
		return Result{}, apierr.Wrap(apierr.Internal, "decode cached response", err)
	}
	return result, nil
}

package anchor

import (
	"context"
	"log/slog"
	"time"

	"decisioncore/internal/attestorclient"
	"decisioncore/internal/ledger"
	"decisioncore/internal/metrics"
)

// WorkerConfig configures the anchor cycle cadence and batch size.
type WorkerConfig struct {
	Store     *ledger.Store
	Attestor  *attestorclient.Client
	Interval  time.Duration
	BatchSize int
	Logger    *slog.Logger
}

// Worker is the long-running periodic task that Merkle-roots new ledger
// ranges, has the Attestor sign the anchor bundle, and records the anchor
// row back to the ledger.
type Worker struct {
	store     *ledger.Store
	attestor  *attestorclient.Client
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

// NewWorker builds an anchor Worker with sane defaults for interval/batch size.
func NewWorker(cfg WorkerConfig) *Worker {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 1000
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		store:     cfg.Store,
		attestor:  cfg.Attestor,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run loops until ctx is cancelled, anchoring a new range each cycle. Errors
// are logged and the next cycle runs after the usual interval; a failed
// cycle never advances the anchor pointer, so the next cycle retries the
// same range.
func (w *Worker) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if err := w.cycle(ctx); err != nil {
				w.logger.Error("anchor cycle failed", "error", err)
			}
			timer.Reset(w.interval)
		}
	}
}

func (w *Worker) cycle(ctx context.Context) error {
	cycleStart := time.Now()
	maxAnchored, err := w.store.MaxAnchoredID()
	if err != nil {
		return err
	}
	start := maxAnchored + 1

	rows, err := w.store.ReadFrom(start, w.batchSize)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	proofIDs := make([]string, len(rows))
	for i, row := range rows {
		proofIDs[i] = row.ProofID
	}
	root := MerkleRoot(proofIDs)
	fromID := rows[0].ID
	toID := rows[len(rows)-1].ID

	bundle := map[string]any{
		"type":        "anchor",
		"from_id":     fromID,
		"to_id":       toID,
		"merkle_root": root,
	}
	signed, err := w.attestor.SignBundle(ctx, bundle)
	if err != nil {
		return err
	}

	if err := w.store.AppendAnchor(ledger.AnchorRow{
		FromID:            fromID,
		ToID:              toID,
		MerkleRoot:        root,
		AttestorSignature: signed.SignatureB64,
		AttestorKid:       signed.Kid,
		CreatedAt:         time.Now().UTC(),
	}); err != nil {
		return err
	}
	metrics.Registry().ObserveAnchorCycle(time.Since(cycleStart), len(rows))
	return nil
}

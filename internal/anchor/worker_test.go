package anchor

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"decisioncore/internal/attestor"
	"decisioncore/internal/attestorclient"
	"decisioncore/internal/ledger"
)

func newTestLedger(t *testing.T) *ledger.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, ledger.AutoMigrate(db))
	return ledger.New(db)
}

func newTestAttestorClient(t *testing.T) *attestorclient.Client {
	t.Helper()
	kr, err := attestor.NewKeyring(map[string][]byte{"k1": []byte("seed")}, "k1")
	require.NoError(t, err)
	srv := httptest.NewServer(attestor.NewServer(kr, nil))
	t.Cleanup(srv.Close)

	client, err := attestorclient.New(attestorclient.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return client
}

func TestWorkerCycleAnchorsNewRows(t *testing.T) {
	store := newTestLedger(t)
	for i := 0; i < 3; i++ {
		_, err := store.Append(ledger.Row{ProofID: "proof", IdempotencyKey: idemKey(i)})
		require.NoError(t, err)
	}

	w := NewWorker(WorkerConfig{Store: store, Attestor: newTestAttestorClient(t), BatchSize: 10})
	require.NoError(t, w.cycle(context.Background()))

	maxAnchored, err := store.MaxAnchoredID()
	require.NoError(t, err)
	require.Equal(t, int64(3), maxAnchored)
}

func TestWorkerCycleIsIdempotentWhenNothingNew(t *testing.T) {
	store := newTestLedger(t)
	_, err := store.Append(ledger.Row{ProofID: "proof", IdempotencyKey: "only"})
	require.NoError(t, err)

	w := NewWorker(WorkerConfig{Store: store, Attestor: newTestAttestorClient(t), BatchSize: 10})
	require.NoError(t, w.cycle(context.Background()))
	require.NoError(t, w.cycle(context.Background()))

	maxAnchored, err := store.MaxAnchoredID()
	require.NoError(t, err)
	require.Equal(t, int64(1), maxAnchored)
}

func idemKey(i int) string {
	return string(rune('a' + i))
}

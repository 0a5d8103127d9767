package ledger

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return New(db)
}

func TestAppendAndLookup(t *testing.T) {
	store := newTestStore(t)
	row := Row{ProofID: "p1", KernelID: "k1", ParamHash: "h1", Kid: "kid1", Bundle: "{}", CertificateJWS: "a.b.c", IdempotencyKey: "idem-1", Response: "{}"}

	result, err := store.Append(row)
	require.NoError(t, err)
	require.False(t, result.Raced)
	require.NotZero(t, result.Row.ID)

	found, ok, err := store.Lookup("idem-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "p1", found.ProofID)
}

func TestAppendRaceReturnsWinner(t *testing.T) {
	store := newTestStore(t)
	first := Row{ProofID: "p1", IdempotencyKey: "idem-race", Response: "first"}
	second := Row{ProofID: "p2", IdempotencyKey: "idem-race", Response: "second"}

	r1, err := store.Append(first)
	require.NoError(t, err)
	require.False(t, r1.Raced)

	r2, err := store.Append(second)
	require.NoError(t, err)
	require.True(t, r2.Raced)
	require.Equal(t, "p1", r2.Row.ProofID)
	require.Equal(t, r1.Row.ID, r2.Row.ID)
}

func TestReadFromAscendingOrder(t *testing.T) {
	store := newTestStore(t)
	for i := 0; i < 5; i++ {
		_, err := store.Append(Row{ProofID: "p", IdempotencyKey: idemKeyFor(i)})
		require.NoError(t, err)
	}
	rows, err := store.ReadFrom(1, 1000)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	for i := 1; i < len(rows); i++ {
		require.Less(t, rows[i-1].ID, rows[i].ID)
	}
}

func TestMaxAnchoredIDEmpty(t *testing.T) {
	store := newTestStore(t)
	max, err := store.MaxAnchoredID()
	require.NoError(t, err)
	require.Zero(t, max)
}

func idemKeyFor(i int) string {
	return string(rune('a' + i))
}

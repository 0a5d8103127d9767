package params

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParamHashChangesOnMutationAndRestoresOnRevert(t *testing.T) {
	store := New()
	h1, err := store.ParamHash()
	require.NoError(t, err)

	h2, err := store.UpsertThreshold("amount_max", DefaultAmountMax+1)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)

	h3, err := store.UpsertThreshold("amount_max", DefaultAmountMax)
	require.NoError(t, err)
	require.Equal(t, h1, h3)
}

func TestParamHashIsContentOnlyNotMutationHistory(t *testing.T) {
	a := New()
	b := New()
	_, err := a.UpsertThreshold("amount_max", 2000)
	require.NoError(t, err)
	_, err = a.UpsertThreshold("amount_max", 3000)
	require.NoError(t, err)

	_, err = b.UpsertThreshold("amount_max", 3000)
	require.NoError(t, err)

	ha, err := a.ParamHash()
	require.NoError(t, err)
	hb, err := b.ParamHash()
	require.NoError(t, err)
	require.Equal(t, ha, hb)
}

func TestAllowlistMutationChangesHash(t *testing.T) {
	store := New()
	h1, err := store.ParamHash()
	require.NoError(t, err)

	h2, err := store.MutateAllowlist("RU", AllowlistAdd)
	require.NoError(t, err)
	require.NotEqual(t, h1, h2)

	h3, err := store.MutateAllowlist("RU", AllowlistRemove)
	require.NoError(t, err)
	require.Equal(t, h1, h3)
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	store := New()
	snap, err := store.Snapshot()
	require.NoError(t, err)
	snap.Allowlist["ZZ"] = true

	snap2, err := store.Snapshot()
	require.NoError(t, err)
	require.False(t, snap2.Allowlist["ZZ"])
}

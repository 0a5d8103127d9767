package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFromEnvRequiresSeeds(t *testing.T) {
	t.Setenv("ATTESTOR_SEEDS", "")
	t.Setenv("ATTESTOR_ACTIVE_KID", "")
	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("ATTESTOR_SEEDS", "ed25519:k1:deadbeef")
	t.Setenv("ATTESTOR_ACTIVE_KID", "k1")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, "US", cfg.DefaultCountry)
	require.Equal(t, 10*time.Second, cfg.AnchorInterval)
	require.Equal(t, 1000, cfg.AnchorBatchSize)
	require.False(t, cfg.OracleInsecureSkipVerify)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ATTESTOR_SEEDS", "ed25519:k1:deadbeef")
	t.Setenv("ATTESTOR_ACTIVE_KID", "k1")
	t.Setenv("HTTP_ADDR", "9090")
	t.Setenv("ANCHOR_INTERVAL", "30s")
	t.Setenv("ANCHOR_BATCH_SIZE", "50")
	t.Setenv("ORACLE_INSECURE_SKIP_VERIFY", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.Equal(t, 30*time.Second, cfg.AnchorInterval)
	require.Equal(t, 50, cfg.AnchorBatchSize)
	require.True(t, cfg.OracleInsecureSkipVerify)
}

package attestor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testKeyring(t *testing.T) *Keyring {
	t.Helper()
	kr, err := NewKeyring(map[string][]byte{
		"k1": []byte("seed-one"),
		"k2": []byte("seed-two"),
	}, "k1")
	require.NoError(t, err)
	return kr
}

func TestSignAndVerifyBundleRoundTrips(t *testing.T) {
	kr := testKeyring(t)
	bundle := map[string]any{"decision": "PASS", "amount": 100}

	result, err := kr.SignBundle(bundle)
	require.NoError(t, err)
	require.Equal(t, "k1", result.Kid)

	verify, err := kr.VerifyBundle(bundle, result.SignatureB64, "")
	require.NoError(t, err)
	require.True(t, verify.Valid)
	require.Equal(t, "k1", verify.Kid)
}

func TestVerifyBundleUnknownKid(t *testing.T) {
	kr := testKeyring(t)
	bundle := map[string]any{"a": 1}
	result, err := kr.SignBundle(bundle)
	require.NoError(t, err)

	verify, err := kr.VerifyBundle(bundle, result.SignatureB64, "missing")
	require.NoError(t, err)
	require.False(t, verify.Valid)
	require.Equal(t, "unknown_kid", verify.Reason)
}

func TestVerifyBundleTamperedFails(t *testing.T) {
	kr := testKeyring(t)
	bundle := map[string]any{"a": 1}
	result, err := kr.SignBundle(bundle)
	require.NoError(t, err)

	tampered := map[string]any{"a": 2}
	verify, err := kr.VerifyBundle(tampered, result.SignatureB64, result.Kid)
	require.NoError(t, err)
	require.False(t, verify.Valid)
}

func TestRotationKeepsOldKidVerifiable(t *testing.T) {
	kr := testKeyring(t)
	bundle := map[string]any{"a": 1}
	result, err := kr.SignBundle(bundle)
	require.NoError(t, err)
	require.Equal(t, "k1", result.Kid)

	require.NoError(t, kr.SetActiveKid("k2"))
	require.Equal(t, "k2", kr.ActiveKid())

	verify, err := kr.VerifyBundle(bundle, result.SignatureB64, "k1")
	require.NoError(t, err)
	require.True(t, verify.Valid)
}

func TestSignAndVerifyJWSRoundTrips(t *testing.T) {
	kr := testKeyring(t)
	payload := map[string]any{"sub": "decision", "proof_id": "abc123"}

	kid, jws, err := kr.SignJWS(payload)
	require.NoError(t, err)
	require.Equal(t, "k1", kid)

	verify, err := kr.VerifyJWS(jws)
	require.NoError(t, err)
	require.True(t, verify.Valid)
	require.Equal(t, "abc123", verify.Payload["proof_id"])
}

func TestVerifyJWSRejectsMalformed(t *testing.T) {
	kr := testKeyring(t)
	verify, err := kr.VerifyJWS("only.two")
	require.NoError(t, err)
	require.False(t, verify.Valid)
}

func TestVerifyJWSRejectsTamperedPayload(t *testing.T) {
	kr := testKeyring(t)
	_, jws, err := kr.SignJWS(map[string]any{"a": 1})
	require.NoError(t, err)

	parts := splitJWS(jws)
	tampered := parts[0] + ".bm90dGhlc2FtZQ." + parts[2]

	verify, err := kr.VerifyJWS(tampered)
	require.NoError(t, err)
	require.False(t, verify.Valid)
}

func splitJWS(jws string) [3]string {
	var out [3]string
	start := 0
	idx := 0
	for i := 0; i < len(jws); i++ {
		if jws[i] == '.' {
			out[idx] = jws[start:i]
			idx++
			start = i + 1
		}
	}
	out[idx] = jws[start:]
	return out
}

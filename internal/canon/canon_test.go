package canon

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalSortsKeys(t *testing.T) {
	in := map[string]any{"b": 1, "a": 2, "c": map[string]any{"z": 1, "y": 2}}
	out, err := Marshal(in)
	require.NoError(t, err)
	require.Equal(t, `{"a":2,"b":1,"c":{"y":2,"z":1}}`, string(out))
}

func TestMarshalIsDeterministicAcrossMapIteration(t *testing.T) {
	for i := 0; i < 20; i++ {
		in := map[string]any{"zeta": 1, "alpha": 2, "mid": 3, "inner": map[string]any{"d": 1, "a": 2}}
		out, err := Marshal(in)
		require.NoError(t, err)
		require.Equal(t, `{"alpha":2,"inner":{"a":2,"d":1},"mid":3,"zeta":1}`, string(out))
	}
}

func TestMarshalPreservesArrayOrder(t *testing.T) {
	in := map[string]any{"obligations": []any{"b", "a", "c"}}
	out, err := Marshal(in)
	require.NoError(t, err)
	require.Equal(t, `{"obligations":["b","a","c"]}`, string(out))
}

func TestMarshalIntegerVsFloat(t *testing.T) {
	out, err := Marshal(map[string]any{"amount": 100})
	require.NoError(t, err)
	require.Equal(t, `{"amount":100}`, string(out))

	out, err = Marshal(map[string]any{"amount": 100.50})
	require.NoError(t, err)
	require.Equal(t, `{"amount":100.5}`, string(out))
}

func TestDigestMatchesMarshal(t *testing.T) {
	v := map[string]any{"a": 1}
	canonical, digest, err := Digest(v)
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, string(canonical))
	require.Len(t, digest, 64)
}

package params

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestServerRejectsMissingToken(t *testing.T) {
	srv := NewServer(New(), "s3cret", nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/param/hash")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServerThresholdMutationChangesHash(t *testing.T) {
	srv := NewServer(New(), "s3cret", nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	before := getHash(t, ts.URL, "s3cret")

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/param/threshold", strings.NewReader(`{"k":"amount_max","v":5000}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	after := getHash(t, ts.URL, "s3cret")
	require.NotEqual(t, before, after)
}

func getHash(t *testing.T, baseURL, token string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, baseURL+"/param/hash", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out["param_hash"].(string)
}

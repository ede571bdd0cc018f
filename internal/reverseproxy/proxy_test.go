package reverseproxy

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auroraswarm/swarm/internal/hostfile"
)

func endpointFromURL(t *testing.T, rawURL string) hostfile.Endpoint {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return hostfile.Endpoint{Host: host, Port: port, Tags: map[string]string{}}
}

func TestProxyForward_EchoGenerate(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("X-Timeout"))
		var body struct {
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "echo: " + body.Prompt})
	}))
	t.Cleanup(downstream.Close)

	srv := New([]hostfile.Endpoint{endpointFromURL(t, downstream.URL)}, 0, 0)
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	reqBody := strings.NewReader(`{"prompt":"x"}`)
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/agent/0/generate", reqBody)
	require.NoError(t, err)
	req.Header.Set("X-Timeout", "9.5")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "echo: x", got["response"])
}

func TestProxyForward_IndexOutOfRange(t *testing.T) {
	srv := New(nil, 0, 0)
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/agent/99/anything")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Contains(t, got["error"], "out of range")
}

func TestHealthAndStatus(t *testing.T) {
	srv := New([]hostfile.Endpoint{{Host: "127.0.0.1", Port: 9000, Tags: map[string]string{"role": "x"}}}, 0, 0)
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp2, err := http.Get(ts.URL + "/status")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var status map[string]any
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&status))
	assert.Equal(t, float64(1), status["agents"])
}

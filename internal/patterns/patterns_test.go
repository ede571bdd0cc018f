package patterns

import (
	"context"
	"encoding/json"
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
	"github.com/auroraswarm/swarm/internal/protocol"
	"github.com/auroraswarm/swarm/internal/swarmpool"
)

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "echo: " + body.Prompt})
	}))
	t.Cleanup(srv.Close)
	return srv
}

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

func newPool(t *testing.T, n int) *swarmpool.Pool {
	t.Helper()
	srv := echoServer(t)
	ep := endpointFromURL(t, srv.URL)
	endpoints := make([]hostfile.Endpoint, n)
	for i := range endpoints {
		endpoints[i] = ep
	}
	pool := swarmpool.New(endpoints, &protocol.SimpleGenerate{}, swarmpool.Config{})
	t.Cleanup(pool.Close)
	return pool
}

func TestBroadcast_FourAgents(t *testing.T) {
	pool := newPool(t, 4)
	responses := Broadcast(context.Background(), pool, "hi")
	require.Len(t, responses, 4)
	for i, r := range responses {
		assert.True(t, r.Success)
		assert.Equal(t, "echo: hi", r.Text)
		assert.Equal(t, i, r.AgentIndex)
	}
}

func TestTreeReduce_EightLeavesFaninFour(t *testing.T) {
	pool := newPool(t, 8)
	resp := TreeReduce(context.Background(), pool, "leaf", "Summarise level {level}: {responses}", 4, nil)
	require.True(t, resp.Success)
	assert.Contains(t, resp.Text, "Summarise level 2")
}

func TestTreeReduce_FaninGreaterThanLeaves(t *testing.T) {
	pool := newPool(t, 3)
	resp := TreeReduce(context.Background(), pool, "leaf", "Summarise level {level}: {responses}", 10, nil)
	require.True(t, resp.Success)
	assert.Contains(t, resp.Text, "Summarise level 1")
}

func TestBlackboard_TwoRoundsTwoRoles(t *testing.T) {
	srv := echoServer(t)
	ep := endpointFromURL(t, srv.URL)

	endpoints := []hostfile.Endpoint{
		{Host: ep.Host, Port: ep.Port, Tags: map[string]string{"role": "hypotheses"}},
		{Host: ep.Host, Port: ep.Port, Tags: map[string]string{"role": "hypotheses"}},
		{Host: ep.Host, Port: ep.Port, Tags: map[string]string{"role": "critiques"}},
		{Host: ep.Host, Port: ep.Port, Tags: map[string]string{"role": "critiques"}},
	}
	pool := swarmpool.New(endpoints, &protocol.SimpleGenerate{}, swarmpool.Config{})
	t.Cleanup(pool.Close)

	promptFn := func(role string, board map[string][]string) string {
		return "contribute to " + role
	}
	bb := NewBlackboard([]string{"hypotheses", "critiques"}, promptFn)

	board := bb.Run(context.Background(), pool, 2, nil)
	assert.Len(t, board["hypotheses"], 4)
	assert.Len(t, board["critiques"], 4)
	assert.Equal(t, 2, bb.Round())
}

func TestPipeline_DefaultTransformJoinsSuccessfulTexts(t *testing.T) {
	pool := newPool(t, 2)
	stages := []Stage{
		{Name: "stage-1", PromptTemplate: "start: {input}", NumAgents: 2},
	}
	result := RunPipeline(context.Background(), pool, stages, "seed", true)
	text, ok := result.(string)
	require.True(t, ok)
	assert.True(t, strings.Contains(text, "echo: start: seed"))
}

func TestScatterGather_WrapsRoundRobin(t *testing.T) {
	pool := newPool(t, 2)
	responses := ScatterGather(context.Background(), pool, []string{"a", "b", "c"})
	require.Len(t, responses, 3)
	assert.Equal(t, 0, responses[0].AgentIndex)
	assert.Equal(t, 1, responses[1].AgentIndex)
	assert.Equal(t, 0, responses[2].AgentIndex)
}

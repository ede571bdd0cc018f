package swarmpool

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auroraswarm/swarm/internal/hostfile"
	"github.com/auroraswarm/swarm/internal/protocol"
	"github.com/auroraswarm/swarm/pkg/eventbus"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func echoGenerateHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "echo:" + body.Prompt})
	}
}

// endpointFromURL turns an httptest server URL into a hostfile.Endpoint
// pointing at the same host:port.
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

func TestSendAll_OrderAndLength(t *testing.T) {
	srv := newTestServer(t, echoGenerateHandler(t))
	ep := endpointFromURL(t, srv.URL)

	pool := New([]hostfile.Endpoint{ep, ep, ep}, &protocol.SimpleGenerate{}, Config{})
	defer pool.Close()

	prompts := []string{"a", "b", "c", "d", "e"}
	responses := pool.SendAll(context.Background(), prompts)

	require.Len(t, responses, len(prompts))
	for i, r := range responses {
		assert.True(t, r.Success)
		assert.Equal(t, "echo:"+prompts[i], r.Text)
	}
}

func TestSendAll_Empty(t *testing.T) {
	ep := endpointFromURL(t, "http://127.0.0.1:1")
	pool := New([]hostfile.Endpoint{ep}, &protocol.SimpleGenerate{}, Config{})
	defer pool.Close()

	responses := pool.SendAll(context.Background(), nil)
	assert.Empty(t, responses)
}

func TestBroadcast_OrderedBySize(t *testing.T) {
	srv := newTestServer(t, echoGenerateHandler(t))
	ep := endpointFromURL(t, srv.URL)

	pool := New([]hostfile.Endpoint{ep, ep, ep, ep}, &protocol.SimpleGenerate{}, Config{})
	defer pool.Close()

	responses := pool.Broadcast(context.Background(), "hi")
	require.Len(t, responses, 4)
	for i, r := range responses {
		assert.True(t, r.Success)
		assert.Equal(t, i, r.AgentIndex)
		assert.Equal(t, "echo:hi", r.Text)
	}
}

func TestSubpool_PreservesGlobalIndices(t *testing.T) {
	ep := func(tag string) hostfile.Endpoint {
		return hostfile.Endpoint{Host: "127.0.0.1", Port: 9000, Tags: map[string]string{"role": tag}}
	}
	endpoints := []hostfile.Endpoint{ep("a"), ep("b"), ep("a"), ep("b"), ep("a")}
	pool := New(endpoints, &protocol.SimpleGenerate{}, Config{})
	defer pool.Close()

	sub := pool.ByTag("role", "a")
	assert.Equal(t, []int{0, 2, 4}, sub.GlobalIndices())

	sub2 := pool.Select([]int{3, 1})
	assert.Equal(t, []int{3, 1}, sub2.GlobalIndices())

	sub3 := pool.Slice(1, 4)
	assert.Equal(t, []int{1, 2, 3}, sub3.GlobalIndices())
}

func TestSample_ClampsToSize(t *testing.T) {
	endpoints := make([]hostfile.Endpoint, 3)
	for i := range endpoints {
		endpoints[i] = hostfile.Endpoint{Host: "127.0.0.1", Port: 9000 + i, Tags: map[string]string{}}
	}
	pool := New(endpoints, &protocol.SimpleGenerate{}, Config{})
	defer pool.Close()

	sample := pool.Sample(100)
	assert.Equal(t, 3, sample.Size())

	seen := append([]int(nil), sample.GlobalIndices()...)
	sort.Ints(seen)
	assert.Equal(t, []int{0, 1, 2}, seen)
}

func TestAgentBaseURL_UsesGlobalIndexWhenProxied(t *testing.T) {
	endpoints := []hostfile.Endpoint{
		{Host: "127.0.0.1", Port: 9000, Tags: map[string]string{}},
		{Host: "127.0.0.1", Port: 9001, Tags: map[string]string{}},
		{Host: "127.0.0.1", Port: 9002, Tags: map[string]string{}},
	}
	pool := New(endpoints, &protocol.SimpleGenerate{}, Config{ProxyURL: "http://proxy:9090"})
	defer pool.Close()

	sub := pool.Select([]int{2, 0})
	assert.Equal(t, "http://proxy:9090/agent/2", sub.agentBaseURL(0))
	assert.Equal(t, "http://proxy:9090/agent/0", sub.agentBaseURL(1))
}

func TestSend_OutOfRangeIndex(t *testing.T) {
	ep := endpointFromURL(t, "http://127.0.0.1:1")
	pool := New([]hostfile.Endpoint{ep}, &protocol.SimpleGenerate{}, Config{})
	defer pool.Close()

	resp := pool.Send(context.Background(), 5, "hi", 0)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "out of range")
}

// TestSend_RespectsPoolTimeout confirms a hung backend is bounded by the
// pool's configured timeout rather than the caller's context, and that
// expiry surfaces as a failure Response instead of blocking forever.
func TestSend_RespectsPoolTimeout(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-block
	})
	ep := endpointFromURL(t, srv.URL)

	pool := New([]hostfile.Endpoint{ep}, &protocol.SimpleGenerate{}, Config{Timeout: 50 * time.Millisecond})
	defer pool.Close()

	start := time.Now()
	resp := pool.Send(context.Background(), 0, "hi", 0)
	elapsed := time.Since(start)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "timed out")
	assert.Less(t, elapsed, 5*time.Second, "Send should bound the call to the pool timeout, not hang")
}

// TestPool_PublishesToEventBus wires a real eventbus.EventBus[Response] in
// as Config.EventBus and confirms every dispatched Response actually flows
// through it to a live subscriber, not just through an interface that
// nothing ever satisfies.
func TestPool_PublishesToEventBus(t *testing.T) {
	srv := newTestServer(t, echoGenerateHandler(t))
	ep := endpointFromURL(t, srv.URL)

	bus := eventbus.New[Response]()
	t.Cleanup(bus.Shutdown)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, unsubscribe := bus.Subscribe(ctx)
	defer unsubscribe()

	pool := New([]hostfile.Endpoint{ep, ep}, &protocol.SimpleGenerate{}, Config{EventBus: bus})
	defer pool.Close()

	responses := pool.Broadcast(context.Background(), "hi")
	require.Len(t, responses, 2)

	seen := 0
	for seen < len(responses) {
		select {
		case r := <-events:
			assert.True(t, r.Success)
			seen++
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for published responses, got %d/%d", seen, len(responses))
		}
	}
}

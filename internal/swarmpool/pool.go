// Package swarmpool implements the client-side dispatcher over a fleet
// of agent endpoints: a shared outbound connection pool, a global
// in-flight limiter, subpool views that preserve a stable global-index
// mapping, per-agent routing (direct or via the reverse proxy), and an
// order-preserving gather primitive. This is the core the patterns
// package builds on.
package swarmpool

import (
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/auroraswarm/swarm/internal/hostfile"
	"github.com/auroraswarm/swarm/internal/protocol"
)

const (
	DefaultConcurrency    = 512
	DefaultConnectorLimit = 1024
	DefaultTimeout        = 120 * time.Second
	DefaultMaxTokens      = 512
	DefaultSafetyBuffer   = 512
	DefaultModelMaxContext = 131072

	envProxyURL           = "AURORA_SWARM_PROXY_URL"
	envMaxTokens          = "AURORA_SWARM_MAX_TOKENS"
	envMaxTokensAggregate = "AURORA_SWARM_MAX_TOKENS_AGGREGATION"
	envModelMaxContext    = "AURORA_SWARM_MODEL_MAX_CONTEXT"
)

// Config configures a root Pool. Zero values are replaced with sane
// defaults by New.
type Config struct {
	Concurrency    int
	ConnectorLimit int
	Timeout        time.Duration
	ProxyURL       string // explicit value; overrides AURORA_SWARM_PROXY_URL

	// Chat-adapter token budgeting (ignored by adapters that don't use
	// dynamic sizing, e.g. SimpleGenerate).
	Model                string
	MaxTokens             int // explicit; overrides AURORA_SWARM_MAX_TOKENS
	MaxTokensAggregation  int // explicit; overrides AURORA_SWARM_MAX_TOKENS_AGGREGATION
	ModelMaxContext       int // explicit; overrides AURORA_SWARM_MODEL_MAX_CONTEXT; 0 means "resolve lazily"
	SafetyBuffer          int
	BatchMode             bool

	// EventBus, when non-nil, receives a copy of every Response gathered
	// by SendAll and Broadcast, for observability. A direct Send call is
	// not published. Optional; nil is a no-op.
	EventBus responsePublisher
}

// responsePublisher is the minimal surface swarmpool needs from an event
// bus, so it doesn't have to import pkg/eventbus's generic type directly
// in the Config literal; callers hand in a pkg/eventbus.EventBus[Response].
// The int return (subscriber delivery count) is ignored by swarmpool.
type responsePublisher interface {
	Publish(Response) int
}

// Pool is the client-side dispatcher over an ordered set of agents. The
// zero value is not usable; construct with New. Subpools share the
// root's limiter and transport by reference — see ByTag/Select/Slice/
// Sample.
type Pool struct {
	endpoints     []hostfile.Endpoint
	globalIndices []int

	concurrency    int
	connectorLimit int
	timeout        time.Duration
	proxyURL       string

	lim       limiter
	transport *http.Transport
	client    *http.Client
	ownsTransport bool

	adapter   protocol.Adapter
	batchMode bool

	model                string
	maxTokens            int
	maxTokensAggregation int
	safetyBuffer         int

	modelMaxContextExplicit int // 0 means "not explicitly configured"
	modelMaxContextOnce     sync.Once
	modelMaxContextCached   int

	bus responsePublisher

	closeOnce sync.Once
}

// New constructs a root pool over endpoints using adapter as its
// protocol. The pool owns the shared transport and limiter; Close
// releases the transport's idle connections.
func New(endpoints []hostfile.Endpoint, adapter protocol.Adapter, cfg Config) *Pool {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.ConnectorLimit <= 0 {
		cfg.ConnectorLimit = DefaultConnectorLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Model == "" {
		cfg.Model = "openai/gpt-oss-120b"
	}
	if cfg.SafetyBuffer <= 0 {
		cfg.SafetyBuffer = DefaultSafetyBuffer
	}

	proxyURL := cfg.ProxyURL
	if proxyURL == "" {
		proxyURL = os.Getenv(envProxyURL)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = envInt(envMaxTokens, DefaultMaxTokens)
	}
	maxTokensAgg := cfg.MaxTokensAggregation
	if maxTokensAgg <= 0 {
		maxTokensAgg = envInt(envMaxTokensAggregate, maxTokens*2)
	}
	modelMaxContext := cfg.ModelMaxContext
	if modelMaxContext <= 0 {
		modelMaxContext = envInt(envModelMaxContext, 0)
	}

	transport := newTransport(cfg.ConnectorLimit)

	globalIndices := make([]int, len(endpoints))
	for i := range endpoints {
		globalIndices[i] = i
	}

	p := &Pool{
		endpoints:               append([]hostfile.Endpoint(nil), endpoints...),
		globalIndices:           globalIndices,
		concurrency:             cfg.Concurrency,
		connectorLimit:          cfg.ConnectorLimit,
		timeout:                 cfg.Timeout,
		proxyURL:                proxyURL,
		lim:                     newLimiter(cfg.Concurrency),
		transport:               transport,
		client:                  &http.Client{Transport: transport},
		ownsTransport:           true,
		adapter:                 adapter,
		batchMode:               cfg.BatchMode && adapter.SupportsBatch(),
		model:                   cfg.Model,
		maxTokens:               maxTokens,
		maxTokensAggregation:    maxTokensAgg,
		safetyBuffer:            cfg.SafetyBuffer,
		modelMaxContextExplicit: modelMaxContext,
		bus:                     cfg.EventBus,
	}
	if modelMaxContext > 0 {
		p.modelMaxContextOnce.Do(func() {})
		p.modelMaxContextCached = modelMaxContext
	}
	return p
}

func envInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Size returns the number of agents in the pool.
func (p *Pool) Size() int { return len(p.endpoints) }

// Endpoints returns a copy of the pool's endpoint list, in order.
func (p *Pool) Endpoints() []hostfile.Endpoint {
	out := make([]hostfile.Endpoint, len(p.endpoints))
	copy(out, p.endpoints)
	return out
}

// ProxyURL returns the configured reverse-proxy base URL, or "" if the
// pool talks directly to its endpoints.
func (p *Pool) ProxyURL() string { return p.proxyURL }

// GlobalIndices returns the authoritative global-index mapping used for
// proxy routing; index i here is endpoint i's position in the root pool.
func (p *Pool) GlobalIndices() []int {
	out := make([]int, len(p.globalIndices))
	copy(out, p.globalIndices)
	return out
}

// agentBaseURL returns the base URL for the agent at local index i,
// routing through the proxy when configured. Global indices, never
// local indices, are used to build proxy URLs.
func (p *Pool) agentBaseURL(i int) string {
	if p.proxyURL == "" {
		return p.endpoints[i].URL()
	}
	return fmt.Sprintf("%s/agent/%d", strings.TrimRight(p.proxyURL, "/"), p.globalIndices[i])
}

// Close releases the pool's shared transport. Idempotent; subpools must
// not call this (they share the parent's transport) — only the root
// pool owns the transport lifecycle.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		if p.ownsTransport {
			p.transport.CloseIdleConnections()
		}
	})
}

// subPool builds a view sharing the parent's limiter, transport and
// protocol configuration, with its own endpoint/global-index slice.
func (p *Pool) subPool(endpoints []hostfile.Endpoint, globalIndices []int) *Pool {
	return &Pool{
		endpoints:               endpoints,
		globalIndices:           globalIndices,
		concurrency:             p.concurrency,
		connectorLimit:          p.connectorLimit,
		timeout:                 p.timeout,
		proxyURL:                p.proxyURL,
		lim:                     p.lim,
		transport:                p.transport,
		client:                  p.client,
		ownsTransport:           false,
		adapter:                 p.adapter,
		batchMode:               p.batchMode,
		model:                   p.model,
		maxTokens:               p.maxTokens,
		maxTokensAggregation:    p.maxTokensAggregation,
		safetyBuffer:            p.safetyBuffer,
		modelMaxContextExplicit: p.modelMaxContextExplicit,
		bus:                     p.bus,
	}
}

// ByTag returns a subpool of agents whose tag[key] equals value,
// preserving source order.
func (p *Pool) ByTag(key, value string) *Pool {
	var eps []hostfile.Endpoint
	var idx []int
	for i, ep := range p.endpoints {
		if ep.Tags[key] == value {
			eps = append(eps, ep)
			idx = append(idx, p.globalIndices[i])
		}
	}
	return p.subPool(eps, idx)
}

// Select returns a subpool with agents at the given local indices, in
// the order given.
func (p *Pool) Select(indices []int) *Pool {
	eps := make([]hostfile.Endpoint, len(indices))
	idx := make([]int, len(indices))
	for j, i := range indices {
		eps[j] = p.endpoints[i]
		idx[j] = p.globalIndices[i]
	}
	return p.subPool(eps, idx)
}

// Slice returns a contiguous half-open window [start, stop).
func (p *Pool) Slice(start, stop int) *Pool {
	eps := append([]hostfile.Endpoint(nil), p.endpoints[start:stop]...)
	idx := append([]int(nil), p.globalIndices[start:stop]...)
	return p.subPool(eps, idx)
}

// Sample returns min(n, Size()) agents chosen uniformly without
// replacement.
func (p *Pool) Sample(n int) *Pool {
	size := len(p.endpoints)
	if n > size {
		n = size
	}
	perm := rand.Perm(size)[:n]
	eps := make([]hostfile.Endpoint, n)
	idx := make([]int, n)
	for j, i := range perm {
		eps[j] = p.endpoints[i]
		idx[j] = p.globalIndices[i]
	}
	return p.subPool(eps, idx)
}

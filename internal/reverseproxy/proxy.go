// Package reverseproxy implements the standalone HTTP reverse proxy
// that fronts a hostfile-defined fleet: it forwards /agent/{index}/...
// to the matching backend over a shared outbound transport, and serves
// /health and /status for operational visibility.
package reverseproxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/auroraswarm/swarm/internal/hostfile"
	"github.com/auroraswarm/swarm/pkg/litepool"
)

const (
	DefaultConnectorLimit = 1024
	DefaultTimeout        = 300 * time.Second
	StreamBufferSize      = 32 * 1024
)

// Server is a reverse proxy over a fixed, hostfile-defined endpoint
// list. Endpoints never change after construction — dynamic membership
// is out of scope.
type Server struct {
	endpoints      []hostfile.Endpoint
	defaultTimeout time.Duration
	transport      *http.Transport
	client         *http.Client
	buffers        *litepool.Pool[[]byte]
	startedAt      time.Time
}

// New builds a proxy server over endpoints with connectorLimit
// outbound connections and defaultTimeout as the per-request ceiling
// absent an X-Timeout override.
func New(endpoints []hostfile.Endpoint, connectorLimit int, defaultTimeout time.Duration) *Server {
	if connectorLimit <= 0 {
		connectorLimit = DefaultConnectorLimit
	}
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}
	transport := &http.Transport{
		MaxIdleConns:        connectorLimit,
		MaxIdleConnsPerHost: connectorLimit,
		MaxConnsPerHost:     connectorLimit,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	client := &http.Client{
		Transport: transport,
		// The proxy forwards the upstream's raw response, redirects
		// included; it must not chase them itself.
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &Server{
		endpoints:      append([]hostfile.Endpoint(nil), endpoints...),
		defaultTimeout: defaultTimeout,
		transport:      transport,
		client:         client,
		buffers:        litepool.New(func() []byte { return make([]byte, StreamBufferSize) }),
		startedAt:      time.Now(),
	}
}

// Close tears down the shared outbound transport.
func (s *Server) Close() {
	s.transport.CloseIdleConnections()
}

// Handler returns the proxy's routes: /health, /status, and the
// catch-all /agent/{index}/{path...} forwarder.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("/agent/{index}/{path...}", s.handleForward)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusEndpoint struct {
	Index int               `json:"index"`
	Host  string            `json:"host"`
	Port  int               `json:"port"`
	Tags  map[string]string `json:"tags"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	endpoints := make([]statusEndpoint, len(s.endpoints))
	for i, ep := range s.endpoints {
		endpoints[i] = statusEndpoint{Index: i, Host: ep.Host, Port: ep.Port, Tags: ep.Tags}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agents":         len(s.endpoints),
		"uptime_seconds": time.Since(s.startedAt).Seconds(),
		"endpoints":      endpoints,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleForward(w http.ResponseWriter, r *http.Request) {
	index, err := s.parseAgentIndex(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	endpoint := s.endpoints[index]

	timeout := s.resolveTimeout(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	downstreamURL := fmt.Sprintf("http://%s:%d/%s", endpoint.Host, endpoint.Port, r.PathValue("path"))
	if r.URL.RawQuery != "" {
		downstreamURL += "?" + r.URL.RawQuery
	}

	upstreamReq, err := http.NewRequestWithContext(ctx, r.Method, downstreamURL, r.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal proxy error")
		return
	}
	copyRequestHeaders(upstreamReq.Header, r.Header)

	resp, err := s.client.Do(upstreamReq)
	if err != nil {
		s.writeUpstreamError(w, err, endpoint, timeout)
		return
	}
	defer resp.Body.Close()

	copyResponseHeaders(w.Header(), resp.Header)
	w.Header().Set("X-Proxied-By", "aurora-swarm")
	w.Header().Add("Via", fmt.Sprintf("1.1 aurora-swarm[agent-%d]", index))
	w.WriteHeader(resp.StatusCode)
	s.streamBody(w, resp.Body)
}

func (s *Server) parseAgentIndex(raw string) (int, error) {
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("agent index %q out of range", raw)
	}
	if index < 0 || index >= len(s.endpoints) {
		return 0, fmt.Errorf("agent index %d out of range [0,%d)", index, len(s.endpoints))
	}
	return index, nil
}

// resolveTimeout honors a positive, parseable X-Timeout header (in
// seconds) over the server's default. The header is never forwarded.
func (s *Server) resolveTimeout(r *http.Request) time.Duration {
	raw := r.Header.Get("X-Timeout")
	if raw == "" {
		return s.defaultTimeout
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || seconds <= 0 {
		return s.defaultTimeout
	}
	return time.Duration(seconds * float64(time.Second))
}

func (s *Server) writeUpstreamError(w http.ResponseWriter, err error, endpoint hostfile.Endpoint, timeout time.Duration) {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		writeError(w, http.StatusGatewayTimeout, fmt.Sprintf("upstream timeout after %gs", timeout.Seconds()))
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusGatewayTimeout, fmt.Sprintf("upstream timeout after %gs", timeout.Seconds()))
		return
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("cannot connect to %s:%d", endpoint.Host, endpoint.Port))
		return
	}
	writeError(w, http.StatusInternalServerError, "internal proxy error")
}

// streamBody copies the upstream response chunk by chunk, flushing
// after every chunk so the client sees bytes as they arrive rather
// than buffered in bulk.
func (s *Server) streamBody(w http.ResponseWriter, body io.Reader) {
	buf := s.buffers.Get()
	defer s.buffers.Put(buf)

	flusher, canFlush := w.(http.Flusher)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				return
			}
			if canFlush {
				flusher.Flush()
			}
		}
		if err != nil {
			return
		}
	}
}

package swarmpool

import (
	"context"
	"net"
	"net/http"
	"time"
)

// newTransport builds the shared outbound transport used by a root pool
// and every subpool derived from it. Tuned for many short-lived LLM
// generate calls rather than a handful of long-lived streams: no Nagle
// delay, a connector-limit-wide idle pool, no compression (JSON prompt/
// response bodies don't benefit enough to pay the latency).
func newTransport(connectorLimit int) *http.Transport {
	return &http.Transport{
		MaxIdleConns:        connectorLimit,
		MaxIdleConnsPerHost: connectorLimit,
		MaxConnsPerHost:     connectorLimit,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true,
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 60 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if tcpConn, ok := conn.(*net.TCPConn); ok {
				_ = tcpConn.SetNoDelay(true)
			}
			return conn, nil
		},
	}
}

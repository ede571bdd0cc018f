package reverseproxy

import (
	"net/http"
	"strings"
)

// hopByHopRequestHeaders are stripped from the inbound request before
// it is forwarded upstream. "Host" is included because the proxy
// builds its own downstream URL; it is not a client-supplied routing
// concern here the way it is in a same-origin reverse proxy.
var hopByHopRequestHeaders = []string{
	"Host",
	"Connection",
	"Keep-Alive",
	"Proxy-Authorization",
	"Proxy-Connection",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// strippedResponseHeaders are removed from the upstream response in
// addition to the hop-by-hop set: the proxy re-frames the body as it
// streams it, so it cannot honor the upstream's original encoding or
// length.
var strippedResponseHeaders = []string{
	"Content-Encoding",
	"Transfer-Encoding",
	"Content-Length",
}

func isAnyOf(header string, set []string) bool {
	for _, h := range set {
		if strings.EqualFold(h, header) {
			return true
		}
	}
	return false
}

// copyRequestHeaders copies src into dst, skipping hop-by-hop headers
// and the X-Timeout header (consumed by the proxy itself).
func copyRequestHeaders(dst http.Header, src http.Header) {
	for header, values := range src {
		if isAnyOf(header, hopByHopRequestHeaders) || strings.EqualFold(header, "X-Timeout") {
			continue
		}
		dst[header] = values
	}
}

// copyResponseHeaders copies src into dst, skipping hop-by-hop headers
// and the headers the proxy must re-derive itself.
func copyResponseHeaders(dst http.Header, src http.Header) {
	for header, values := range src {
		if isAnyOf(header, hopByHopRequestHeaders) || isAnyOf(header, strippedResponseHeaders) {
			continue
		}
		dst[header] = values
	}
}

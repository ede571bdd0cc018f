// Package protocol defines the narrow seam between the Pool and the
// wire format spoken by a particular backend flavour. Everything about
// request construction and response parsing that varies between
// "simple generate" and "chat/completions" backends lives behind the
// Adapter interface; everything else (routing, concurrency, ordering)
// stays in swarmpool.
package protocol

import (
	"context"
	"net/http"
)

// Request is a single prompt destined for one backend.
type Request struct {
	Prompt    string
	MaxTokens int
}

// Adapter converts prompts into backend HTTP requests and backend HTTP
// responses into plain text, for one wire protocol.
type Adapter interface {
	// Name identifies the adapter for logging/diagnostics.
	Name() string

	// SupportsBatch reports whether NewBatchRequest/ParseBatchResponse
	// are implemented for this adapter.
	SupportsBatch() bool

	// NewRequest builds the HTTP request for a single prompt against
	// baseURL (the agent's direct or proxied base URL, without the
	// adapter's own path suffix).
	NewRequest(ctx context.Context, baseURL string, req Request) (*http.Request, error)

	// NewBatchRequest builds one HTTP request carrying every prompt in
	// reqs, destined for a single backend. Only called when
	// SupportsBatch() is true.
	NewBatchRequest(ctx context.Context, baseURL string, reqs []Request) (*http.Request, error)

	// ParseResponse extracts generated text from a single-prompt
	// response, or returns an error describing why it couldn't.
	ParseResponse(resp *http.Response) (string, error)

	// ParseBatchResponse extracts one text per original prompt position
	// (length n) from a batched response.
	ParseBatchResponse(resp *http.Response, n int) ([]string, error)
}

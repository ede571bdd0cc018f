package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// SimpleGenerate speaks the single-prompt echo-style "/generate" API:
// POST {"prompt": ...} -> {"response": "..."} (or {"text": "..."}).
type SimpleGenerate struct{}

func NewSimpleGenerate() *SimpleGenerate { return &SimpleGenerate{} }

func (a *SimpleGenerate) Name() string        { return "simple-generate" }
func (a *SimpleGenerate) SupportsBatch() bool  { return false }

type simpleRequestBody struct {
	Prompt string `json:"prompt"`
}

type simpleResponseBody struct {
	Response string `json:"response"`
	Text     string `json:"text"`
}

func (a *SimpleGenerate) NewRequest(ctx context.Context, baseURL string, req Request) (*http.Request, error) {
	body, err := json.Marshal(simpleRequestBody{Prompt: req.Prompt})
	if err != nil {
		return nil, fmt.Errorf("simple-generate: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}

func (a *SimpleGenerate) NewBatchRequest(ctx context.Context, baseURL string, reqs []Request) (*http.Request, error) {
	return nil, fmt.Errorf("simple-generate: batching is not supported")
}

func (a *SimpleGenerate) ParseResponse(resp *http.Response) (string, error) {
	var body simpleResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("invalid response structure: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if body.Response != "" {
		return body.Response, nil
	}
	return body.Text, nil
}

func (a *SimpleGenerate) ParseBatchResponse(resp *http.Response, n int) ([]string, error) {
	return nil, fmt.Errorf("simple-generate: batching is not supported")
}

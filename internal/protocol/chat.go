package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ChatCompletions speaks the OpenAI-compatible chat/completions API for
// single prompts, and the completions API for batches of prompts
// destined for the same backend.
type ChatCompletions struct {
	Model string
}

func NewChatCompletions(model string) *ChatCompletions {
	return &ChatCompletions{Model: model}
}

func (a *ChatCompletions) Name() string       { return "chat-completions" }
func (a *ChatCompletions) SupportsBatch() bool { return true }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequestBody struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type completionsRequestBody struct {
	Model     string   `json:"model"`
	Prompt    []string `json:"prompt"`
	MaxTokens int      `json:"max_tokens"`
}

type chatChoice struct {
	Message struct {
		Content          string `json:"content"`
		ReasoningContent string `json:"reasoning_content"`
	} `json:"message"`
}

type completionsChoice struct {
	Text string `json:"text"`
}

type apiError struct {
	Message string `json:"message"`
}

type chatResponseBody struct {
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error"`
}

type completionsResponseBody struct {
	Choices []completionsChoice `json:"choices"`
	Error   *apiError           `json:"error"`
}

func (a *ChatCompletions) NewRequest(ctx context.Context, baseURL string, req Request) (*http.Request, error) {
	body, err := json.Marshal(chatRequestBody{
		Model:     a.Model,
		Messages:  []chatMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("chat-completions: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}

func (a *ChatCompletions) NewBatchRequest(ctx context.Context, baseURL string, reqs []Request) (*http.Request, error) {
	prompts := make([]string, len(reqs))
	maxTokens := 0
	for i, r := range reqs {
		prompts[i] = r.Prompt
		if r.MaxTokens > maxTokens {
			maxTokens = r.MaxTokens
		}
	}
	body, err := json.Marshal(completionsRequestBody{
		Model:     a.Model,
		Prompt:    prompts,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("chat-completions: encode batch request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}

func (a *ChatCompletions) ParseResponse(resp *http.Response) (string, error) {
	var body chatResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("invalid response structure: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if body.Error != nil && body.Error.Message != "" {
			return "", fmt.Errorf("API error: %s", body.Error.Message)
		}
		return "", fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}
	if len(body.Choices) == 0 {
		return "", fmt.Errorf("invalid response structure")
	}
	msg := body.Choices[0].Message
	if msg.Content != "" {
		return msg.Content, nil
	}
	return msg.ReasoningContent, nil
}

func (a *ChatCompletions) ParseBatchResponse(resp *http.Response, n int) ([]string, error) {
	var body completionsResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid response structure: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if body.Error != nil && body.Error.Message != "" {
			return nil, fmt.Errorf("API error: %s", body.Error.Message)
		}
		return nil, fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}
	if len(body.Choices) == 0 {
		return nil, fmt.Errorf("invalid response structure")
	}
	texts := make([]string, n)
	for i := 0; i < n && i < len(body.Choices); i++ {
		texts[i] = body.Choices[i].Text
	}
	return texts, nil
}

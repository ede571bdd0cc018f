package swarmpool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/auroraswarm/swarm/internal/protocol"
)

// Send issues prompt to the agent at local index i and blocks until a
// permit is available, the call completes, or ctx is cancelled.
// maxTokens of 0 means "use the pool's resolved default budget".
func (p *Pool) Send(ctx context.Context, i int, prompt string, maxTokens int) Response {
	if i < 0 || i >= len(p.endpoints) {
		return failureResponse(fmt.Errorf("agent index %d out of range [0,%d)", i, len(p.endpoints)), i)
	}
	if maxTokens <= 0 {
		maxTokens = p.tokenBudget(ctx, []string{prompt}, p.maxTokens)
	}

	if err := p.lim.acquire(ctx); err != nil {
		return failureResponse(err, i)
	}
	defer p.lim.release()

	text, err := p.call(ctx, i, protocol.Request{Prompt: prompt, MaxTokens: maxTokens})
	if err != nil {
		return failureResponse(err, i)
	}
	return successResponse(text, i)
}

// call issues a single-prompt request against agent i, bounding the
// whole round trip to the pool's configured timeout so a hung backend
// cannot hold its limiter permit indefinitely.
func (p *Pool) call(ctx context.Context, i int, req protocol.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := p.adapter.NewRequest(ctx, p.agentBaseURL(i), req)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", classifyCallError(err, i, p.timeout)
	}
	defer resp.Body.Close()
	return p.adapter.ParseResponse(resp)
}

// callBatch is call's coalesced-request sibling, bound by the same
// per-dispatch timeout.
func (p *Pool) callBatch(ctx context.Context, i int, reqs []protocol.Request) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := p.adapter.NewBatchRequest(ctx, p.agentBaseURL(i), reqs)
	if err != nil {
		return nil, fmt.Errorf("build batch request: %w", err)
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, classifyCallError(err, i, p.timeout)
	}
	defer resp.Body.Close()
	return p.adapter.ParseBatchResponse(resp, len(reqs))
}

// classifyCallError turns a deadline expiry into a readable timeout
// error rather than the raw "context deadline exceeded" wrapped err.
func classifyCallError(err error, i int, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("agent %d: timed out after %s", i, timeout)
	}
	return fmt.Errorf("agent %d: %w", i, err)
}

// SendAll dispatches prompts in order, one prompt per call, round-
// robining across agents (prompt i goes to agent i % Size()). Returns
// len(prompts) responses in input order. When the adapter supports
// batching and the pool was built with batch mode enabled, prompts
// destined for the same agent are coalesced into a single upstream
// call.
func (p *Pool) SendAll(ctx context.Context, prompts []string) []Response {
	n := len(prompts)
	out := make([]Response, n)
	if n == 0 {
		return out
	}
	size := len(p.endpoints)

	if p.batchMode {
		p.sendAllBatched(ctx, prompts, out, size)
		return out
	}

	type result struct {
		idx int
		r   Response
	}
	results := make(chan result, n)
	for idx, prompt := range prompts {
		go func(idx int, prompt string) {
			agent := idx % size
			results <- result{idx, p.Send(ctx, agent, prompt, 0)}
		}(idx, prompt)
	}
	for range prompts {
		res := <-results
		out[res.idx] = res.r
	}
	p.publishAll(out)
	return out
}

func (p *Pool) sendAllBatched(ctx context.Context, prompts []string, out []Response, size int) {
	byAgent := make(map[int][]int) // agent -> original indices, in order
	for idx := range prompts {
		agent := idx % size
		byAgent[agent] = append(byAgent[agent], idx)
	}

	type result struct {
		agent   int
		indices []int
		texts   []string
		err     error
	}
	results := make(chan result, len(byAgent))
	for agent, indices := range byAgent {
		go func(agent int, indices []int) {
			reqs := make([]protocol.Request, len(indices))
			budget := p.tokenBudget(ctx, gather(prompts, indices), p.maxTokens)
			for j, idx := range indices {
				reqs[j] = protocol.Request{Prompt: prompts[idx], MaxTokens: budget}
			}
			if err := p.lim.acquire(ctx); err != nil {
				results <- result{agent: agent, indices: indices, err: err}
				return
			}
			texts, err := p.callBatch(ctx, agent, reqs)
			p.lim.release()
			results <- result{agent: agent, indices: indices, texts: texts, err: err}
		}(agent, indices)
	}
	for range byAgent {
		res := <-results
		if res.err != nil {
			for _, idx := range res.indices {
				out[idx] = failureResponse(res.err, res.agent)
			}
			continue
		}
		for j, idx := range res.indices {
			out[idx] = successResponse(res.texts[j], res.agent)
		}
	}
	p.publishAll(out)
}

func gather(prompts []string, indices []int) []string {
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = prompts[idx]
	}
	return out
}

// Broadcast sends the same prompt to every agent and returns Size()
// responses ordered by local index.
func (p *Pool) Broadcast(ctx context.Context, prompt string) []Response {
	size := len(p.endpoints)
	out := make([]Response, size)
	type result struct {
		idx int
		r   Response
	}
	results := make(chan result, size)
	for i := 0; i < size; i++ {
		go func(i int) {
			results <- result{i, p.Send(ctx, i, prompt, 0)}
		}(i)
	}
	for range out {
		res := <-results
		out[res.idx] = res.r
	}
	p.publishAll(out)
	return out
}

func (p *Pool) publishAll(responses []Response) {
	if p.bus == nil {
		return
	}
	for _, r := range responses {
		p.bus.Publish(r)
	}
}

// modelsListResponse mirrors the subset of an OpenAI-compatible
// /v1/models payload swarmpool cares about.
type modelsListResponse struct {
	Data []struct {
		ID           string `json:"id"`
		MaxModelLen  int    `json:"max_model_len"`
	} `json:"data"`
}

// modelMaxContext resolves the model's max context window, in order:
// explicit config/env override, a live /v1/models fetch against the
// first agent, then a hardcoded default. Resolved once and cached for
// the pool's lifetime; a failed fetch falls through to the default
// rather than failing the caller.
func (p *Pool) modelMaxContext(ctx context.Context) int {
	p.modelMaxContextOnce.Do(func() {
		if p.modelMaxContextExplicit > 0 {
			p.modelMaxContextCached = p.modelMaxContextExplicit
			return
		}
		p.modelMaxContextCached = p.fetchModelMaxContext(ctx)
	})
	return p.modelMaxContextCached
}

func (p *Pool) fetchModelMaxContext(ctx context.Context) int {
	if len(p.endpoints) == 0 {
		return DefaultModelMaxContext
	}
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, p.endpoints[0].URL()+"/v1/models", nil)
	if err != nil {
		return DefaultModelMaxContext
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return DefaultModelMaxContext
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return DefaultModelMaxContext
	}
	var body modelsListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return DefaultModelMaxContext
	}
	for _, m := range body.Data {
		if m.ID == p.model && m.MaxModelLen > 0 {
			return m.MaxModelLen
		}
	}
	return DefaultModelMaxContext
}

// tokenBudget estimates a response token budget for a set of prompts
// sharing a single upstream call: chars/4 per prompt, averaged, then
// clamped to [128, defaultBudget] after reserving room in the model's
// context window for the prompt itself and a safety buffer. Only the
// chat adapter is sized this way; other adapters get defaultBudget and
// never trigger the model-max-context lookup.
func (p *Pool) tokenBudget(ctx context.Context, prompts []string, defaultBudget int) int {
	if _, dynamic := p.adapter.(*protocol.ChatCompletions); !dynamic || len(prompts) == 0 {
		return defaultBudget
	}
	total := 0
	for _, s := range prompts {
		total += len(s)
	}
	avgChars := total / len(prompts)
	estimate := (avgChars + 3) / 4

	maxContext := p.modelMaxContext(ctx)
	budget := maxContext - estimate - p.safetyBuffer
	if budget > defaultBudget {
		budget = defaultBudget
	}
	if budget < 128 {
		budget = 128
	}
	return budget
}

// Package patterns implements the collective-communication primitives
// layered thinly over a swarmpool.Pool: broadcast, scatter-gather,
// tree-reduce, pipeline and blackboard. None of them hold state beyond
// a single call (blackboard excepted, which is explicitly a
// multi-round session type).
package patterns

import (
	"context"
	"strings"

	"github.com/auroraswarm/swarm/internal/swarmpool"
)

// Broadcast sends prompt to every agent in pool and returns all
// responses in agent order.
func Broadcast(ctx context.Context, pool *swarmpool.Pool, prompt string) []swarmpool.Response {
	return pool.Broadcast(ctx, prompt)
}

// BroadcastAndReduce broadcasts prompt to every agent, concatenates the
// successful responses with "---" separators, substitutes the result
// into reducePrompt's "{responses}" placeholder, and sends that to the
// agent at reducerAgentIndex.
func BroadcastAndReduce(ctx context.Context, pool *swarmpool.Pool, prompt, reducePrompt string, reducerAgentIndex int) swarmpool.Response {
	responses := pool.Broadcast(ctx, prompt)
	combined := joinSuccessful(responses)
	filled := strings.ReplaceAll(reducePrompt, "{responses}", combined)
	return pool.Send(ctx, reducerAgentIndex, filled, 0)
}

func joinSuccessful(responses []swarmpool.Response) string {
	var texts []string
	for _, r := range responses {
		if r.Success {
			texts = append(texts, r.Text)
		}
	}
	return strings.Join(texts, "\n---\n")
}

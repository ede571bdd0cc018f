package patterns

import (
	"context"
	"fmt"
	"strings"

	"github.com/auroraswarm/swarm/internal/swarmpool"
)

// ScatterGather sends prompts[i] to agent i % pool.Size() and gathers
// responses in input order. More prompts than agents wraps round-robin.
func ScatterGather(ctx context.Context, pool *swarmpool.Pool, prompts []string) []swarmpool.Response {
	return pool.SendAll(ctx, prompts)
}

// MapGather formats promptTemplate's "{item}" placeholder with each
// item (via fmt.Sprint) and scatter-gathers the results.
func MapGather(ctx context.Context, pool *swarmpool.Pool, items []any, promptTemplate string) []swarmpool.Response {
	prompts := make([]string, len(items))
	for i, item := range items {
		prompts[i] = strings.ReplaceAll(promptTemplate, "{item}", fmt.Sprint(item))
	}
	return ScatterGather(ctx, pool, prompts)
}

package patterns

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/auroraswarm/swarm/internal/swarmpool"
)

const DefaultFanin = 50

// TreeReduce runs a leaf phase (one prompt per item, round-robin across
// pool, or a single broadcast prompt when items is nil) followed by
// repeated reduction rounds: successful leaf texts are chunked into
// groups of fanin, each group concatenated and substituted into
// reducePrompt's "{responses}" (and "{level}") placeholders, and
// dispatched one-per-group via SendAll until a single response remains.
func TreeReduce(ctx context.Context, pool *swarmpool.Pool, prompt, reducePrompt string, fanin int, items []any) swarmpool.Response {
	if fanin <= 0 {
		fanin = DefaultFanin
	}

	var current []string
	if items != nil {
		leafPrompts := make([]string, len(items))
		for i, item := range items {
			leafPrompts[i] = strings.ReplaceAll(prompt, "{item}", fmt.Sprint(item))
		}
		current = successfulTexts(pool.SendAll(ctx, leafPrompts))
	} else {
		current = successfulTexts(pool.Broadcast(ctx, prompt))
	}

	level := 1
	for len(current) > 1 {
		groups := chunk(current, fanin)
		supervisorPrompts := make([]string, len(groups))
		for i, group := range groups {
			filled := strings.ReplaceAll(reducePrompt, "{responses}", strings.Join(group, "\n---\n"))
			filled = strings.ReplaceAll(filled, "{level}", strconv.Itoa(level))
			supervisorPrompts[i] = filled
		}
		current = successfulTexts(pool.SendAll(ctx, supervisorPrompts))
		level++
	}

	if len(current) == 0 {
		return swarmpool.Response{Success: false, Error: "all agents failed during reduction"}
	}
	return swarmpool.Response{Success: true, Text: current[0]}
}

func successfulTexts(responses []swarmpool.Response) []string {
	var out []string
	for _, r := range responses {
		if r.Success {
			out = append(out, r.Text)
		}
	}
	return out
}

func chunk(items []string, size int) [][]string {
	var groups [][]string
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		groups = append(groups, items[i:end])
	}
	return groups
}

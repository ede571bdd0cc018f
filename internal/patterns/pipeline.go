package patterns

import (
	"context"
	"fmt"
	"strings"

	"github.com/auroraswarm/swarm/internal/swarmpool"
)

// Stage is one step of a Pipeline run. PromptTemplate must contain
// "{input}", replaced with the previous stage's output (or the initial
// input for the first stage).
type Stage struct {
	Name           string
	PromptTemplate string
	NumAgents      int

	// OutputTransform reshapes a stage's responses into the value fed
	// to the next stage. Defaults to newline-joining successful texts.
	OutputTransform func([]swarmpool.Response) any
	// OutputFilter drops responses before the transform runs. Optional.
	OutputFilter func(swarmpool.Response) bool
}

func defaultTransform(responses []swarmpool.Response) any {
	return strings.Join(successfulTexts(responses), "\n")
}

// RunPipeline executes stages in sequence, substituting each stage's
// output into the next via "{input}". When reuseAgents is true every
// stage draws its first NumAgents agents from the same shared pool;
// when false the pool is partitioned into disjoint, contiguous slices
// across stages.
func RunPipeline(ctx context.Context, pool *swarmpool.Pool, stages []Stage, initialInput any, reuseAgents bool) any {
	current := initialInput
	offset := 0

	for _, stage := range stages {
		n := stage.NumAgents
		if n > pool.Size() {
			n = pool.Size()
		}

		var stagePool *swarmpool.Pool
		if reuseAgents {
			indices := make([]int, n)
			for i := range indices {
				indices[i] = i
			}
			stagePool = pool.Select(indices)
		} else {
			end := offset + n
			if end > pool.Size() {
				end = pool.Size()
			}
			stagePool = pool.Slice(offset, end)
			offset = end
		}

		prompt := strings.ReplaceAll(stage.PromptTemplate, "{input}", fmt.Sprint(current))
		responses := stagePool.Broadcast(ctx, prompt)

		if stage.OutputFilter != nil {
			filtered := responses[:0]
			for _, r := range responses {
				if stage.OutputFilter(r) {
					filtered = append(filtered, r)
				}
			}
			responses = filtered
		}

		transform := stage.OutputTransform
		if transform == nil {
			transform = defaultTransform
		}
		current = transform(responses)
	}

	return current
}

// FanOutFanIn is a convenience two-stage pipeline: broadcast prompt to
// nWorkers agents (or all, if nWorkers <= 0), concatenate the
// successful responses into collectPrompt's "{responses}" placeholder,
// and send that to agent 0 of the full pool.
func FanOutFanIn(ctx context.Context, pool *swarmpool.Pool, prompt, collectPrompt string, nWorkers int) swarmpool.Response {
	workerPool := pool
	if nWorkers > 0 {
		n := nWorkers
		if n > pool.Size() {
			n = pool.Size()
		}
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		workerPool = pool.Select(indices)
	}

	responses := workerPool.Broadcast(ctx, prompt)
	combined := joinSuccessful(responses)
	filled := strings.ReplaceAll(collectPrompt, "{responses}", combined)
	return pool.Send(ctx, 0, filled, 0)
}

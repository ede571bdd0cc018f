package patterns

import (
	"context"

	"github.com/auroraswarm/swarm/internal/swarmpool"
)

// PromptFn generates the prompt an agent playing role should receive,
// given the board's current contents.
type PromptFn func(role string, board map[string][]string) string

// ConvergenceFn inspects the board after a round and reports whether
// the session should stop early.
type ConvergenceFn func(board map[string][]string) bool

// Blackboard is a shared-state workspace for multi-round agent
// collaboration. Agents are routed to sections by the "role" tag on
// their endpoint; an agent with no matching section is never used.
// Not safe for concurrent Run calls.
type Blackboard struct {
	board    map[string][]string
	sections []string
	promptFn PromptFn
	round    int
}

// NewBlackboard creates a board with the given sections, all initially
// empty.
func NewBlackboard(sections []string, promptFn PromptFn) *Blackboard {
	board := make(map[string][]string, len(sections))
	for _, s := range sections {
		board[s] = nil
	}
	return &Blackboard{board: board, sections: sections, promptFn: promptFn}
}

// Board returns the live board state; callers must not mutate it from
// outside a ConvergenceFn/PromptFn call.
func (b *Blackboard) Board() map[string][]string { return b.board }

// Round returns the number of completed rounds.
func (b *Blackboard) Round() int { return b.round }

// Snapshot returns a deep copy of the current round count and board.
func (b *Blackboard) Snapshot() (round int, board map[string][]string) {
	clone := make(map[string][]string, len(b.board))
	for k, v := range b.board {
		clone[k] = append([]string(nil), v...)
	}
	return b.round, clone
}

// Run executes rounds until maxRounds or convergenceFn (optional)
// reports true. Each round, for every section, agents tagged role=
// <section> are broadcast that section's prompt; successful response
// texts are appended to the section in agent order.
func (b *Blackboard) Run(ctx context.Context, pool *swarmpool.Pool, maxRounds int, convergenceFn ConvergenceFn) map[string][]string {
	for round := 0; round < maxRounds; round++ {
		for _, section := range b.sections {
			sub := pool.ByTag("role", section)
			if sub.Size() == 0 {
				continue
			}

			_, snapshot := b.Snapshot()
			prompt := b.promptFn(section, snapshot)
			responses := sub.Broadcast(ctx, prompt)

			for _, r := range responses {
				if r.Success {
					b.board[section] = append(b.board[section], r.Text)
				}
			}
		}

		b.round++

		if convergenceFn != nil && convergenceFn(b.board) {
			break
		}
	}

	return b.board
}

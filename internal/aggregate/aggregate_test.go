package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/auroraswarm/swarm/internal/swarmpool"
)

func resp(text string, success bool, agentIndex int) swarmpool.Response {
	return swarmpool.Response{Success: success, Text: text, AgentIndex: agentIndex}
}

func TestMajorityVote(t *testing.T) {
	responses := []swarmpool.Response{
		resp("Yes", true, 0),
		resp(" yes ", true, 1),
		resp("no", true, 2),
		resp("ignored", false, 3),
	}
	winner, confidence := MajorityVote(responses, false)
	assert.Equal(t, "yes", winner)
	assert.InDelta(t, 2.0/3.0, confidence, 1e-9)
}

func TestMajorityVote_NoCandidates(t *testing.T) {
	winner, confidence := MajorityVote(nil, false)
	assert.Equal(t, "", winner)
	assert.Equal(t, 0.0, confidence)
}

func TestConcat(t *testing.T) {
	responses := []swarmpool.Response{resp("a", true, 0), resp("b", false, 1), resp("c", true, 2)}
	assert.Equal(t, "a\nc", Concat(responses, "\n", false))
	assert.Equal(t, "a\nb\nc", Concat(responses, "\n", true))
}

func TestBestOf_EmptyReturnsFailure(t *testing.T) {
	got := BestOf(nil, func(swarmpool.Response) float64 { return 0 }, false)
	assert.False(t, got.Success)
}

func TestTopK(t *testing.T) {
	responses := []swarmpool.Response{resp("a", true, 0), resp("b", true, 1), resp("c", true, 2)}
	score := func(r swarmpool.Response) float64 {
		return map[string]float64{"a": 1, "b": 3, "c": 2}[r.Text]
	}
	top := TopK(responses, 2, score, false)
	assert.Equal(t, []string{"b", "c"}, []string{top[0].Text, top[1].Text})
}

func TestStructuredMerge(t *testing.T) {
	responses := []swarmpool.Response{
		resp(`[1,2]`, true, 0),
		resp(`{"x":1}`, true, 1),
		resp(`not json`, true, 2),
	}
	merged, errs := StructuredMerge(responses, false)
	assert.Len(t, merged, 3)
	assert.Len(t, errs, 1)
	assert.Equal(t, 2, errs[0].AgentIndex)
}

func TestStatistics(t *testing.T) {
	responses := []swarmpool.Response{resp("1", true, 0), resp("2", true, 1), resp("3", true, 2)}
	stats := Statistics(responses, nil, false)
	assert.Equal(t, 2.0, stats.Mean)
	assert.Equal(t, 2.0, stats.Median)
	assert.Equal(t, 1.0, stats.Min)
	assert.Equal(t, 3.0, stats.Max)
}

func TestStatistics_Empty(t *testing.T) {
	stats := Statistics(nil, nil, false)
	assert.Equal(t, Stats{}, stats)
}

func TestFailureReport(t *testing.T) {
	responses := []swarmpool.Response{
		resp("ok", true, 0),
		{Success: false, Error: "boom", AgentIndex: 1},
	}
	report := FailureReport(responses)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, 1, report.FailureCount)
	assert.Equal(t, "boom", report.Failures[0].Error)
}

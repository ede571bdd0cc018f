// Package aggregate implements pure-function strategies for combining
// a batch of swarmpool.Response values into a single answer: majority
// vote, text concatenation, quality selection, structured JSON merge,
// numeric statistics and failure diagnostics. None of these own
// resources or talk to a Pool — they operate on already-collected
// responses.
package aggregate

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/auroraswarm/swarm/internal/swarmpool"
)

func ok(responses []swarmpool.Response, includeFailures bool) []swarmpool.Response {
	if includeFailures {
		return responses
	}
	good := make([]swarmpool.Response, 0, len(responses))
	for _, r := range responses {
		if r.Success {
			good = append(good, r)
		}
	}
	return good
}

// MajorityVote returns the most common response text (trimmed, case-
// folded before comparison) and the fraction of candidate responses
// (the successful ones, or all of them when includeFailures is set)
// that agreed with it. Returns ("", 0) if there are no candidates.
func MajorityVote(responses []swarmpool.Response, includeFailures bool) (winner string, confidence float64) {
	good := ok(responses, includeFailures)
	if len(good) == 0 {
		return "", 0
	}
	counts := make(map[string]int)
	for _, r := range good {
		counts[strings.ToLower(strings.TrimSpace(r.Text))]++
	}
	bestCount := -1
	for text, count := range counts {
		if count > bestCount {
			winner, bestCount = text, count
		}
	}
	return winner, float64(bestCount) / float64(len(good))
}

// Concat joins response texts with separator.
func Concat(responses []swarmpool.Response, separator string, includeFailures bool) string {
	good := ok(responses, includeFailures)
	texts := make([]string, len(good))
	for i, r := range good {
		texts[i] = r.Text
	}
	return strings.Join(texts, separator)
}

// ScoreFunc scores a response for BestOf/TopK selection.
type ScoreFunc func(swarmpool.Response) float64

// BestOf returns the single highest-scoring response, or a failure
// Response if there are no candidates.
func BestOf(responses []swarmpool.Response, score ScoreFunc, includeFailures bool) swarmpool.Response {
	good := ok(responses, includeFailures)
	if len(good) == 0 {
		return swarmpool.Response{Success: false, Error: "no responses to select from"}
	}
	best := good[0]
	bestScore := score(best)
	for _, r := range good[1:] {
		if s := score(r); s > bestScore {
			best, bestScore = r, s
		}
	}
	return best
}

// TopK returns the k highest-scoring responses, descending. k greater
// than the candidate count returns every candidate.
func TopK(responses []swarmpool.Response, k int, score ScoreFunc, includeFailures bool) []swarmpool.Response {
	good := ok(responses, includeFailures)
	sorted := append([]swarmpool.Response(nil), good...)
	sort.SliceStable(sorted, func(i, j int) bool { return score(sorted[i]) > score(sorted[j]) })
	if k > len(sorted) {
		k = len(sorted)
	}
	if k < 0 {
		k = 0
	}
	return sorted[:k]
}

// MergeError records a per-agent JSON parse failure during
// StructuredMerge.
type MergeError struct {
	AgentIndex int    `json:"agent_index"`
	Error      string `json:"error"`
}

// StructuredMerge parses each response's text as JSON and flattens the
// results into one list: JSON arrays are spliced in, everything else
// is appended as a single element. Parse failures are collected rather
// than aborting the merge.
func StructuredMerge(responses []swarmpool.Response, includeFailures bool) (merged []any, errs []MergeError) {
	good := ok(responses, includeFailures)
	for _, r := range good {
		var value any
		if err := json.Unmarshal([]byte(r.Text), &value); err != nil {
			errs = append(errs, MergeError{AgentIndex: r.AgentIndex, Error: err.Error()})
			continue
		}
		if list, isList := value.([]any); isList {
			merged = append(merged, list...)
		} else {
			merged = append(merged, value)
		}
	}
	return merged, errs
}

// Stats is the result of Statistics.
type Stats struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// ExtractFunc pulls a numeric value out of a response. When nil,
// Statistics parses the response text directly as a float.
type ExtractFunc func(swarmpool.Response) (float64, error)

// Statistics computes summary statistics over the numeric values
// extracted from responses. Malformed values are skipped; an empty
// result set yields all-zero Stats.
func Statistics(responses []swarmpool.Response, extract ExtractFunc, includeFailures bool) Stats {
	good := ok(responses, includeFailures)
	var values []float64
	for _, r := range good {
		var v float64
		var err error
		if extract != nil {
			v, err = extract(r)
		} else {
			v, err = strconv.ParseFloat(strings.TrimSpace(r.Text), 64)
		}
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return Stats{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var std float64
	if len(values) > 1 {
		var sq float64
		for _, v := range values {
			sq += (v - mean) * (v - mean)
		}
		std = math.Sqrt(sq / float64(len(values)-1))
	}

	return Stats{
		Mean:   mean,
		Std:    std,
		Median: median(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// FailureEntry is one element of FailureReport's failure list.
type FailureEntry struct {
	AgentIndex int    `json:"agent_index"`
	Error      string `json:"error"`
}

// Report is a diagnostic summary of a response batch.
type Report struct {
	Total         int            `json:"total"`
	SuccessCount  int            `json:"success_count"`
	FailureCount  int            `json:"failure_count"`
	Failures      []FailureEntry `json:"failures"`
}

// FailureReport summarizes how many of responses succeeded and
// collects the errors for the rest.
func FailureReport(responses []swarmpool.Response) Report {
	var failures []FailureEntry
	for _, r := range responses {
		if !r.Success {
			failures = append(failures, FailureEntry{AgentIndex: r.AgentIndex, Error: r.Error})
		}
	}
	return Report{
		Total:        len(responses),
		SuccessCount: len(responses) - len(failures),
		FailureCount: len(failures),
		Failures:     failures,
	}
}

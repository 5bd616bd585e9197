// File path: internal/summarizer/summarizer.go

// Package summarizer renders computed results as a short prose answer. The
// model only rephrases numbers the executor already produced; when it is
// unreachable a deterministic template takes over.
package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aquametrics/waterlens/internal/common"
	"github.com/aquametrics/waterlens/internal/executor"
	"github.com/aquametrics/waterlens/internal/llm"
	"github.com/aquametrics/waterlens/internal/plan"
)

const defaultTimeout = 30 * time.Second

const systemPrompt = `You are a concise data analyst for a water-utility regulator.
You receive a question, the query plan that was run, and the computed results.
Write a short answer (under 150 words) that:
- states the computed values, naming the dataset and column each came from,
- states which side is greater when a comparison was evaluated,
- mentions metrics that failed and why,
- never invents numbers that are not in the results.`

// Summarizer turns executed results into prose.
type Summarizer struct {
	provider llm.Provider
	timeout  time.Duration
}

func New(provider llm.Provider) *Summarizer {
	return &Summarizer{provider: provider, timeout: defaultTimeout}
}

// Summarize asks the model to phrase the results. A model failure is not an
// error for the caller: the deterministic fallback text is returned instead.
func (s *Summarizer) Summarize(ctx context.Context, question string, p plan.Plan, results []executor.MetricResult, cmp *executor.ComparisonOutcome) string {
	logger := common.Logger()
	if len(results) == 0 {
		return "I could not confidently map this question to the available datasets. " +
			"Try naming a dataset, a measure, or a time period."
	}
	payload, err := json.MarshalIndent(map[string]any{
		"question":   question,
		"plan":       p,
		"results":    results,
		"comparison": cmp,
	}, "", "  ")
	if err != nil {
		logger.Warn("summarizer: payload marshal failed, using fallback text", "error", err)
		return fallbackSummary(results, cmp)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	answer, err := s.provider.Chat(callCtx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: string(payload)},
	})
	if err != nil {
		logger.Warn("summarizer: model call failed, using fallback text", "error", err)
		return fallbackSummary(results, cmp)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return fallbackSummary(results, cmp)
	}
	return answer
}

// fallbackSummary lists each metric in plan order plus the comparison verdict.
func fallbackSummary(results []executor.MetricResult, cmp *executor.ComparisonOutcome) string {
	var b strings.Builder
	b.WriteString("Computed results:\n")
	for _, r := range results {
		if r.Failed() {
			fmt.Fprintf(&b, "- %s: %s\n", r.Name, r.Error)
			continue
		}
		fmt.Fprintf(&b, "- %s: %s (%s of %s.%s over %d rows)\n",
			r.Name, formatValue(r.Value), r.Agg, r.Dataset, r.Column, r.Rows)
	}
	if cmp != nil {
		if cmp.Winner != "" {
			fmt.Fprintf(&b, "%s is greater (%s vs %s).\n",
				cmp.Winner, formatValue(cmp.LeftValue), formatValue(cmp.RightValue))
		} else if cmp.Reason != "" {
			fmt.Fprintf(&b, "Comparison not resolved: %s.\n", cmp.Reason)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// File path: internal/planner/planner.go

// Package planner turns a natural-language question into a structured plan.
// Documentation snippets retrieved from the semantic index ground the model;
// any model failure degrades to the no-op fallback plan.
package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/prompts"

	"github.com/aquametrics/waterlens/internal/common"
	"github.com/aquametrics/waterlens/internal/llm"
	"github.com/aquametrics/waterlens/internal/plan"
	"github.com/aquametrics/waterlens/internal/semindex"
)

const (
	defaultTopK    = 8
	defaultTimeout = 30 * time.Second
)

const systemPrompt = `You translate questions about water-utility datasets into a JSON query plan.
Respond with a single JSON object and nothing else, using this schema:
{
  "time_scope": {"type": "all" | "year" | "range", "year": int, "start_year": int, "end_year": int},
  "metrics": [
    {
      "name": "short_snake_case_label",
      "dataset": "dataset name from the context",
      "column": "column name from the context",
      "agg": "sum" | "mean" | "max" | "min",
      "filters": [{"column": "...", "op": "==" | "!=" | ">" | ">=" | "<" | "<=", "value": ...}]
    }
  ],
  "comparison": {"type": "none" | "which_is_greater", "left_metric": "...", "right_metric": "..."}
}
Rules:
- Only use dataset and column names copied verbatim from the context, never invented ones.
- Prefer columns whose name contains "_pct" or "percentage" when the question is about proportions or coverage.
- Use filters for qualifiers like country, region, or category.
- Comparing two named entities yields two metrics, one per entity, each filtered to its entity; set comparison to "which_is_greater" naming both metrics.
- A single explicit year narrows time_scope to {"type": "year", "year": N}; a span of years uses "range".
- A question naming two explicit years yields two metrics, one per year, with time_scope "all".
- "on average" or "over the years" with no explicit year means agg "mean" over time_scope "all".
- If the question cannot be answered from the context, return {"time_scope": {"type": "all"}, "metrics": [], "comparison": {"type": "none"}}.`

const userTemplate = `Context about available datasets and columns:

{{.context}}

Question: {{.question}}

JSON plan:`

// Retriever is the slice of the semantic index the planner needs.
type Retriever interface {
	Retrieve(ctx context.Context, question string, limit int) ([]semindex.Hit, error)
}

// Compiler builds plans from questions.
type Compiler struct {
	provider llm.Provider
	index    Retriever
	template prompts.PromptTemplate
	topK     int
	timeout  time.Duration
}

type Option func(*Compiler)

// WithTopK overrides how many documentation snippets ground the prompt.
func WithTopK(k int) Option {
	return func(c *Compiler) {
		if k > 0 {
			c.topK = k
		}
	}
}

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) Option {
	return func(c *Compiler) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func New(provider llm.Provider, index Retriever, opts ...Option) *Compiler {
	c := &Compiler{
		provider: provider,
		index:    index,
		template: prompts.NewPromptTemplate(userTemplate, []string{"context", "question"}),
		topK:     defaultTopK,
		timeout:  defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile retrieves grounding snippets, asks the model for a JSON plan, and
// normalizes the result. Every failure path returns the fallback plan rather
// than an error so the pipeline always has something to execute.
func (c *Compiler) Compile(ctx context.Context, question string) plan.Plan {
	logger := common.Logger()
	hits, err := c.index.Retrieve(ctx, question, c.topK)
	if err != nil {
		logger.Warn("planner: retrieval failed, using fallback plan", "error", err)
		return plan.Fallback()
	}
	userPrompt, err := c.template.Format(map[string]any{
		"context":  renderContext(hits),
		"question": strings.TrimSpace(question),
	})
	if err != nil {
		logger.Warn("planner: prompt formatting failed, using fallback plan", "error", err)
		return plan.Fallback()
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	raw, err := c.provider.ChatJSON(callCtx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		logger.Warn("planner: model call failed, using fallback plan", "error", err)
		return plan.Fallback()
	}
	compiled := plan.Parse(raw)
	logger.Debug("planner: plan compiled", "metrics", len(compiled.Metrics), "comparison", compiled.Comparison.Type)
	return compiled
}

func renderContext(hits []semindex.Hit) string {
	if len(hits) == 0 {
		return "(no matching documentation)"
	}
	parts := make([]string, 0, len(hits))
	for _, hit := range hits {
		header := fmt.Sprintf("[%s] dataset=%s", hit.Kind, hit.Dataset)
		if hit.Column != "" {
			header += fmt.Sprintf(", column=%s", hit.Column)
		}
		parts = append(parts, header+"\n"+hit.Text)
	}
	return strings.Join(parts, "\n\n---\n\n")
}

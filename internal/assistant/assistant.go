// File path: internal/assistant/assistant.go

// Package assistant is the facade over the full question pipeline: compile a
// plan, execute it, evaluate the comparison, summarize, and optionally record
// the exchange.
package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aquametrics/waterlens/internal/common"
	"github.com/aquametrics/waterlens/internal/executor"
	"github.com/aquametrics/waterlens/internal/plan"
	"github.com/aquametrics/waterlens/internal/summarizer"
)

// ErrEmptyQuestion is returned for blank input; everything else degrades to a
// best-effort answer instead of an error.
var ErrEmptyQuestion = errors.New("question is empty")

// Compiler produces a plan from a question.
type Compiler interface {
	Compile(ctx context.Context, question string) plan.Plan
}

// Recorder persists answered exchanges. Recording failures are logged, never
// surfaced to the caller.
type Recorder interface {
	Record(ctx context.Context, question string, p plan.Plan, results []executor.MetricResult, answer string) error
}

// Response is the full pipeline output for one question.
type Response struct {
	Answer     string                      `json:"answer"`
	Plan       plan.Plan                   `json:"plan"`
	Results    []executor.MetricResult     `json:"results"`
	Comparison *executor.ComparisonOutcome `json:"comparison,omitempty"`
}

// Assistant wires the pipeline stages together.
type Assistant struct {
	compiler   Compiler
	executor   *executor.Executor
	summarizer *summarizer.Summarizer
	recorder   Recorder
}

func New(compiler Compiler, exec *executor.Executor, summ *summarizer.Summarizer, recorder Recorder) *Assistant {
	return &Assistant{compiler: compiler, executor: exec, summarizer: summ, recorder: recorder}
}

// Answer runs the pipeline and returns just the prose answer.
func (a *Assistant) Answer(ctx context.Context, question string) (string, error) {
	resp, err := a.AnswerDetailed(ctx, question)
	if err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// AnswerDetailed runs the pipeline and returns the answer together with the
// plan and per-metric results that produced it.
func (a *Assistant) AnswerDetailed(ctx context.Context, question string) (Response, error) {
	logger := common.Logger()
	question = strings.TrimSpace(question)
	if question == "" {
		return Response{}, ErrEmptyQuestion
	}
	started := time.Now()

	p := a.compiler.Compile(ctx, question)
	results := a.executor.Execute(p)
	cmp := executor.EvaluateComparison(p, results)
	answer := a.summarizer.Summarize(ctx, question, p, results, cmp)

	if a.recorder != nil {
		if err := a.recorder.Record(ctx, question, p, results, answer); err != nil {
			logger.Warn("assistant: failed to record exchange", "error", err)
		}
	}
	logger.Info("assistant: question answered",
		"metrics", len(results),
		"comparison", p.Comparison.Type,
		"elapsed", time.Since(started))
	return Response{Answer: answer, Plan: p, Results: results, Comparison: cmp}, nil
}

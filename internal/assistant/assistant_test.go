// File path: internal/assistant/assistant_test.go
package assistant

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aquametrics/waterlens/internal/catalog"
	"github.com/aquametrics/waterlens/internal/executor"
	"github.com/aquametrics/waterlens/internal/llm"
	"github.com/aquametrics/waterlens/internal/plan"
	"github.com/aquametrics/waterlens/internal/planner"
	"github.com/aquametrics/waterlens/internal/semindex"
	"github.com/aquametrics/waterlens/internal/summarizer"
	"github.com/aquametrics/waterlens/internal/tabular"
	"github.com/aquametrics/waterlens/internal/vector"
)

// pipelineProvider compiles a fixed plan and fails chat so the deterministic
// summary text is asserted end to end.
type pipelineProvider struct {
	planJSON string
}

func (p *pipelineProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	return "", errors.New("chat unavailable")
}

func (p *pipelineProvider) ChatJSON(ctx context.Context, messages []llm.Message) (string, error) {
	return p.planJSON, nil
}

func (p *pipelineProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	out := make([][]float32, len(input))
	for i := range out {
		out[i] = []float32{1}
	}
	return out, nil
}

func (p *pipelineProvider) Name() string { return "pipeline-stub" }

type capturingRecorder struct {
	question string
	answer   string
	calls    int
}

func (c *capturingRecorder) Record(ctx context.Context, question string, p plan.Plan, results []executor.MetricResult, answer string) error {
	c.calls++
	c.question = question
	c.answer = answer
	return nil
}

func buildAssistant(t *testing.T, provider llm.Provider, recorder Recorder) *Assistant {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "water_access.csv")
	contents := "country,report_date,pct_access\n" +
		"Kenya,2020-06-01,85\n" +
		"Ghana,2020-06-01,78\n" +
		"Kenya,2019-06-01,80\n"
	if err := os.WriteFile(csvPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	cat := catalog.New(catalog.Dataset{
		Name:        "water_access",
		Path:        csvPath,
		Description: "Population share with access to safely managed water.",
		ColumnNotes: "pct_access: percent of population with access",
	})
	tables, err := tabular.Load(context.Background(), cat)
	if err != nil {
		t.Fatalf("load tables: %v", err)
	}
	store, err := vector.NewLocal("")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	idx, err := semindex.Open(context.Background(), cat, tables, store, provider)
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	return New(
		planner.New(provider, idx),
		executor.New(tables),
		summarizer.New(provider),
		recorder,
	)
}

func TestAnswerDetailedEndToEnd(t *testing.T) {
	provider := &pipelineProvider{
		planJSON: `{"time_scope":{"type":"year","year":2020},` +
			`"metrics":[{"name":"kenya_access","dataset":"water_access","column":"pct_access","agg":"mean",` +
			`"filters":[{"column":"country","op":"==","value":"Kenya"}]}],` +
			`"comparison":{"type":"none"}}`,
	}
	recorder := &capturingRecorder{}
	a := buildAssistant(t, provider, recorder)

	resp, err := a.AnswerDetailed(context.Background(), "What was Kenya's average water access in 2020?")
	if err != nil {
		t.Fatalf("AnswerDetailed: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("results = %+v", resp.Results)
	}
	if resp.Results[0].Failed() || resp.Results[0].Value != 85 {
		t.Fatalf("kenya_access = %+v, want 85", resp.Results[0])
	}
	if !strings.Contains(resp.Answer, "kenya_access: 85") {
		t.Fatalf("answer missing value:\n%s", resp.Answer)
	}
	if resp.Comparison != nil {
		t.Fatalf("unexpected comparison: %+v", resp.Comparison)
	}
	if recorder.calls != 1 || recorder.answer != resp.Answer {
		t.Fatalf("recorder = %+v", recorder)
	}
}

func TestAnswerComparison(t *testing.T) {
	provider := &pipelineProvider{
		planJSON: `{"time_scope":{"type":"all"},` +
			`"metrics":[` +
			`{"name":"kenya","dataset":"water_access","column":"pct_access","agg":"max","filters":[{"column":"country","op":"==","value":"Kenya"}]},` +
			`{"name":"ghana","dataset":"water_access","column":"pct_access","agg":"max","filters":[{"column":"country","op":"==","value":"Ghana"}]}],` +
			`"comparison":{"type":"which_is_greater","left_metric":"kenya","right_metric":"ghana"}}`,
	}
	a := buildAssistant(t, provider, nil)

	resp, err := a.AnswerDetailed(context.Background(), "Is access higher in Kenya or Ghana?")
	if err != nil {
		t.Fatalf("AnswerDetailed: %v", err)
	}
	if resp.Comparison == nil || resp.Comparison.Winner != "kenya" {
		t.Fatalf("comparison = %+v, want winner kenya", resp.Comparison)
	}
	if !strings.Contains(resp.Answer, "kenya is greater") {
		t.Fatalf("answer missing verdict:\n%s", resp.Answer)
	}
}

func TestAnswerBlankQuestion(t *testing.T) {
	a := buildAssistant(t, &pipelineProvider{planJSON: "{}"}, nil)
	if _, err := a.Answer(context.Background(), "   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("err = %v, want ErrEmptyQuestion", err)
	}
}

func TestAnswerUnplannableQuestion(t *testing.T) {
	a := buildAssistant(t, &pipelineProvider{planJSON: "not json at all"}, nil)
	resp, err := a.AnswerDetailed(context.Background(), "what is the meaning of life?")
	if err != nil {
		t.Fatalf("AnswerDetailed: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Fatalf("results = %+v, want none", resp.Results)
	}
	if !strings.Contains(resp.Answer, "could not confidently") {
		t.Fatalf("answer = %q", resp.Answer)
	}
}

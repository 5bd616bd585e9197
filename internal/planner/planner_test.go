// File path: internal/planner/planner_test.go
package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aquametrics/waterlens/internal/llm"
	"github.com/aquametrics/waterlens/internal/plan"
	"github.com/aquametrics/waterlens/internal/semindex"
)

type stubProvider struct {
	reply      string
	err        error
	lastPrompt string
}

func (s *stubProvider) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	return s.reply, s.err
}

func (s *stubProvider) ChatJSON(ctx context.Context, messages []llm.Message) (string, error) {
	if len(messages) > 0 {
		s.lastPrompt = messages[len(messages)-1].Content
	}
	return s.reply, s.err
}

func (s *stubProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	return make([][]float32, len(input)), nil
}

func (s *stubProvider) Name() string { return "stub" }

type stubRetriever struct {
	hits []semindex.Hit
	err  error
}

func (s *stubRetriever) Retrieve(ctx context.Context, question string, limit int) ([]semindex.Hit, error) {
	return s.hits, s.err
}

func TestCompileValidPlan(t *testing.T) {
	provider := &stubProvider{
		reply: `{"time_scope":{"type":"year","year":2020},` +
			`"metrics":[{"name":"avg_access","dataset":"water_access","column":"pct_access","agg":"mean"}],` +
			`"comparison":{"type":"none"}}`,
	}
	retriever := &stubRetriever{hits: []semindex.Hit{
		{Kind: "column", Dataset: "water_access", Column: "pct_access", Text: "COLUMN: pct_access"},
	}}
	compiler := New(provider, retriever)

	p := compiler.Compile(context.Background(), "average access in 2020")
	if p.TimeScope.Year != 2020 || len(p.Metrics) != 1 || p.Metrics[0].Name != "avg_access" {
		t.Fatalf("plan = %+v", p)
	}
	if !strings.Contains(provider.lastPrompt, "dataset=water_access, column=pct_access") {
		t.Fatalf("prompt missing retrieval context:\n%s", provider.lastPrompt)
	}
	if !strings.Contains(provider.lastPrompt, "average access in 2020") {
		t.Fatalf("prompt missing question:\n%s", provider.lastPrompt)
	}
}

func TestCompileMalformedReplyFallsBack(t *testing.T) {
	compiler := New(&stubProvider{reply: "sorry, I cannot do that"}, &stubRetriever{})
	p := compiler.Compile(context.Background(), "anything")
	if len(p.Metrics) != 0 || p.Comparison.Type != plan.CompareNone {
		t.Fatalf("expected fallback plan, got %+v", p)
	}
}

func TestCompileProviderErrorFallsBack(t *testing.T) {
	compiler := New(&stubProvider{err: errors.New("boom")}, &stubRetriever{})
	p := compiler.Compile(context.Background(), "anything")
	if len(p.Metrics) != 0 || p.TimeScope.Type != plan.ScopeAll {
		t.Fatalf("expected fallback plan, got %+v", p)
	}
}

func TestCompileRetrievalErrorFallsBack(t *testing.T) {
	provider := &stubProvider{reply: `{"metrics":[{"name":"m","dataset":"d","column":"c","agg":"sum"}]}`}
	compiler := New(provider, &stubRetriever{err: errors.New("index offline")})
	p := compiler.Compile(context.Background(), "anything")
	if len(p.Metrics) != 0 {
		t.Fatalf("expected fallback plan, got %+v", p)
	}
}

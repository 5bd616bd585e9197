// File path: internal/plan/plan.go

// Package plan defines the structured query produced by the planner and
// consumed verbatim by the executor. A plan is plain data: no catalog or
// table lookups happen here.
package plan

import (
	"fmt"
	"strings"
)

// Aggregation names the reduction applied to a metric's surviving cells.
type Aggregation string

const (
	AggSum  Aggregation = "sum"
	AggMean Aggregation = "mean"
	AggMax  Aggregation = "max"
	AggMin  Aggregation = "min"
)

// Op names a filter comparison.
type Op string

const (
	OpEq Op = "=="
	OpNe Op = "!="
	OpGt Op = ">"
	OpGe Op = ">="
	OpLt Op = "<"
	OpLe Op = "<="
)

// KnownOp reports whether the executor understands the operator.
func KnownOp(op Op) bool {
	switch op {
	case OpEq, OpNe, OpGt, OpGe, OpLt, OpLe:
		return true
	}
	return false
}

// ScopeType discriminates the time scope variants.
type ScopeType string

const (
	ScopeAll   ScopeType = "all"
	ScopeYear  ScopeType = "year"
	ScopeRange ScopeType = "range"
)

// TimeScope restricts metrics to rows whose date column mentions the
// requested year or years. ScopeAll keeps every row.
type TimeScope struct {
	Type      ScopeType `json:"type"`
	Year      int       `json:"year,omitempty"`
	StartYear int       `json:"start_year,omitempty"`
	EndYear   int       `json:"end_year,omitempty"`
}

// Filter is one row predicate. Value stays untyped: the executor compares it
// against cells numerically when both sides coerce, textually otherwise.
type Filter struct {
	Column string `json:"column"`
	Op     Op     `json:"op"`
	Value  any    `json:"value"`
}

// Metric is one quantity to compute: an aggregation over one column of one
// dataset after time scoping and filtering.
type Metric struct {
	Name    string      `json:"name"`
	Dataset string      `json:"dataset"`
	Column  string      `json:"column"`
	Agg     Aggregation `json:"agg"`
	Filters []Filter    `json:"filters,omitempty"`
}

// ComparisonType discriminates the comparison variants.
type ComparisonType string

const (
	CompareNone    ComparisonType = "none"
	CompareGreater ComparisonType = "which_is_greater"
)

// Comparison optionally relates two named metrics.
type Comparison struct {
	Type        ComparisonType `json:"type"`
	LeftMetric  string         `json:"left_metric,omitempty"`
	RightMetric string         `json:"right_metric,omitempty"`
}

// Plan is the full structured query.
type Plan struct {
	TimeScope  TimeScope  `json:"time_scope"`
	Metrics    []Metric   `json:"metrics"`
	Comparison Comparison `json:"comparison"`
}

// Fallback is the no-op plan used whenever planning fails: no metrics, no
// comparison, all time. Executing it yields an empty result set rather than
// an error.
func Fallback() Plan {
	return Plan{
		TimeScope:  TimeScope{Type: ScopeAll},
		Metrics:    []Metric{},
		Comparison: Comparison{Type: CompareNone},
	}
}

// Normalize fills omitted fields with their defaults, downgrades unusable
// time scopes, and disambiguates duplicate metric names so results can be
// addressed by name.
func Normalize(p Plan) Plan {
	p.TimeScope = normalizeScope(p.TimeScope)
	if p.Comparison.Type == "" {
		p.Comparison.Type = CompareNone
	}
	if p.Metrics == nil {
		p.Metrics = []Metric{}
	}
	seen := make(map[string]int, len(p.Metrics))
	for i := range p.Metrics {
		m := &p.Metrics[i]
		m.Name = strings.TrimSpace(m.Name)
		if m.Name == "" {
			m.Name = fmt.Sprintf("metric_%d", i+1)
		}
		if n, dup := seen[m.Name]; dup {
			seen[m.Name] = n + 1
			m.Name = fmt.Sprintf("%s_%d", m.Name, n+1)
		}
		seen[m.Name] = seen[m.Name] + 1
		if m.Agg == "" {
			m.Agg = AggSum
		}
	}
	return p
}

// normalizeScope downgrades scopes the executor cannot apply meaningfully to
// ScopeAll: a year scope without a year would otherwise substring-match the
// zero digit against nearly every date string.
func normalizeScope(ts TimeScope) TimeScope {
	switch ts.Type {
	case ScopeYear:
		if ts.Year <= 0 {
			return TimeScope{Type: ScopeAll}
		}
	case ScopeRange:
		if ts.StartYear <= 0 || ts.EndYear <= 0 || ts.StartYear > ts.EndYear {
			return TimeScope{Type: ScopeAll}
		}
	case ScopeAll:
	default:
		return TimeScope{Type: ScopeAll}
	}
	return ts
}

// MetricNames returns the metric names in plan order.
func (p Plan) MetricNames() []string {
	names := make([]string, len(p.Metrics))
	for i, m := range p.Metrics {
		names[i] = m.Name
	}
	return names
}

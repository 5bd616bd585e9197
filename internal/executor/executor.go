// File path: internal/executor/executor.go

// Package executor runs a structured plan against the loaded tables. It is
// fully deterministic: no model calls, no I/O, per-metric errors reported as
// strings so one bad metric never poisons the rest of the plan.
package executor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aquametrics/waterlens/internal/common"
	"github.com/aquametrics/waterlens/internal/plan"
	"github.com/aquametrics/waterlens/internal/tabular"
)

// MetricResult is the outcome of one metric, in plan order. Exactly one of
// Value and Error is meaningful.
type MetricResult struct {
	Name    string           `json:"name"`
	Dataset string           `json:"dataset"`
	Column  string           `json:"column"`
	Agg     plan.Aggregation `json:"agg"`
	Value   float64          `json:"value"`
	Rows    int              `json:"rows"`
	Error   string           `json:"error,omitempty"`
}

// Failed reports whether the metric produced an error instead of a value.
func (r MetricResult) Failed() bool { return r.Error != "" }

// ComparisonOutcome is the evaluated comparison between two metric results.
// Winner is empty when no side is strictly greater; Reason explains why.
type ComparisonOutcome struct {
	Type       plan.ComparisonType `json:"type"`
	Left       string              `json:"left"`
	Right      string              `json:"right"`
	LeftValue  float64             `json:"left_value"`
	RightValue float64             `json:"right_value"`
	Winner     string              `json:"winner,omitempty"`
	Reason     string              `json:"reason,omitempty"`
}

// Executor evaluates plans against an immutable table store.
type Executor struct {
	tables *tabular.Store
}

func New(tables *tabular.Store) *Executor {
	return &Executor{tables: tables}
}

// Execute evaluates every metric independently and in plan order.
func (e *Executor) Execute(p plan.Plan) []MetricResult {
	results := make([]MetricResult, 0, len(p.Metrics))
	for _, metric := range p.Metrics {
		results = append(results, e.evaluateMetric(p.TimeScope, metric))
	}
	return results
}

func (e *Executor) evaluateMetric(scope plan.TimeScope, metric plan.Metric) MetricResult {
	result := MetricResult{
		Name:    metric.Name,
		Dataset: metric.Dataset,
		Column:  metric.Column,
		Agg:     metric.Agg,
	}
	table, ok := e.tables.Table(metric.Dataset)
	if !ok {
		result.Error = fmt.Sprintf("Unknown dataset %s", metric.Dataset)
		return result
	}
	if !table.HasColumn(metric.Column) {
		result.Error = fmt.Sprintf("Unknown column %s in %s", metric.Column, metric.Dataset)
		return result
	}

	values := make([]float64, 0, len(table.Rows))
	for _, row := range table.Rows {
		if !inTimeScope(scope, table, row) {
			continue
		}
		if !matchesFilters(table, row, metric.Filters) {
			continue
		}
		if v, ok := row[metric.Column].Coerce(); ok {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		result.Error = "No data after filtering"
		return result
	}
	result.Rows = len(values)

	switch metric.Agg {
	case plan.AggSum:
		result.Value = sum(values)
	case plan.AggMean:
		result.Value = sum(values) / float64(len(values))
	case plan.AggMax:
		result.Value = values[0]
		for _, v := range values[1:] {
			if v > result.Value {
				result.Value = v
			}
		}
	case plan.AggMin:
		result.Value = values[0]
		for _, v := range values[1:] {
			if v < result.Value {
				result.Value = v
			}
		}
	default:
		result.Error = fmt.Sprintf("Unknown agg %s", metric.Agg)
	}
	return result
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// inTimeScope keeps a row when the table's date column mentions one of the
// scoped years. Tables without a date column are never scoped.
func inTimeScope(scope plan.TimeScope, table *tabular.Table, row tabular.Row) bool {
	if scope.Type == plan.ScopeAll || scope.Type == "" {
		return true
	}
	dateCol, ok := table.DateColumn()
	if !ok {
		return true
	}
	cell := row[dateCol]
	if cell.IsNull() {
		return false
	}
	text := cell.String()
	switch scope.Type {
	case plan.ScopeYear:
		// Year 0 would substring-match the zero digit in most dates.
		if scope.Year <= 0 {
			return true
		}
		return strings.Contains(text, strconv.Itoa(scope.Year))
	case plan.ScopeRange:
		if scope.StartYear <= 0 || scope.EndYear <= 0 {
			return true
		}
		for year := scope.StartYear; year <= scope.EndYear; year++ {
			if strings.Contains(text, strconv.Itoa(year)) {
				return true
			}
		}
		return false
	}
	return true
}

// matchesFilters ANDs the predicates. Filters naming absent columns or
// unknown operators are skipped; null cells never match.
func matchesFilters(table *tabular.Table, row tabular.Row, filters []plan.Filter) bool {
	for _, f := range filters {
		if !table.HasColumn(f.Column) {
			common.Logger().Debug("executor: skipping filter on absent column", "column", f.Column, "dataset", table.Name)
			continue
		}
		if !plan.KnownOp(f.Op) {
			common.Logger().Debug("executor: skipping filter with unknown op", "op", f.Op)
			continue
		}
		cell := row[f.Column]
		if cell.IsNull() {
			return false
		}
		if !compare(cell, f.Op, f.Value) {
			return false
		}
	}
	return true
}

// compare prefers numeric comparison when both sides coerce to floats and
// falls back to string comparison otherwise.
func compare(cell tabular.Value, op plan.Op, value any) bool {
	if cellNum, ok := cell.Coerce(); ok {
		if filterNum, ok := coerceFilterValue(value); ok {
			return compareFloats(cellNum, op, filterNum)
		}
	}
	return compareStrings(cell.String(), op, stringifyFilterValue(value))
}

func coerceFilterValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func stringifyFilterValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func compareFloats(left float64, op plan.Op, right float64) bool {
	switch op {
	case plan.OpEq:
		return left == right
	case plan.OpNe:
		return left != right
	case plan.OpGt:
		return left > right
	case plan.OpGe:
		return left >= right
	case plan.OpLt:
		return left < right
	case plan.OpLe:
		return left <= right
	}
	return false
}

func compareStrings(left string, op plan.Op, right string) bool {
	switch op {
	case plan.OpEq:
		return left == right
	case plan.OpNe:
		return left != right
	case plan.OpGt:
		return left > right
	case plan.OpGe:
		return left >= right
	case plan.OpLt:
		return left < right
	case plan.OpLe:
		return left <= right
	}
	return false
}

// EvaluateComparison resolves the plan's comparison against computed results.
// Returns nil when the plan carries no comparison.
func EvaluateComparison(p plan.Plan, results []MetricResult) *ComparisonOutcome {
	if p.Comparison.Type == plan.CompareNone || p.Comparison.Type == "" {
		return nil
	}
	outcome := &ComparisonOutcome{
		Type:  p.Comparison.Type,
		Left:  p.Comparison.LeftMetric,
		Right: p.Comparison.RightMetric,
	}
	left, leftOK := findResult(results, p.Comparison.LeftMetric)
	right, rightOK := findResult(results, p.Comparison.RightMetric)
	switch {
	case !leftOK:
		outcome.Reason = fmt.Sprintf("metric %s was not computed", p.Comparison.LeftMetric)
	case !rightOK:
		outcome.Reason = fmt.Sprintf("metric %s was not computed", p.Comparison.RightMetric)
	case left.Failed():
		outcome.Reason = fmt.Sprintf("metric %s failed: %s", left.Name, left.Error)
	case right.Failed():
		outcome.Reason = fmt.Sprintf("metric %s failed: %s", right.Name, right.Error)
	default:
		outcome.LeftValue = left.Value
		outcome.RightValue = right.Value
		switch {
		case left.Value > right.Value:
			outcome.Winner = left.Name
		case right.Value > left.Value:
			outcome.Winner = right.Name
		default:
			outcome.Reason = "both metrics are equal"
		}
	}
	return outcome
}

func findResult(results []MetricResult, name string) (MetricResult, bool) {
	for _, r := range results {
		if r.Name == name {
			return r, true
		}
	}
	return MetricResult{}, false
}

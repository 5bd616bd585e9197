// File path: internal/executor/executor_test.go
package executor

import (
	"fmt"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/aquametrics/waterlens/internal/plan"
	"github.com/aquametrics/waterlens/internal/tabular"
)

func testStore() *tabular.Store {
	usage := &tabular.Table{
		Name:    "production_daily",
		Columns: []string{"report_date", "volume_m3", "region"},
		Rows: []tabular.Row{
			{"report_date": tabular.Text("2020-01-05"), "volume_m3": tabular.Number(10), "region": tabular.Text("north")},
			{"report_date": tabular.Text("2020-02-11"), "volume_m3": tabular.Number(20), "region": tabular.Text("south")},
			{"report_date": tabular.Text("2020-03-20"), "volume_m3": tabular.Text("x"), "region": tabular.Text("north")},
			{"report_date": tabular.Text("2021-01-09"), "volume_m3": tabular.Null, "region": tabular.Text("south")},
			{"report_date": tabular.Text("2021-06-15"), "volume_m3": tabular.Number(30), "region": tabular.Text("north")},
		},
	}
	access := &tabular.Table{
		Name:    "water_access",
		Columns: []string{"country", "pct_access"},
		Rows: []tabular.Row{
			{"country": tabular.Text("Kenya"), "pct_access": tabular.Number(85)},
			{"country": tabular.Text("Ghana"), "pct_access": tabular.Number(78)},
		},
	}
	return tabular.NewStore(usage, access)
}

func TestExecuteFilterAndAggregate(t *testing.T) {
	exec := New(testStore())
	p := plan.Normalize(plan.Plan{
		Metrics: []plan.Metric{
			{Name: "total", Dataset: "production_daily", Column: "volume_m3", Agg: plan.AggSum,
				Filters: []plan.Filter{{Column: "volume_m3", Op: plan.OpGt, Value: float64(15)}}},
			{Name: "average", Dataset: "production_daily", Column: "volume_m3", Agg: plan.AggMean,
				Filters: []plan.Filter{{Column: "volume_m3", Op: plan.OpGt, Value: float64(15)}}},
		},
	})
	results := exec.Execute(p)
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Failed() || results[0].Value != 50 {
		t.Fatalf("sum = %+v, want 50", results[0])
	}
	if results[1].Failed() || results[1].Value != 25 {
		t.Fatalf("mean = %+v, want 25", results[1])
	}
	if results[1].Rows != 2 {
		t.Fatalf("mean rows = %d, want 2", results[1].Rows)
	}
}

func TestExecuteTimeScopeYear(t *testing.T) {
	exec := New(testStore())
	p := plan.Normalize(plan.Plan{
		TimeScope: plan.TimeScope{Type: plan.ScopeYear, Year: 2020},
		Metrics: []plan.Metric{
			{Name: "total_2020", Dataset: "production_daily", Column: "volume_m3", Agg: plan.AggSum},
		},
	})
	results := exec.Execute(p)
	if results[0].Failed() || results[0].Value != 30 {
		t.Fatalf("total_2020 = %+v, want 30", results[0])
	}
}

func TestExecuteTimeScopeRange(t *testing.T) {
	exec := New(testStore())
	p := plan.Normalize(plan.Plan{
		TimeScope: plan.TimeScope{Type: plan.ScopeRange, StartYear: 2020, EndYear: 2021},
		Metrics: []plan.Metric{
			{Name: "total", Dataset: "production_daily", Column: "volume_m3", Agg: plan.AggSum},
		},
	})
	if got := exec.Execute(p)[0]; got.Failed() || got.Value != 60 {
		t.Fatalf("range total = %+v, want 60", got)
	}

	// Inverted range matches nothing.
	p.TimeScope = plan.TimeScope{Type: plan.ScopeRange, StartYear: 2021, EndYear: 2020}
	if got := exec.Execute(p)[0]; got.Error != "No data after filtering" {
		t.Fatalf("inverted range = %+v", got)
	}
}

func TestExecuteYearScopeWithoutYearKeepsAllRows(t *testing.T) {
	// A zero year must not substring-match the zero digit in date strings:
	// the 1911 row carries no zero and would be the only row dropped.
	table := &tabular.Table{
		Name:    "samples",
		Columns: []string{"report_date", "value"},
		Rows: []tabular.Row{
			{"report_date": tabular.Text("2020-01-05"), "value": tabular.Number(10)},
			{"report_date": tabular.Text("1911-11-11"), "value": tabular.Number(20)},
			{"report_date": tabular.Text("1987-06-15"), "value": tabular.Number(30)},
		},
	}
	exec := New(tabular.NewStore(table))
	p := plan.Plan{
		TimeScope: plan.TimeScope{Type: plan.ScopeYear},
		Metrics: []plan.Metric{
			{Name: "total", Dataset: "samples", Column: "value", Agg: plan.AggSum},
		},
	}
	if got := exec.Execute(p)[0]; got.Failed() || got.Value != 60 || got.Rows != 3 {
		t.Fatalf("total = %+v, want all 3 rows summing to 60", got)
	}

	p.TimeScope = plan.TimeScope{Type: plan.ScopeRange, StartYear: 0, EndYear: 2020}
	if got := exec.Execute(p)[0]; got.Failed() || got.Rows != 3 {
		t.Fatalf("zero-bounded range = %+v, want all 3 rows", got)
	}
}

func TestExecuteScopeIgnoredWithoutDateColumn(t *testing.T) {
	exec := New(testStore())
	p := plan.Normalize(plan.Plan{
		TimeScope: plan.TimeScope{Type: plan.ScopeYear, Year: 1999},
		Metrics: []plan.Metric{
			{Name: "avg", Dataset: "water_access", Column: "pct_access", Agg: plan.AggMean},
		},
	})
	if got := exec.Execute(p)[0]; got.Failed() || got.Value != 81.5 {
		t.Fatalf("avg = %+v, want 81.5", got)
	}
}

func TestExecuteErrorStrings(t *testing.T) {
	exec := New(testStore())
	p := plan.Plan{
		TimeScope: plan.TimeScope{Type: plan.ScopeAll},
		Metrics: []plan.Metric{
			{Name: "a", Dataset: "nope", Column: "volume_m3", Agg: plan.AggSum},
			{Name: "b", Dataset: "production_daily", Column: "nope", Agg: plan.AggSum},
			{Name: "c", Dataset: "production_daily", Column: "volume_m3", Agg: "median"},
			{Name: "d", Dataset: "production_daily", Column: "volume_m3", Agg: plan.AggSum,
				Filters: []plan.Filter{{Column: "volume_m3", Op: plan.OpGt, Value: float64(1000)}}},
		},
	}
	results := exec.Execute(p)
	want := []string{
		"Unknown dataset nope",
		"Unknown column nope in production_daily",
		"Unknown agg median",
		"No data after filtering",
	}
	for i, expected := range want {
		if results[i].Error != expected {
			t.Fatalf("result %d error = %q, want %q", i, results[i].Error, expected)
		}
	}
}

func TestExecuteMetricIsolation(t *testing.T) {
	exec := New(testStore())
	p := plan.Plan{
		TimeScope: plan.TimeScope{Type: plan.ScopeAll},
		Metrics: []plan.Metric{
			{Name: "bad", Dataset: "nope", Column: "x", Agg: plan.AggSum},
			{Name: "good", Dataset: "water_access", Column: "pct_access", Agg: plan.AggMax},
		},
	}
	results := exec.Execute(p)
	if !results[0].Failed() {
		t.Fatalf("bad metric should fail: %+v", results[0])
	}
	if results[1].Failed() || results[1].Value != 85 {
		t.Fatalf("good metric = %+v, want 85", results[1])
	}
}

func TestExecuteUnknownFilterColumnSkipped(t *testing.T) {
	exec := New(testStore())
	p := plan.Plan{
		TimeScope: plan.TimeScope{Type: plan.ScopeAll},
		Metrics: []plan.Metric{
			{Name: "avg", Dataset: "water_access", Column: "pct_access", Agg: plan.AggMean,
				Filters: []plan.Filter{
					{Column: "no_such_column", Op: plan.OpEq, Value: "whatever"},
					{Column: "country", Op: "contains", Value: "K"},
				}},
		},
	}
	if got := exec.Execute(p)[0]; got.Failed() || got.Value != 81.5 {
		t.Fatalf("avg = %+v, want 81.5 with both filters skipped", got)
	}
}

func TestExecuteStringFilter(t *testing.T) {
	exec := New(testStore())
	p := plan.Plan{
		TimeScope: plan.TimeScope{Type: plan.ScopeAll},
		Metrics: []plan.Metric{
			{Name: "kenya", Dataset: "water_access", Column: "pct_access", Agg: plan.AggMean,
				Filters: []plan.Filter{{Column: "country", Op: plan.OpEq, Value: "Kenya"}}},
		},
	}
	if got := exec.Execute(p)[0]; got.Failed() || got.Value != 85 {
		t.Fatalf("kenya = %+v, want 85", got)
	}
}

func TestEvaluateComparison(t *testing.T) {
	p := plan.Plan{Comparison: plan.Comparison{Type: plan.CompareGreater, LeftMetric: "a", RightMetric: "b"}}
	results := []MetricResult{
		{Name: "a", Value: 42},
		{Name: "b", Value: 57},
	}
	outcome := EvaluateComparison(p, results)
	if outcome == nil || outcome.Winner != "b" {
		t.Fatalf("outcome = %+v, want winner b", outcome)
	}
	if outcome.LeftValue != 42 || outcome.RightValue != 57 {
		t.Fatalf("outcome values = %+v", outcome)
	}

	tie := EvaluateComparison(p, []MetricResult{{Name: "a", Value: 5}, {Name: "b", Value: 5}})
	if tie.Winner != "" || tie.Reason != "both metrics are equal" {
		t.Fatalf("tie = %+v", tie)
	}

	failed := EvaluateComparison(p, []MetricResult{{Name: "a", Error: "No data after filtering"}, {Name: "b", Value: 5}})
	if failed.Winner != "" || failed.Reason == "" {
		t.Fatalf("failed operand = %+v", failed)
	}

	if EvaluateComparison(plan.Plan{Comparison: plan.Comparison{Type: plan.CompareNone}}, results) != nil {
		t.Fatal("none comparison should yield nil")
	}
}

func TestAggregationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	valuesGen := gen.SliceOfN(12, gen.Float64Range(-1e6, 1e6)).SuchThat(func(v []float64) bool {
		return len(v) > 0
	})

	properties.Property("min <= mean <= max", prop.ForAll(
		func(values []float64) bool {
			exec := New(tabular.NewStore(tableFromValues(values)))
			results := exec.Execute(aggPlan())
			minV, meanV, maxV := results[0].Value, results[1].Value, results[2].Value
			return minV <= meanV+1e-6 && meanV <= maxV+1e-6
		},
		valuesGen,
	))

	properties.Property("sum equals mean times count", prop.ForAll(
		func(values []float64) bool {
			exec := New(tabular.NewStore(tableFromValues(values)))
			results := exec.Execute(aggPlan())
			meanV, sumV := results[1].Value, results[3].Value
			return math.Abs(sumV-meanV*float64(len(values))) < 1e-3
		},
		valuesGen,
	))

	properties.TestingRun(t)
}

func tableFromValues(values []float64) *tabular.Table {
	table := &tabular.Table{Name: "samples", Columns: []string{"id", "value"}}
	for i, v := range values {
		table.Rows = append(table.Rows, tabular.Row{
			"id":    tabular.Text(fmt.Sprintf("r%d", i)),
			"value": tabular.Number(v),
		})
	}
	return table
}

func aggPlan() plan.Plan {
	return plan.Plan{
		TimeScope: plan.TimeScope{Type: plan.ScopeAll},
		Metrics: []plan.Metric{
			{Name: "min", Dataset: "samples", Column: "value", Agg: plan.AggMin},
			{Name: "mean", Dataset: "samples", Column: "value", Agg: plan.AggMean},
			{Name: "max", Dataset: "samples", Column: "value", Agg: plan.AggMax},
			{Name: "sum", Dataset: "samples", Column: "value", Agg: plan.AggSum},
		},
	}
}

// File path: internal/semindex/documents.go
package semindex

import (
	"fmt"
	"strings"

	"github.com/aquametrics/waterlens/internal/catalog"
	"github.com/aquametrics/waterlens/internal/tabular"
	"github.com/aquametrics/waterlens/internal/vector"
)

const (
	KindDataset = "dataset"
	KindColumn  = "column"

	maxExampleValues = 5
)

func datasetDocID(name string) string { return "dataset::" + name }

func columnDocID(name, column string) string { return "column::" + name + "::" + column }

// BuildDocuments renders one searchable document per dataset plus one per
// loaded column. Datasets whose file never loaded still get a dataset
// document so retrieval can at least name them.
func BuildDocuments(cat *catalog.Catalog, store *tabular.Store) []vector.Document {
	docs := make([]vector.Document, 0, cat.Len()*4)
	for _, ds := range cat.Datasets() {
		table, loaded := store.Table(ds.Name)

		var columns []string
		if loaded {
			columns = table.Columns
		}
		docs = append(docs, vector.Document{
			ID:   datasetDocID(ds.Name),
			Text: datasetText(ds, columns),
			Metadata: map[string]string{
				"kind":    KindDataset,
				"dataset": ds.Name,
			},
		})
		if !loaded {
			continue
		}
		for _, column := range table.Columns {
			docs = append(docs, vector.Document{
				ID:   columnDocID(ds.Name, column),
				Text: columnText(ds, table, column),
				Metadata: map[string]string{
					"kind":    KindColumn,
					"dataset": ds.Name,
					"column":  column,
				},
			})
		}
	}
	return docs
}

func datasetText(ds catalog.Dataset, columns []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "DATASET: %s\n", ds.Name)
	fmt.Fprintf(&b, "DESCRIPTION: %s\n", strings.TrimSpace(ds.Description))
	fmt.Fprintf(&b, "COLUMNS: %s", strings.Join(columns, ", "))
	return b.String()
}

func columnText(ds catalog.Dataset, table *tabular.Table, column string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "DATASET: %s\n", ds.Name)
	fmt.Fprintf(&b, "COLUMN: %s\n", column)
	fmt.Fprintf(&b, "NOTE: %s\n", ds.NoteFor(column))
	fmt.Fprintf(&b, "EXAMPLE_VALUES: %s", strings.Join(exampleValues(table, column), ", "))
	return b.String()
}

// exampleValues collects up to a handful of distinct non-null cell renderings
// in row order.
func exampleValues(table *tabular.Table, column string) []string {
	seen := make(map[string]struct{}, maxExampleValues)
	out := make([]string, 0, maxExampleValues)
	for _, row := range table.Rows {
		cell, ok := row[column]
		if !ok || cell.IsNull() {
			continue
		}
		text := cell.String()
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		out = append(out, text)
		if len(out) == maxExampleValues {
			break
		}
	}
	return out
}

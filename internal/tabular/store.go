// File path: internal/tabular/store.go
package tabular

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/aquametrics/waterlens/internal/catalog"
	"github.com/aquametrics/waterlens/internal/common"
)

// Store holds every cataloged dataset as an in-memory table. It is populated
// once at startup and read-only afterwards.
type Store struct {
	tables map[string]*Table
}

// Load reads all cataloged CSV files. Datasets whose file is missing are
// logged and skipped; an entirely empty store is a configuration error.
func Load(ctx context.Context, cat *catalog.Catalog) (*Store, error) {
	logger := common.Logger()
	store := &Store{tables: make(map[string]*Table)}
	for _, ds := range cat.Datasets() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		table, err := loadTable(ds.Name, ds.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Warn("tabular: dataset file missing", "dataset", ds.Name, "path", ds.Path)
				continue
			}
			return nil, fmt.Errorf("load dataset %s: %w", ds.Name, err)
		}
		logger.Debug("tabular: dataset loaded", "dataset", ds.Name, "rows", len(table.Rows), "columns", len(table.Columns))
		store.tables[ds.Name] = table
	}
	if len(store.tables) == 0 {
		return nil, errors.New("no datasets loaded")
	}
	logger.Info("tabular: store ready", "datasets", len(store.tables))
	return store, nil
}

// NewStore builds a store from pre-assembled tables; used by tests.
func NewStore(tables ...*Table) *Store {
	store := &Store{tables: make(map[string]*Table, len(tables))}
	for _, t := range tables {
		if t == nil || strings.TrimSpace(t.Name) == "" {
			continue
		}
		store.tables[t.Name] = t
	}
	return store
}

// Table returns the loaded table for a dataset name.
func (s *Store) Table(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Names returns the loaded dataset names, sorted.
func (s *Store) Names() []string {
	out := make([]string, 0, len(s.tables))
	for name := range s.tables {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Len reports the number of loaded tables.
func (s *Store) Len() int {
	return len(s.tables)
}

func loadTable(name, path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file %s", path)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, col := range header {
		columns[i] = strings.TrimSpace(col)
	}

	table := &Table{Name: name, Columns: columns}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			if i >= len(record) {
				row[col] = Null
				continue
			}
			row[col] = parseCell(col, record[i])
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

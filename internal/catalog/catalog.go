// File path: internal/catalog/catalog.go
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Dataset describes one cataloged data extract: where its file lives, what
// the table is about, and free-text notes with one line per column.
type Dataset struct {
	Name        string `yaml:"-"`
	Path        string `yaml:"path"`
	Description string `yaml:"description"`
	ColumnNotes string `yaml:"column_notes"`
}

// NoteFor returns the first column-notes line containing the column name, or
// an empty string when no line matches.
func (d Dataset) NoteFor(column string) string {
	if strings.TrimSpace(column) == "" {
		return ""
	}
	for _, line := range strings.Split(d.ColumnNotes, "\n") {
		if strings.Contains(line, column) {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

// Catalog is the immutable registry of datasets the assistant may consult.
// It is built once at startup and never mutated afterwards.
type Catalog struct {
	datasets map[string]Dataset
}

type catalogFile struct {
	Datasets map[string]Dataset `yaml:"datasets"`
}

// Load builds the catalog from the built-in defaults, an optional YAML
// overlay file, and a data directory that relative dataset paths are resolved
// against. A missing overlay path is not an error; an unreadable one is.
func Load(overlayPath, dataDir string) (*Catalog, error) {
	cat := Default()
	if trimmed := strings.TrimSpace(overlayPath); trimmed != "" {
		data, err := os.ReadFile(filepath.Clean(trimmed))
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read catalog overlay: %w", err)
			}
		} else {
			var overlay catalogFile
			if err := yaml.Unmarshal(data, &overlay); err != nil {
				return nil, fmt.Errorf("parse catalog overlay: %w", err)
			}
			cat.merge(overlay.Datasets)
		}
	}
	if trimmed := strings.TrimSpace(dataDir); trimmed != "" {
		cat.resolve(trimmed)
	}
	return cat, nil
}

func (c *Catalog) merge(overlay map[string]Dataset) {
	for name, ds := range overlay {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		existing, ok := c.datasets[trimmed]
		if !ok {
			existing = Dataset{Name: trimmed}
		}
		if strings.TrimSpace(ds.Path) != "" {
			existing.Path = strings.TrimSpace(ds.Path)
		}
		if strings.TrimSpace(ds.Description) != "" {
			existing.Description = ds.Description
		}
		if strings.TrimSpace(ds.ColumnNotes) != "" {
			existing.ColumnNotes = ds.ColumnNotes
		}
		c.datasets[trimmed] = existing
	}
}

func (c *Catalog) resolve(dataDir string) {
	for name, ds := range c.datasets {
		if ds.Path != "" && !filepath.IsAbs(ds.Path) {
			ds.Path = filepath.Join(dataDir, ds.Path)
			c.datasets[name] = ds
		}
	}
}

// Get returns the descriptor for a dataset name.
func (c *Catalog) Get(name string) (Dataset, bool) {
	ds, ok := c.datasets[name]
	return ds, ok
}

// Datasets returns all descriptors sorted by name. Iteration order is stable
// so derived artifacts (signatures, index documents) are reproducible.
func (c *Catalog) Datasets() []Dataset {
	out := make([]Dataset, 0, len(c.datasets))
	for _, ds := range c.datasets {
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len reports the number of cataloged datasets.
func (c *Catalog) Len() int {
	return len(c.datasets)
}

// New builds a catalog from explicit descriptors; used by tests and callers
// that assemble their own registry.
func New(datasets ...Dataset) *Catalog {
	cat := &Catalog{datasets: make(map[string]Dataset, len(datasets))}
	for _, ds := range datasets {
		if strings.TrimSpace(ds.Name) == "" {
			continue
		}
		cat.datasets[ds.Name] = ds
	}
	return cat
}

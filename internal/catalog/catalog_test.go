// File path: internal/catalog/catalog_test.go
package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	cat := Default()
	if cat.Len() != 8 {
		t.Fatalf("default catalog has %d datasets, want 8", cat.Len())
	}
	for _, name := range []string{
		"production_daily", "billing_customers", "all_fin_service", "all_national",
		"s_access", "s_service", "water_access", "water_service",
	} {
		ds, ok := cat.Get(name)
		if !ok {
			t.Fatalf("missing dataset %s", name)
		}
		if ds.Description == "" || ds.Path == "" {
			t.Fatalf("dataset %s incomplete: %+v", name, ds)
		}
	}
	names := cat.Datasets()
	for i := 1; i < len(names); i++ {
		if names[i-1].Name >= names[i].Name {
			t.Fatalf("Datasets() not sorted: %s before %s", names[i-1].Name, names[i].Name)
		}
	}
}

func TestNoteFor(t *testing.T) {
	ds := Dataset{ColumnNotes: "volume_m3: produced volume in m3\nregion: service region name"}
	if got := ds.NoteFor("region"); got != "region: service region name" {
		t.Fatalf("NoteFor(region) = %q", got)
	}
	if got := ds.NoteFor("missing"); got != "" {
		t.Fatalf("NoteFor(missing) = %q, want empty", got)
	}
	if got := ds.NoteFor(""); got != "" {
		t.Fatalf("NoteFor(empty) = %q, want empty", got)
	}
}

func TestLoadOverlayAndResolve(t *testing.T) {
	dir := t.TempDir()
	overlay := filepath.Join(dir, "catalog.yaml")
	contents := `datasets:
  water_access:
    description: "Overridden description."
  custom_extract:
    path: custom.csv
    description: "A site-specific extract."
    column_notes: "value: the measured value"
`
	if err := os.WriteFile(overlay, []byte(contents), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	cat, err := Load(overlay, "/srv/data")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	ds, ok := cat.Get("water_access")
	if !ok || ds.Description != "Overridden description." {
		t.Fatalf("override not applied: %+v", ds)
	}
	if ds.ColumnNotes == "" {
		t.Fatal("override dropped default column notes")
	}
	custom, ok := cat.Get("custom_extract")
	if !ok {
		t.Fatal("overlay dataset missing")
	}
	if custom.Path != filepath.Join("/srv/data", "custom.csv") {
		t.Fatalf("relative path not resolved: %q", custom.Path)
	}
}

func TestLoadMissingOverlayIsFine(t *testing.T) {
	cat, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cat.Len() != 8 {
		t.Fatalf("catalog has %d datasets, want defaults", cat.Len())
	}
}

func TestLoadBadOverlayErrors(t *testing.T) {
	overlay := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(overlay, []byte(":\tnot yaml"), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	if _, err := Load(overlay, ""); err == nil {
		t.Fatal("expected parse error")
	}
}

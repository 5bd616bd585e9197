// File path: internal/semindex/signature.go
package semindex

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/aquametrics/waterlens/internal/catalog"
)

// metaKey is the bookkeeping entry in the vector store that records which
// catalog state the persisted index was built from.
const metaKey = "__meta__"

type signatureEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	ModTime     *int64 `json:"mtime"`
	Description string `json:"description"`
	ColumnNotes string `json:"column_notes"`
}

// Signature fingerprints the catalog: names, paths, file modification times,
// and documentation text. Any change forces a rebuild of the persisted index.
func Signature(cat *catalog.Catalog) string {
	entries := make([]signatureEntry, 0, cat.Len())
	for _, ds := range cat.Datasets() {
		entry := signatureEntry{
			Name:        ds.Name,
			Path:        ds.Path,
			Description: ds.Description,
			ColumnNotes: ds.ColumnNotes,
		}
		if info, err := os.Stat(ds.Path); err == nil {
			mtime := info.ModTime().Unix()
			entry.ModTime = &mtime
		}
		entries = append(entries, entry)
	}
	data, err := json.Marshal(entries)
	if err != nil {
		// Entries are plain strings and ints; marshal cannot fail in practice.
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

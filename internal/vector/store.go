// File path: internal/vector/store.go
package vector

import "context"

// Document is one embedded unit of text with string metadata.
type Document struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SearchResult is one similarity match, higher scores first.
type SearchResult struct {
	ID       string
	Score    float32
	Text     string
	Metadata map[string]string
}

// Store persists embedded documents and serves similarity search. Meta
// entries carry small bookkeeping values (the index signature) alongside the
// documents so cache coherence survives process restarts.
type Store interface {
	Count(ctx context.Context) (int, error)
	Meta(ctx context.Context, key string) (string, error)
	SetMeta(ctx context.Context, key, value string) error
	Upsert(ctx context.Context, docs []Document, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error)
	Reset(ctx context.Context) error
}

// Dimension returns the first non-empty vector length in a batch.
func Dimension(vectors [][]float32) int {
	for _, vec := range vectors {
		if len(vec) > 0 {
			return len(vec)
		}
	}
	return 0
}

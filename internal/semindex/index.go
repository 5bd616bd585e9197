// File path: internal/semindex/index.go
package semindex

import (
	"context"
	"fmt"
	"strings"

	"github.com/aquametrics/waterlens/internal/catalog"
	"github.com/aquametrics/waterlens/internal/common"
	"github.com/aquametrics/waterlens/internal/llm"
	"github.com/aquametrics/waterlens/internal/tabular"
	"github.com/aquametrics/waterlens/internal/vector"
)

const embedBatchSize = 64

// Hit is one retrieved documentation snippet.
type Hit struct {
	ID      string
	Kind    string
	Dataset string
	Column  string
	Text    string
	Score   float32
}

// Status reports the persisted index state for diagnostics.
type Status struct {
	Documents int    `json:"documents"`
	Signature string `json:"signature"`
	Provider  string `json:"provider"`
}

// Index is the semantic layer over dataset and column documentation. The
// persisted store is reused across runs as long as the catalog signature
// matches; otherwise it is rebuilt from scratch.
type Index struct {
	store     vector.Store
	provider  llm.Provider
	signature string
}

// Open readies the index: reuse the persisted store when its recorded
// signature matches the current catalog, rebuild otherwise.
func Open(ctx context.Context, cat *catalog.Catalog, tables *tabular.Store, store vector.Store, provider llm.Provider) (*Index, error) {
	logger := common.Logger()
	idx := &Index{store: store, provider: provider, signature: Signature(cat)}

	count, err := store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count index documents: %w", err)
	}
	if count > 0 {
		recorded, err := store.Meta(ctx, metaKey)
		if err != nil {
			return nil, fmt.Errorf("read index signature: %w", err)
		}
		if recorded == idx.signature {
			logger.Info("semindex: reusing persisted index", "documents", count)
			return idx, nil
		}
		logger.Info("semindex: catalog changed, rebuilding index", "documents", count)
		if err := store.Reset(ctx); err != nil {
			return nil, fmt.Errorf("reset stale index: %w", err)
		}
	}
	if err := idx.build(ctx, cat, tables); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *Index) build(ctx context.Context, cat *catalog.Catalog, tables *tabular.Store) error {
	logger := common.Logger()
	docs := BuildDocuments(cat, tables)
	logger.Info("semindex: building index", "documents", len(docs), "provider", idx.provider.Name())

	for start := 0; start < len(docs); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(docs) {
			end = len(docs)
		}
		batch := docs[start:end]
		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.Text
		}
		vectors, err := idx.provider.Embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed documents: %w", err)
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embed documents: got %d vectors for %d texts", len(vectors), len(batch))
		}
		if err := idx.store.Upsert(ctx, batch, vectors); err != nil {
			return fmt.Errorf("store documents: %w", err)
		}
	}
	if err := idx.store.SetMeta(ctx, metaKey, idx.signature); err != nil {
		return fmt.Errorf("record index signature: %w", err)
	}
	logger.Info("semindex: index built", "documents", len(docs))
	return nil
}

// Retrieve embeds the question and returns the closest documentation
// snippets, best first.
func (idx *Index) Retrieve(ctx context.Context, question string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 8
	}
	vectors, err := idx.provider.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embed question: empty response")
	}
	results, err := idx.store.Search(ctx, vectors[0], limit+1)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	hits := make([]Hit, 0, len(results))
	for _, res := range results {
		if strings.HasPrefix(res.ID, metaKey) {
			continue
		}
		hits = append(hits, Hit{
			ID:      res.ID,
			Kind:    res.Metadata["kind"],
			Dataset: res.Metadata["dataset"],
			Column:  res.Metadata["column"],
			Text:    res.Text,
			Score:   res.Score,
		})
		if len(hits) == limit {
			break
		}
	}
	return hits, nil
}

// Signature returns the catalog fingerprint the index was opened against.
func (idx *Index) Signature() string {
	return idx.signature
}

// Status reports document count and signature for the status endpoint.
func (idx *Index) Status(ctx context.Context) (Status, error) {
	count, err := idx.store.Count(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{Documents: count, Signature: idx.signature, Provider: idx.provider.Name()}, nil
}

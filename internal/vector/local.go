// File path: internal/vector/local.go
package vector

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aquametrics/waterlens/internal/common"
)

// Local is a file-backed vector store: one JSON record per line, brute-force
// cosine search over everything in memory. It serves deployments without a
// running ChromaDB instance.
type Local struct {
	mu   sync.RWMutex
	path string
	docs map[string]localRecord
	meta map[string]string
}

type localRecord struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Vector   []float32         `json:"vector,omitempty"`
	MetaKey  string            `json:"meta_key,omitempty"`
}

// NewLocal opens (or creates) the store at path. An empty path keeps the
// store purely in memory.
func NewLocal(path string) (*Local, error) {
	store := &Local{
		path: strings.TrimSpace(path),
		docs: make(map[string]localRecord),
		meta: make(map[string]string),
	}
	if store.path == "" {
		return store, nil
	}
	if dir := filepath.Dir(store.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	if err := store.load(); err != nil {
		return nil, err
	}
	common.Logger().Info("vector: local store opened", "path", store.path, "docs", len(store.docs))
	return store, nil
}

func (l *Local) load() error {
	file, err := os.Open(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open store: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec localRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			common.Logger().Warn("vector: skipping corrupt store line", "error", err)
			continue
		}
		if rec.MetaKey != "" {
			l.meta[rec.MetaKey] = rec.Text
			continue
		}
		l.docs[rec.ID] = rec
	}
	return scanner.Err()
}

// persist rewrites the whole file; callers hold the write lock.
func (l *Local) persist() error {
	if l.path == "" {
		return nil
	}
	tmp := l.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create store file: %w", err)
	}
	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)

	ids := make([]string, 0, len(l.docs))
	for id := range l.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := encoder.Encode(l.docs[id]); err != nil {
			file.Close()
			return fmt.Errorf("encode record: %w", err)
		}
	}
	keys := make([]string, 0, len(l.meta))
	for key := range l.meta {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := encoder.Encode(localRecord{MetaKey: key, Text: l.meta[key]}); err != nil {
			file.Close()
			return fmt.Errorf("encode meta record: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, l.path)
}

func (l *Local) Count(ctx context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.docs), nil
}

func (l *Local) Meta(ctx context.Context, key string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.meta[key], nil
}

func (l *Local) SetMeta(ctx context.Context, key, value string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.meta[key] = value
	return l.persist()
}

func (l *Local) Upsert(ctx context.Context, docs []Document, vectors [][]float32) error {
	if len(docs) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for idx, doc := range docs {
		if strings.TrimSpace(doc.ID) == "" {
			continue
		}
		rec := localRecord{ID: doc.ID, Text: doc.Text, Metadata: doc.Metadata}
		if idx < len(vectors) {
			rec.Vector = vectors[idx]
		}
		l.docs[doc.ID] = rec
	}
	return l.persist()
}

func (l *Local) Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	results := make([]SearchResult, 0, len(l.docs))
	for _, rec := range l.docs {
		score := cosine(vector, rec.Vector)
		results = append(results, SearchResult{ID: rec.ID, Score: score, Text: rec.Text, Metadata: rec.Metadata})
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (l *Local) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs = make(map[string]localRecord)
	l.meta = make(map[string]string)
	return l.persist()
}

var _ Store = (*Local)(nil)

func cosine(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// File path: internal/vector/chromadb.go
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aquametrics/waterlens/internal/common"
)

// Client talks to a ChromaDB instance over its HTTP API. Bookkeeping meta
// entries live in a sibling collection so the document collection keeps a
// uniform embedding dimension.
type Client struct {
	httpClient *http.Client
	transport  *http.Transport

	baseURL    string
	collection string
	apiKey     string
	available  bool

	collectionID string
	metaID       string

	cfg Config

	mu sync.RWMutex
}

func NewFromEnv(ctx context.Context) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return NewClient(ctx, cfg)
}

// NewClient constructs a client using the provided configuration. A failed
// handshake leaves the client unavailable rather than erroring so callers can
// fall back to a local store.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	logger := common.Logger()
	logger.Info(
		"vector: initializing chromadb client",
		"host", cfg.Host,
		"port", cfg.Port,
		"collection", cfg.Collection,
		"timeout", cfg.Timeout,
	)

	transport := &http.Transport{
		MaxIdleConns:        64,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}

	client := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		transport:  transport,
		baseURL:    strings.TrimRight(cfg.BaseURL(), "/"),
		collection: cfg.Collection,
		apiKey:     cfg.APIKey,
		cfg:        cfg,
	}

	if err := client.ensureReady(ctx); err != nil {
		logger.Warn("vector: chromadb initialization failed", "collection", cfg.Collection, "error", err)
		return client, nil
	}
	logger.Info("vector: chromadb connection established")
	return client, nil
}

func (c *Client) Available() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

func (c *Client) Collection() string {
	if c == nil {
		return ""
	}
	return c.collection
}

func (c *Client) metaCollection() string {
	return c.collection + "__meta"
}

func (c *Client) ensureReady(ctx context.Context) error {
	if c == nil {
		return errors.New("chromadb client not configured")
	}
	c.mu.RLock()
	available := c.available
	collectionID := c.collectionID
	metaID := c.metaID
	c.mu.RUnlock()

	if available && collectionID != "" && metaID != "" {
		return nil
	}
	const maxAttempts = 3
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = c.health(ctx)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			c.setAvailable(false)
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 250 * time.Millisecond):
		}
	}
	if err != nil {
		c.setAvailable(false)
		return err
	}
	if err = c.ensureCollectionIDs(ctx); err != nil {
		c.setAvailable(false)
		return err
	}
	c.setAvailable(true)
	return nil
}

func (c *Client) setAvailable(v bool) {
	c.mu.Lock()
	c.available = v
	c.mu.Unlock()
}

func (c *Client) Count(ctx context.Context) (int, error) {
	if err := c.ensureReady(ctx); err != nil {
		return 0, err
	}
	endpoint := fmt.Sprintf("%s/collections/%s/count", c.baseURL, url.PathEscape(c.id()))
	var count int
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (c *Client) Meta(ctx context.Context, key string) (string, error) {
	if err := c.ensureReady(ctx); err != nil {
		return "", err
	}
	body := map[string]interface{}{
		"ids":     []string{key},
		"include": []string{"documents"},
	}
	endpoint := fmt.Sprintf("%s/collections/%s/get", c.baseURL, url.PathEscape(c.mID()))
	var resp struct {
		IDs       []string `json:"ids"`
		Documents []string `json:"documents"`
	}
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return "", nil
		}
		return "", err
	}
	if len(resp.IDs) == 0 || len(resp.Documents) == 0 {
		return "", nil
	}
	return resp.Documents[0], nil
}

func (c *Client) SetMeta(ctx context.Context, key, value string) error {
	if err := c.ensureReady(ctx); err != nil {
		return err
	}
	payload := map[string]interface{}{
		"ids":        []string{key},
		"documents":  []string{value},
		"embeddings": [][]float32{{0}},
	}
	endpoint := fmt.Sprintf("%s/collections/%s/upsert", c.baseURL, url.PathEscape(c.mID()))
	if err := c.doRequest(ctx, http.MethodPost, endpoint, payload, nil); err != nil {
		if errors.Is(err, errNotFound) {
			fallback := fmt.Sprintf("%s/collections/%s/add", c.baseURL, url.PathEscape(c.mID()))
			return c.doRequest(ctx, http.MethodPost, fallback, payload, nil)
		}
		return err
	}
	return nil
}

func (c *Client) Upsert(ctx context.Context, docs []Document, vectors [][]float32) error {
	if err := c.ensureReady(ctx); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(docs))
	embeddings := make([][]float32, 0, len(docs))
	documents := make([]string, 0, len(docs))
	metadatas := make([]map[string]interface{}, 0, len(docs))
	for idx, doc := range docs {
		ids = append(ids, doc.ID)
		if idx < len(vectors) {
			embeddings = append(embeddings, vectors[idx])
		} else {
			embeddings = append(embeddings, nil)
		}
		documents = append(documents, doc.Text)
		metadata := make(map[string]interface{}, len(doc.Metadata))
		for k, v := range doc.Metadata {
			metadata[k] = v
		}
		metadatas = append(metadatas, metadata)
	}
	payload := map[string]interface{}{
		"ids":        ids,
		"documents":  documents,
		"metadatas":  metadatas,
		"embeddings": embeddings,
	}
	endpoint := fmt.Sprintf("%s/collections/%s/upsert", c.baseURL, url.PathEscape(c.id()))
	if err := c.doRequest(ctx, http.MethodPost, endpoint, payload, nil); err != nil {
		if errors.Is(err, errNotFound) {
			fallback := fmt.Sprintf("%s/collections/%s/add", c.baseURL, url.PathEscape(c.id()))
			return c.doRequest(ctx, http.MethodPost, fallback, payload, nil)
		}
		return err
	}
	return nil
}

func (c *Client) Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error) {
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 5
	}
	body := map[string]interface{}{
		"query_embeddings": [][]float32{vector},
		"n_results":        limit,
	}
	endpoint := fmt.Sprintf("%s/collections/%s/query", c.baseURL, url.PathEscape(c.id()))
	var resp struct {
		IDs       [][]string                 `json:"ids"`
		Distances [][]float64                `json:"distances"`
		Metadatas [][]map[string]interface{} `json:"metadatas"`
		Documents [][]string                 `json:"documents"`
	}
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.IDs) == 0 {
		return nil, nil
	}
	results := make([]SearchResult, 0, len(resp.IDs[0]))
	for idx, id := range resp.IDs[0] {
		metadata := make(map[string]string)
		if len(resp.Metadatas) > 0 && idx < len(resp.Metadatas[0]) {
			for k, v := range resp.Metadatas[0][idx] {
				if s, ok := v.(string); ok {
					metadata[k] = s
				}
			}
		}
		text := ""
		if len(resp.Documents) > 0 && idx < len(resp.Documents[0]) {
			text = resp.Documents[0][idx]
		}
		score := float32(0)
		if len(resp.Distances) > 0 && idx < len(resp.Distances[0]) {
			dist := resp.Distances[0][idx]
			score = float32(1.0 / (1.0 + dist))
		}
		results = append(results, SearchResult{ID: id, Score: score, Text: text, Metadata: metadata})
	}
	return results, nil
}

// Reset drops both collections; the next call recreates them empty.
func (c *Client) Reset(ctx context.Context) error {
	if err := c.ensureReady(ctx); err != nil {
		return err
	}
	for _, name := range []string{c.collection, c.metaCollection()} {
		endpoint := fmt.Sprintf("%s/collections/%s", c.baseURL, url.PathEscape(name))
		if err := c.doRequest(ctx, http.MethodDelete, endpoint, nil, nil); err != nil && !errors.Is(err, errNotFound) {
			return err
		}
	}
	c.mu.Lock()
	c.collectionID = ""
	c.metaID = ""
	c.available = false
	c.mu.Unlock()
	return c.ensureReady(ctx)
}

var _ Store = (*Client)(nil)

func (c *Client) id() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collectionID
}

func (c *Client) mID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.metaID
}

func (c *Client) ensureCollectionIDs(ctx context.Context) error {
	docID, err := c.resolveCollection(ctx, c.collection)
	if err != nil {
		return err
	}
	metaID, err := c.resolveCollection(ctx, c.metaCollection())
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.collectionID = docID
	c.metaID = metaID
	c.mu.Unlock()
	return nil
}

func (c *Client) resolveCollection(ctx context.Context, name string) (string, error) {
	id, err := c.findCollection(ctx, name)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}
	return c.createCollection(ctx, name)
}

func (c *Client) findCollection(ctx context.Context, name string) (string, error) {
	endpoint := fmt.Sprintf("%s/collections?name=%s", c.baseURL, url.QueryEscape(name))
	var resp struct {
		Collections []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"collections"`
	}
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return "", nil
		}
		// Fallback to enumerating collections when the name filter is unsupported.
		endpoint = fmt.Sprintf("%s/collections", c.baseURL)
		if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
			return "", err
		}
	}
	for _, col := range resp.Collections {
		if strings.EqualFold(col.Name, name) {
			return col.ID, nil
		}
	}
	return "", nil
}

func (c *Client) createCollection(ctx context.Context, name string) (string, error) {
	payload := map[string]interface{}{"name": name}
	endpoint := fmt.Sprintf("%s/collections", c.baseURL)
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doRequest(ctx, http.MethodPost, endpoint, payload, &resp); err != nil {
		if errors.Is(err, errConflict) {
			return c.findCollection(ctx, name)
		}
		return "", err
	}
	return resp.ID, nil
}

var (
	errNotFound = errors.New("resource not found")
	errConflict = errors.New("resource conflict")
)

func (c *Client) health(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/heartbeat", c.baseURL)
	return c.doRequest(ctx, http.MethodGet, endpoint, nil, nil)
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	if c == nil {
		return errors.New("chromadb client not configured")
	}
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode == http.StatusConflict {
		return errConflict
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chromadb %s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	return decoder.Decode(out)
}

// Close releases pooled resources associated with the client.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	return nil
}

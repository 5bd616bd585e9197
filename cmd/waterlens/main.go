// File path: cmd/waterlens/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aquametrics/waterlens/internal/api"
	"github.com/aquametrics/waterlens/internal/assistant"
	"github.com/aquametrics/waterlens/internal/catalog"
	"github.com/aquametrics/waterlens/internal/common"
	"github.com/aquametrics/waterlens/internal/executor"
	"github.com/aquametrics/waterlens/internal/history"
	"github.com/aquametrics/waterlens/internal/llm"
	"github.com/aquametrics/waterlens/internal/planner"
	"github.com/aquametrics/waterlens/internal/semindex"
	"github.com/aquametrics/waterlens/internal/summarizer"
	"github.com/aquametrics/waterlens/internal/tabular"
	"github.com/aquametrics/waterlens/internal/vector"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "waterlens:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	addr := flag.String("addr", ":8080", "HTTP listen address")
	catalogPath := flag.String("catalog", "", "optional YAML catalog overlay")
	dataDir := flag.String("data-dir", envOr("WATERLENS_DATA_DIR", "data"), "directory holding the dataset CSV files")
	indexPath := flag.String("index-path", "waterlens-index.jsonl", "local semantic index file (unused when ChromaDB is configured)")
	historyPath := flag.String("history", "waterlens-history.db", "SQLite history database; empty disables history")
	topK := flag.Int("top-k", 8, "documentation snippets retrieved per question")
	flag.Parse()

	logger := common.Logger()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(*catalogPath, *dataDir)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	tables, err := tabular.Load(ctx, cat)
	if err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}

	store, cleanup, err := openVectorStore(ctx, *indexPath)
	if err != nil {
		return err
	}
	defer cleanup()

	provider := llm.NewProvider()
	if err := llm.EnsureServable(provider); err != nil {
		return err
	}
	index, err := semindex.Open(ctx, cat, tables, store, provider)
	if err != nil {
		return fmt.Errorf("open semantic index: %w", err)
	}

	var hist *history.Store
	var recorder assistant.Recorder
	var apiHistory api.History
	if strings.TrimSpace(*historyPath) != "" {
		hist, err = history.Open(ctx, *historyPath)
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer hist.Close()
		recorder = hist
		apiHistory = hist
	}

	a := assistant.New(
		planner.New(provider, index, planner.WithTopK(*topK)),
		executor.New(tables),
		summarizer.New(provider),
		recorder,
	)
	server := api.NewServer(a, cat, tables, index, apiHistory)

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("waterlens: listening", "addr", *addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("waterlens: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

// openVectorStore prefers a configured ChromaDB instance and falls back to
// the local file-backed store when none is reachable.
func openVectorStore(ctx context.Context, indexPath string) (vector.Store, func(), error) {
	logger := common.Logger()
	if strings.TrimSpace(os.Getenv("CHROMADB_HOST")) != "" {
		client, err := vector.NewFromEnv(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("configure chromadb: %w", err)
		}
		if client.Available() {
			return client, func() { client.Close() }, nil
		}
		logger.Warn("waterlens: chromadb unreachable, using local index", "path", indexPath)
		client.Close()
	}
	local, err := vector.NewLocal(indexPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open local index: %w", err)
	}
	return local, func() {}, nil
}

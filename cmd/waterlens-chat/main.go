// File path: cmd/waterlens-chat/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/aquametrics/waterlens/internal/assistant"
	"github.com/aquametrics/waterlens/internal/catalog"
	"github.com/aquametrics/waterlens/internal/executor"
	"github.com/aquametrics/waterlens/internal/history"
	"github.com/aquametrics/waterlens/internal/llm"
	"github.com/aquametrics/waterlens/internal/planner"
	"github.com/aquametrics/waterlens/internal/semindex"
	"github.com/aquametrics/waterlens/internal/summarizer"
	"github.com/aquametrics/waterlens/internal/tabular"
	"github.com/aquametrics/waterlens/internal/tui"
	"github.com/aquametrics/waterlens/internal/vector"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "waterlens-chat:", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	catalogPath := flag.String("catalog", "", "optional YAML catalog overlay")
	dataDir := flag.String("data-dir", envOr("WATERLENS_DATA_DIR", "data"), "directory holding the dataset CSV files")
	indexPath := flag.String("index-path", "waterlens-index.jsonl", "local semantic index file")
	historyPath := flag.String("history", "", "SQLite history database; empty disables history")
	topK := flag.Int("top-k", 8, "documentation snippets retrieved per question")
	flag.Parse()

	ctx := context.Background()
	cat, err := catalog.Load(*catalogPath, *dataDir)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	tables, err := tabular.Load(ctx, cat)
	if err != nil {
		return fmt.Errorf("load datasets: %w", err)
	}
	store, err := vector.NewLocal(*indexPath)
	if err != nil {
		return fmt.Errorf("open local index: %w", err)
	}
	provider := llm.NewProvider()
	index, err := semindex.Open(ctx, cat, tables, store, provider)
	if err != nil {
		return fmt.Errorf("open semantic index: %w", err)
	}

	var recorder assistant.Recorder
	if strings.TrimSpace(*historyPath) != "" {
		hist, err := history.Open(ctx, *historyPath)
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer hist.Close()
		recorder = hist
	}

	a := assistant.New(
		planner.New(provider, index, planner.WithTopK(*topK)),
		executor.New(tables),
		summarizer.New(provider),
		recorder,
	)

	summary := fmt.Sprintf("%d dataset(s) loaded, model: %s. Ctrl+C to quit.", tables.Len(), provider.Name())
	program := tea.NewProgram(tui.New(a, summary), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run chat: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

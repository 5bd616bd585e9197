// File path: internal/history/store.go

// Package history persists answered exchanges in SQLite so past questions
// survive restarts and feed the history endpoint.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/aquametrics/waterlens/internal/common"
	"github.com/aquametrics/waterlens/internal/executor"
	"github.com/aquametrics/waterlens/internal/plan"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS exchanges (
		id TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		plan TEXT NOT NULL,
		results TEXT NOT NULL,
		answer TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_exchanges_created_at ON exchanges(created_at DESC)`,
}

// Exchange is one recorded question/answer pair. Plan and Results hold the
// JSON renderings written at record time.
type Exchange struct {
	ID        string    `db:"id" json:"id"`
	Question  string    `db:"question" json:"question"`
	Plan      string    `db:"plan" json:"plan"`
	Results   string    `db:"results" json:"results"`
	Answer    string    `db:"answer" json:"answer"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Store wraps the SQLite handle.
type Store struct {
	db *sqlx.DB
}

// Open creates (or opens) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, fmt.Errorf("history: database path required")
	}
	if dir := filepath.Dir(trimmed); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: create database dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_fk=1", trimmed)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: ping database: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	common.Logger().Info("history: store opened", "path", trimmed)
	return &Store{db: db}, nil
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("history: begin migration: %w", err)
	}
	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("history: apply schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("history: commit migration: %w", err)
	}
	return nil
}

// Record stores one answered exchange.
func (s *Store) Record(ctx context.Context, question string, p plan.Plan, results []executor.MetricResult, answer string) error {
	planJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("history: marshal plan: %w", err)
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("history: marshal results: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exchanges (id, question, plan, results, answer, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), question, string(planJSON), string(resultsJSON), answer, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("history: insert exchange: %w", err)
	}
	return nil
}

// Recent returns the latest exchanges, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Exchange, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []Exchange
	err := s.db.SelectContext(ctx, &out,
		`SELECT id, question, plan, results, answer, created_at
		 FROM exchanges ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query exchanges: %w", err)
	}
	return out, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

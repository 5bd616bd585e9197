// File path: internal/api/server.go

// Package api exposes the assistant over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aquametrics/waterlens/internal/assistant"
	"github.com/aquametrics/waterlens/internal/catalog"
	"github.com/aquametrics/waterlens/internal/common"
	"github.com/aquametrics/waterlens/internal/history"
	"github.com/aquametrics/waterlens/internal/semindex"
	"github.com/aquametrics/waterlens/internal/tabular"
)

// Answerer is the assistant surface the handlers need.
type Answerer interface {
	AnswerDetailed(ctx context.Context, question string) (assistant.Response, error)
}

// IndexStatus reports the semantic index state.
type IndexStatus interface {
	Status(ctx context.Context) (semindex.Status, error)
}

// History lists recorded exchanges. Nil disables the endpoint.
type History interface {
	Recent(ctx context.Context, limit int) ([]history.Exchange, error)
}

// Server holds handler dependencies and the router.
type Server struct {
	assistant Answerer
	catalog   *catalog.Catalog
	tables    *tabular.Store
	index     IndexStatus
	history   History
	router    chi.Router
}

func NewServer(a Answerer, cat *catalog.Catalog, tables *tabular.Store, index IndexStatus, hist History) *Server {
	s := &Server{assistant: a, catalog: cat, tables: tables, index: index, history: hist}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/assistant/ask", s.handleAsk)
		r.Get("/datasets", s.handleDatasets)
		r.Get("/index/status", s.handleIndexStatus)
		r.Get("/history", s.handleHistory)
	})
	s.router = r
	return s
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		common.Logger().Error("api: failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// File path: internal/api/assistant_handler.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/aquametrics/waterlens/internal/assistant"
	"github.com/aquametrics/waterlens/internal/common"
)

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := s.assistant.AnswerDetailed(r.Context(), req.Question)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyQuestion) {
			writeError(w, http.StatusBadRequest, "question is required")
			return
		}
		common.Logger().Error("api: ask failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to answer question")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type datasetSummary struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ColumnNotes string `json:"column_notes,omitempty"`
	Loaded      bool   `json:"loaded"`
	Rows        int    `json:"rows"`
	Columns     int    `json:"columns"`
}

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	datasets := s.catalog.Datasets()
	out := make([]datasetSummary, 0, len(datasets))
	for _, ds := range datasets {
		summary := datasetSummary{
			Name:        ds.Name,
			Description: strings.TrimSpace(ds.Description),
			ColumnNotes: strings.TrimSpace(ds.ColumnNotes),
		}
		if table, ok := s.tables.Table(ds.Name); ok {
			summary.Loaded = true
			summary.Rows = len(table.Rows)
			summary.Columns = len(table.Columns)
		}
		out = append(out, summary)
	}
	writeJSON(w, http.StatusOK, map[string]any{"datasets": out})
}

func (s *Server) handleIndexStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.index.Status(r.Context())
	if err != nil {
		common.Logger().Error("api: index status failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read index status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history is not enabled")
		return
	}
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	exchanges, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		common.Logger().Error("api: history query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"exchanges": exchanges})
}

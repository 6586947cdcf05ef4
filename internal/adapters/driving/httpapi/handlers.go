package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"

	"github.com/custodia-labs/evidence-rag/internal/core/domain"
	"github.com/custodia-labs/evidence-rag/internal/logger"
)

// maxBodyBytes bounds the query request body.
const maxBodyBytes = 1 << 20

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"topK"`
}

type queryResponse struct {
	Answer  string                      `json:"answer"`
	Sources map[string][]sourceResponse `json:"sources"`
}

type sourceResponse struct {
	ID         string         `json:"id"`
	SourceType string         `json:"source_type"`
	SourceID   string         `json:"source_id"`
	ChunkIndex int            `json:"chunk_index"`
	Content    string         `json:"content"`
	Metadata   map[string]any `json:"metadata"`
	Similarity float64        `json:"similarity"`
}

type evidenceResponse struct {
	Rows []domain.EvidenceRow `json:"rows"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps validation failures to 400 and everything else to 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, domain.ErrInvalidInput) {
		status = http.StatusBadRequest
	} else {
		logger.Warn("request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: invalid JSON body", domain.ErrInvalidInput))
		return
	}

	answer, err := s.ports.Query.Ask(r.Context(), req.Query, req.TopK)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, queryResponse{
		Answer:  answer.Text,
		Sources: sourcesResponse(answer.Context),
	})
}

func sourcesResponse(merged *domain.MergedContext) map[string][]sourceResponse {
	out := make(map[string][]sourceResponse, len(domain.SourceTypes))
	for _, t := range domain.SourceTypes {
		group := merged.Group(t)
		rows := make([]sourceResponse, 0, len(group))
		for i := range group {
			row := &group[i]
			rows = append(rows, sourceResponse{
				ID:         row.ID,
				SourceType: string(row.SourceType),
				SourceID:   row.SourceID,
				ChunkIndex: row.ChunkIndex,
				Content:    row.Content,
				Metadata:   row.Metadata,
				Similarity: row.Similarity,
			})
		}
		out[string(t)] = rows
	}
	return out
}

func (s *Server) handleEvidence(w http.ResponseWriter, r *http.Request) {
	if s.ports.Evidence == nil {
		writeError(w, fmt.Errorf("%w: evidence source not configured", domain.ErrNotFound))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, fmt.Errorf("%w: limit must be an integer", domain.ErrInvalidInput))
			return
		}
		limit = n
	}

	rows, err := s.ports.Evidence.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, evidenceResponse{Rows: rows})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// recoverer turns a handler panic into a 500 JSON response.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Warn("panic serving %s %s: %v", r.Method, r.URL.Path, rec)
				logger.Debug("stack trace:\n%s", debug.Stack())
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

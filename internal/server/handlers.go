package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

type statusResponse struct {
	Documents  int    `json:"documents"`
	Vocabulary int    `json:"vocabulary"`
	Zoned      bool   `json:"zoned"`
	BuildID    string `json:"build_id,omitempty"`
	BuiltAt    string `json:"built_at,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query parameter q"})
		return
	}
	limit := s.config.Search.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid limit"})
			return
		}
		limit = n
	}
	if limit > s.config.Search.MaxLimit {
		limit = s.config.Search.MaxLimit
	}

	resp, err := s.processor.Evaluate(q)
	if err != nil {
		s.logger.Error("query failed", zap.String("query", q), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "query evaluation failed"})
		return
	}
	// The processor is configured with the server-wide maximum; trim to the
	// per-request limit here.
	if len(resp.Results) > limit {
		resp.Results = resp.Results[:limit]
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := statusResponse{
		Documents:  s.ix.DocCount(),
		Vocabulary: s.ix.VocabSize(),
		Zoned:      s.ix.Zoned,
	}
	if s.registry != nil {
		if rec, err := s.registry.LatestBuild(r.Context()); err == nil {
			status.BuildID = rec.ID
			status.BuiltAt = rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00")
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

package api

import (
	"net/http"

	"github.com/okian/skillswap/internal/domain/model"
)

// handleStats handles GET /v1/stats.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.GetStats())
}

type batchResponse struct {
	Stats model.BatchStats `json:"stats"`
}

// handleBatch handles POST /v1/admin/batch. The run is synchronous and
// bound to the request context.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.RunBatchGeneration(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	status := http.StatusOK
	if stats.Status == model.BatchSkipped {
		status = http.StatusConflict
	}
	writeJSON(w, status, batchResponse{Stats: stats})
}

type retentionResponse struct {
	Purged int64 `json:"purged"`
}

// handleRetention handles POST /v1/admin/retention.
func (s *Server) handleRetention(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.PurgeStaleInteractions(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, retentionResponse{Purged: n})
}

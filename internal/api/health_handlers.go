package api

import (
	"net/http"

	"github.com/alexvogt/chesscoach/internal/logger"
)

// handleHealth is a liveness probe; it answers as long as the process runs.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]any{"status": "ok"})
}

// handleReady reports readiness: the database must answer and at least one
// engine must be idle in the pool.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	if err := s.DB.PingContext(ctx); err != nil {
		log.Warn("readiness check failed, database: %v", err)
		respondJSON(w, r, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"reason": "database",
		})
		return
	}

	if s.EnginePool != nil && s.EnginePool.Available() == 0 {
		respondJSON(w, r, http.StatusServiceUnavailable, map[string]any{
			"status": "unavailable",
			"reason": "engine pool exhausted",
		})
		return
	}

	respondJSON(w, r, http.StatusOK, map[string]any{"status": "ready"})
}

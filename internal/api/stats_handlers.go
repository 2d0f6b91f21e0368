package api

import (
	"net/http"

	"github.com/alexvogt/chesscoach/internal/logger"
)

// handleErrorStats aggregates a profile's flagged errors by category and
// game phase alongside an overall summary.
func (s *Server) handleErrorStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	profile, err := s.ProfileService.Get(ctx, id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	categories, err := s.StatsRepo.CategoryStats(ctx, profile.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	phases, err := s.StatsRepo.PhaseStats(ctx, profile.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	summary, err := s.StatsRepo.Summary(ctx, profile.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Debug("error stats: %d categories, %d phases", len(categories), len(phases))
	respondJSON(w, r, http.StatusOK, map[string]any{
		"categories": categories,
		"phases":     phases,
		"summary":    summary,
	})
}

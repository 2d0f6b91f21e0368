package api

import (
	"net/http"

	"github.com/alexvogt/chesscoach/internal/models"
)

// handleListErrors lists flagged errors across games, filterable by
// profile, category, and label.
func (s *Server) handleListErrors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := queryInt(r, "limit", 50)
	if limit > 200 {
		limit = 200
	}

	filter := models.ErrorFilter{
		ProfileID: queryInt64(r, "profile_id"),
		GameID:    queryInt64(r, "game_id"),
		Category:  q.Get("category"),
		Label:     q.Get("label"),
		Limit:     limit,
		Offset:    queryInt(r, "offset", 0),
	}

	errs, err := s.ErrorRepo.List(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"errors": errs})
}

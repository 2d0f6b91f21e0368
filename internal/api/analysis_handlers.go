package api

import (
	"net/http"

	"github.com/alexvogt/chesscoach/internal/logger"
)

// handleEvaluatePosition scores an arbitrary FEN with a pooled engine.
func (s *Server) handleEvaluatePosition(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req struct {
		FEN string `json:"fen"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	result, err := s.AnalysisService.EvaluatePosition(r.Context(), req.FEN)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Debug("evaluated position: cp=%.0f best=%s", result.CP, result.BestMove)
	respondJSON(w, r, http.StatusOK, map[string]any{
		"cp":        result.CP,
		"mate":      result.Mate,
		"best_move": result.BestMove,
	})
}

package api

import (
	"net/http"
	"strings"

	"github.com/alexvogt/chesscoach/internal/errors"
	"github.com/alexvogt/chesscoach/internal/logger"
	"github.com/alexvogt/chesscoach/internal/models"
	"github.com/alexvogt/chesscoach/internal/worker"
)

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := queryInt(r, "limit", 25)
	if limit > 100 {
		limit = 100
	}
	orderDir := strings.ToUpper(q.Get("order_dir"))
	if orderDir != "ASC" && orderDir != "DESC" {
		orderDir = "DESC"
	}

	filter := models.GameFilter{
		ProfileID:      queryInt64(r, "profile_id"),
		TimeClass:      q.Get("time_class"),
		Result:         q.Get("result"),
		AnalysisStatus: q.Get("analysis_status"),
		Opponent:       q.Get("opponent"),
		Limit:          limit,
		Offset:         queryInt(r, "offset", 0),
		OrderDir:       orderDir,
	}

	games, total, err := s.GameService.List(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"games": games,
		"total": total,
	})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	game, err := s.GameService.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, game)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.GameService.Delete(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}

// handleAnalyzeGame queues a single game for analysis. Queuing a game that
// is already completed or in flight is a no-op.
func (s *Server) handleAnalyzeGame(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	game, err := s.GameService.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	if game.AnalysisStatus == models.StatusProcessing || game.AnalysisStatus == models.StatusCompleted {
		log.Info("game %d already %s, skipping queue", game.ID, game.AnalysisStatus)
		respondJSON(w, r, http.StatusOK, map[string]any{"status": game.AnalysisStatus})
		return
	}

	if err := s.Queue.EnqueueAnalysis(game.ID); err != nil {
		if err == worker.ErrQueueFull {
			handleError(w, r, &errors.AppError{
				Code:    "QUEUE_FULL",
				Message: "analysis queue is full, try again later",
				Status:  http.StatusTooManyRequests,
			})
			return
		}
		handleError(w, r, err)
		return
	}

	log.Info("queued game %d for analysis", game.ID)
	respondJSON(w, r, http.StatusAccepted, map[string]any{"status": "queued"})
}

func (s *Server) handleGameErrors(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	errs, err := s.GameService.ErrorsForGame(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"errors": errs})
}

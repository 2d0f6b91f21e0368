package api

import (
	"net/http"

	"github.com/alexvogt/chesscoach/internal/errors"
	"github.com/alexvogt/chesscoach/internal/logger"
	"github.com/alexvogt/chesscoach/internal/worker"
)

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.ProfileService.List(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"profiles": profiles})
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	profile, err := s.ProfileService.Create(r.Context(), req.Username)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, profile)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	profile, err := s.ProfileService.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, profile)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.ProfileService.Delete(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusNoContent, nil)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	profile, err := s.ProfileService.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}

	if err := s.Queue.EnqueueImport(profile.ID, profile.Username); err != nil {
		if err == worker.ErrQueueFull {
			handleError(w, r, &errors.AppError{
				Code:    "QUEUE_FULL",
				Message: "import queue is full, try again later",
				Status:  http.StatusTooManyRequests,
			})
			return
		}
		handleError(w, r, err)
		return
	}

	log.Info("import job queued for %s", profile.Username)
	respondJSON(w, r, http.StatusAccepted, map[string]any{"status": "queued"})
}

// handleResumeAnalysis re-enqueues the profile's unanalyzed games. Games
// stuck in processing after a crash go back to pending first.
func (s *Server) handleResumeAnalysis(w http.ResponseWriter, r *http.Request) {
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

	if err := s.GameRepo.ResetProcessingToPending(ctx, profile.ID); err != nil {
		log.Warn("failed to reset processing games: %v", err)
	}

	games, err := s.GameRepo.GamesNeedingAnalysis(ctx, profile.ID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	queued := 0
	for _, g := range games {
		if err := s.Queue.EnqueueAnalysis(g.ID); err != nil {
			log.Warn("analysis queue full after %d games", queued)
			break
		}
		queued++
	}

	log.Info("queued %d of %d games for analysis resume", queued, len(games))
	respondJSON(w, r, http.StatusAccepted, map[string]any{
		"status": "queued",
		"queued": queued,
		"total":  len(games),
	})
}

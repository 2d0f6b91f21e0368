package services

import (
	"context"
	"database/sql"
	goerrors "errors"

	"github.com/alexvogt/chesscoach/internal/errors"
	"github.com/alexvogt/chesscoach/internal/logger"
	"github.com/alexvogt/chesscoach/internal/models"
	"github.com/alexvogt/chesscoach/internal/repository"
)

// GameService handles game lookups and lifecycle
type GameService interface {
	Get(ctx context.Context, id int64) (*models.Game, error)
	List(ctx context.Context, filter models.GameFilter) ([]models.Game, int, error)
	Delete(ctx context.Context, id int64) error
	ErrorsForGame(ctx context.Context, gameID int64) ([]models.Error, error)
}

type gameService struct {
	gameRepo  repository.GameRepository
	errorRepo repository.ErrorRepository
}

// NewGameService creates a new GameService
func NewGameService(gameRepo repository.GameRepository, errorRepo repository.ErrorRepository) GameService {
	return &gameService{gameRepo: gameRepo, errorRepo: errorRepo}
}

func (s *gameService) Get(ctx context.Context, id int64) (*models.Game, error) {
	game, err := s.gameRepo.Get(ctx, id)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewNotFoundError("game", id)
		}
		return nil, errors.NewInternalError(err)
	}
	return game, nil
}

func (s *gameService) List(ctx context.Context, filter models.GameFilter) ([]models.Game, int, error) {
	games, err := s.gameRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, errors.NewInternalError(err)
	}
	total, err := s.gameRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, errors.NewInternalError(err)
	}
	return games, total, nil
}

// Delete removes a game and, via cascade, its error records. An analysis
// running for the game sees its commit vanish against a deleted row and
// nothing is left behind.
func (s *gameService) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx)

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.gameRepo.Delete(ctx, id); err != nil {
		log.Error("failed to delete game %d: %v", id, err)
		return errors.NewInternalError(err)
	}
	log.Info("deleted game %d", id)
	return nil
}

func (s *gameService) ErrorsForGame(ctx context.Context, gameID int64) ([]models.Error, error) {
	if _, err := s.Get(ctx, gameID); err != nil {
		return nil, err
	}
	errs, err := s.errorRepo.ErrorsForGame(ctx, gameID)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}
	return errs, nil
}

package repository

import (
	"context"
	"time"

	"github.com/alexvogt/chesscoach/internal/models"
)

// GameRepository handles game data access
type GameRepository interface {
	Get(ctx context.Context, id int64) (*models.Game, error)
	List(ctx context.Context, filter models.GameFilter) ([]models.Game, error)
	Count(ctx context.Context, filter models.GameFilter) (int, error)
	Insert(ctx context.Context, game models.Game) (int64, error)
	InsertBatch(ctx context.Context, games []models.Game) ([]int64, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	UpdateOpening(ctx context.Context, id int64, ecoCode, openingName string) error
	ResetProcessingToPending(ctx context.Context, profileID int64) error
	GamesNeedingAnalysis(ctx context.Context, profileID int64) ([]models.Game, error)
	GetExistingChessComIDs(ctx context.Context, profileID int64) (map[string]bool, error)
	Delete(ctx context.Context, id int64) error
}

// ErrorRepository handles flagged-error data access. Error records are
// written only through CommitAnalysis so a game's error set is always
// complete or absent.
type ErrorRepository interface {
	ErrorsForGame(ctx context.Context, gameID int64) ([]models.Error, error)
	List(ctx context.Context, filter models.ErrorFilter) ([]models.Error, error)
	// CommitAnalysis atomically replaces the game's error set and marks the
	// game completed.
	CommitAnalysis(ctx context.Context, gameID int64, errs []models.Error) error
}

// ProfileRepository handles profile data access
type ProfileRepository interface {
	Get(ctx context.Context, id int64) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	Upsert(ctx context.Context, username string) (*models.Profile, error)
	UpdateSync(ctx context.Context, id int64, t time.Time) error
	Delete(ctx context.Context, id int64) error
}

// StatsRepository aggregates flagged errors for reporting
type StatsRepository interface {
	CategoryStats(ctx context.Context, profileID int64) ([]models.CategoryStat, error)
	PhaseStats(ctx context.Context, profileID int64) ([]models.PhaseStat, error)
	Summary(ctx context.Context, profileID int64) (*models.ErrorSummary, error)
}

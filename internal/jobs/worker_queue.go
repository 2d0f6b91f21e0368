package jobs

import (
	"context"

	"github.com/alexvogt/chesscoach/internal/chesscom"
	"github.com/alexvogt/chesscoach/internal/repository"
	"github.com/alexvogt/chesscoach/internal/worker"
)

// WorkerQueue implements JobQueue using worker pools
type WorkerQueue struct {
	analysisPool    *worker.Pool
	importPool      *worker.Pool
	gameRepo        repository.GameRepository
	profileRepo     repository.ProfileRepository
	analysisService worker.AnalysisServiceInterface
	chessClient     chesscom.ClientInterface
	archiveLimit    int
	maxConcurrent   int
}

// NewWorkerQueue creates a new WorkerQueue implementation
func NewWorkerQueue(
	analysisPool *worker.Pool,
	importPool *worker.Pool,
	gameRepo repository.GameRepository,
	profileRepo repository.ProfileRepository,
	analysisService worker.AnalysisServiceInterface,
	chessClient chesscom.ClientInterface,
	archiveLimit int,
	maxConcurrent int,
) JobQueue {
	return &WorkerQueue{
		analysisPool:    analysisPool,
		importPool:      importPool,
		gameRepo:        gameRepo,
		profileRepo:     profileRepo,
		analysisService: analysisService,
		chessClient:     chessClient,
		archiveLimit:    archiveLimit,
		maxConcurrent:   maxConcurrent,
	}
}

func (q *WorkerQueue) EnqueueAnalysis(gameID int64) error {
	return q.analysisPool.Submit(&worker.AnalyzeGameJob{
		AnalysisService: q.analysisService,
		GameID:          gameID,
	})
}

func (q *WorkerQueue) EnqueueImport(profileID int64, username string) error {
	ctx := context.Background()
	profile, err := q.profileRepo.Get(ctx, profileID)
	if err != nil || profile == nil {
		profile, err = q.profileRepo.Upsert(ctx, username)
		if err != nil {
			return err
		}
	}

	return q.importPool.Submit(&worker.ImportGamesJob{
		GameRepo:      q.gameRepo,
		ProfileRepo:   q.profileRepo,
		ChessClient:   q.chessClient,
		Profile:       *profile,
		AnalysisPool:  q.analysisPool,
		Analysis:      q.analysisService,
		ArchiveLimit:  q.archiveLimit,
		MaxConcurrent: q.maxConcurrent,
	})
}

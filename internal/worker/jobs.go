package worker

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alexvogt/chesscoach/internal/chesscom"
	"github.com/alexvogt/chesscoach/internal/logger"
	"github.com/alexvogt/chesscoach/internal/models"
	"github.com/alexvogt/chesscoach/internal/pgn"
	"github.com/alexvogt/chesscoach/internal/repository"
)

type AnalyzeGameJob struct {
	AnalysisService AnalysisServiceInterface
	GameID          int64
}

func (j *AnalyzeGameJob) Name() string { return "analyze_game" }

func (j *AnalyzeGameJob) Run(ctx context.Context) error {
	return j.AnalysisService.AnalyzeGame(ctx, j.GameID)
}

// ImportGamesJob fetches recent archives, inserts new games, and enqueues
// analysis for each of them.
type ImportGamesJob struct {
	GameRepo      repository.GameRepository
	ProfileRepo   repository.ProfileRepository
	ChessClient   chesscom.ClientInterface
	Profile       models.Profile
	AnalysisPool  *Pool
	Analysis      AnalysisServiceInterface
	ArchiveLimit  int
	MaxConcurrent int
}

func (j *ImportGamesJob) Name() string { return "import_games" }

func (j *ImportGamesJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithFields(map[string]any{
		"username":   j.Profile.Username,
		"profile_id": j.Profile.ID,
	})
	log.Info("starting background import")

	archives, err := j.ChessClient.FetchArchives(ctx, j.Profile.Username)
	if err != nil {
		log.Error("failed to fetch archives: %v", err)
		return err
	}

	if j.Profile.LastSyncAt != nil {
		archives = filterArchivesByDate(archives, *j.Profile.LastSyncAt)
		log.Info("filtered archives to %d based on last_sync_at", len(archives))
	}

	// ArchiveLimit of 0 means fetch all archives
	if j.ArchiveLimit > 0 && len(archives) > j.ArchiveLimit {
		archives = archives[len(archives)-j.ArchiveLimit:]
		log.Debug("limiting to last %d archives", j.ArchiveLimit)
	}

	maxConc := j.MaxConcurrent
	if maxConc <= 0 {
		maxConc = 10
	}
	log.Info("fetching %d archives, %d at a time", len(archives), maxConc)

	var mu sync.Mutex
	var monthlyGames []chesscom.MonthlyGame

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConc)
	for _, url := range archives {
		archiveURL := url
		g.Go(func() error {
			monthly, err := j.ChessClient.FetchMonthly(gctx, archiveURL)
			if err != nil {
				// One bad month shouldn't sink the whole import.
				log.Error("failed to fetch monthly games from %s: %v", archiveURL, err)
				return nil
			}
			mu.Lock()
			monthlyGames = append(monthlyGames, monthly...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if ctx.Err() != nil {
		log.Warn("import cancelled: %v", ctx.Err())
		return ctx.Err()
	}

	if len(monthlyGames) == 0 {
		log.Info("no monthly games fetched")
		return nil
	}

	existingIDs, err := j.GameRepo.GetExistingChessComIDs(ctx, j.Profile.ID)
	if err != nil {
		log.Warn("failed to load existing game ids: %v", err)
		existingIDs = map[string]bool{}
	}

	var newGames []models.Game
	for _, mg := range monthlyGames {
		gameID := pgn.ExtractGameID(mg.URL)
		if existingIDs[gameID] {
			continue
		}
		existingIDs[gameID] = true // avoid duplicates in batch

		meta := pgn.ParseHeaders(mg.PGN)
		playedAs, opponent, result := chesscom.DeriveResult(strings.ToLower(j.Profile.Username), mg)

		playerRating, opponentRating := ratingsFor(playedAs, meta, mg)

		newGames = append(newGames, models.Game{
			ProfileID:      j.Profile.ID,
			ChessComID:     gameID,
			PGN:            mg.PGN,
			TimeClass:      mg.TimeClass,
			Result:         result,
			PlayedAs:       playedAs,
			Opponent:       opponent,
			PlayerRating:   playerRating,
			OpponentRating: opponentRating,
			PlayedAt:       time.Unix(mg.EndTime, 0),
			ECOCode:        meta["ECO"],
			OpeningName:    meta["Opening"],
			AnalysisStatus: models.StatusPending,
		})
	}

	inserted, err := j.GameRepo.InsertBatch(ctx, newGames)
	if err != nil {
		log.Error("failed to batch insert games: %v", err)
		return err
	}
	log.Info("imported %d new games", len(inserted))

	if err := j.ProfileRepo.UpdateSync(ctx, j.Profile.ID, time.Now()); err != nil {
		log.Warn("failed to update profile sync time: %v", err)
	}

	if j.AnalysisPool != nil && j.Analysis != nil {
		for _, gameID := range inserted {
			if err := j.AnalysisPool.Submit(&AnalyzeGameJob{AnalysisService: j.Analysis, GameID: gameID}); err != nil {
				log.Warn("analysis queue full, game %d stays pending", gameID)
				break
			}
		}
	}
	return nil
}

// ratingsFor pulls the two ratings from the PGN headers, falling back to
// the API payload when a header is missing.
func ratingsFor(playedAs string, meta map[string]string, mg chesscom.MonthlyGame) (player, opponent int) {
	whiteElo, _ := strconv.Atoi(meta["WhiteElo"])
	blackElo, _ := strconv.Atoi(meta["BlackElo"])
	if whiteElo == 0 {
		whiteElo = mg.White.Rating
	}
	if blackElo == 0 {
		blackElo = mg.Black.Rating
	}
	if playedAs == "white" {
		return whiteElo, blackElo
	}
	return blackElo, whiteElo
}

// filterArchivesByDate keeps archives from the given month/year onwards.
// Archive URLs look like: https://api.chess.com/pub/player/{username}/games/YYYY/MM
func filterArchivesByDate(archives []string, since time.Time) []string {
	if since.IsZero() {
		return archives
	}
	sinceMonth := time.Date(since.Year(), since.Month(), 1, 0, 0, 0, 0, time.UTC)

	var filtered []string
	for _, url := range archives {
		parts := strings.Split(strings.TrimSuffix(url, "/"), "/")
		if len(parts) < 2 {
			continue
		}
		year, err1 := strconv.Atoi(parts[len(parts)-2])
		month, err2 := strconv.Atoi(parts[len(parts)-1])
		if err1 != nil || err2 != nil {
			continue
		}
		archiveMonth := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		if archiveMonth.Before(sinceMonth) {
			continue
		}
		filtered = append(filtered, url)
	}
	return filtered
}

package services

import (
	"context"
	"database/sql"
	goerrors "errors"
	"strings"

	"github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"

	"github.com/alexvogt/chesscoach/internal/analysis"
	"github.com/alexvogt/chesscoach/internal/engine"
	"github.com/alexvogt/chesscoach/internal/errors"
	"github.com/alexvogt/chesscoach/internal/logger"
	"github.com/alexvogt/chesscoach/internal/models"
	"github.com/alexvogt/chesscoach/internal/repository"
)

// Evaluator is the engine contract the pipeline needs: score a position
// within a budget, return the best move.
type Evaluator interface {
	Evaluate(ctx context.Context, fen string, budget engine.Budget) (engine.EvalResult, error)
}

// EvaluatorPool hands out engine handles with scoped acquisition so a
// crashed analysis cannot leak one.
type EvaluatorPool interface {
	Acquire(ctx context.Context) (Evaluator, error)
	Release(Evaluator)
}

// NewEnginePoolAdapter wraps an engine.Pool as an EvaluatorPool.
func NewEnginePoolAdapter(pool *engine.Pool) EvaluatorPool {
	return poolAdapter{pool: pool}
}

type poolAdapter struct {
	pool *engine.Pool
}

func (a poolAdapter) Acquire(ctx context.Context) (Evaluator, error) {
	return a.pool.Acquire(ctx)
}

func (a poolAdapter) Release(e Evaluator) {
	if h, ok := e.(*engine.Engine); ok {
		a.pool.Release(h)
	}
}

// AnalysisService runs the move-error detection pipeline over games.
type AnalysisService interface {
	AnalyzeGame(ctx context.Context, gameID int64) error
	EvaluatePosition(ctx context.Context, fen string) (engine.EvalResult, error)
}

type analysisService struct {
	gameRepo  repository.GameRepository
	errorRepo repository.ErrorRepository
	pool      EvaluatorPool
	config    AnalysisConfig
}

// NewAnalysisService creates a new AnalysisService
func NewAnalysisService(
	gameRepo repository.GameRepository,
	errorRepo repository.ErrorRepository,
	pool EvaluatorPool,
	config AnalysisConfig,
) AnalysisService {
	return &analysisService{
		gameRepo:  gameRepo,
		errorRepo: errorRepo,
		pool:      pool,
		config:    config,
	}
}

func (s *analysisService) EvaluatePosition(ctx context.Context, fen string) (engine.EvalResult, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(fen) == "" {
		return engine.EvalResult{}, errors.NewValidationError("fen", "cannot be empty")
	}

	handle, err := s.pool.Acquire(ctx)
	if err != nil {
		return engine.EvalResult{}, errors.NewInternalError(err)
	}
	defer s.pool.Release(handle)

	result, err := handle.Evaluate(ctx, fen, engine.Budget{Depth: s.config.Depth, MoveTime: s.config.MoveTime})
	if err != nil {
		log.Error("failed to evaluate position: %v", err)
		if goerrors.Is(err, engine.ErrUnavailable) {
			return engine.EvalResult{}, errors.NewEvalUnavailableError(err)
		}
		return engine.EvalResult{}, errors.NewInternalError(err)
	}
	return result, nil
}

// AnalyzeGame walks a game, evaluates the profile owner's moves, flags
// losses over the threshold, classifies and explains them, and commits the
// complete error set atomically. A game is only ever fully analyzed or not
// analyzed at all.
func (s *analysisService) AnalyzeGame(ctx context.Context, gameID int64) error {
	log := logger.FromContext(ctx).WithField("game_id", gameID)
	log.Info("starting game analysis")

	game, err := s.gameRepo.Get(ctx, gameID)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			log.Debug("game deleted before analysis started")
			return errors.NewNotFoundError("game", gameID)
		}
		log.Error("failed to get game: %v", err)
		return err
	}

	if game.AnalysisStatus == models.StatusCompleted {
		log.Debug("game already analyzed, skipping")
		return nil
	}

	if err := s.gameRepo.UpdateStatus(ctx, gameID, models.StatusProcessing); err != nil {
		log.Error("failed to update game status: %v", err)
		return err
	}

	plies, err := analysis.Walk(game.PGN)
	if err != nil {
		log.Error("failed to replay game: %v", err)
		_ = s.gameRepo.UpdateStatus(ctx, gameID, models.StatusFailed)
		return errors.NewMalformedGameError(gameID, err)
	}
	log = log.WithField("plies", len(plies))

	s.detectOpening(ctx, game)

	session, err := newEngineSession(ctx, s.pool)
	if err != nil {
		_ = s.gameRepo.UpdateStatus(ctx, gameID, models.StatusPending)
		return err
	}
	defer session.close()

	budget := engine.Budget{Depth: s.config.Depth, MoveTime: s.config.MoveTime}
	detector := analysis.NewDetector(s.config.FlagThresholdCP)
	userIsWhite := game.PlayedAs == "white"

	maxSkipped := s.config.MaxSkippedPlies
	if maxSkipped <= 0 {
		maxSkipped = 5
	}

	var flagged []models.Error
	skipped := 0

	for _, ply := range plies {
		if ctx.Err() != nil {
			log.Warn("analysis cancelled: %v", ctx.Err())
			// Nothing was committed; put the game back in the queue.
			_ = s.gameRepo.UpdateStatus(context.WithoutCancel(ctx), gameID, models.StatusPending)
			return ctx.Err()
		}

		if ply.WhiteMove != userIsWhite {
			continue
		}
		// A mating move has no alternative worth scoring.
		if ply.Mate {
			continue
		}

		evalBefore, err := session.evaluate(ctx, ply.FENBefore, budget, s.config.EvalMaxRetries)
		if err != nil {
			if ctx.Err() != nil {
				_ = s.gameRepo.UpdateStatus(context.WithoutCancel(ctx), gameID, models.StatusPending)
				return ctx.Err()
			}
			log.Warn("eval unavailable for ply %d, skipping: %v", ply.Index, err)
			skipped++
			if skipped > maxSkipped {
				return s.abandon(ctx, gameID, skipped, err)
			}
			continue
		}
		evalAfter, err := session.evaluate(ctx, ply.FENAfter, budget, s.config.EvalMaxRetries)
		if err != nil {
			if ctx.Err() != nil {
				_ = s.gameRepo.UpdateStatus(context.WithoutCancel(ctx), gameID, models.StatusPending)
				return ctx.Err()
			}
			log.Warn("eval unavailable for ply %d, skipping: %v", ply.Index, err)
			skipped++
			if skipped > maxSkipped {
				return s.abandon(ctx, gameID, skipped, err)
			}
			continue
		}

		loss := detector.Loss(evalBefore, evalAfter, ply.WhiteMove)
		if !detector.Flagged(loss) {
			continue
		}

		category := analysis.Classify(ply.FENBefore, ply.UCI, evalBefore.BestMove, evalBefore, evalAfter, ply.WhiteMove)
		e := models.Error{
			GameID:        gameID,
			Ply:           ply.Index,
			FEN:           ply.FENBefore,
			MovePlayed:    ply.UCI,
			BestMove:      evalBefore.BestMove,
			EvalBefore:    evalBefore.CP,
			EvalAfter:     evalAfter.CP,
			CentipawnLoss: loss,
			Label:         analysis.Label(loss),
			Category:      string(category),
			Severity:      analysis.Severity(loss),
		}
		e.Explanation = analysis.Explain(e)
		flagged = append(flagged, e)
		log.Debug("flagged ply %d: %s %s loss=%.0fcp", ply.Index, e.Label, e.Category, loss)
	}

	if err := s.errorRepo.CommitAnalysis(ctx, gameID, flagged); err != nil {
		log.Error("failed to commit analysis: %v", err)
		_ = s.gameRepo.UpdateStatus(context.WithoutCancel(ctx), gameID, models.StatusPending)
		return err
	}

	log.Info("analysis completed: %d plies, %d errors flagged, %d positions skipped",
		len(plies), len(flagged), skipped)
	return nil
}

// abandon marks a game failed after too many unavailable evaluations. The
// game stays unanalyzed and can be retried later.
func (s *analysisService) abandon(ctx context.Context, gameID int64, skipped int, cause error) error {
	log := logger.FromContext(ctx).WithField("game_id", gameID)
	log.Error("abandoning analysis after %d skipped positions: %v", skipped, cause)
	_ = s.gameRepo.UpdateStatus(context.WithoutCancel(ctx), gameID, models.StatusFailed)
	return errors.NewEvalUnavailableError(cause)
}

// detectOpening fills in opening metadata when the import didn't provide
// it. Best effort; analysis proceeds regardless.
func (s *analysisService) detectOpening(ctx context.Context, game *models.Game) {
	if game.OpeningName != "" {
		return
	}
	log := logger.FromContext(ctx).WithField("game_id", game.ID)

	pgnOpt, err := chess.PGN(strings.NewReader(game.PGN))
	if err != nil {
		return
	}
	chessGame := chess.NewGame(pgnOpt)

	book := opening.NewBookECO()
	found := book.Find(chessGame.Moves())
	if found == nil {
		return
	}
	if err := s.gameRepo.UpdateOpening(ctx, game.ID, found.Code(), found.Title()); err != nil {
		log.Warn("failed to update game opening: %v", err)
	}
}

// engineSession holds one pooled engine for the duration of a game's
// analysis. A handle that went unavailable is swapped for a fresh one on
// retry; release always happens exactly once.
type engineSession struct {
	pool   EvaluatorPool
	handle Evaluator
}

func newEngineSession(ctx context.Context, pool EvaluatorPool) (*engineSession, error) {
	h, err := pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &engineSession{pool: pool, handle: h}, nil
}

func (es *engineSession) close() {
	if es.handle != nil {
		es.pool.Release(es.handle)
		es.handle = nil
	}
}

func (es *engineSession) evaluate(ctx context.Context, fen string, budget engine.Budget, retries int) (engine.EvalResult, error) {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		res, err := es.handle.Evaluate(ctx, fen, budget)
		if err == nil {
			return res, nil
		}
		if ctx.Err() != nil {
			return engine.EvalResult{}, ctx.Err()
		}
		if !goerrors.Is(err, engine.ErrUnavailable) {
			return engine.EvalResult{}, err
		}
		lastErr = err

		// The handle may be a dead process; trade it for a fresh one.
		es.pool.Release(es.handle)
		es.handle = nil
		h, aerr := es.pool.Acquire(ctx)
		if aerr != nil {
			return engine.EvalResult{}, aerr
		}
		es.handle = h
	}
	return engine.EvalResult{}, lastErr
}

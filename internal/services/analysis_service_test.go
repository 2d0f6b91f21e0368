package services_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/alexvogt/chesscoach/internal/analysis"
	"github.com/alexvogt/chesscoach/internal/engine"
	apperrors "github.com/alexvogt/chesscoach/internal/errors"
	"github.com/alexvogt/chesscoach/internal/models"
	"github.com/alexvogt/chesscoach/internal/services"
	"github.com/alexvogt/chesscoach/internal/testutil/mocks"
)

const scholarsMatePGN = `[Event "Test"]
[Site "?"]
[Result "1-0"]

1. e4 e5 2. Bc4 Nc6 3. Qh5 Nf6 4. Qxf7# 1-0`

// fakeEvaluator returns scripted evaluations keyed by FEN. Positions in
// failOn report the engine as unavailable.
type fakeEvaluator struct {
	evals  map[string]engine.EvalResult
	failOn map[string]bool
	err    error
	calls  int
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, fen string, budget engine.Budget) (engine.EvalResult, error) {
	f.calls++
	if f.err != nil {
		return engine.EvalResult{}, f.err
	}
	if f.failOn[fen] {
		return engine.EvalResult{}, engine.ErrUnavailable
	}
	if r, ok := f.evals[fen]; ok {
		return r, nil
	}
	return engine.EvalResult{}, fmt.Errorf("unexpected fen: %s", fen)
}

// fakePool hands out the same evaluator and counts the churn.
type fakePool struct {
	ev       *fakeEvaluator
	acquires int
	releases int
}

func (p *fakePool) Acquire(ctx context.Context) (services.Evaluator, error) {
	p.acquires++
	return p.ev, nil
}

func (p *fakePool) Release(services.Evaluator) {
	p.releases++
}

func testConfig() services.AnalysisConfig {
	return services.AnalysisConfig{
		Depth:           10,
		FlagThresholdCP: 200,
		EvalMaxRetries:  1,
		MaxSkippedPlies: 1,
	}
}

func testGame(id int64) *models.Game {
	return &models.Game{
		ID:             id,
		ProfileID:      1,
		PGN:            scholarsMatePGN,
		PlayedAs:       "white",
		OpeningName:    "Italian Game",
		AnalysisStatus: models.StatusPending,
	}
}

// scriptEvals walks the game and scripts a quiet opening followed by one
// large evaluation swing on white's third move (ply 4).
func scriptEvals(t *testing.T) map[string]engine.EvalResult {
	t.Helper()
	plies, err := analysis.Walk(scholarsMatePGN)
	require.NoError(t, err)
	require.Len(t, plies, 7)

	return map[string]engine.EvalResult{
		plies[0].FENBefore: {CP: 30, BestMove: "e2e4"},
		plies[0].FENAfter:  {CP: 20},
		plies[2].FENBefore: {CP: 20, BestMove: "f1c4"},
		plies[2].FENAfter:  {CP: 15},
		plies[4].FENBefore: {CP: 10, BestMove: "g1f3"},
		plies[4].FENAfter:  {CP: -400},
	}
}

func TestAnalyzeGame_FlagsAndCommits(t *testing.T) {
	gameRepo := new(mocks.MockGameRepository)
	errorRepo := new(mocks.MockErrorRepository)
	ev := &fakeEvaluator{evals: scriptEvals(t)}
	pool := &fakePool{ev: ev}

	game := testGame(42)
	gameRepo.On("Get", mock.Anything, int64(42)).Return(game, nil)
	gameRepo.On("UpdateStatus", mock.Anything, int64(42), models.StatusProcessing).Return(nil)

	var committed []models.Error
	errorRepo.On("CommitAnalysis", mock.Anything, int64(42), mock.Anything).
		Run(func(args mock.Arguments) {
			committed = args.Get(2).([]models.Error)
		}).
		Return(nil)

	svc := services.NewAnalysisService(gameRepo, errorRepo, pool, testConfig())
	err := svc.AnalyzeGame(context.Background(), 42)
	require.NoError(t, err)

	// White's plies 0, 2, 4 are evaluated before and after; the mating
	// ply 6 and all of black's plies are not.
	assert.Equal(t, 6, ev.calls)

	require.Len(t, committed, 1)
	e := committed[0]
	assert.Equal(t, int64(42), e.GameID)
	assert.Equal(t, 4, e.Ply)
	assert.Equal(t, "d1h5", e.MovePlayed)
	assert.Equal(t, "g1f3", e.BestMove)
	assert.Equal(t, 410.0, e.CentipawnLoss)
	assert.Equal(t, analysis.LabelBlunder, e.Label)
	assert.Equal(t, 4, e.Severity)
	assert.NotEmpty(t, e.Explanation)

	gameRepo.AssertExpectations(t)
	errorRepo.AssertExpectations(t)
	assert.Equal(t, pool.acquires, pool.releases)
}

func TestAnalyzeGame_AlreadyCompletedIsNoOp(t *testing.T) {
	gameRepo := new(mocks.MockGameRepository)
	errorRepo := new(mocks.MockErrorRepository)
	ev := &fakeEvaluator{}
	pool := &fakePool{ev: ev}

	game := testGame(7)
	game.AnalysisStatus = models.StatusCompleted
	gameRepo.On("Get", mock.Anything, int64(7)).Return(game, nil)

	svc := services.NewAnalysisService(gameRepo, errorRepo, pool, testConfig())
	err := svc.AnalyzeGame(context.Background(), 7)
	require.NoError(t, err)

	assert.Zero(t, ev.calls)
	errorRepo.AssertNotCalled(t, "CommitAnalysis", mock.Anything, mock.Anything, mock.Anything)
	gameRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyzeGame_MalformedGame(t *testing.T) {
	gameRepo := new(mocks.MockGameRepository)
	errorRepo := new(mocks.MockErrorRepository)
	pool := &fakePool{ev: &fakeEvaluator{}}

	game := testGame(9)
	game.PGN = "1. e4 e5 2. Nf3 Nc6 3. Bb5 Qxb5"
	gameRepo.On("Get", mock.Anything, int64(9)).Return(game, nil)
	gameRepo.On("UpdateStatus", mock.Anything, int64(9), models.StatusProcessing).Return(nil)
	gameRepo.On("UpdateStatus", mock.Anything, int64(9), models.StatusFailed).Return(nil)

	svc := services.NewAnalysisService(gameRepo, errorRepo, pool, testConfig())
	err := svc.AnalyzeGame(context.Background(), 9)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeMalformedGame, appErr.Code)

	gameRepo.AssertExpectations(t)
	errorRepo.AssertNotCalled(t, "CommitAnalysis", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyzeGame_SkipsUnavailablePlyAndContinues(t *testing.T) {
	gameRepo := new(mocks.MockGameRepository)
	errorRepo := new(mocks.MockErrorRepository)

	plies, err := analysis.Walk(scholarsMatePGN)
	require.NoError(t, err)

	// The engine times out on white's first move; the rest of the game
	// still gets analyzed and the later blunder is committed.
	ev := &fakeEvaluator{
		evals:  scriptEvals(t),
		failOn: map[string]bool{plies[0].FENBefore: true},
	}
	pool := &fakePool{ev: ev}

	game := testGame(21)
	gameRepo.On("Get", mock.Anything, int64(21)).Return(game, nil)
	gameRepo.On("UpdateStatus", mock.Anything, int64(21), models.StatusProcessing).Return(nil)

	var committed []models.Error
	errorRepo.On("CommitAnalysis", mock.Anything, int64(21), mock.Anything).
		Run(func(args mock.Arguments) {
			committed = args.Get(2).([]models.Error)
		}).
		Return(nil)

	svc := services.NewAnalysisService(gameRepo, errorRepo, pool, testConfig())
	require.NoError(t, svc.AnalyzeGame(context.Background(), 21))

	require.Len(t, committed, 1)
	assert.Equal(t, 4, committed[0].Ply)
	assert.Equal(t, "d1h5", committed[0].MovePlayed)

	gameRepo.AssertNotCalled(t, "UpdateStatus", mock.Anything, int64(21), models.StatusFailed)
	errorRepo.AssertExpectations(t)
}

func TestAnalyzeGame_GameNotFound(t *testing.T) {
	gameRepo := new(mocks.MockGameRepository)
	errorRepo := new(mocks.MockErrorRepository)
	gameRepo.On("Get", mock.Anything, int64(404)).Return(nil, sql.ErrNoRows)

	svc := services.NewAnalysisService(gameRepo, errorRepo, &fakePool{ev: &fakeEvaluator{}}, testConfig())
	err := svc.AnalyzeGame(context.Background(), 404)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeNotFound, appErr.Code)
}

func TestAnalyzeGame_AbandonsAfterTooManySkips(t *testing.T) {
	gameRepo := new(mocks.MockGameRepository)
	errorRepo := new(mocks.MockErrorRepository)
	ev := &fakeEvaluator{err: engine.ErrUnavailable}
	pool := &fakePool{ev: ev}

	game := testGame(11)
	gameRepo.On("Get", mock.Anything, int64(11)).Return(game, nil)
	gameRepo.On("UpdateStatus", mock.Anything, int64(11), models.StatusProcessing).Return(nil)
	gameRepo.On("UpdateStatus", mock.Anything, int64(11), models.StatusFailed).Return(nil)

	svc := services.NewAnalysisService(gameRepo, errorRepo, pool, testConfig())
	err := svc.AnalyzeGame(context.Background(), 11)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeEvalUnavailable, appErr.Code)

	// Retries happened before giving up on each position.
	assert.Greater(t, ev.calls, 1)

	gameRepo.AssertExpectations(t)
	errorRepo.AssertNotCalled(t, "CommitAnalysis", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyzeGame_CancellationLeavesGamePending(t *testing.T) {
	gameRepo := new(mocks.MockGameRepository)
	errorRepo := new(mocks.MockErrorRepository)
	pool := &fakePool{ev: &fakeEvaluator{evals: scriptEvals(t)}}

	game := testGame(13)
	gameRepo.On("Get", mock.Anything, int64(13)).Return(game, nil)
	gameRepo.On("UpdateStatus", mock.Anything, int64(13), models.StatusProcessing).Return(nil)
	gameRepo.On("UpdateStatus", mock.Anything, int64(13), models.StatusPending).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := services.NewAnalysisService(gameRepo, errorRepo, pool, testConfig())
	err := svc.AnalyzeGame(ctx, 13)
	require.ErrorIs(t, err, context.Canceled)

	// Nothing committed; the game went back to the queue.
	errorRepo.AssertNotCalled(t, "CommitAnalysis", mock.Anything, mock.Anything, mock.Anything)
	gameRepo.AssertCalled(t, "UpdateStatus", mock.Anything, int64(13), models.StatusPending)
}

func TestEvaluatePosition(t *testing.T) {
	gameRepo := new(mocks.MockGameRepository)
	errorRepo := new(mocks.MockErrorRepository)
	fen := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	ev := &fakeEvaluator{evals: map[string]engine.EvalResult{
		fen: {CP: 30, BestMove: "e2e4"},
	}}
	pool := &fakePool{ev: ev}

	svc := services.NewAnalysisService(gameRepo, errorRepo, pool, testConfig())

	result, err := svc.EvaluatePosition(context.Background(), fen)
	require.NoError(t, err)
	assert.Equal(t, 30.0, result.CP)
	assert.Equal(t, "e2e4", result.BestMove)
	assert.Equal(t, 1, pool.acquires)
	assert.Equal(t, 1, pool.releases)
}

func TestEvaluatePosition_EmptyFEN(t *testing.T) {
	svc := services.NewAnalysisService(
		new(mocks.MockGameRepository),
		new(mocks.MockErrorRepository),
		&fakePool{ev: &fakeEvaluator{}},
		testConfig(),
	)

	_, err := svc.EvaluatePosition(context.Background(), "  ")
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrCodeValidation, appErr.Code)
}

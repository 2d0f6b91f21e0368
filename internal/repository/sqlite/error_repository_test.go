package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexvogt/chesscoach/internal/models"
)

func flaggedError(gameID int64, ply int, label, category string) models.Error {
	return models.Error{
		GameID:        gameID,
		Ply:           ply,
		FEN:           "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1",
		MovePlayed:    "d1h5",
		BestMove:      "g1f3",
		EvalBefore:    10,
		EvalAfter:     -400,
		CentipawnLoss: 410,
		Label:         label,
		Category:      category,
		Severity:      4,
		Explanation:   "Blunder on move 3: you played d1-h5, but g1-f3 was stronger.",
	}
}

func TestErrorRepository_CommitAnalysis(t *testing.T) {
	_, profiles, games, errs := newRepos(t)
	ctx := context.Background()
	p := seedProfile(t, profiles)

	id, err := games.Insert(ctx, sampleGame(p.ID, "g1"))
	require.NoError(t, err)

	set := []models.Error{
		flaggedError(id, 8, "mistake", "missed_capture"),
		flaggedError(id, 4, "blunder", "hanging_piece"),
	}
	require.NoError(t, errs.CommitAnalysis(ctx, id, set))

	// The game is marked analyzed in the same transaction.
	game, err := games.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, game.AnalysisStatus)

	out, err := errs.ErrorsForGame(ctx, id)
	require.NoError(t, err)
	require.Len(t, out, 2)
	// Ordered by ply, not insertion order.
	assert.Equal(t, 4, out[0].Ply)
	assert.Equal(t, 8, out[1].Ply)
	assert.Equal(t, "hanging_piece", out[0].Category)
	assert.NotEmpty(t, out[0].Explanation)
}

func TestErrorRepository_CommitAnalysisReplacesExistingSet(t *testing.T) {
	_, profiles, games, errs := newRepos(t)
	ctx := context.Background()
	p := seedProfile(t, profiles)

	id, err := games.Insert(ctx, sampleGame(p.ID, "g1"))
	require.NoError(t, err)

	require.NoError(t, errs.CommitAnalysis(ctx, id, []models.Error{
		flaggedError(id, 2, "blunder", "other"),
		flaggedError(id, 6, "mistake", "other"),
	}))

	// Re-analysis commits a different set; the old one must not linger.
	require.NoError(t, errs.CommitAnalysis(ctx, id, []models.Error{
		flaggedError(id, 10, "inaccuracy", "endgame_technique"),
	}))

	out, err := errs.ErrorsForGame(ctx, id)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, 10, out[0].Ply)
}

func TestErrorRepository_CommitAnalysisEmptySet(t *testing.T) {
	_, profiles, games, errs := newRepos(t)
	ctx := context.Background()
	p := seedProfile(t, profiles)

	id, err := games.Insert(ctx, sampleGame(p.ID, "clean"))
	require.NoError(t, err)

	// A clean game commits zero errors but still completes.
	require.NoError(t, errs.CommitAnalysis(ctx, id, nil))

	game, err := games.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, game.AnalysisStatus)

	out, err := errs.ErrorsForGame(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestErrorRepository_CommitAnalysisUnknownGameRollsBack(t *testing.T) {
	_, _, _, errs := newRepos(t)
	ctx := context.Background()

	err := errs.CommitAnalysis(ctx, 9999, []models.Error{
		flaggedError(9999, 0, "blunder", "other"),
	})
	require.Error(t, err)

	out, err := errs.ErrorsForGame(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestErrorRepository_ListFilters(t *testing.T) {
	_, profiles, games, errs := newRepos(t)
	ctx := context.Background()
	p := seedProfile(t, profiles)

	id1, err := games.Insert(ctx, sampleGame(p.ID, "g1"))
	require.NoError(t, err)
	id2, err := games.Insert(ctx, sampleGame(p.ID, "g2"))
	require.NoError(t, err)

	require.NoError(t, errs.CommitAnalysis(ctx, id1, []models.Error{
		flaggedError(id1, 2, "blunder", "hanging_piece"),
		flaggedError(id1, 8, "mistake", "missed_fork"),
	}))
	require.NoError(t, errs.CommitAnalysis(ctx, id2, []models.Error{
		flaggedError(id2, 4, "blunder", "hanging_piece"),
	}))

	out, err := errs.List(ctx, models.ErrorFilter{ProfileID: p.ID})
	require.NoError(t, err)
	assert.Len(t, out, 3)

	out, err = errs.List(ctx, models.ErrorFilter{ProfileID: p.ID, Category: "hanging_piece"})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	out, err = errs.List(ctx, models.ErrorFilter{GameID: id2})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, id2, out[0].GameID)

	out, err = errs.List(ctx, models.ErrorFilter{ProfileID: p.ID, Label: "mistake"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "missed_fork", out[0].Category)
}

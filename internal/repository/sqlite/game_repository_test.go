package sqlite_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexvogt/chesscoach/internal/models"
	"github.com/alexvogt/chesscoach/internal/repository"
	"github.com/alexvogt/chesscoach/internal/repository/sqlite"
	"github.com/alexvogt/chesscoach/internal/testutil"
)

func newRepos(t *testing.T) (*sql.DB, repository.ProfileRepository, repository.GameRepository, repository.ErrorRepository) {
	t.Helper()
	db := testutil.NewTestDB(t)
	return db,
		sqlite.NewProfileRepository(db),
		sqlite.NewGameRepository(db),
		sqlite.NewErrorRepository(db)
}

func seedProfile(t *testing.T, profiles repository.ProfileRepository) *models.Profile {
	t.Helper()
	p, err := profiles.Upsert(context.Background(), "alice")
	require.NoError(t, err)
	return p
}

func sampleGame(profileID int64, chessComID string) models.Game {
	return models.Game{
		ProfileID:      profileID,
		ChessComID:     chessComID,
		PGN:            "1. e4 e5",
		TimeClass:      "blitz",
		Result:         "win",
		PlayedAs:       "white",
		Opponent:       "bob",
		PlayerRating:   1500,
		OpponentRating: 1480,
		PlayedAt:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		AnalysisStatus: models.StatusPending,
	}
}

func TestGameRepository_InsertAndGet(t *testing.T) {
	_, profiles, games, _ := newRepos(t)
	ctx := context.Background()
	p := seedProfile(t, profiles)

	id, err := games.Insert(ctx, sampleGame(p.ID, "g1"))
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := games.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "g1", got.ChessComID)
	assert.Equal(t, "blitz", got.TimeClass)
	assert.Equal(t, "bob", got.Opponent)
	assert.Equal(t, models.StatusPending, got.AnalysisStatus)
}

func TestGameRepository_Get_NotFound(t *testing.T) {
	_, _, games, _ := newRepos(t)

	_, err := games.Get(context.Background(), 9999)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGameRepository_InsertDuplicateIsNoOp(t *testing.T) {
	_, profiles, games, _ := newRepos(t)
	ctx := context.Background()
	p := seedProfile(t, profiles)

	id1, err := games.Insert(ctx, sampleGame(p.ID, "dup"))
	require.NoError(t, err)
	id2, err := games.Insert(ctx, sampleGame(p.ID, "dup"))
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	count, err := games.Count(ctx, models.GameFilter{ProfileID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGameRepository_InsertBatchSkipsExisting(t *testing.T) {
	_, profiles, games, _ := newRepos(t)
	ctx := context.Background()
	p := seedProfile(t, profiles)

	_, err := games.Insert(ctx, sampleGame(p.ID, "old"))
	require.NoError(t, err)

	ids, err := games.InsertBatch(ctx, []models.Game{
		sampleGame(p.ID, "old"),
		sampleGame(p.ID, "new1"),
		sampleGame(p.ID, "new2"),
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)

	// The returned ids belong to the rows that actually went in, not to
	// whatever the connection inserted last.
	for i, want := range []string{"new1", "new2"} {
		g, err := games.Get(ctx, ids[i])
		require.NoError(t, err)
		assert.Equal(t, want, g.ChessComID)
	}

	count, err := games.Count(ctx, models.GameFilter{ProfileID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestGameRepository_ListWithFilters(t *testing.T) {
	_, profiles, games, _ := newRepos(t)
	ctx := context.Background()
	p := seedProfile(t, profiles)

	g1 := sampleGame(p.ID, "a")
	g2 := sampleGame(p.ID, "b")
	g2.Result = "loss"
	g2.TimeClass = "rapid"
	for _, g := range []models.Game{g1, g2} {
		_, err := games.Insert(ctx, g)
		require.NoError(t, err)
	}

	out, err := games.List(ctx, models.GameFilter{ProfileID: p.ID, Result: "loss"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "b", out[0].ChessComID)

	out, err = games.List(ctx, models.GameFilter{ProfileID: p.ID, TimeClass: "blitz"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ChessComID)

	out, err = games.List(ctx, models.GameFilter{ProfileID: p.ID})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestGameRepository_StatusLifecycle(t *testing.T) {
	_, profiles, games, _ := newRepos(t)
	ctx := context.Background()
	p := seedProfile(t, profiles)

	id, err := games.Insert(ctx, sampleGame(p.ID, "g1"))
	require.NoError(t, err)

	require.NoError(t, games.UpdateStatus(ctx, id, models.StatusProcessing))
	got, err := games.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusProcessing, got.AnalysisStatus)

	// A crashed worker leaves games in processing; reset puts them back.
	require.NoError(t, games.ResetProcessingToPending(ctx, p.ID))
	got, err = games.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.AnalysisStatus)
}

func TestGameRepository_GamesNeedingAnalysis(t *testing.T) {
	_, profiles, games, _ := newRepos(t)
	ctx := context.Background()
	p := seedProfile(t, profiles)

	pending, err := games.Insert(ctx, sampleGame(p.ID, "pending"))
	require.NoError(t, err)
	failed, err := games.Insert(ctx, sampleGame(p.ID, "failed"))
	require.NoError(t, err)
	done, err := games.Insert(ctx, sampleGame(p.ID, "done"))
	require.NoError(t, err)

	require.NoError(t, games.UpdateStatus(ctx, failed, models.StatusFailed))
	require.NoError(t, games.UpdateStatus(ctx, done, models.StatusCompleted))

	need, err := games.GamesNeedingAnalysis(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, need, 2)
	ids := []int64{need[0].ID, need[1].ID}
	assert.Contains(t, ids, pending)
	assert.Contains(t, ids, failed)
}

func TestGameRepository_GetExistingChessComIDs(t *testing.T) {
	_, profiles, games, _ := newRepos(t)
	ctx := context.Background()
	p := seedProfile(t, profiles)

	_, err := games.Insert(ctx, sampleGame(p.ID, "x1"))
	require.NoError(t, err)
	_, err = games.Insert(ctx, sampleGame(p.ID, "x2"))
	require.NoError(t, err)

	ids, err := games.GetExistingChessComIDs(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, ids["x1"])
	assert.True(t, ids["x2"])
	assert.False(t, ids["x3"])
}

func TestGameRepository_DeleteCascadesToErrors(t *testing.T) {
	_, profiles, games, errs := newRepos(t)
	ctx := context.Background()
	p := seedProfile(t, profiles)

	id, err := games.Insert(ctx, sampleGame(p.ID, "g1"))
	require.NoError(t, err)

	require.NoError(t, errs.CommitAnalysis(ctx, id, []models.Error{
		{GameID: id, Ply: 4, FEN: "fen", MovePlayed: "d1h5", Label: "blunder", Category: "other", Severity: 4},
	}))

	require.NoError(t, games.Delete(ctx, id))

	_, err = games.Get(ctx, id)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	left, err := errs.ErrorsForGame(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, left)
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"

	"github.com/alexvogt/chesscoach/internal/logger"
	"github.com/alexvogt/chesscoach/internal/models"
	"github.com/alexvogt/chesscoach/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

const gameColumns = `id, profile_id, chess_com_id, pgn, time_class, result, played_as, opponent,
       player_rating, opponent_rating, played_at, eco_code, opening_name, analysis_status, created_at`

type gameRepository struct {
	db *sql.DB
}

// NewGameRepository creates a new GameRepository implementation
func NewGameRepository(db *sql.DB) repository.GameRepository {
	return &gameRepository{db: db}
}

func scanGame(row interface{ Scan(...any) error }) (models.Game, error) {
	var g models.Game
	err := row.Scan(&g.ID, &g.ProfileID, &g.ChessComID, &g.PGN, &g.TimeClass, &g.Result, &g.PlayedAs,
		&g.Opponent, &g.PlayerRating, &g.OpponentRating, &g.PlayedAt, &g.ECOCode, &g.OpeningName,
		&g.AnalysisStatus, &g.CreatedAt)
	return g, err
}

func (r *gameRepository) Get(ctx context.Context, id int64) (*models.Game, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("getting game: id=%d", id)

	g, err := scanGame(r.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("game not found: id=%d", id)
		} else {
			log.Error("failed to get game: %v", err)
		}
		return nil, err
	}
	return &g, nil
}

func applyGameFilter(query squirrel.SelectBuilder, filter models.GameFilter) squirrel.SelectBuilder {
	if filter.ProfileID != 0 {
		query = query.Where(squirrel.Eq{"profile_id": filter.ProfileID})
	}
	if filter.TimeClass != "" {
		query = query.Where(squirrel.Eq{"time_class": filter.TimeClass})
	}
	if filter.Result != "" {
		query = query.Where(squirrel.Eq{"result": filter.Result})
	}
	if filter.AnalysisStatus != "" {
		query = query.Where(squirrel.Eq{"analysis_status": filter.AnalysisStatus})
	}
	if filter.Opponent != "" {
		query = query.Where(squirrel.Eq{"opponent": filter.Opponent})
	}
	return query
}

func (r *gameRepository) List(ctx context.Context, filter models.GameFilter) ([]models.Game, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("listing games: profile_id=%d, time_class=%s, result=%s, status=%s",
		filter.ProfileID, filter.TimeClass, filter.Result, filter.AnalysisStatus)

	query := applyGameFilter(sqlBuilder.Select(
		"id", "profile_id", "chess_com_id", "pgn", "time_class", "result", "played_as",
		"opponent", "player_rating", "opponent_rating", "played_at", "eco_code",
		"opening_name", "analysis_status", "created_at",
	).From("games"), filter)

	orderDir := "DESC"
	if filter.OrderDir == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy("played_at " + orderDir)

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query = query.Limit(uint64(limit)).Offset(uint64(offset))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list games: %v", err)
		return nil, err
	}
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			log.Error("failed to scan game row: %v", err)
			return nil, err
		}
		games = append(games, g)
	}
	log.Debug("found %d games", len(games))
	return games, rows.Err()
}

func (r *gameRepository) Count(ctx context.Context, filter models.GameFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")

	query := applyGameFilter(sqlBuilder.Select("COUNT(*)").From("games"), filter)
	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		log.Error("failed to count games: %v", err)
		return 0, err
	}
	return count, nil
}

const insertGameSQL = `
INSERT INTO games (
    profile_id, chess_com_id, pgn, time_class, result, played_as,
    opponent, player_rating, opponent_rating, played_at, eco_code, opening_name, analysis_status
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(chess_com_id) DO NOTHING
`

func (r *gameRepository) Insert(ctx context.Context, g models.Game) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("inserting game: chess_com_id=%s, opponent=%s", g.ChessComID, g.Opponent)

	res, err := r.db.ExecContext(ctx, insertGameSQL,
		g.ProfileID, g.ChessComID, g.PGN, g.TimeClass, g.Result, g.PlayedAs,
		g.Opponent, g.PlayerRating, g.OpponentRating, g.PlayedAt, g.ECOCode, g.OpeningName, g.AnalysisStatus)
	if err != nil {
		log.Error("failed to insert game: %v", err)
		return 0, err
	}
	// LastInsertId is only meaningful when a row actually went in; after
	// ON CONFLICT DO NOTHING it reports the connection's previous insert.
	n, err := res.RowsAffected()
	if err != nil {
		log.Error("failed to read rows affected: %v", err)
		return 0, err
	}
	if n == 1 {
		id, err := res.LastInsertId()
		if err != nil {
			log.Error("failed to get insert id: %v", err)
			return 0, err
		}
		log.Debug("game inserted: id=%d", id)
		return id, nil
	}

	// Duplicate: hand back the existing row's id.
	var id int64
	err = r.db.QueryRowContext(ctx, `SELECT id FROM games WHERE chess_com_id = ?`, g.ChessComID).Scan(&id)
	if err != nil {
		log.Error("failed to get game id: %v", err)
	}
	return id, err
}

func (r *gameRepository) InsertBatch(ctx context.Context, games []models.Game) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("batch inserting %d games", len(games))

	if len(games) == 0 {
		return nil, nil
	}

	var insertedIDs []int64
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertGameSQL)
		if err != nil {
			log.Error("failed to prepare batch insert: %v", err)
			return err
		}
		defer stmt.Close()

		for _, g := range games {
			res, err := stmt.ExecContext(ctx, g.ProfileID, g.ChessComID, g.PGN, g.TimeClass, g.Result,
				g.PlayedAs, g.Opponent, g.PlayerRating, g.OpponentRating, g.PlayedAt, g.ECOCode,
				g.OpeningName, g.AnalysisStatus)
			if err != nil {
				log.Error("failed to insert game chess_com_id=%s: %v", g.ChessComID, err)
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				log.Error("failed to read rows affected: %v", err)
				return err
			}
			if n == 0 {
				// Duplicate skipped by ON CONFLICT.
				continue
			}
			id, err := res.LastInsertId()
			if err != nil {
				log.Error("failed to get insert id: %v", err)
				return err
			}
			insertedIDs = append(insertedIDs, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debug("batch insert completed, %d new games inserted", len(insertedIDs))
	return insertedIDs, nil
}

func (r *gameRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("updating game status: game_id=%d, status=%s", id, status)

	_, err := r.db.ExecContext(ctx, `UPDATE games SET analysis_status = ? WHERE id = ?`, status, id)
	if err != nil {
		log.Error("failed to update game status: %v", err)
	}
	return err
}

func (r *gameRepository) UpdateOpening(ctx context.Context, id int64, ecoCode, openingName string) error {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("updating game opening: game_id=%d, eco=%s", id, ecoCode)

	_, err := r.db.ExecContext(ctx, `UPDATE games SET eco_code = ?, opening_name = ? WHERE id = ?`,
		ecoCode, openingName, id)
	if err != nil {
		log.Error("failed to update game opening: %v", err)
	}
	return err
}

func (r *gameRepository) ResetProcessingToPending(ctx context.Context, profileID int64) error {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("resetting processing games to pending: profile_id=%d", profileID)

	_, err := r.db.ExecContext(ctx, `
UPDATE games SET analysis_status = 'pending'
WHERE profile_id = ? AND analysis_status = 'processing'
`, profileID)
	if err != nil {
		log.Error("failed to reset processing games: %v", err)
	}
	return err
}

func (r *gameRepository) GamesNeedingAnalysis(ctx context.Context, profileID int64) ([]models.Game, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("listing games needing analysis: profile_id=%d", profileID)

	rows, err := r.db.QueryContext(ctx, `
SELECT `+gameColumns+`
FROM games
WHERE profile_id = ? AND analysis_status IN ('pending','processing','failed')
ORDER BY played_at DESC
`, profileID)
	if err != nil {
		log.Error("failed to list games needing analysis: %v", err)
		return nil, err
	}
	defer rows.Close()

	var games []models.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			log.Error("failed to scan game row: %v", err)
			return nil, err
		}
		games = append(games, g)
	}
	log.Debug("found %d games needing analysis", len(games))
	return games, rows.Err()
}

func (r *gameRepository) GetExistingChessComIDs(ctx context.Context, profileID int64) (map[string]bool, error) {
	log := logger.FromContext(ctx).WithPrefix("game_repo")

	rows, err := r.db.QueryContext(ctx, `SELECT chess_com_id FROM games WHERE profile_id = ?`, profileID)
	if err != nil {
		log.Error("failed to list chess_com_ids: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			log.Error("failed to scan chess_com_id: %v", err)
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func (r *gameRepository) Delete(ctx context.Context, id int64) error {
	log := logger.FromContext(ctx).WithPrefix("game_repo")
	log.Debug("deleting game: id=%d", id)

	// Errors cascade via the foreign key.
	_, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		log.Error("failed to delete game: %v", err)
	}
	return err
}

package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"

	"github.com/alexvogt/chesscoach/internal/logger"
	"github.com/alexvogt/chesscoach/internal/models"
	"github.com/alexvogt/chesscoach/internal/repository"
)

const errorColumns = `id, game_id, ply, fen, move_played, best_move, eval_before, eval_after,
       centipawn_loss, label, category, severity, explanation, created_at`

type errorRepository struct {
	db *sql.DB
}

// NewErrorRepository creates a new ErrorRepository implementation
func NewErrorRepository(db *sql.DB) repository.ErrorRepository {
	return &errorRepository{db: db}
}

func scanError(row interface{ Scan(...any) error }) (models.Error, error) {
	var e models.Error
	err := row.Scan(&e.ID, &e.GameID, &e.Ply, &e.FEN, &e.MovePlayed, &e.BestMove, &e.EvalBefore,
		&e.EvalAfter, &e.CentipawnLoss, &e.Label, &e.Category, &e.Severity, &e.Explanation, &e.CreatedAt)
	return e, err
}

func (r *errorRepository) ErrorsForGame(ctx context.Context, gameID int64) ([]models.Error, error) {
	log := logger.FromContext(ctx).WithPrefix("error_repo")
	log.Debug("fetching errors for game: game_id=%d", gameID)

	rows, err := r.db.QueryContext(ctx, `
SELECT `+errorColumns+`
FROM errors
WHERE game_id = ?
ORDER BY ply ASC
`, gameID)
	if err != nil {
		log.Error("failed to query errors: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.Error
	for rows.Next() {
		e, err := scanError(rows)
		if err != nil {
			log.Error("failed to scan error row: %v", err)
			return nil, err
		}
		out = append(out, e)
	}
	log.Debug("found %d errors", len(out))
	return out, rows.Err()
}

func (r *errorRepository) List(ctx context.Context, filter models.ErrorFilter) ([]models.Error, error) {
	log := logger.FromContext(ctx).WithPrefix("error_repo")
	log.Debug("listing errors: profile_id=%d, game_id=%d, category=%s, label=%s",
		filter.ProfileID, filter.GameID, filter.Category, filter.Label)

	query := sqlBuilder.Select(
		"e.id", "e.game_id", "e.ply", "e.fen", "e.move_played", "e.best_move", "e.eval_before",
		"e.eval_after", "e.centipawn_loss", "e.label", "e.category", "e.severity", "e.explanation",
		"e.created_at",
	).From("errors e").Join("games g ON g.id = e.game_id")

	if filter.ProfileID != 0 {
		query = query.Where(squirrel.Eq{"g.profile_id": filter.ProfileID})
	}
	if filter.GameID != 0 {
		query = query.Where(squirrel.Eq{"e.game_id": filter.GameID})
	}
	if filter.Category != "" {
		query = query.Where(squirrel.Eq{"e.category": filter.Category})
	}
	if filter.Label != "" {
		query = query.Where(squirrel.Eq{"e.label": filter.Label})
	}

	query = query.OrderBy("e.game_id DESC", "e.ply ASC")

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
		log.Error("failed to list errors: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.Error
	for rows.Next() {
		e, err := scanError(rows)
		if err != nil {
			log.Error("failed to scan error row: %v", err)
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CommitAnalysis replaces the game's error set and flips its status to
// completed in a single transaction. Either the whole set lands or nothing
// does, so a game is never marked analyzed with a partial error set.
func (r *errorRepository) CommitAnalysis(ctx context.Context, gameID int64, errs []models.Error) error {
	log := logger.FromContext(ctx).WithPrefix("error_repo")
	log.Debug("committing analysis: game_id=%d, errors=%d", gameID, len(errs))

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM errors WHERE game_id = ?`, gameID); err != nil {
			log.Error("failed to clear old errors: %v", err)
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO errors (game_id, ply, fen, move_played, best_move, eval_before, eval_after,
                    centipawn_loss, label, category, severity, explanation)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
		if err != nil {
			log.Error("failed to prepare error insert: %v", err)
			return err
		}
		defer stmt.Close()

		for _, e := range errs {
			if _, err := stmt.ExecContext(ctx, gameID, e.Ply, e.FEN, e.MovePlayed, e.BestMove,
				e.EvalBefore, e.EvalAfter, e.CentipawnLoss, e.Label, e.Category, e.Severity,
				e.Explanation); err != nil {
				log.Error("failed to insert error ply=%d: %v", e.Ply, err)
				return err
			}
		}

		if _, err := tx.ExecContext(ctx, `UPDATE games SET analysis_status = 'completed' WHERE id = ?`, gameID); err != nil {
			log.Error("failed to mark game completed: %v", err)
			return err
		}
		return nil
	})
}

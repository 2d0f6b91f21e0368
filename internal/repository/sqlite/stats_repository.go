package sqlite

import (
	"context"
	"database/sql"

	"github.com/alexvogt/chesscoach/internal/logger"
	"github.com/alexvogt/chesscoach/internal/models"
	"github.com/alexvogt/chesscoach/internal/repository"
)

type statsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new StatsRepository implementation
func NewStatsRepository(db *sql.DB) repository.StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) CategoryStats(ctx context.Context, profileID int64) ([]models.CategoryStat, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("computing category stats: profile_id=%d", profileID)

	rows, err := r.db.QueryContext(ctx, `
SELECT e.category, COUNT(*), AVG(e.centipawn_loss)
FROM errors e
JOIN games g ON g.id = e.game_id
WHERE g.profile_id = ?
GROUP BY e.category
ORDER BY COUNT(*) DESC
`, profileID)
	if err != nil {
		log.Error("failed to query category stats: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.CategoryStat
	for rows.Next() {
		var s models.CategoryStat
		if err := rows.Scan(&s.Category, &s.Count, &s.AvgLoss); err != nil {
			log.Error("failed to scan category stat: %v", err)
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// PhaseStats buckets errors by the move-number phase split the original
// analyzer used: opening through move 15, middlegame through 40, endgame
// after.
func (r *statsRepository) PhaseStats(ctx context.Context, profileID int64) ([]models.PhaseStat, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("computing phase stats: profile_id=%d", profileID)

	rows, err := r.db.QueryContext(ctx, `
SELECT
    CASE
        WHEN (e.ply / 2 + 1) <= 15 THEN 'opening'
        WHEN (e.ply / 2 + 1) <= 40 THEN 'middlegame'
        ELSE 'endgame'
    END AS phase,
    COUNT(*),
    AVG(e.centipawn_loss)
FROM errors e
JOIN games g ON g.id = e.game_id
WHERE g.profile_id = ?
GROUP BY phase
ORDER BY COUNT(*) DESC
`, profileID)
	if err != nil {
		log.Error("failed to query phase stats: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.PhaseStat
	for rows.Next() {
		var s models.PhaseStat
		if err := rows.Scan(&s.Phase, &s.Count, &s.AvgLoss); err != nil {
			log.Error("failed to scan phase stat: %v", err)
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *statsRepository) Summary(ctx context.Context, profileID int64) (*models.ErrorSummary, error) {
	log := logger.FromContext(ctx).WithPrefix("stats_repo")
	log.Debug("computing error summary: profile_id=%d", profileID)

	var s models.ErrorSummary
	var avgLoss sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `
SELECT
    COUNT(e.id),
    COALESCE(SUM(CASE WHEN e.label = 'blunder' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN e.label = 'mistake' THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN e.label = 'inaccuracy' THEN 1 ELSE 0 END), 0),
    AVG(e.centipawn_loss)
FROM errors e
JOIN games g ON g.id = e.game_id
WHERE g.profile_id = ?
`, profileID).Scan(&s.TotalErrors, &s.Blunders, &s.Mistakes, &s.Inaccuracies, &avgLoss)
	if err != nil {
		log.Error("failed to query error summary: %v", err)
		return nil, err
	}
	if avgLoss.Valid {
		s.AvgLoss = avgLoss.Float64
	}

	err = r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM games WHERE profile_id = ? AND analysis_status = 'completed'
`, profileID).Scan(&s.AnalyzedGames)
	if err != nil {
		log.Error("failed to count analyzed games: %v", err)
		return nil, err
	}
	return &s, nil
}

package models

import "time"

// Error is one flagged blunder found by game analysis. Records are immutable
// after creation and live exactly as long as their parent game.
type Error struct {
	ID            int64     `json:"id"`
	GameID        int64     `json:"game_id"`
	Ply           int       `json:"ply"`
	FEN           string    `json:"fen"`
	MovePlayed    string    `json:"move_played"`
	BestMove      string    `json:"best_move"`
	EvalBefore    float64   `json:"eval_before"`
	EvalAfter     float64   `json:"eval_after"`
	CentipawnLoss float64   `json:"centipawn_loss"`
	Label         string    `json:"label"`    // blunder | mistake | inaccuracy
	Category      string    `json:"category"` // tactical motif, see analysis.Category
	Severity      int       `json:"severity"` // 1..10
	Explanation   string    `json:"explanation"`
	CreatedAt     time.Time `json:"created_at"`
}

type ErrorFilter struct {
	ProfileID int64
	GameID    int64
	Category  string
	Label     string
	Limit     int
	Offset    int
}

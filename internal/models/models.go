package models

import "time"

type Profile struct {
	ID         int64      `json:"id"`
	Username   string     `json:"username"`
	CreatedAt  time.Time  `json:"created_at"`
	LastSyncAt *time.Time `json:"last_sync_at"`
}

// Analysis status values for Game.AnalysisStatus.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type Game struct {
	ID             int64     `json:"id"`
	ProfileID      int64     `json:"profile_id"`
	ChessComID     string    `json:"chess_com_id"`
	PGN            string    `json:"pgn"`
	TimeClass      string    `json:"time_class"`
	Result         string    `json:"result"`
	PlayedAs       string    `json:"played_as"`
	Opponent       string    `json:"opponent"`
	PlayerRating   int       `json:"player_rating"`
	OpponentRating int       `json:"opponent_rating"`
	PlayedAt       time.Time `json:"played_at"`
	ECOCode        string    `json:"eco_code"`
	OpeningName    string    `json:"opening_name"`
	AnalysisStatus string    `json:"analysis_status"`
	CreatedAt      time.Time `json:"created_at"`
}

type GameFilter struct {
	ProfileID      int64
	TimeClass      string
	Result         string
	AnalysisStatus string
	Opponent       string
	Limit          int
	Offset         int
	OrderDir       string
}

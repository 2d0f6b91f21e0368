package models

type CategoryStat struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	AvgLoss  float64 `json:"avg_loss"`
}

// PhaseStat buckets errors by game phase. Phases follow the move-number
// split used historically: opening through move 15, middlegame through
// move 40, endgame after.
type PhaseStat struct {
	Phase   string  `json:"phase"`
	Count   int     `json:"count"`
	AvgLoss float64 `json:"avg_loss"`
}

type ErrorSummary struct {
	TotalErrors   int     `json:"total_errors"`
	Blunders      int     `json:"blunders"`
	Mistakes      int     `json:"mistakes"`
	Inaccuracies  int     `json:"inaccuracies"`
	AvgLoss       float64 `json:"avg_loss"`
	AnalyzedGames int     `json:"analyzed_games"`
}

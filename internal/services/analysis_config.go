package services

import "time"

// AnalysisConfig holds the externally tunable knobs of game analysis.
// Threshold and budget are configurable because no single value is right
// across skill levels or hardware.
type AnalysisConfig struct {
	Depth           int           // engine search depth, 0 = engine default
	MoveTime        time.Duration // per-position time budget, 0 = depth only
	FlagThresholdCP float64       // centipawn loss that flags a ply
	EvalMaxRetries  int           // retries per position on transient engine failure
	MaxSkippedPlies int           // skipped positions before the game is abandoned
}

package analysis

import (
	"github.com/alexvogt/chesscoach/internal/engine"
)

// Centipawn thresholds for labeling a flagged ply. These match the
// historical analyzer so accumulated stats stay comparable.
const (
	blunderThresholdCP = 300.0
	mistakeThresholdCP = 100.0

	// DefaultFlagThreshold is the documented default: a ply becomes an
	// error once the mover gives up 2.0 pawns of evaluation.
	DefaultFlagThreshold = 200.0
)

// Labels for flagged plies.
const (
	LabelBlunder    = "blunder"
	LabelMistake    = "mistake"
	LabelInaccuracy = "inaccuracy"
)

// Detector flags plies whose evaluation swing exceeds a configured
// threshold. No single threshold is right across skill levels, so the
// value is injected rather than hardcoded.
type Detector struct {
	FlagThreshold float64 // centipawns
}

func NewDetector(flagThreshold float64) Detector {
	if flagThreshold <= 0 {
		flagThreshold = DefaultFlagThreshold
	}
	return Detector{FlagThreshold: flagThreshold}
}

// Loss computes the centipawn swing of a played move from the mover's
// perspective. Both evaluations are white-perspective; a white move that
// drops the score, or a black move that raises it, is a loss. Improving
// moves return 0.
//
// When both positions show a forced mate for the same side, the delta is
// optimal-play drift inside the mate sequence, not a blunder, and counts
// as 0.
func (d Detector) Loss(before, after engine.EvalResult, whiteMove bool) float64 {
	if before.Mate != nil && after.Mate != nil && sameSign(*before.Mate, *after.Mate) {
		return 0
	}

	diff := after.CP - before.CP
	loss := diff
	if whiteMove {
		loss = -diff
	}
	if loss < 0 {
		return 0
	}
	return loss
}

// Flagged reports whether a loss crosses the configured threshold.
func (d Detector) Flagged(loss float64) bool {
	return loss >= d.FlagThreshold
}

// Label buckets a flagged loss the way the historical analyzer did:
// >=300cp blunder, >=100cp mistake, otherwise inaccuracy.
func Label(loss float64) string {
	switch {
	case loss >= blunderThresholdCP:
		return LabelBlunder
	case loss >= mistakeThresholdCP:
		return LabelMistake
	default:
		return LabelInaccuracy
	}
}

// Severity maps a centipawn loss onto 1..10, one point per 100cp.
func Severity(loss float64) int {
	s := int(loss / 100)
	if s < 1 {
		return 1
	}
	if s > 10 {
		return 10
	}
	return s
}

func sameSign(a, b int) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

package analysis

import (
	"fmt"

	"github.com/alexvogt/chesscoach/internal/models"
)

// maxExplanationLen bounds rendered explanations so clients can display
// them without truncating mid-word.
const maxExplanationLen = 280

var labelNames = map[string]string{
	LabelBlunder:    "Blunder",
	LabelMistake:    "Mistake",
	LabelInaccuracy: "Inaccuracy",
}

var categoryContext = map[Category]string{
	CategoryMissedMate:         "You had a forced checkmate and let it slip.",
	CategoryHangingPiece:       "The better move wins a piece that was left unprotected.",
	CategoryMissedFork:         "The better move attacks two pieces at the same time.",
	CategoryMissedPin:          "The better move ties an enemy piece down in front of a more valuable one.",
	CategoryMissedCapture:      "A favorable capture was available.",
	CategoryDefensiveOversight: "Your move left one of your own pieces where it could be taken for free.",
	CategoryEndgameTechnique:   "With few pieces left, every move counts, and this one gave ground.",
}

const genericContext = "This made your position noticeably worse."

// Explain renders a plain-language description of a flagged error. It is a
// pure function: no engine access, no failure modes. Unknown categories get
// the generic template.
func Explain(e models.Error) string {
	name, ok := labelNames[e.Label]
	if !ok {
		name = "Mistake"
	}

	context, ok := categoryContext[Category(e.Category)]
	if !ok {
		context = genericContext
	}

	moveNumber := e.Ply/2 + 1
	var out string
	if e.BestMove == "" {
		out = fmt.Sprintf(
			"%s on move %d: you played %s. %s This cost about %.1f pawns.",
			name, moveNumber, MoveText(e.MovePlayed), context, e.CentipawnLoss/100,
		)
	} else {
		out = fmt.Sprintf(
			"%s on move %d: you played %s, but %s was stronger. %s This cost about %.1f pawns.",
			name, moveNumber, MoveText(e.MovePlayed), MoveText(e.BestMove), context, e.CentipawnLoss/100,
		)
	}

	if len(out) > maxExplanationLen {
		out = out[:maxExplanationLen-3] + "..."
	}
	return out
}

// MoveText renders a UCI move for people who don't read chess notation,
// e.g. "e2e4" becomes "e2-e4".
func MoveText(uci string) string {
	if len(uci) < 4 {
		return uci
	}
	return uci[0:2] + "-" + uci[2:4]
}

package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alexvogt/chesscoach/internal/analysis"
	"github.com/alexvogt/chesscoach/internal/engine"
)

func TestClassify_HangingPiece(t *testing.T) {
	// Black queen on d6 is undefended; the rook on d3 could just take it.
	fen := "4k3/8/3q4/8/8/3R4/8/4K3 w - - 0 1"
	before := engine.EvalResult{CP: 500}
	after := engine.EvalResult{CP: 0}

	cat := analysis.Classify(fen, "d3a3", "d3d6", before, after, true)
	assert.Equal(t, analysis.CategoryHangingPiece, cat)
}

func TestClassify_MissedMatePriority(t *testing.T) {
	// Same hanging-queen position, but the engine saw a forced mate.
	// Mate outranks material.
	fen := "4k3/8/3q4/8/8/3R4/8/4K3 w - - 0 1"
	before := engine.EvalResult{CP: 9980, Mate: mate(2)}
	after := engine.EvalResult{CP: 100}

	cat := analysis.Classify(fen, "d3a3", "d3d6", before, after, true)
	assert.Equal(t, analysis.CategoryMissedMate, cat)
}

func TestClassify_MissedMate_ForBlack(t *testing.T) {
	fen := "4k3/8/3q4/8/8/3R4/8/4K3 b - - 0 1"
	before := engine.EvalResult{CP: -9980, Mate: mate(-2)}
	after := engine.EvalResult{CP: 0}

	cat := analysis.Classify(fen, "d6d7", "d6d1", before, after, false)
	assert.Equal(t, analysis.CategoryMissedMate, cat)
}

func TestClassify_MissedFork(t *testing.T) {
	// Nf6+ would hit the king on g8 and the rook on e8 at once.
	fen := "4r1k1/8/8/8/6N1/8/8/4K3 w - - 0 1"
	before := engine.EvalResult{CP: 300}
	after := engine.EvalResult{CP: -100}

	cat := analysis.Classify(fen, "g4e3", "g4f6", before, after, true)
	assert.Equal(t, analysis.CategoryMissedFork, cat)
}

func TestClassify_MissedPin(t *testing.T) {
	// Bb3 would pin the knight on d5 against the king on f7.
	fen := "8/5k2/8/3n4/8/8/2B5/4K3 w - - 0 1"
	before := engine.EvalResult{CP: 250}
	after := engine.EvalResult{CP: -50}

	cat := analysis.Classify(fen, "c2d1", "c2b3", before, after, true)
	assert.Equal(t, analysis.CategoryMissedPin, cat)
}

func TestClassify_MissedCapture(t *testing.T) {
	// Rxd6 trades rook for rook; the target is defended by the c7 pawn so
	// it isn't hanging, but the capture was still the best move.
	fen := "4k3/2p5/3r4/8/8/3R4/8/4K3 w - - 0 1"
	before := engine.EvalResult{CP: 200}
	after := engine.EvalResult{CP: -100}

	cat := analysis.Classify(fen, "d3a3", "d3d6", before, after, true)
	assert.Equal(t, analysis.CategoryMissedCapture, cat)
}

func TestClassify_DefensiveOversight(t *testing.T) {
	// Nc3 steps the knight into the c-file where the rook on c8 takes it
	// for free.
	fen := "2r1k3/8/8/8/8/8/8/1N2K3 w - - 0 1"
	before := engine.EvalResult{CP: 0}
	after := engine.EvalResult{CP: -300}

	cat := analysis.Classify(fen, "b1c3", "b1a3", before, after, true)
	assert.Equal(t, analysis.CategoryDefensiveOversight, cat)
}

func TestClassify_EndgameTechnique(t *testing.T) {
	// King and pawn ending, no tactical motif, just a bad pawn push.
	fen := "4k3/8/8/8/8/8/4P3/4K3 w - - 0 1"
	before := engine.EvalResult{CP: 150}
	after := engine.EvalResult{CP: -80}

	cat := analysis.Classify(fen, "e2e4", "e1d2", before, after, true)
	assert.Equal(t, analysis.CategoryEndgameTechnique, cat)
}

func TestClassify_FallbackOther(t *testing.T) {
	// Opening position, played the engine's own choice: nothing matches.
	fen := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	before := engine.EvalResult{CP: 30}
	after := engine.EvalResult{CP: -250}

	cat := analysis.Classify(fen, "e2e4", "e2e4", before, after, true)
	assert.Equal(t, analysis.CategoryOther, cat)
}

func TestClassify_InvalidFENFallsBack(t *testing.T) {
	cat := analysis.Classify("not a fen", "e2e4", "d2d4", engine.EvalResult{}, engine.EvalResult{}, true)
	assert.Equal(t, analysis.CategoryOther, cat)
}

func TestCategories_Closed(t *testing.T) {
	cats := analysis.Categories()
	assert.Len(t, cats, 8)
	assert.Contains(t, cats, analysis.CategoryOther)
	assert.Contains(t, cats, analysis.CategoryMissedMate)
}

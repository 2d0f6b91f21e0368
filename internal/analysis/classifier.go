package analysis

import (
	"github.com/alexvogt/chesscoach/internal/engine"
)

// Category is the tactical motif assigned to a flagged ply. The set is
// closed; unclassifiable errors fall back to CategoryOther rather than
// failing the pipeline.
type Category string

const (
	CategoryMissedMate         Category = "missed_mate"
	CategoryHangingPiece       Category = "hanging_piece"
	CategoryMissedFork         Category = "missed_fork"
	CategoryMissedPin          Category = "missed_pin"
	CategoryMissedCapture      Category = "missed_capture"
	CategoryDefensiveOversight Category = "defensive_oversight"
	CategoryEndgameTechnique   Category = "endgame_technique"
	CategoryOther              Category = "other"
)

// Categories lists every valid category.
func Categories() []Category {
	return []Category{
		CategoryMissedMate,
		CategoryHangingPiece,
		CategoryMissedFork,
		CategoryMissedPin,
		CategoryMissedCapture,
		CategoryDefensiveOversight,
		CategoryEndgameTechnique,
		CategoryOther,
	}
}

// Classify assigns a motif to a flagged ply by comparing what the best
// move achieved against what the played move allowed. Heuristics are
// checked in a fixed priority order, mate-related motifs before material
// ones:
//
//	missed_mate > hanging_piece > missed_fork > missed_pin >
//	missed_capture > defensive_oversight > endgame_technique > other
//
// Evaluations are white-perspective; whiteMove says who moved.
func Classify(fenBefore, playedUCI, bestUCI string, before, after engine.EvalResult, whiteMove bool) Category {
	b, err := parseFEN(fenBefore)
	if err != nil {
		return CategoryOther
	}
	mover := whiteSide
	if !whiteMove {
		mover = blackSide
	}
	enemy := mover.other()

	if missedMate(before, after, whiteMove) {
		return CategoryMissedMate
	}

	bestTo, bestOK := bestTarget(bestUCI)
	if bestOK && playedUCI != bestUCI {
		target := b.squares[bestTo]
		if target.kind != noKind && target.side == enemy {
			if b.attackers(bestTo, enemy) == 0 {
				return CategoryHangingPiece
			}
		}
	}

	if bestOK && playedUCI != bestUCI {
		if forks(b, bestUCI, enemy) {
			return CategoryMissedFork
		}
		if pins(b, bestUCI, enemy) {
			return CategoryMissedPin
		}
		target := b.squares[bestTo]
		if target.kind != noKind && target.side == enemy {
			from, ok := parseSquare(bestUCI[0:2])
			if ok && pieceValue(target.kind) >= pieceValue(b.squares[from].kind) {
				return CategoryMissedCapture
			}
		}
	}

	if leavesPieceEnPrise(b, playedUCI, mover) {
		return CategoryDefensiveOversight
	}

	if b.nonPawnMaterial() <= 4 {
		return CategoryEndgameTechnique
	}

	return CategoryOther
}

// missedMate reports a forced mate for the mover that the played move
// threw away.
func missedMate(before, after engine.EvalResult, whiteMove bool) bool {
	if before.Mate == nil {
		return false
	}
	hadMate := (*before.Mate > 0) == whiteMove && *before.Mate != 0
	if !hadMate {
		return false
	}
	if after.Mate == nil {
		return true
	}
	return (*after.Mate > 0) != whiteMove
}

func bestTarget(bestUCI string) (int, bool) {
	if len(bestUCI) < 4 {
		return 0, false
	}
	return parseSquare(bestUCI[2:4])
}

// forks reports whether the best move would leave its piece attacking two
// or more enemy pieces worth a minor or the king.
func forks(b board, bestUCI string, enemy side) bool {
	to, ok := bestTarget(bestUCI)
	if !ok {
		return false
	}
	nb, ok := b.applyUCI(bestUCI)
	if !ok {
		return false
	}
	hits := 0
	for _, sq := range nb.attackSquares(to) {
		p := nb.squares[sq]
		if p.kind == noKind || p.side != enemy {
			continue
		}
		if p.kind == king || pieceValue(p.kind) >= 3 {
			hits++
		}
	}
	return hits >= 2
}

// pins reports whether the best move would pin an enemy piece against its
// king or a more valuable piece along the mover's sliding attack.
func pins(b board, bestUCI string, enemy side) bool {
	to, ok := bestTarget(bestUCI)
	if !ok {
		return false
	}
	nb, ok := b.applyUCI(bestUCI)
	if !ok {
		return false
	}
	p := nb.squares[to]

	var dirs [][2]int
	switch p.kind {
	case bishop:
		dirs = bishopDirs
	case rook:
		dirs = rookDirs
	case queen:
		dirs = append(append([][2]int{}, bishopDirs...), rookDirs...)
	default:
		return false
	}

	for _, dir := range dirs {
		front, ok := firstPieceSquare(nb, to, dir)
		if !ok {
			continue
		}
		p1 := nb.squares[front]
		if p1.side != enemy || p1.kind == king {
			continue
		}
		back, ok := firstPieceSquare(nb, front, dir)
		if !ok {
			continue
		}
		p2 := nb.squares[back]
		if p2.side == enemy && (p2.kind == king || pieceValue(p2.kind) > pieceValue(p1.kind)) {
			return true
		}
	}
	return false
}

func firstPieceSquare(b board, sq int, dir [2]int) (int, bool) {
	f, r := sq%8+dir[0], sq/8+dir[1]
	for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
		idx := squareIndex(f, r)
		if b.squares[idx].kind != noKind {
			return idx, true
		}
		f += dir[0]
		r += dir[1]
	}
	return 0, false
}

// leavesPieceEnPrise reports whether the played move leaves any of the
// mover's minor-or-better pieces attacked and undefended.
func leavesPieceEnPrise(b board, playedUCI string, mover side) bool {
	nb, ok := b.applyUCI(playedUCI)
	if !ok {
		return false
	}
	enemy := mover.other()
	for sq, p := range nb.squares {
		if p.kind == noKind || p.side != mover || pieceValue(p.kind) < 3 {
			continue
		}
		if nb.attackers(sq, enemy) > 0 && nb.attackers(sq, mover) == 0 {
			return true
		}
	}
	return false
}

package analysis

import (
	"fmt"
	"strings"
)

// A minimal mailbox board parsed straight from FEN, used only by the motif
// heuristics. The chess library handles legality and replay; this exists
// because it offers no attackers-of-square query, which the classifier
// needs for counting defenders.

type side int

const (
	whiteSide side = iota
	blackSide
)

func (s side) other() side {
	if s == whiteSide {
		return blackSide
	}
	return whiteSide
}

type kind int

const (
	noKind kind = iota
	pawn
	knight
	bishop
	rook
	queen
	king
)

// pieceValue returns the conventional material value in pawns.
func pieceValue(k kind) int {
	switch k {
	case pawn:
		return 1
	case knight, bishop:
		return 3
	case rook:
		return 5
	case queen:
		return 9
	default:
		return 0
	}
}

type boardPiece struct {
	kind kind
	side side
}

// board indexes squares as rank*8+file with a1=0, h8=63.
type board struct {
	squares [64]boardPiece
	turn    side
}

func squareIndex(file, rank int) int { return rank*8 + file }

// parseSquare converts algebraic notation ("e4") to a square index.
func parseSquare(s string) (int, bool) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return 0, false
	}
	return squareIndex(int(s[0]-'a'), int(s[1]-'1')), true
}

func parseFEN(fen string) (board, error) {
	var b board
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return b, fmt.Errorf("invalid fen: %q", fen)
	}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return b, fmt.Errorf("invalid fen board: %q", fields[0])
	}
	for r, row := range ranks {
		rank := 7 - r // FEN lists rank 8 first
		file := 0
		for _, c := range row {
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			if file > 7 {
				return b, fmt.Errorf("invalid fen rank: %q", row)
			}
			p, ok := pieceFromRune(c)
			if !ok {
				return b, fmt.Errorf("invalid fen piece: %q", c)
			}
			b.squares[squareIndex(file, rank)] = p
			file++
		}
	}

	switch fields[1] {
	case "w":
		b.turn = whiteSide
	case "b":
		b.turn = blackSide
	default:
		return b, fmt.Errorf("invalid fen side to move: %q", fields[1])
	}
	return b, nil
}

func pieceFromRune(c rune) (boardPiece, bool) {
	s := whiteSide
	lower := c
	if c >= 'a' && c <= 'z' {
		s = blackSide
	} else {
		lower = c + ('a' - 'A')
	}
	switch lower {
	case 'p':
		return boardPiece{pawn, s}, true
	case 'n':
		return boardPiece{knight, s}, true
	case 'b':
		return boardPiece{bishop, s}, true
	case 'r':
		return boardPiece{rook, s}, true
	case 'q':
		return boardPiece{queen, s}, true
	case 'k':
		return boardPiece{king, s}, true
	}
	return boardPiece{}, false
}

var (
	knightOffsets = [][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingOffsets   = [][2]int{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
	bishopDirs    = [][2]int{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}
	rookDirs      = [][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
)

// attackers counts pieces of the given side attacking a square. X-ray
// attacks through blockers are not counted.
func (b board) attackers(sq int, by side) int {
	file, rank := sq%8, sq/8
	count := 0

	// Pawns attack diagonally toward the enemy side.
	pawnRank := rank - 1
	if by == blackSide {
		pawnRank = rank + 1
	}
	for _, df := range []int{-1, 1} {
		f := file + df
		if f >= 0 && f <= 7 && pawnRank >= 0 && pawnRank <= 7 {
			p := b.squares[squareIndex(f, pawnRank)]
			if p.kind == pawn && p.side == by {
				count++
			}
		}
	}

	for _, off := range knightOffsets {
		f, r := file+off[0], rank+off[1]
		if f >= 0 && f <= 7 && r >= 0 && r <= 7 {
			p := b.squares[squareIndex(f, r)]
			if p.kind == knight && p.side == by {
				count++
			}
		}
	}

	for _, off := range kingOffsets {
		f, r := file+off[0], rank+off[1]
		if f >= 0 && f <= 7 && r >= 0 && r <= 7 {
			p := b.squares[squareIndex(f, r)]
			if p.kind == king && p.side == by {
				count++
			}
		}
	}

	for _, dir := range bishopDirs {
		if p, ok := b.firstAlong(sq, dir); ok && p.side == by && (p.kind == bishop || p.kind == queen) {
			count++
		}
	}
	for _, dir := range rookDirs {
		if p, ok := b.firstAlong(sq, dir); ok && p.side == by && (p.kind == rook || p.kind == queen) {
			count++
		}
	}

	return count
}

// firstAlong returns the first piece met walking from sq in the given
// direction, excluding sq itself.
func (b board) firstAlong(sq int, dir [2]int) (boardPiece, bool) {
	f, r := sq%8+dir[0], sq/8+dir[1]
	for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
		p := b.squares[squareIndex(f, r)]
		if p.kind != noKind {
			return p, true
		}
		f += dir[0]
		r += dir[1]
	}
	return boardPiece{}, false
}

// attackSquares lists the squares the piece on sq attacks.
func (b board) attackSquares(sq int) []int {
	p := b.squares[sq]
	file, rank := sq%8, sq/8
	var out []int

	step := func(f, r int) {
		if f >= 0 && f <= 7 && r >= 0 && r <= 7 {
			out = append(out, squareIndex(f, r))
		}
	}
	slide := func(dirs [][2]int) {
		for _, dir := range dirs {
			f, r := file+dir[0], rank+dir[1]
			for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
				out = append(out, squareIndex(f, r))
				if b.squares[squareIndex(f, r)].kind != noKind {
					break
				}
				f += dir[0]
				r += dir[1]
			}
		}
	}

	switch p.kind {
	case pawn:
		dr := 1
		if p.side == blackSide {
			dr = -1
		}
		step(file-1, rank+dr)
		step(file+1, rank+dr)
	case knight:
		for _, off := range knightOffsets {
			step(file+off[0], rank+off[1])
		}
	case king:
		for _, off := range kingOffsets {
			step(file+off[0], rank+off[1])
		}
	case bishop:
		slide(bishopDirs)
	case rook:
		slide(rookDirs)
	case queen:
		slide(bishopDirs)
		slide(rookDirs)
	}
	return out
}

// applyUCI plays a UCI move on a copy of the board, far enough for the
// heuristics: castling moves the rook, en passant removes the captured
// pawn, promotions swap the piece kind. Legality is not re-checked.
func (b board) applyUCI(uci string) (board, bool) {
	if len(uci) < 4 {
		return b, false
	}
	from, ok1 := parseSquare(uci[0:2])
	to, ok2 := parseSquare(uci[2:4])
	if !ok1 || !ok2 {
		return b, false
	}
	p := b.squares[from]
	if p.kind == noKind {
		return b, false
	}

	// En passant: a pawn moving diagonally onto an empty square.
	if p.kind == pawn && from%8 != to%8 && b.squares[to].kind == noKind {
		b.squares[squareIndex(to%8, from/8)] = boardPiece{}
	}

	// Castling: king moving two files drags the rook over.
	if p.kind == king && abs(to%8-from%8) == 2 {
		rank := from / 8
		if to%8 == 6 {
			b.squares[squareIndex(5, rank)] = b.squares[squareIndex(7, rank)]
			b.squares[squareIndex(7, rank)] = boardPiece{}
		} else {
			b.squares[squareIndex(3, rank)] = b.squares[squareIndex(0, rank)]
			b.squares[squareIndex(0, rank)] = boardPiece{}
		}
	}

	if len(uci) >= 5 {
		switch uci[4] {
		case 'q':
			p.kind = queen
		case 'r':
			p.kind = rook
		case 'b':
			p.kind = bishop
		case 'n':
			p.kind = knight
		}
	}

	b.squares[to] = p
	b.squares[from] = boardPiece{}
	b.turn = b.turn.other()
	return b, true
}

// nonPawnMaterial counts pieces other than pawns and kings, both sides.
func (b board) nonPawnMaterial() int {
	n := 0
	for _, p := range b.squares {
		if p.kind != noKind && p.kind != pawn && p.kind != king {
			n++
		}
	}
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

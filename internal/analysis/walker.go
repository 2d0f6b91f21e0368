package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/corentings/chess/v2"
)

// ErrMalformedGame marks a game record that cannot be replayed: broken PGN
// or an illegal move. API-sourced games should never trip this, but external
// data is checked anyway.
var ErrMalformedGame = errors.New("malformed game record")

// Ply is one half-move of a replayed game.
type Ply struct {
	Index     int    // 0-based ply index
	FENBefore string // position the mover faced
	FENAfter  string // position after the move
	SAN       string
	UCI       string
	WhiteMove bool
	Mate      bool // the move delivered checkmate
}

// Walk replays a game's PGN into its ordered ply sequence. The result has
// exactly one Ply per recorded move.
func Walk(pgn string) ([]Ply, error) {
	if strings.TrimSpace(pgn) == "" {
		return nil, fmt.Errorf("%w: empty move record", ErrMalformedGame)
	}

	opt, err := chess.PGN(strings.NewReader(pgn))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGame, err)
	}
	game := chess.NewGame(opt)

	positions := game.Positions()
	moves := game.Moves()
	if len(positions) != len(moves)+1 {
		return nil, fmt.Errorf("%w: %d positions for %d moves", ErrMalformedGame, len(positions), len(moves))
	}

	plies := make([]Ply, 0, len(moves))
	for i := range moves {
		after := positions[i+1]
		plies = append(plies, Ply{
			Index:     i,
			FENBefore: positions[i].String(),
			FENAfter:  after.String(),
			SAN:       moves[i].String(),
			UCI:       MoveToUCI(moves[i]),
			WhiteMove: i%2 == 0,
			Mate:      after.Status() == chess.Checkmate,
		})
	}
	return plies, nil
}

// MoveToUCI converts a chess Move to UCI format (e.g., "e2e4", "e7e8q")
func MoveToUCI(move *chess.Move) string {
	if move == nil {
		return ""
	}

	uci := squareToString(move.S1()) + squareToString(move.S2())

	switch move.Promo() {
	case chess.Queen:
		uci += "q"
	case chess.Rook:
		uci += "r"
	case chess.Bishop:
		uci += "b"
	case chess.Knight:
		uci += "n"
	}

	return uci
}

// squareToString converts a Square to algebraic notation (e.g., "e2", "a8")
func squareToString(sq chess.Square) string {
	fileChar := 'a' + sq.File()
	rankChar := '1' + sq.Rank()
	return fmt.Sprintf("%c%c", fileChar, rankChar)
}

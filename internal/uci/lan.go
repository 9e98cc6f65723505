package uci

import (
	"math"

	"github.com/pkg/errors"

	"github.com/hailam/chessrules/internal/board"
)

// ParseLongAlgebraic splits a move like "e2e4" or "e7e8q" into its squares.
// A promotion suffix is accepted and ignored: promotions always make a queen.
func ParseLongAlgebraic(s string) (from, to board.Square, err error) {
	if len(s) != 4 && len(s) != 5 {
		return board.NoSquare, board.NoSquare, errors.Errorf("invalid move %q", s)
	}
	if from, err = board.ParseSquare(s[0:2]); err != nil {
		return board.NoSquare, board.NoSquare, errors.Wrapf(err, "invalid move %q", s)
	}
	if to, err = board.ParseSquare(s[2:4]); err != nil {
		return board.NoSquare, board.NoSquare, errors.Wrapf(err, "invalid move %q", s)
	}
	if len(s) == 5 {
		switch s[4] {
		case 'q', 'r', 'b', 'n':
		default:
			return board.NoSquare, board.NoSquare, errors.Errorf("invalid promotion in %q", s)
		}
	}
	return from, to, nil
}

// WinningChances maps a centipawn score to [-1, 1] with the logistic curve
// used by Lichess. Scores are clamped to ±1000 first.
func WinningChances(cp int) float64 {
	if cp > 1000 {
		cp = 1000
	} else if cp < -1000 {
		cp = -1000
	}
	return 2/(1+math.Exp(-0.00368208*float64(cp))) - 1
}

// WhiteWinningChances returns WinningChances from white's point of view for a
// score reported with the given side to move. Mates count as certain.
func WhiteWinningChances(s Score, sideToMove board.Color) float64 {
	var w float64
	switch {
	case s.IsMate && s.Mate > 0:
		w = 1
	case s.IsMate:
		w = -1
	default:
		w = WinningChances(s.CP)
	}
	if sideToMove == board.Black {
		w = -w
	}
	return w
}

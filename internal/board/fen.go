package board

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN builds a board from a FEN string. The clocks are optional. An en
// passant square is kept only when a pawn of the side to move can capture on
// it, the same rule MakeMove applies.
func ParseFEN(table *HashTable, fen string) (*Board, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, errors.Errorf("invalid FEN %q: need at least 4 fields, got %d", fen, len(parts))
	}

	b := NewBoard(table)
	b.clear()

	if err := b.parsePlacement(parts[0]); err != nil {
		return nil, errors.Wrapf(err, "invalid FEN %q", fen)
	}

	switch parts[1] {
	case "w":
		b.sideToMove = White
	case "b":
		b.sideToMove = Black
	default:
		return nil, errors.Errorf("invalid FEN %q: side to move %q", fen, parts[1])
	}

	if parts[2] != "-" {
		for _, c := range parts[2] {
			switch c {
			case 'K':
				b.castling |= WhiteKingSideCastle
			case 'Q':
				b.castling |= WhiteQueenSideCastle
			case 'k':
				b.castling |= BlackKingSideCastle
			case 'q':
				b.castling |= BlackQueenSideCastle
			default:
				return nil, errors.Errorf("invalid FEN %q: castling character %q", fen, c)
			}
		}
	}

	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid FEN %q: en passant", fen)
		}
		if b.enPassantCapturable(sq) {
			b.enPassant = sq
		}
	}

	if len(parts) > 4 {
		hmc, err := strconv.Atoi(parts[4])
		if err != nil || hmc < 0 {
			return nil, errors.Errorf("invalid FEN %q: half-move clock %q", fen, parts[4])
		}
		b.halfMoveClock = hmc
	}
	if len(parts) > 5 {
		fmn, err := strconv.Atoi(parts[5])
		if err != nil || fmn < 1 {
			return nil, errors.Errorf("invalid FEN %q: full-move number %q", fen, parts[5])
		}
		b.fullMoveNumber = fmn
	}

	b.hash = b.FullHash()
	if root := b.FEN(); root != StartFEN {
		b.rootFEN = root
	}
	return b, nil
}

func (b *Board) parsePlacement(placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return errors.Errorf("need 8 ranks, got %d", len(ranks))
	}

	var kings [2]int
	for i, rankStr := range ranks {
		rank := 7 - i // FEN starts from rank 8
		file := 0
		for _, c := range rankStr {
			if file > 7 {
				return errors.Errorf("too many squares in rank %d", rank+1)
			}
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			piece := PieceFromChar(byte(c))
			if piece == NoPiece {
				return errors.Errorf("invalid piece character %q", c)
			}
			if piece.Type() == King {
				kings[piece.Color()]++
			}
			b.squares[NewSquare(file, rank)] = piece
			file++
		}
		if file != 8 {
			return errors.Errorf("invalid number of squares in rank %d: got %d", rank+1, file)
		}
	}

	if kings[White] != 1 || kings[Black] != 1 {
		return errors.Errorf("need one king per side, got %d white and %d black", kings[White], kings[Black])
	}
	return nil
}

// enPassantCapturable reports whether the side to move has a pawn that can
// take the pawn which just passed over target.
func (b *Board) enPassantCapturable(target Square) bool {
	us := b.sideToMove
	if target.RelativeRank(us) != 5 {
		return false
	}
	pawnSq, ok := target.Offset(0, -us.forward())
	if !ok || b.squares[pawnSq] != NewPiece(Pawn, us.Other()) {
		return false
	}
	return b.pawnBeside(pawnSq, us)
}

// FEN returns the FEN representation of the current position.
func (b *Board) FEN() string {
	var sb strings.Builder

	sb.WriteString(b.Placement())

	sb.WriteByte(' ')
	if b.sideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	sb.WriteByte(' ')
	sb.WriteString(b.castling.String())

	sb.WriteByte(' ')
	sb.WriteString(b.enPassant.String())

	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(b.halfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(b.fullMoveNumber))

	return sb.String()
}

// RootFEN returns the FEN of the position the move history starts from, or
// "" when it is the standard initial position.
func (b *Board) RootFEN() string {
	return b.rootFEN
}

// HalfMoveClock returns the number of plies since the last pawn move or
// capture.
func (b *Board) HalfMoveClock() int {
	return b.halfMoveClock
}

// FullMoveNumber returns the full move counter, starting at 1.
func (b *Board) FullMoveNumber() int {
	return b.fullMoveNumber
}

package board

import "strings"

// AlgebraicNotation returns the standard algebraic notation of the move from
// one square to another, which must not have been made yet. moves is the
// legal move map of the current position and is used to disambiguate pieces
// of the same type that can reach the same square. Check, mate and result
// suffixes are left to the caller.
func (b *Board) AlgebraicNotation(from, to Square, moves MoveMap) string {
	piece := b.squares[from]
	pt := piece.Type()

	if isCastle(piece, from, to) {
		if to.File() > from.File() {
			return "O-O"
		}
		return "O-O-O"
	}

	capture := b.squares[to] != NoPiece || (pt == Pawn && to == b.enPassant)

	var sb strings.Builder

	if pt == Pawn {
		if capture {
			sb.WriteByte(byte('a' + from.File()))
		}
	} else {
		sb.WriteByte(pt.Letter())
		sb.WriteString(b.disambiguation(from, to, piece, moves))
	}

	if capture {
		sb.WriteByte('x')
	}
	sb.WriteString(to.String())

	if pt == Pawn && to.RelativeRank(piece.Color()) == 7 {
		sb.WriteString("=Q")
	}

	return sb.String()
}

// disambiguation returns the origin file, rank or square needed to tell the
// piece apart from other friendly pieces of the same type that can also move
// to the destination.
func (b *Board) disambiguation(from, to Square, piece Piece, moves MoveMap) string {
	ambiguous, sameFile, sameRank := false, false, false
	for sq, list := range moves {
		if sq == from || b.squares[sq] != piece {
			continue
		}
		for _, m := range list {
			if m.To != to {
				continue
			}
			ambiguous = true
			if sq.File() == from.File() {
				sameFile = true
			}
			if sq.Rank() == from.Rank() {
				sameRank = true
			}
		}
	}

	switch {
	case !ambiguous:
		return ""
	case !sameFile:
		return string(rune('a' + from.File()))
	case !sameRank:
		return string(rune('1' + from.Rank()))
	default:
		return from.String()
	}
}

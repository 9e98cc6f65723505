package board

import "sort"

// Move is one legal destination of a piece, as produced by the generator.
// The origin square is the key it is stored under in a MoveMap.
type Move struct {
	To        Square
	EnPassant bool // pawn capture onto the en passant target
	Capture   bool // lands on an enemy piece, or en passant
}

// MoveMap maps each square holding a piece of the side to move to its legal
// moves. Squares with no legal move map to an empty list.
type MoveMap map[Square][]Move

// Count returns the total number of moves in the map.
func (mm MoveMap) Count() int {
	n := 0
	for _, moves := range mm {
		n += len(moves)
	}
	return n
}

// Any returns true if at least one move exists.
func (mm MoveMap) Any() bool {
	for _, moves := range mm {
		if len(moves) > 0 {
			return true
		}
	}
	return false
}

// Captures returns the number of capturing moves.
func (mm MoveMap) Captures() int {
	n := 0
	for _, moves := range mm {
		for _, m := range moves {
			if m.Capture {
				n++
			}
		}
	}
	return n
}

// Find returns the move from one square to another, and false if it is not
// in the map.
func (mm MoveMap) Find(from, to Square) (Move, bool) {
	for _, m := range mm[from] {
		if m.To == to {
			return m, true
		}
	}
	return Move{}, false
}

// Origins returns the squares that have at least one move, in square order.
func (mm MoveMap) Origins() []Square {
	origins := make([]Square, 0, len(mm))
	for sq, moves := range mm {
		if len(moves) > 0 {
			origins = append(origins, sq)
		}
	}
	sort.Slice(origins, func(i, j int) bool { return origins[i] < origins[j] })
	return origins
}

// MoveRecord holds everything MakeMove changed, so UnmakeMove can restore
// the previous state exactly.
type MoveRecord struct {
	From      Square
	To        Square
	Piece     Piece // the piece that moved, before promotion
	Captured  Piece // NoPiece if none
	EnPassant bool  // Captured was taken en passant

	PrevEnPassant Square
	PrevCastled   [2]bool
	PrevCastling  CastlingRights
	Promotion     Square // promotion square, NoSquare if none

	PrevHalfMove int
	PrevFullMove int
}

// IsCastle reports whether the record is a king's two-file castling move.
func (r MoveRecord) IsCastle() bool {
	return isCastle(r.Piece, r.From, r.To)
}

// LongAlgebraic returns the move in long algebraic form ("e2e4"), with a "q"
// suffix for promotions ("e7e8q").
func (r MoveRecord) LongAlgebraic() string {
	s := r.From.String() + r.To.String()
	if r.Promotion != NoSquare {
		s += "q"
	}
	return s
}

// String returns the long algebraic form.
func (r MoveRecord) String() string {
	return r.LongAlgebraic()
}

// MoveHistoryLAN returns the long algebraic form of every move played,
// oldest first.
func (b *Board) MoveHistoryLAN() []string {
	moves := make([]string, len(b.history))
	for i, rec := range b.history {
		moves[i] = rec.LongAlgebraic()
	}
	return moves
}

package board

// MakeMove applies the move from one square to another. The move must come
// from the legal move generator; MakeMove does not validate it beyond the
// owner of the moving piece. Promotions always produce a queen.
func (b *Board) MakeMove(from, to Square) {
	piece := b.squares[from]
	us := b.sideToMove
	if piece == NoPiece || piece.Color() != us {
		b.corrupt("make %s%s: piece %q on %s does not belong to %s", from, to, piece, from, us)
	}
	them := us.Other()
	pt := piece.Type()
	t := b.table

	// Capture, including en passant where the victim sits beside the target
	enPassant := pt == Pawn && to == b.enPassant
	capSq := to
	if enPassant {
		capSq = NewSquare(to.File(), from.Rank())
	}
	captured := b.squares[capSq]

	promotion := NoSquare
	if pt == Pawn && to.RelativeRank(us) == 7 {
		promotion = to
	}

	b.history = append(b.history, MoveRecord{
		From:          from,
		To:            to,
		Piece:         piece,
		Captured:      captured,
		EnPassant:     enPassant,
		PrevEnPassant: b.enPassant,
		PrevCastled:   b.castled,
		PrevCastling:  b.castling,
		Promotion:     promotion,
		PrevHalfMove:  b.halfMoveClock,
		PrevFullMove:  b.fullMoveNumber,
	})

	// En passant rights exist only if an enemy pawn can use them next turn
	newEP := NoSquare
	if pt == Pawn && abs(to.Rank()-from.Rank()) == 2 && b.pawnBeside(to, them) {
		newEP = NewSquare(from.File(), (from.Rank()+to.Rank())/2)
	}
	if b.enPassant != NoSquare {
		b.hash ^= t.EnPassant(b.enPassant.File())
	}
	b.enPassant = newEP
	if newEP != NoSquare {
		b.hash ^= t.EnPassant(newEP.File())
	}

	if captured != NoPiece {
		b.squares[capSq] = NoPiece
		b.hash ^= t.Piece(captured, capSq)
	}
	b.squares[from] = NoPiece
	b.squares[to] = piece
	b.hash ^= t.Piece(piece, from) ^ t.Piece(piece, to)

	if promotion != NoSquare {
		queen := NewPiece(Queen, us)
		b.squares[to] = queen
		b.hash ^= t.Piece(piece, to) ^ t.Piece(queen, to)
	}

	if isCastle(piece, from, to) {
		rookFrom, rookTo := castleRookSquares(us, to)
		rook := b.squares[rookFrom]
		if rook != NewPiece(Rook, us) {
			b.corrupt("castle %s%s: no %s rook on %s", from, to, us, rookFrom)
		}
		b.squares[rookFrom] = NoPiece
		b.squares[rookTo] = rook
		b.hash ^= t.Piece(rook, rookFrom) ^ t.Piece(rook, rookTo)
		b.castled[us] = true
	}

	// Revoke castling rights; only rights still held are toggled
	lost := NoCastling
	if pt == King {
		lost |= sideRights[us]
	}
	if pt == Rook {
		lost |= cornerRights[from] & sideRights[us]
	}
	if captured.Type() == Rook {
		lost |= cornerRights[capSq] & sideRights[them]
	}
	lost &= b.castling
	if lost != NoCastling {
		b.castling &^= lost
		b.hash ^= t.Castling(lost)
	}

	if pt == Pawn || captured != NoPiece {
		b.halfMoveClock = 0
	} else {
		b.halfMoveClock++
	}
	if us == Black {
		b.fullMoveNumber++
	}

	b.sideToMove = them
	b.hash ^= t.BlackToMove()
	b.hashHistory = append(b.hashHistory, b.hash)
}

// UnmakeMove takes back the last move, restoring the board exactly as it was
// before the matching MakeMove.
func (b *Board) UnmakeMove() {
	n := len(b.history)
	if n == 0 {
		b.corrupt("unmake with empty move history")
	}
	rec := b.history[n-1]
	us := rec.Piece.Color()
	t := b.table

	if rec.Promotion != NoSquare {
		if rec.Promotion != rec.To || rec.To.RelativeRank(us) != 7 || b.squares[rec.To] != NewPiece(Queen, us) {
			b.corrupt("unmake %s: promotion on %s does not match the board", rec, rec.Promotion)
		}
	}

	b.history = b.history[:n-1]
	b.hashHistory = b.hashHistory[:n-1]

	b.sideToMove = us
	b.hash ^= t.BlackToMove()

	b.castled = rec.PrevCastled

	if b.enPassant != NoSquare {
		b.hash ^= t.EnPassant(b.enPassant.File())
	}
	b.enPassant = rec.PrevEnPassant
	if b.enPassant != NoSquare {
		b.hash ^= t.EnPassant(b.enPassant.File())
	}

	if diff := b.castling ^ rec.PrevCastling; diff != NoCastling {
		b.hash ^= t.Castling(diff)
		b.castling = rec.PrevCastling
	}

	if isCastle(rec.Piece, rec.From, rec.To) {
		rookFrom, rookTo := castleRookSquares(us, rec.To)
		rook := b.squares[rookTo]
		b.squares[rookTo] = NoPiece
		b.squares[rookFrom] = rook
		b.hash ^= t.Piece(rook, rookTo) ^ t.Piece(rook, rookFrom)
	}

	// Whatever stands on the destination goes back as the original piece
	b.hash ^= t.Piece(b.squares[rec.To], rec.To) ^ t.Piece(rec.Piece, rec.From)
	b.squares[rec.To] = NoPiece
	b.squares[rec.From] = rec.Piece

	if rec.Captured != NoPiece {
		capSq := rec.To
		if rec.EnPassant {
			capSq = NewSquare(rec.To.File(), rec.From.Rank())
		}
		b.squares[capSq] = rec.Captured
		b.hash ^= t.Piece(rec.Captured, capSq)
	}

	b.halfMoveClock = rec.PrevHalfMove
	b.fullMoveNumber = rec.PrevFullMove
}

// isCastle reports whether a piece moving between the squares is a king
// castling from its home square.
func isCastle(piece Piece, from, to Square) bool {
	if piece.Type() != King || from != kingHome[piece.Color()] {
		return false
	}
	df := to.File() - from.File()
	return df == 2 || df == -2
}

// pawnBeside reports whether a pawn of color c stands next to sq on its rank.
func (b *Board) pawnBeside(sq Square, c Color) bool {
	pawn := NewPiece(Pawn, c)
	for _, df := range [2]int{-1, 1} {
		if n, ok := sq.Offset(df, 0); ok && b.squares[n] == pawn {
			return true
		}
	}
	return false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

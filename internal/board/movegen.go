package board

// ComputeAllValidMoves returns the legal moves of every piece of the side to
// move, keyed by origin square.
func (b *Board) ComputeAllValidMoves() MoveMap {
	mm := make(MoveMap, 16)
	us := b.sideToMove
	for sq := A1; sq <= H8; sq++ {
		if p := b.squares[sq]; p != NoPiece && p.Color() == us {
			mm[sq] = b.ValidMoves(sq, true)
		}
	}
	return mm
}

// AnyValidMoves returns true if the side to move has at least one legal move.
// It stops at the first one found.
func (b *Board) AnyValidMoves() bool {
	us := b.sideToMove
	for sq := A1; sq <= H8; sq++ {
		if p := b.squares[sq]; p != NoPiece && p.Color() == us {
			if len(b.ValidMoves(sq, false)) > 0 {
				return true
			}
		}
	}
	// Castling is never the only legal move: the king step it starts with is
	// legal whenever the castle is.
	return false
}

// ValidMoves returns the legal moves of the piece on sq. It returns nil when
// the square is empty or holds a piece of the side not to move.
func (b *Board) ValidMoves(sq Square, includeCastling bool) []Move {
	p := b.squares[sq]
	if p == NoPiece || p.Color() != b.sideToMove {
		return nil
	}
	return b.filterLegal(sq, b.PseudoLegalMoves(sq, includeCastling))
}

// filterLegal keeps the moves that do not leave the mover's king in check.
// It reuses the backing array of moves.
func (b *Board) filterLegal(from Square, moves []Move) []Move {
	us := b.sideToMove
	legal := moves[:0]
	for _, m := range moves {
		b.MakeMove(from, m.To)
		if !b.IsKingInCheck(us) {
			legal = append(legal, m)
		}
		b.UnmakeMove()
	}
	return legal
}

// PseudoLegalMoves returns the moves of the piece on sq following its
// movement rules, without checking whether its own king is left attacked.
// Castling is only produced for the side to move.
func (b *Board) PseudoLegalMoves(sq Square, includeCastling bool) []Move {
	p := b.squares[sq]
	if p == NoPiece {
		return nil
	}
	us := p.Color()
	moves := make([]Move, 0, 8)

	switch p.Type() {
	case Pawn:
		moves = b.pawnMoves(sq, us, moves)
	case Knight:
		moves = b.stepMoves(sq, us, knightOffsets[:], moves)
	case Bishop:
		moves = b.slideMoves(sq, us, bishopDirections[:], moves)
	case Rook:
		moves = b.slideMoves(sq, us, rookDirections[:], moves)
	case Queen:
		moves = b.slideMoves(sq, us, bishopDirections[:], moves)
		moves = b.slideMoves(sq, us, rookDirections[:], moves)
	case King:
		moves = b.stepMoves(sq, us, kingOffsets[:], moves)
		if includeCastling {
			moves = b.castlingMoves(sq, us, moves)
		}
	}
	return moves
}

func (b *Board) pawnMoves(from Square, us Color, moves []Move) []Move {
	fwd := us.forward()

	if one, ok := from.Offset(0, fwd); ok && b.squares[one] == NoPiece {
		moves = append(moves, Move{To: one})
		if from.RelativeRank(us) == 1 {
			if two, ok := from.Offset(0, 2*fwd); ok && b.squares[two] == NoPiece {
				moves = append(moves, Move{To: two})
			}
		}
	}

	for _, df := range [2]int{-1, 1} {
		to, ok := from.Offset(df, fwd)
		if !ok {
			continue
		}
		target := b.squares[to]
		switch {
		case target != NoPiece && target.Color() != us:
			moves = append(moves, Move{To: to, Capture: true})
		case target == NoPiece && to == b.enPassant && us == b.sideToMove:
			moves = append(moves, Move{To: to, EnPassant: true, Capture: true})
		}
	}
	return moves
}

// stepMoves generates single-step moves (knight and king).
func (b *Board) stepMoves(from Square, us Color, offsets []offset, moves []Move) []Move {
	for _, o := range offsets {
		to, ok := from.Offset(o.df, o.dr)
		if !ok {
			continue
		}
		target := b.squares[to]
		if target == NoPiece {
			moves = append(moves, Move{To: to})
		} else if target.Color() != us {
			moves = append(moves, Move{To: to, Capture: true})
		}
	}
	return moves
}

// slideMoves casts a ray per direction until the edge or the first piece.
func (b *Board) slideMoves(from Square, us Color, dirs []offset, moves []Move) []Move {
	for _, d := range dirs {
		cur := from
		for {
			to, ok := cur.Offset(d.df, d.dr)
			if !ok {
				break
			}
			cur = to
			target := b.squares[to]
			if target == NoPiece {
				moves = append(moves, Move{To: to})
				continue
			}
			if target.Color() != us {
				moves = append(moves, Move{To: to, Capture: true})
			}
			break
		}
	}
	return moves
}

// castlingMoves adds the castles available to the king on from. Each square
// the king crosses is tested by making the one-step king move, checking the
// king and taking it back.
func (b *Board) castlingMoves(from Square, us Color, moves []Move) []Move {
	if us != b.sideToMove || from != kingHome[us] || b.squares[from] != NewPiece(King, us) {
		return moves
	}
	if b.castling&sideRights[us] == NoCastling || b.IsKingInCheck(us) {
		return moves
	}

	for _, kingSide := range [2]bool{true, false} {
		if !b.castling.CanCastle(us, kingSide) {
			continue
		}
		rookSq := rookHome(us, kingSide)
		if b.squares[rookSq] != NewPiece(Rook, us) || !b.emptyBetween(from, rookSq) {
			continue
		}
		step := 1
		if !kingSide {
			step = -1
		}
		first := NewSquare(from.File()+step, from.Rank())
		second := NewSquare(from.File()+2*step, from.Rank())
		if b.kingStepSafe(from, first) && b.kingStepSafe(from, second) {
			moves = append(moves, Move{To: second})
		}
	}
	return moves
}

// emptyBetween reports whether every square strictly between two squares on
// the same rank is empty.
func (b *Board) emptyBetween(a, c Square) bool {
	lo, hi := a, c
	if lo > hi {
		lo, hi = hi, lo
	}
	for sq := lo + 1; sq < hi; sq++ {
		if b.squares[sq] != NoPiece {
			return false
		}
	}
	return true
}

// kingStepSafe makes the king move, tests the king and unmakes it.
func (b *Board) kingStepSafe(from, to Square) bool {
	us := b.sideToMove
	b.MakeMove(from, to)
	safe := !b.IsKingInCheck(us)
	b.UnmakeMove()
	return safe
}

// Perft counts the leaf nodes of the legal move tree to the given depth.
func (b *Board) Perft(depth int) int64 {
	if depth <= 0 {
		return 1
	}

	moves := b.ComputeAllValidMoves()
	if depth == 1 {
		return int64(moves.Count())
	}

	var nodes int64
	for from, list := range moves {
		for _, m := range list {
			b.MakeMove(from, m.To)
			nodes += b.Perft(depth - 1)
			b.UnmakeMove()
		}
	}
	return nodes
}

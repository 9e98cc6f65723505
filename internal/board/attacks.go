package board

// Step offsets as (file, rank) deltas.
type offset struct{ df, dr int }

var (
	knightOffsets = [8]offset{
		{1, 2}, {2, 1}, {2, -1}, {1, -2},
		{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
	}
	kingOffsets = [8]offset{
		{0, 1}, {1, 1}, {1, 0}, {1, -1},
		{0, -1}, {-1, -1}, {-1, 0}, {-1, 1},
	}
	rookDirections   = [4]offset{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	bishopDirections = [4]offset{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}
)

// IsKingInCheck returns true if the king of color c is attacked. A board
// without that king is never in check.
func (b *Board) IsKingInCheck(c Color) bool {
	ksq := b.KingSquare(c)
	if ksq == NoSquare {
		return false
	}
	return b.IsSquareAttacked(ksq, c.Other())
}

// IsSquareAttacked returns true if any piece of color by attacks sq.
func (b *Board) IsSquareAttacked(sq Square, by Color) bool {
	knight := NewPiece(Knight, by)
	for _, o := range knightOffsets {
		if n, ok := sq.Offset(o.df, o.dr); ok && b.squares[n] == knight {
			return true
		}
	}

	// Enemy pawns attack sq from one rank behind their direction of travel
	pawn := NewPiece(Pawn, by)
	for _, df := range [2]int{-1, 1} {
		if n, ok := sq.Offset(df, -by.forward()); ok && b.squares[n] == pawn {
			return true
		}
	}

	for _, d := range rookDirections {
		if b.rayAttacker(sq, d, by, Rook) {
			return true
		}
	}
	for _, d := range bishopDirections {
		if b.rayAttacker(sq, d, by, Bishop) {
			return true
		}
	}
	return false
}

// rayAttacker walks outward from sq until the first occupied square and reports
// whether it holds an attacker of color by: a queen, the given slider, or a
// king one step away.
func (b *Board) rayAttacker(sq Square, d offset, by Color, slider PieceType) bool {
	cur := sq
	for dist := 1; ; dist++ {
		n, ok := cur.Offset(d.df, d.dr)
		if !ok {
			return false
		}
		cur = n
		p := b.squares[n]
		if p == NoPiece {
			continue
		}
		if p.Color() != by {
			return false
		}
		switch p.Type() {
		case Queen, slider:
			return true
		case King:
			return dist == 1
		default:
			return false
		}
	}
}

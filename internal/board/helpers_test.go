package board

import (
	"math/rand/v2"
	"testing"
)

var testTable = NewHashTable(0)

func newTestBoard(t *testing.T, fen string) *Board {
	t.Helper()
	if fen == "" {
		return NewBoard(testTable)
	}
	b, err := ParseFEN(testTable, fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return b
}

// play makes a move given in long algebraic form after checking that it is
// legal and that the hash stays consistent.
func play(t *testing.T, b *Board, lan string) {
	t.Helper()
	from, err := ParseSquare(lan[0:2])
	if err != nil {
		t.Fatalf("bad move %q: %v", lan, err)
	}
	to, err := ParseSquare(lan[2:4])
	if err != nil {
		t.Fatalf("bad move %q: %v", lan, err)
	}
	if _, ok := b.ComputeAllValidMoves().Find(from, to); !ok {
		t.Fatalf("%s is not legal in %s", lan, b.FEN())
	}
	b.MakeMove(from, to)
	if b.Hash() != b.FullHash() {
		t.Fatalf("after %s: hash %016x, recomputed %016x", lan, b.Hash(), b.FullHash())
	}
}

// snapshot captures everything UnmakeMove must restore.
type snapshot struct {
	squares   [64]Piece
	side      Color
	castling  CastlingRights
	castled   [2]bool
	enPassant Square
	halfMove  int
	fullMove  int
	hash      uint64
	ply       int
}

func takeSnapshot(b *Board) snapshot {
	return snapshot{
		squares:   b.squares,
		side:      b.sideToMove,
		castling:  b.castling,
		castled:   b.castled,
		enPassant: b.enPassant,
		halfMove:  b.halfMoveClock,
		fullMove:  b.fullMoveNumber,
		hash:      b.hash,
		ply:       len(b.history),
	}
}

// randomMove picks a uniformly random legal move, returning false if there is
// none.
func randomMove(b *Board, rng *rand.Rand) (from, to Square, ok bool) {
	type pair struct{ from, to Square }
	var all []pair
	for _, sq := range b.ComputeAllValidMoves().Origins() {
		for _, m := range b.ValidMoves(sq, true) {
			all = append(all, pair{sq, m.To})
		}
	}
	if len(all) == 0 {
		return NoSquare, NoSquare, false
	}
	p := all[rng.IntN(len(all))]
	return p.from, p.to, true
}

package board

import (
	"math/rand/v2"
	"strings"
	"testing"
)

func TestNewHashTableDeterministic(t *testing.T) {
	a := NewHashTable(42)
	b := NewHashTable(42)
	c := NewHashTable(43)
	if *a != *b {
		t.Error("equal seeds produced different tables")
	}
	if *a == *c {
		t.Error("different seeds produced equal tables")
	}
	if *NewHashTable(0) != *NewHashTable(DefaultSeed) {
		t.Error("zero seed does not select DefaultSeed")
	}
}

func TestHashScriptedGame(t *testing.T) {
	b := newTestBoard(t, "")
	start := takeSnapshot(b)

	// Covers en passant, promotion with capture, a rook taken on its corner
	// square and castling.
	moves := []string{
		"e2e4", "d7d5", "e4d5", "c7c5", "d5c6", "g8f6", "c6c7", "e7e5",
		"a2a4", "f8a3", "a1a3", "e8g8", "c7b8", "a8b8",
	}
	var snaps []snapshot
	for _, lan := range moves {
		snaps = append(snaps, takeSnapshot(b))
		play(t, b, lan)
	}

	if got := b.PieceAt(F8); got != BlackRook {
		t.Errorf("castled rook: f8 = %v, want r", got)
	}
	if !b.HasCastled(Black) || b.HasCastled(White) {
		t.Errorf("castled flags = %t/%t, want false/true", b.HasCastled(White), b.HasCastled(Black))
	}
	if b.CastlingRights().CanCastle(White, false) {
		t.Error("white queenside right survived the a1 rook leaving")
	}
	if b.PieceAt(C6) != NoPiece || b.PieceAt(C5) != NoPiece {
		t.Error("en passant capture left a pawn behind")
	}

	for i := len(moves) - 1; i >= 0; i-- {
		b.UnmakeMove()
		if got := takeSnapshot(b); got != snaps[i] {
			t.Fatalf("unmake of %s did not restore the position", moves[i])
		}
		if b.Hash() != b.FullHash() {
			t.Fatalf("unmake of %s: hash %016x, recomputed %016x", moves[i], b.Hash(), b.FullHash())
		}
	}
	if got := takeSnapshot(b); got != start {
		t.Error("board differs from the initial position after unmaking everything")
	}
}

func TestHashRandomPlayouts(t *testing.T) {
	fens := []string{
		"",
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	}
	rng := rand.New(rand.NewPCG(1, 2))

	for _, fen := range fens {
		for game := 0; game < 10; game++ {
			b := newTestBoard(t, fen)
			start := takeSnapshot(b)
			var snaps []snapshot
			for ply := 0; ply < 80; ply++ {
				from, to, ok := randomMove(b, rng)
				if !ok {
					break
				}
				snaps = append(snaps, takeSnapshot(b))
				b.MakeMove(from, to)
				if b.Hash() != b.FullHash() {
					t.Fatalf("%s%s from %q: incremental hash diverged", from, to, fen)
				}
			}
			for i := len(snaps) - 1; i >= 0; i-- {
				b.UnmakeMove()
				if got := takeSnapshot(b); got != snaps[i] {
					t.Fatalf("unmake at ply %d from %q did not restore the position", i, fen)
				}
			}
			if got := takeSnapshot(b); got != start {
				t.Fatalf("playout from %q did not unwind to the start", fen)
			}
		}
	}
}

func TestEnPassantRights(t *testing.T) {
	tests := []struct {
		name string
		fen  string
		move string
		want Square
	}{
		{"no adjacent pawn", "", "e2e4", NoSquare},
		{"adjacent enemy pawn", "4k3/8/8/8/3p4/8/4P3/4K3 w - - 0 1", "e2e4", E3},
		{"adjacent friendly pawn only", "4k3/8/8/8/3P4/8/4P3/4K3 w - - 0 1", "e2e4", NoSquare},
		{"black double push", "4k3/3p4/8/4P3/8/8/8/4K3 b - - 0 1", "d7d5", D6},
		{"single push", "4k3/8/8/8/8/3p4/4P3/4K3 w - - 0 1", "e2e3", NoSquare},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBoard(t, tc.fen)
			play(t, b, tc.move)
			if got := b.EnPassant(); got != tc.want {
				t.Errorf("en passant after %s = %v, want %v", tc.move, got, tc.want)
			}
		})
	}
}

func TestCastlingRightsRevoked(t *testing.T) {
	const fen = "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"
	tests := []struct {
		name  string
		moves []string
		want  CastlingRights
	}{
		{"king move", []string{"e1e2"}, BlackKingSideCastle | BlackQueenSideCastle},
		{"kingside rook move", []string{"h1h2"}, AllCastling &^ WhiteKingSideCastle},
		{"queenside rook move", []string{"a1b1"}, AllCastling &^ WhiteQueenSideCastle},
		{"rook captured on corner", []string{"a1a8"}, WhiteKingSideCastle | BlackKingSideCastle},
		{"castle", []string{"e1g1"}, BlackKingSideCastle | BlackQueenSideCastle},
		{"rook returns home", []string{"h1h2", "a8b8", "h2h1"}, WhiteQueenSideCastle | BlackKingSideCastle},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBoard(t, fen)
			for _, m := range tc.moves {
				play(t, b, m)
			}
			if got := b.CastlingRights(); got != tc.want {
				t.Errorf("rights = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestPromotionAlwaysQueen(t *testing.T) {
	b := newTestBoard(t, "4k3/1P6/8/8/8/8/8/4K3 w - - 0 1")
	play(t, b, "b7b8")
	if got := b.PieceAt(B8); got != WhiteQueen {
		t.Fatalf("b8 = %v, want Q", got)
	}
	rec, _ := b.LastMove()
	if rec.Promotion != B8 || rec.LongAlgebraic() != "b7b8q" {
		t.Errorf("record = %+v (%s)", rec, rec.LongAlgebraic())
	}
	b.UnmakeMove()
	if got := b.PieceAt(B7); got != WhitePawn {
		t.Errorf("b7 after unmake = %v, want P", got)
	}
}

func TestClocks(t *testing.T) {
	b := newTestBoard(t, "")
	for _, m := range []string{"g1f3", "g8f6", "f3g1"} {
		play(t, b, m)
	}
	if b.HalfMoveClock() != 3 || b.FullMoveNumber() != 2 {
		t.Errorf("clocks = %d/%d, want 3/2", b.HalfMoveClock(), b.FullMoveNumber())
	}
	play(t, b, "e7e5")
	if b.HalfMoveClock() != 0 || b.FullMoveNumber() != 3 {
		t.Errorf("clocks = %d/%d, want 0/3", b.HalfMoveClock(), b.FullMoveNumber())
	}
	b.UnmakeMove()
	if b.HalfMoveClock() != 3 || b.FullMoveNumber() != 2 {
		t.Errorf("clocks after unmake = %d/%d, want 3/2", b.HalfMoveClock(), b.FullMoveNumber())
	}
}

func TestClone(t *testing.T) {
	b := newTestBoard(t, "")
	play(t, b, "e2e4")
	c := b.Clone()
	play(t, c, "e7e5")
	if b.Ply() != 1 || c.Ply() != 2 {
		t.Errorf("plies = %d/%d, want 1/2", b.Ply(), c.Ply())
	}
	c.UnmakeMove()
	c.UnmakeMove()
	if b.PieceAt(E4) != WhitePawn {
		t.Error("unmaking on the clone changed the original")
	}
}

func expectCorruption(t *testing.T, reason string, f func()) {
	t.Helper()
	defer func() {
		r := recover()
		ce, ok := r.(*CorruptionError)
		if !ok {
			t.Fatalf("panic value = %v, want *CorruptionError", r)
		}
		if !strings.Contains(ce.Reason, reason) {
			t.Errorf("reason = %q, want it to mention %q", ce.Reason, reason)
		}
		if !strings.Contains(ce.Dump, "Hash history:") {
			t.Errorf("dump is missing the board state:\n%s", ce.Dump)
		}
	}()
	f()
}

func TestCorruptionPanics(t *testing.T) {
	t.Run("wrong color", func(t *testing.T) {
		b := newTestBoard(t, "")
		expectCorruption(t, "does not belong", func() { b.MakeMove(E7, E5) })
	})
	t.Run("empty square", func(t *testing.T) {
		b := newTestBoard(t, "")
		expectCorruption(t, "does not belong", func() { b.MakeMove(E4, E5) })
	})
	t.Run("empty history", func(t *testing.T) {
		b := newTestBoard(t, "")
		expectCorruption(t, "empty move history", func() { b.UnmakeMove() })
	})
	t.Run("promotion mismatch", func(t *testing.T) {
		b := newTestBoard(t, "4k3/1P6/8/8/8/8/8/4K3 w - - 0 1")
		play(t, b, "b7b8")
		b.squares[B8] = WhiteRook
		expectCorruption(t, "promotion", func() { b.UnmakeMove() })
	})
}

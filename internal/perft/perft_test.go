package perft

import (
	"context"
	"errors"
	"testing"

	"github.com/hailam/chessrules/internal/board"
)

const kiwipete = "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q2/PPPBBPPP/R3K2R w KQkq - 0 1"

func TestParallelPerft(t *testing.T) {
	table := board.NewHashTable(0)
	start := board.NewBoard(table)
	kp, err := board.ParseFEN(table, kiwipete)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		b     *board.Board
		depth int
		want  int64
	}{
		{"start depth 1", start, 1, 20},
		{"start depth 3", start, 3, 8902},
		{"start depth 4", start, 4, 197281},
		{"kiwipete depth 2", kp, 2, 2039},
		{"kiwipete depth 3", kp, 3, 97862},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			before := tc.b.Hash()
			got, err := ParallelPerft(context.Background(), tc.b, tc.depth)
			if err != nil {
				t.Fatalf("ParallelPerft: %v", err)
			}
			if got != tc.want {
				t.Errorf("nodes = %d, want %d", got, tc.want)
			}
			if seq := tc.b.Perft(tc.depth); seq != got {
				t.Errorf("sequential perft = %d, parallel = %d", seq, got)
			}
			if tc.b.Hash() != before || tc.b.Ply() != 0 {
				t.Error("board modified by ParallelPerft")
			}
		})
	}
}

func TestDivide(t *testing.T) {
	b := board.NewBoard(board.NewHashTable(0))
	counts, err := Divide(context.Background(), b, 2)
	if err != nil {
		t.Fatalf("Divide: %v", err)
	}
	if len(counts) != 20 {
		t.Fatalf("got %d root moves, want 20", len(counts))
	}
	for i := 1; i < len(counts); i++ {
		if counts[i-1].Move >= counts[i].Move {
			t.Errorf("not sorted: %s before %s", counts[i-1].Move, counts[i].Move)
		}
	}
	for _, c := range counts {
		if c.Nodes != 20 {
			t.Errorf("%s: %d replies, want 20", c.Move, c.Nodes)
		}
	}
	if counts[0].Move != "a2a3" {
		t.Errorf("first move = %s", counts[0].Move)
	}

	counts, err = Divide(context.Background(), b, 0)
	if err != nil || counts != nil {
		t.Errorf("depth 0 = %v, %v", counts, err)
	}
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ParallelPerft(ctx, board.NewBoard(board.NewHashTable(0)), 5)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

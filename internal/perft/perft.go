// Package perft counts move-tree leaves across CPUs.
package perft

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/chessrules/internal/board"
)

// RootCount is the number of leaves below one root move.
type RootCount struct {
	Move  string // long algebraic
	Nodes int64
}

// ParallelPerft counts the leaves of the legal move tree to depth, giving
// each root move its own clone of b. b itself is not modified.
func ParallelPerft(ctx context.Context, b *board.Board, depth int) (int64, error) {
	counts, err := Divide(ctx, b, depth)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, c := range counts {
		total += c.Nodes
	}
	return total, nil
}

// Divide returns the leaf count below every root move, sorted by move.
// Workers check ctx before starting each root move.
func Divide(ctx context.Context, b *board.Board, depth int) ([]RootCount, error) {
	if depth <= 0 {
		return nil, nil
	}

	moves := b.ComputeAllValidMoves()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	var (
		mu     sync.Mutex
		counts = make([]RootCount, 0, moves.Count())
	)
	for _, from := range moves.Origins() {
		for _, m := range moves[from] {
			to := m.To
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				worker := b.Clone()
				worker.MakeMove(from, to)
				rec, _ := worker.LastMove()
				n := worker.Perft(depth - 1)

				mu.Lock()
				counts = append(counts, RootCount{Move: rec.LongAlgebraic(), Nodes: n})
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(counts, func(i, j int) bool { return counts[i].Move < counts[j].Move })
	return counts, nil
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/hailam/chessrules/internal/board"
	"github.com/hailam/chessrules/internal/config"
	"github.com/hailam/chessrules/internal/opening"
	"github.com/hailam/chessrules/internal/perft"
	"github.com/hailam/chessrules/internal/storage"
)

func runPerft(ctx context.Context, table *board.HashTable, args []string, out io.Writer, divide bool) error {
	fs := flag.NewFlagSet("perft", flag.ContinueOnError)
	fs.SetOutput(out)
	depth := fs.Int("depth", 4, "search depth in plies")
	fen := fs.String("fen", board.StartFEN, "position to count from")
	if err := fs.Parse(args); err != nil {
		return err
	}

	b, err := board.ParseFEN(table, *fen)
	if err != nil {
		return err
	}

	start := time.Now()
	var nodes int64
	if divide {
		counts, err := perft.Divide(ctx, b, *depth)
		if err != nil {
			return err
		}
		for _, c := range counts {
			fmt.Fprintf(out, "%s: %d\n", c.Move, c.Nodes)
			nodes += c.Nodes
		}
		fmt.Fprintf(out, "\nmoves %d\n", len(counts))
	} else if nodes, err = perft.ParallelPerft(ctx, b, *depth); err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Fprintf(out, "nodes %d\n", nodes)
	if secs := elapsed.Seconds(); secs > 0 {
		fmt.Fprintf(out, "time %s nps %.0f\n", elapsed.Round(time.Millisecond), float64(nodes)/secs)
	}
	return nil
}

// openStorage opens the game database under the configured data dir.
func openStorage(cfg config.Config, log zerolog.Logger) (*storage.Storage, error) {
	dir, err := storage.GetDatabaseDir(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	return storage.Open(dir, log)
}

func runOpenings(cfg config.Config, args []string, out io.Writer, log zerolog.Logger) error {
	fs := flag.NewFlagSet("openings", flag.ContinueOnError)
	fs.SetOutput(out)
	dir := fs.String("dir", cfg.OpeningsDir, "directory holding ECO *.tsv files")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dir == "" {
		var err error
		if *dir, err = storage.GetOpeningsDir(cfg.DataDir); err != nil {
			return err
		}
	}

	table := opening.New()
	n, err := table.LoadDir(*dir, log)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Errorf("no opening tables found in %s", *dir)
	}

	s, err := openStorage(cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.SaveOpenings(table.Names()); err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %d openings (%d positions)\n", n, table.Size())
	return nil
}

func runStats(cfg config.Config, args []string, out io.Writer, log zerolog.Logger) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(out)
	recent := fs.Int("recent", 5, "number of recent games to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := openStorage(cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.LoadStats()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "games %d  white %d  black %d  draws %d  unfinished %d\n",
		stats.GamesPlayed, stats.WhiteWins, stats.BlackWins, stats.Draws, stats.Unfinished)
	fmt.Fprintf(out, "white score %.1f%%  longest %d plies  played %s\n",
		stats.WhiteScore(), stats.LongestGame, stats.TotalPlayTime.Round(time.Second))
	for reason, n := range stats.DrawsByReason {
		fmt.Fprintf(out, "  draws by %s: %d\n", reason, n)
	}

	if *recent <= 0 {
		return nil
	}
	games, err := s.ListGames(*recent)
	if err != nil {
		return err
	}
	for _, g := range games {
		fmt.Fprintf(out, "%s  %s  %-8s %3d plies  %s\n",
			g.StartedAt.Format(time.DateTime), g.Result, g.Reason, len(g.LAN), g.Opening)
	}
	return nil
}

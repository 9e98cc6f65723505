package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/hailam/chessrules/internal/board"
	"github.com/hailam/chessrules/internal/config"
	"github.com/hailam/chessrules/internal/game"
	"github.com/hailam/chessrules/internal/opening"
	"github.com/hailam/chessrules/internal/storage"
	"github.com/hailam/chessrules/internal/uci"
)

type playSettings struct {
	fen         string
	enginePath  string
	engineColor string
	depth       int
	moveTime    time.Duration
	base        time.Duration
	increment   time.Duration
	save        bool
}

func runPlay(ctx context.Context, cfg config.Config, table *board.HashTable, args []string, in io.Reader, out io.Writer, log zerolog.Logger) error {
	var ps playSettings
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&ps.fen, "fen", "", "starting position (default: standard)")
	fs.StringVar(&ps.enginePath, "engine", cfg.EnginePath, "UCI engine binary for the opponent")
	fs.StringVar(&ps.engineColor, "engine-color", "black", "side the engine plays: white, black or both")
	fs.IntVar(&ps.depth, "depth", cfg.EngineDepth, "engine search depth")
	fs.DurationVar(&ps.moveTime, "movetime", cfg.EngineMoveTime, "engine time per move, overrides -depth")
	fs.DurationVar(&ps.base, "clock", 0, "base time per side, 0 disables clocks")
	fs.DurationVar(&ps.increment, "inc", 0, "increment per move")
	fs.BoolVar(&ps.save, "save", true, "save the game to the database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		s        *storage.Storage
		openings *opening.Table
	)
	if ps.save {
		var err error
		if s, err = openStorage(cfg, log); err != nil {
			return err
		}
		defer s.Close()
		names, err := s.LoadOpenings()
		if err != nil {
			return err
		}
		openings = opening.FromMap(names)
	}

	g, err := game.New(table, game.Options{
		FEN:      ps.fen,
		Openings: openings,
		Clock:    game.TimeControl{Base: ps.base, Increment: ps.increment},
		Logger:   log,
	})
	if err != nil {
		return err
	}

	var (
		eng         uci.Engine
		engineSides [2]bool
	)
	if ps.enginePath != "" {
		switch ps.engineColor {
		case "white":
			engineSides[board.White] = true
		case "black":
			engineSides[board.Black] = true
		case "both":
			engineSides = [2]bool{true, true}
		default:
			return errors.Errorf("unknown engine color %q", ps.engineColor)
		}

		p, err := uci.Start(uci.Options{
			Path:          ps.enginePath,
			Hash:          cfg.EngineHashMB,
			Threads:       cfg.EngineThreads,
			Nice:          cfg.EngineNice,
			DefaultLimits: uci.Limits{Depth: ps.depth},
			Logger:        log,
		})
		if err != nil {
			return err
		}
		defer p.Close()
		if err := p.NewGame(); err != nil {
			return err
		}
		fmt.Fprintf(out, "engine %s\n", p.Path())
		eng = p
	}

	limits := uci.Limits{}
	if ps.moveTime > 0 {
		limits.MoveTime = ps.moveTime
	} else if ps.base == 0 {
		limits.Depth = ps.depth
	}

	err = playLoop(ctx, g, eng, engineSides, limits, in, out)
	if s != nil && len(g.SANHistory()) > 0 {
		if serr := s.SaveGame(g.Record()); serr != nil {
			log.Error().Err(serr).Msg("game not saved")
		}
	}
	return err
}

// playLoop reads one command per line until the game ends, input runs out
// or the user quits.
//   - e2e4, e7e8q  play a move
//   - undo         take back the last move
//   - fen          print the position
//   - moves        print the game so far
//   - quit
func playLoop(ctx context.Context, g *game.Game, eng uci.Engine, engineSides [2]bool, limits uci.Limits, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		if g.Status().Over {
			st := g.Status()
			fmt.Fprintf(out, "result %s (%s)\n", st.Result(), st.Kind)
			return nil
		}

		if eng != nil && engineSides[g.SideToMove()] {
			san, a, err := g.PlayEngine(ctx, eng, limits)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s  (depth %d, %s)\n", san, a.Depth, formatScore(a.Score, g.SideToMove().Other()))
			continue
		}

		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit":
			return nil
		case "undo":
			// Take back the engine's reply as well when playing against it.
			n := 1
			if eng != nil && engineSides[g.SideToMove().Other()] && !engineSides[g.SideToMove()] {
				n = 2
			}
			for i := 0; i < n; i++ {
				if err := g.Undo(); err != nil {
					fmt.Fprintln(out, err)
					break
				}
			}
		case "fen":
			fmt.Fprintln(out, g.FEN())
		case "moves":
			fmt.Fprintln(out, g.PGNMoves())
		default:
			san, err := g.PlayLAN(line)
			if err != nil {
				fmt.Fprintf(out, "%v\n", err)
				continue
			}
			fmt.Fprintln(out, san)
		}
	}
}

// formatScore renders an engine score from white's point of view. mover
// is the side the engine searched for.
func formatScore(s uci.Score, mover board.Color) string {
	if s.IsMate {
		m := s.Mate
		if mover == board.Black {
			m = -m
		}
		return fmt.Sprintf("mate %d", m)
	}
	return fmt.Sprintf("%+.2f, white %.0f%%", float64(whiteCP(s.CP, mover))/100,
		(uci.WhiteWinningChances(s, mover)+1)*50)
}

func whiteCP(cp int, mover board.Color) int {
	if mover == board.Black {
		return -cp
	}
	return cp
}

// Command chessrules exercises the rules engine from the command line:
// perft counts, interactive games against an optional UCI engine, and the
// opening table and game database.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/rs/zerolog"

	"github.com/hailam/chessrules/internal/board"
	"github.com/hailam/chessrules/internal/config"
)

const usage = `usage: chessrules [-cpuprofile file] <command> [flags]

commands:
  perft     count leaf nodes of the move tree
  divide    perft split by root move
  play      play a game, reading moves like e2e4 from stdin
  openings  import ECO opening tables into the database
  stats     show saved game statistics
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := cfg.Logger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	code := run(ctx, cfg, os.Args[1:], os.Stdin, os.Stdout, logger)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, cfg config.Config, args []string, in io.Reader, out io.Writer, log zerolog.Logger) (code int) {
	defer func() {
		if r := recover(); r != nil {
			ce, ok := r.(*board.CorruptionError)
			if !ok {
				panic(r)
			}
			log.Error().Str("reason", ce.Reason).Msg("board state corrupted")
			fmt.Fprintln(out, ce.Dump)
			code = 3
		}
	}()

	args, profilePath := cpuProfileFlag(args)
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Error().Err(err).Msg("could not create CPU profile")
			return 1
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Error().Err(err).Msg("could not start CPU profile")
			return 1
		}
		defer pprof.StopCPUProfile()
		log.Info().Str("file", profilePath).Msg("CPU profiling enabled")
	}

	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return 2
	}

	table := board.NewHashTable(cfg.HashSeed)
	var err error
	switch args[0] {
	case "perft":
		err = runPerft(ctx, table, args[1:], out, false)
	case "divide":
		err = runPerft(ctx, table, args[1:], out, true)
	case "play":
		err = runPlay(ctx, cfg, table, args[1:], in, out, log)
	case "openings":
		err = runOpenings(cfg, args[1:], out, log)
	case "stats":
		err = runStats(cfg, args[1:], out, log)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return 0
	default:
		fmt.Fprintf(out, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}
	if err != nil {
		log.Error().Err(err).Str("command", args[0]).Msg("command failed")
		return 1
	}
	return 0
}

// cpuProfileFlag strips a leading -cpuprofile flag from args.
func cpuProfileFlag(args []string) ([]string, string) {
	if len(args) >= 2 && (args[0] == "-cpuprofile" || args[0] == "--cpuprofile") {
		return args[2:], args[1]
	}
	return args, ""
}

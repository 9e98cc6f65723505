package uci

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gouci "github.com/freeeve/uci"
	"github.com/rs/zerolog"

	"github.com/hailam/chessrules/internal/board"
)

const (
	fakeEngineEnv    = "CHESSRULES_FAKE_ENGINE"
	fakeEngineLogEnv = "CHESSRULES_FAKE_ENGINE_LOG"
)

// The test binary doubles as a UCI engine when started with fakeEngineEnv
// set.
func TestMain(m *testing.M) {
	if os.Getenv(fakeEngineEnv) == "1" {
		runFakeEngine(os.Stdin, os.Stdout, os.Getenv(fakeEngineLogEnv))
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// runFakeEngine answers UCI commands and appends every command received to
// the file at logPath.
//   - go depth 99: reports depth 1 and only answers once stopped
//   - go depth 98: exits without answering
//   - go depth 97: reports depth 1 and never answers, not even to stop
//   - go depth 7:  has no move
func runFakeEngine(in io.Reader, out io.Writer, logPath string) {
	cmdLog, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		os.Exit(2)
	}
	defer cmdLog.Close()

	reply := func(lines ...string) {
		for _, l := range lines {
			fmt.Fprintln(out, l)
		}
	}

	searching := false
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd := strings.Join(strings.Fields(scanner.Text()), " ")
		fmt.Fprintln(cmdLog, cmd)
		switch {
		case cmd == "uci":
			reply("id name Fake 1.0", "id author Test", "uciok")
		case cmd == "isready":
			reply("readyok")
		case cmd == "go depth 99":
			searching = true
			reply("info depth 1 score cp 10 nodes 20 pv d2d4")
		case cmd == "go depth 97":
			reply("info depth 1 score cp 10 nodes 20 pv d2d4")
		case cmd == "go depth 98":
			return
		case cmd == "go depth 7":
			reply("bestmove (none)")
		case cmd == "stop":
			if searching {
				searching = false
				reply("bestmove d2d4")
			}
		case strings.HasPrefix(cmd, "go"):
			reply(
				"info string thinking",
				"info depth 2 seldepth 3 multipv 1 score cp 12 nodes 300 pv e2e4",
				"info depth 3 seldepth 5 multipv 1 score cp 25 nodes 1000 nps 50000 pv e2e4 e7e5 g1f3",
				"info depth 3 multipv 2 score cp -40 nodes 1000 pv a2a3",
				"bestmove e2e4 ponder e7e5",
			)
		case cmd == "quit":
			return
		}
	}
}

// startFake starts the fake engine and returns it with the path of its
// command log.
func startFake(t *testing.T) (*Process, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "commands")
	t.Setenv(fakeEngineEnv, "1")
	t.Setenv(fakeEngineLogEnv, logPath)

	p, err := Start(Options{
		Path:    os.Args[0],
		Hash:    32,
		Threads: 2,
		Logger:  zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p, logPath
}

// received returns the commands the fake engine has logged so far.
func received(t *testing.T, logPath string) []string {
	t.Helper()
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read command log: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func TestProcessSearch(t *testing.T) {
	p, logPath := startFake(t)

	b := board.NewBoard(board.NewHashTable(0))
	b.MakeMove(board.E2, board.E4)
	b.MakeMove(board.E7, board.E5)

	a, err := p.BestMove(context.Background(), PositionOf(b), Limits{Depth: 3})
	if err != nil {
		t.Fatalf("BestMove: %v", err)
	}
	if a.BestMove != "e2e4" || a.Ponder != "e7e5" {
		t.Errorf("bestmove %q ponder %q", a.BestMove, a.Ponder)
	}
	if a.Depth != 3 || a.Nodes != 1000 || a.Score != (Score{CP: 25}) {
		t.Errorf("analysis = %+v", a)
	}
	if strings.Join(a.PV, " ") != "e2e4 e7e5 g1f3" {
		t.Errorf("pv = %v", a.PV)
	}

	got := received(t, logPath)
	want := []string{
		"uci",
		"setoption name MultiPV value 1",
		"setoption name Hash value 32",
		"setoption name Threads value 2",
		"setoption name ownbook value false",
		"setoption name ponder value false",
		"position startpos moves e2e4 e7e5",
		"go depth 3",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("commands = %q, want %q", got, want)
	}
}

func TestProcessPositions(t *testing.T) {
	const fen = "4k3/1P6/8/8/8/8/8/4K3 w - - 0 1"
	tests := []struct {
		name string
		pos  Position
		want string
	}{
		{"start", Position{}, "position startpos"},
		{"fen", Position{FEN: fen}, "position fen " + fen},
		{"fen with moves", Position{FEN: fen, Moves: []string{"b7b8q"}}, "position fen " + fen + " moves b7b8q"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, logPath := startFake(t)
			if _, err := p.BestMove(context.Background(), tc.pos, Limits{MoveTime: 1500 * time.Millisecond}); err != nil {
				t.Fatalf("BestMove: %v", err)
			}
			got := received(t, logPath)
			if len(got) < 2 || got[len(got)-2] != tc.want || got[len(got)-1] != "go movetime 1500" {
				t.Errorf("commands = %q, want %q then go", got, tc.want)
			}
		})
	}
}

func TestProcessCancel(t *testing.T) {
	p, logPath := startFake(t)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	a, err := p.BestMove(ctx, Position{}, Limits{Depth: 99})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
	if a.Depth != 1 || a.BestMove != "d2d4" {
		t.Errorf("partial analysis = %+v", a)
	}

	got := received(t, logPath)
	if got[len(got)-1] != "stop" {
		t.Errorf("commands = %q, want stop last", got)
	}

	// The engine is usable again once the stopped search has answered.
	a, err = p.BestMove(context.Background(), Position{}, Limits{Depth: 2})
	if err != nil || a.BestMove != "e2e4" {
		t.Errorf("search after cancel = %+v, %v", a, err)
	}
}

func TestProcessIgnoresStop(t *testing.T) {
	saved := stopTimeout
	stopTimeout = 100 * time.Millisecond
	t.Cleanup(func() { stopTimeout = saved })

	p, _ := startFake(t)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := p.BestMove(ctx, Position{}, Limits{Depth: 97}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}

	// The unanswered search blocks the next one until its context ends.
	ctx2, cancel2 := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel2()
	if _, err := p.BestMove(ctx2, Position{}, Limits{Depth: 2}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded while busy", err)
	}

	// Close kills the engine, which releases the search goroutine.
	pending := p.pending
	if pending == nil {
		t.Fatal("no pending search recorded")
	}
	p.Close()
	select {
	case r := <-pending:
		if r.err == nil {
			t.Error("search on a killed engine reported success")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("search goroutine still blocked after Close")
	}
}

func TestProcessNoBestMove(t *testing.T) {
	p, _ := startFake(t)
	_, err := p.BestMove(context.Background(), Position{}, Limits{Depth: 7})
	if !errors.Is(err, ErrNoBestMove) {
		t.Errorf("err = %v, want ErrNoBestMove", err)
	}
}

func TestProcessEngineExit(t *testing.T) {
	p, _ := startFake(t)
	if _, err := p.BestMove(context.Background(), Position{}, Limits{Depth: 98}); err == nil {
		t.Error("search succeeded on an engine that exited")
	}
}

func TestProcessClosed(t *testing.T) {
	p, _ := startFake(t)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := p.BestMove(context.Background(), Position{}, Limits{Depth: 1}); err == nil {
		t.Error("search succeeded after Close")
	}
}

func TestAnalysisOf(t *testing.T) {
	a, err := analysisOf(&gouci.Results{
		BestMove: "h7h8",
		Results: []gouci.ScoreResult{
			{Depth: 11, Score: 300, Nodes: 30, BestMoves: []string{"h7h6"}},
			{Depth: 12, Mate: true, Score: -3, Nodes: 42, BestMoves: []string{"h7h8", "g1g2"}},
			{Depth: 12, MultiPV: 2, Score: -900, BestMoves: []string{"a7a6"}},
		},
	})
	if err != nil {
		t.Fatalf("analysisOf: %v", err)
	}
	if a.Score != (Score{Mate: -3, IsMate: true}) || a.Depth != 12 || a.Nodes != 42 || a.Ponder != "g1g2" {
		t.Errorf("analysis = %+v", a)
	}

	for _, none := range []string{"", "(none)", "0000"} {
		if _, err := analysisOf(&gouci.Results{BestMove: none}); !errors.Is(err, ErrNoBestMove) {
			t.Errorf("bestmove %q: err = %v", none, err)
		}
	}
}

func TestLimitsSearch(t *testing.T) {
	tests := []struct {
		name     string
		limits   Limits
		side     board.Color
		depth    int
		moveTime int64
	}{
		{"depth", Limits{Depth: 12}, board.White, 12, 0},
		{"movetime", Limits{Depth: 5, MoveTime: 2 * time.Second}, board.White, 5, 2000},
		{"white clock", Limits{WTime: time.Minute, WInc: time.Second, BTime: time.Second}, board.White, 0, 2750},
		{"black clock", Limits{WTime: time.Minute, BTime: 30 * time.Second, MovesToGo: 10}, board.Black, 0, 3000},
		{"nearly flagged", Limits{BTime: 8 * time.Millisecond}, board.Black, 0, 10},
		{"short of time", Limits{WTime: time.Second, WInc: 2 * time.Second}, board.White, 0, 500},
		{"other side's clock only", Limits{BTime: time.Minute}, board.White, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			depth, moveTime := tc.limits.search(tc.side)
			if depth != tc.depth || moveTime != tc.moveTime {
				t.Errorf("search(%v) = %d, %d, want %d, %d", tc.side, depth, moveTime, tc.depth, tc.moveTime)
			}
		})
	}
}

func TestPositionSideToMove(t *testing.T) {
	tests := []struct {
		pos  Position
		want board.Color
	}{
		{Position{}, board.White},
		{Position{Moves: []string{"e2e4"}}, board.Black},
		{Position{FEN: "4k3/8/8/8/8/8/8/4K3 b - - 0 1"}, board.Black},
		{Position{FEN: "4k3/8/8/8/8/8/8/4K3 b - - 0 1", Moves: []string{"e8d8"}}, board.White},
	}
	for _, tc := range tests {
		if got := tc.pos.SideToMove(); got != tc.want {
			t.Errorf("%+v: SideToMove = %v, want %v", tc.pos, got, tc.want)
		}
	}
}

func TestPositionCommand(t *testing.T) {
	b := board.NewBoard(board.NewHashTable(0))
	if got := PositionCommand(b); got != "position startpos" {
		t.Errorf("PositionCommand = %q", got)
	}

	const fen = "4k3/1P6/8/8/8/8/8/4K3 w - - 0 1"
	b, err := board.ParseFEN(board.NewHashTable(0), fen)
	if err != nil {
		t.Fatal(err)
	}
	b.MakeMove(board.B7, board.B8)
	if got, want := PositionCommand(b), "position fen "+fen+" moves b7b8q"; got != want {
		t.Errorf("PositionCommand = %q, want %q", got, want)
	}
}

func TestLimitsCommand(t *testing.T) {
	tests := []struct {
		limits Limits
		want   string
	}{
		{Limits{}, "go"},
		{Limits{Depth: 12}, "go depth 12"},
		{Limits{MoveTime: 1500 * time.Millisecond}, "go movetime 1500"},
		{Limits{WTime: time.Minute, BTime: 30 * time.Second, WInc: time.Second, BInc: time.Second, MovesToGo: 20},
			"go wtime 60000 btime 30000 winc 1000 binc 1000 movestogo 20"},
	}
	for _, tc := range tests {
		if got := tc.limits.Command(); got != tc.want {
			t.Errorf("Command() = %q, want %q", got, tc.want)
		}
	}
}

func TestParseLongAlgebraic(t *testing.T) {
	tests := []struct {
		in       string
		from, to board.Square
		ok       bool
	}{
		{"e2e4", board.E2, board.E4, true},
		{"e7e8q", board.E7, board.E8, true},
		{"e7e8n", board.E7, board.E8, true},
		{"e7e8k", board.NoSquare, board.NoSquare, false},
		{"e2", board.NoSquare, board.NoSquare, false},
		{"i2e4", board.NoSquare, board.NoSquare, false},
	}
	for _, tc := range tests {
		from, to, err := ParseLongAlgebraic(tc.in)
		if (err == nil) != tc.ok || from != tc.from || to != tc.to {
			t.Errorf("ParseLongAlgebraic(%q) = %v, %v, %v", tc.in, from, to, err)
		}
	}
}

func TestWinningChances(t *testing.T) {
	tests := []struct {
		cp   int
		want float64
	}{
		{0, 0},
		{1000, 2/(1+math.Exp(-3.68208)) - 1},
		{5000, 2/(1+math.Exp(-3.68208)) - 1},
		{-5000, -(2/(1+math.Exp(-3.68208)) - 1)},
	}
	for _, tc := range tests {
		if got := WinningChances(tc.cp); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("WinningChances(%d) = %f, want %f", tc.cp, got, tc.want)
		}
	}

	if got := WhiteWinningChances(Score{Mate: 2, IsMate: true}, board.Black); got != -1 {
		t.Errorf("black mating = %f, want -1", got)
	}
	if got := WhiteWinningChances(Score{CP: 100}, board.White); got <= 0 {
		t.Errorf("white +1 = %f, want positive", got)
	}
}

func TestStartMissingBinary(t *testing.T) {
	_, err := Start(Options{Path: "/nonexistent/engine", Logger: zerolog.Nop()})
	if err == nil {
		t.Fatal("Start succeeded for a missing binary")
	}
}

// Package game runs a single game on top of the rules engine: it validates
// moves, keeps the SAN log and clocks, tracks the opening and hands
// positions to an external engine.
package game

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/hailam/chessrules/internal/board"
	"github.com/hailam/chessrules/internal/opening"
	"github.com/hailam/chessrules/internal/storage"
	"github.com/hailam/chessrules/internal/uci"
)

var (
	ErrIllegalMove    = errors.New("illegal move")
	ErrGameOver       = errors.New("game is over")
	ErrNothingToUndo  = errors.New("no move to undo")
	ErrEngineNoResult = errors.New("engine returned no result")
)

// TimeControl gives each side Base time plus Increment per move made.
// A zero Base disables the clocks.
type TimeControl struct {
	Base      time.Duration
	Increment time.Duration
}

// Options configures a new game.
type Options struct {
	FEN      string         // empty for the standard initial position
	Openings *opening.Table // nil disables opening names
	Clock    TimeControl
	Logger   zerolog.Logger

	now func() time.Time
}

// Game owns one Board. It is not safe for concurrent use.
type Game struct {
	b      *board.Board
	moves  board.MoveMap // legal moves of the side to move
	status board.Status

	san      []string
	openings *opening.Table
	names    []string // opening name after each ply, "" until one is known

	clock     TimeControl
	remaining [2]time.Duration
	clockLog  [][2]time.Duration // remaining before each ply
	turnStart time.Time

	startedAt time.Time
	startFEN  string
	startSide board.Color
	startMove int

	now func() time.Time
	log zerolog.Logger
}

// New starts a game from opts.FEN, or from the initial position.
func New(table *board.HashTable, opts Options) (*Game, error) {
	var b *board.Board
	if opts.FEN == "" {
		b = board.NewBoard(table)
	} else {
		var err error
		if b, err = board.ParseFEN(table, opts.FEN); err != nil {
			return nil, errors.Wrap(err, "new game")
		}
	}

	now := opts.now
	if now == nil {
		now = time.Now
	}
	g := &Game{
		b:         b,
		openings:  opts.Openings,
		clock:     opts.Clock,
		remaining: [2]time.Duration{opts.Clock.Base, opts.Clock.Base},
		startedAt: now(),
		startFEN:  b.RootFEN(),
		startSide: b.SideToMove(),
		startMove: b.FullMoveNumber(),
		now:       now,
		log:       opts.Logger,
	}
	g.turnStart = g.startedAt
	g.refresh()

	g.log.Debug().Str("fen", b.FEN()).Msg("game started")
	return g, nil
}

// refresh recomputes the legal moves and the status after the board changed.
func (g *Game) refresh() {
	g.moves = g.b.ComputeAllValidMoves()
	g.status = g.b.CheckTerminalState(g.moves.Any())
}

// Play makes the move from one square to another for the side to move and
// returns its notation, with "+" for check, "# 1-0"/"# 0-1" for mate and
// " 1/2-1/2" for draws.
func (g *Game) Play(from, to board.Square) (string, error) {
	if g.status.Over {
		return "", ErrGameOver
	}
	if _, ok := g.moves.Find(from, to); !ok {
		return "", errors.Wrapf(ErrIllegalMove, "%s%s", from, to)
	}

	san := g.b.AlgebraicNotation(from, to, g.moves)
	mover := g.b.SideToMove()
	g.clockLog = append(g.clockLog, g.remaining)
	g.punchClock(mover)

	g.b.MakeMove(from, to)
	g.refresh()

	switch {
	case g.status.Kind == board.Checkmate:
		san += g.status.Suffix() + " " + g.status.Result()
	case g.status.IsDraw():
		san += " " + g.status.Result()
	default:
		san += g.status.Suffix()
	}
	g.san = append(g.san, san)

	name := g.Opening()
	if g.openings != nil {
		if n, ok := g.openings.Lookup(g.b); ok {
			name = n
		}
	}
	g.names = append(g.names, name)

	ev := g.log.Debug().Str("move", san)
	if g.status.Over {
		ev = g.log.Info().Str("move", san).Str("result", g.status.Result()).Stringer("reason", g.status.Kind)
	}
	ev.Msg("move played")
	return san, nil
}

// punchClock charges the time spent since the turn started to c and adds
// the increment.
func (g *Game) punchClock(c board.Color) {
	now := g.now()
	if g.clock.Base > 0 {
		g.remaining[c] -= now.Sub(g.turnStart)
		g.remaining[c] += g.clock.Increment
	}
	g.turnStart = now
}

// PlayLAN plays a move given in long algebraic form. A promotion letter
// is accepted but the pawn always becomes a queen.
func (g *Game) PlayLAN(lan string) (string, error) {
	from, to, err := uci.ParseLongAlgebraic(lan)
	if err != nil {
		return "", errors.Wrap(ErrIllegalMove, err.Error())
	}
	return g.Play(from, to)
}

// Undo takes back the last move.
func (g *Game) Undo() error {
	if len(g.san) == 0 {
		return ErrNothingToUndo
	}
	g.b.UnmakeMove()
	g.san = g.san[:len(g.san)-1]
	g.names = g.names[:len(g.names)-1]
	g.remaining = g.clockLog[len(g.clockLog)-1]
	g.clockLog = g.clockLog[:len(g.clockLog)-1]
	g.turnStart = g.now()
	g.refresh()
	return nil
}

// PlayEngine asks e for a move in the current position and plays it. The
// search runs on its own goroutine; when ctx ends first the game is left
// unchanged. With zero limits and running clocks the engine gets the
// remaining times.
func (g *Game) PlayEngine(ctx context.Context, e uci.Engine, limits uci.Limits) (string, uci.Analysis, error) {
	if g.status.Over {
		return "", uci.Analysis{}, ErrGameOver
	}
	if limits.IsZero() && g.clock.Base > 0 {
		spent := g.now().Sub(g.turnStart)
		w, b := g.remaining[board.White], g.remaining[board.Black]
		if g.b.SideToMove() == board.White {
			w -= spent
		} else {
			b -= spent
		}
		limits = uci.Limits{
			WTime: max(w, time.Millisecond),
			BTime: max(b, time.Millisecond),
			WInc:  g.clock.Increment,
			BInc:  g.clock.Increment,
		}
	}

	type result struct {
		a   uci.Analysis
		err error
	}
	pos := uci.PositionOf(g.b)
	ch := make(chan result, 1)
	go func() {
		a, err := e.BestMove(ctx, pos, limits)
		ch <- result{a, err}
	}()

	var r result
	select {
	case <-ctx.Done():
		return "", uci.Analysis{}, ctx.Err()
	case r = <-ch:
	}
	if r.err != nil {
		return "", r.a, errors.Wrap(r.err, "engine search")
	}
	if r.a.BestMove == "" {
		return "", r.a, ErrEngineNoResult
	}

	san, err := g.PlayLAN(r.a.BestMove)
	if err != nil {
		return "", r.a, errors.Wrapf(err, "engine move %s", r.a.BestMove)
	}
	g.log.Debug().Str("engine_move", r.a.BestMove).Int("depth", r.a.Depth).Msg("engine played")
	return san, r.a, nil
}

// Board returns a copy of the current position.
func (g *Game) Board() *board.Board {
	return g.b.Clone()
}

// FEN returns the current position in Forsyth-Edwards Notation.
func (g *Game) FEN() string {
	return g.b.FEN()
}

// ValidMoves returns the legal moves of the side to move. The map must not
// be modified.
func (g *Game) ValidMoves() board.MoveMap {
	return g.moves
}

// Status returns the state of the current position.
func (g *Game) Status() board.Status {
	return g.status
}

// SideToMove returns the color whose turn it is.
func (g *Game) SideToMove() board.Color {
	return g.b.SideToMove()
}

// SANHistory returns the notation of every move played, suffixes included.
func (g *Game) SANHistory() []string {
	return append([]string(nil), g.san...)
}

// Opening returns the most specific opening name reached so far.
func (g *Game) Opening() string {
	if len(g.names) == 0 {
		return ""
	}
	return g.names[len(g.names)-1]
}

// Remaining returns the clock time left for c.
func (g *Game) Remaining(c board.Color) time.Duration {
	return g.remaining[c]
}

// Captured returns how many pieces of each type c has captured.
func (g *Game) Captured(c board.Color) map[board.PieceType]int {
	counts := make(map[board.PieceType]int)
	for _, rec := range g.b.History() {
		if rec.Piece.Color() == c && rec.Captured != board.NoPiece {
			counts[rec.Captured.Type()]++
		}
	}
	return counts
}

// Material returns the point value of c's pieces on the board.
func (g *Game) Material(c board.Color) int {
	total := 0
	for sq := board.A1; sq <= board.H8; sq++ {
		if p := g.b.PieceAt(sq); p != board.NoPiece && p.Color() == c {
			total += board.MaterialPoints[p.Type()]
		}
	}
	return total
}

// PGNMoves returns the move list in PGN movetext form, "1. e4 e5 2. Nf3".
func (g *Game) PGNMoves() string {
	var sb strings.Builder
	num := g.startMove
	side := g.startSide
	for i, san := range g.san {
		switch {
		case side == board.White:
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.Itoa(num))
			sb.WriteString(". ")
		case i == 0:
			sb.WriteString(strconv.Itoa(num))
			sb.WriteString("... ")
		default:
			sb.WriteByte(' ')
		}
		sb.WriteString(san)
		if side == board.Black {
			num++
		}
		side = side.Other()
	}
	return sb.String()
}

// Record returns the game as a storage record. Unfinished games have
// result "*" and no reason.
func (g *Game) Record() *storage.GameRecord {
	rec := &storage.GameRecord{
		StartedAt: g.startedAt,
		Duration:  g.now().Sub(g.startedAt),
		StartFEN:  g.startFEN,
		Moves:     g.SANHistory(),
		LAN:       g.b.MoveHistoryLAN(),
		Result:    g.status.Result(),
		Opening:   g.Opening(),
	}
	if g.status.Over {
		rec.Reason = g.status.Kind.String()
	}
	return rec
}

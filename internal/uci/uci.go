// Package uci drives an external chess engine over the Universal Chess
// Interface protocol, on top of github.com/freeeve/uci.
package uci

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hailam/chessrules/internal/board"
)

// ErrNoBestMove is returned when the engine answers "bestmove (none)" or
// "bestmove 0000", which it does when the side to move has no legal move.
var ErrNoBestMove = errors.New("uci: engine returned no move")

// How long to wait for "bestmove" after sending "stop".
var stopTimeout = 5 * time.Second

// Engine searches positions for a best move.
type Engine interface {
	BestMove(ctx context.Context, pos Position, limits Limits) (Analysis, error)
	Close() error
}

// Position is a game as the engine sees it: a root and the moves played
// from it in long algebraic form.
type Position struct {
	FEN   string // empty for the standard initial position
	Moves []string
}

// PositionOf returns the position of a board, rooted where its history
// starts.
func PositionOf(b *board.Board) Position {
	return Position{FEN: b.RootFEN(), Moves: b.MoveHistoryLAN()}
}

// Command renders the "position" command.
//   - position startpos
//   - position startpos moves e2e4 e7e5
//   - position fen <fen> moves e2e4
func (p Position) Command() string {
	var sb strings.Builder
	sb.WriteString("position ")
	if p.FEN == "" {
		sb.WriteString("startpos")
	} else {
		sb.WriteString("fen ")
		sb.WriteString(p.FEN)
	}
	if len(p.Moves) > 0 {
		sb.WriteString(" moves ")
		sb.WriteString(strings.Join(p.Moves, " "))
	}
	return sb.String()
}

// SideToMove returns the color to move after the moves are played.
func (p Position) SideToMove() board.Color {
	side := board.White
	if fields := strings.Fields(p.FEN); len(fields) > 1 && fields[1] == "b" {
		side = board.Black
	}
	if len(p.Moves)%2 == 1 {
		side = side.Other()
	}
	return side
}

// PositionCommand returns the "position" command for a board.
func PositionCommand(b *board.Board) string {
	return PositionOf(b).Command()
}

// Limits bounds a search. Zero fields are not sent.
type Limits struct {
	Depth     int
	MoveTime  time.Duration
	WTime     time.Duration
	BTime     time.Duration
	WInc      time.Duration
	BInc      time.Duration
	MovesToGo int
}

// Moves assumed left in the game when the clock gives no moves-to-go.
const defaultMovesToGo = 30

// search converts the limits into the depth and move time, in
// milliseconds, of a "go" command. Clock limits become a move time budget
// for the side to move. Zero means unbounded.
func (l Limits) search(side board.Color) (depth int, moveTime int64) {
	depth = l.Depth
	if l.MoveTime > 0 {
		return depth, l.MoveTime.Milliseconds()
	}

	remaining, inc := l.WTime, l.WInc
	if side == board.Black {
		remaining, inc = l.BTime, l.BInc
	}
	if remaining <= 0 {
		return depth, 0
	}
	mtg := l.MovesToGo
	if mtg <= 0 {
		mtg = defaultMovesToGo
	}
	budget := remaining/time.Duration(mtg) + inc*3/4
	budget = min(budget, remaining/2)
	budget = max(budget, 10*time.Millisecond)
	return depth, budget.Milliseconds()
}

// IsZero reports whether no limit is set.
func (l Limits) IsZero() bool {
	return l == Limits{}
}

// Command renders the "go" command.
func (l Limits) Command() string {
	parts := []string{"go"}
	add := func(name string, v int64) {
		if v > 0 {
			parts = append(parts, name, strconv.FormatInt(v, 10))
		}
	}
	add("depth", int64(l.Depth))
	add("movetime", l.MoveTime.Milliseconds())
	add("wtime", l.WTime.Milliseconds())
	add("btime", l.BTime.Milliseconds())
	add("winc", l.WInc.Milliseconds())
	add("binc", l.BInc.Milliseconds())
	add("movestogo", int64(l.MovesToGo))
	return strings.Join(parts, " ")
}

// Score is an evaluation from the side to move's point of view.
type Score struct {
	CP     int  // centipawns, valid when !IsMate
	Mate   int  // moves to mate, negative when being mated
	IsMate bool
}

// Analysis is the outcome of one search.
type Analysis struct {
	BestMove string // long algebraic, e.g. "e2e4" or "e7e8q"
	Ponder   string
	Depth    int
	Nodes    uint64
	Score    Score
	PV       []string
}

package board

import (
	"fmt"
	"strings"
)

// CastlingRights represents the available castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// CanCastle returns true if the given side can castle in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	return cr&castleRight(c, kingSide) != 0
}

func castleRight(c Color, kingSide bool) CastlingRights {
	switch {
	case c == White && kingSide:
		return WhiteKingSideCastle
	case c == White:
		return WhiteQueenSideCastle
	case kingSide:
		return BlackKingSideCastle
	default:
		return BlackQueenSideCastle
	}
}

// Home squares used by castling.
var (
	kingHome   = [2]Square{E1, E8}
	sideRights = [2]CastlingRights{
		WhiteKingSideCastle | WhiteQueenSideCastle,
		BlackKingSideCastle | BlackQueenSideCastle,
	}
	// cornerRights maps a rook home corner to the right it guards.
	cornerRights = [64]CastlingRights{
		A1: WhiteQueenSideCastle,
		H1: WhiteKingSideCastle,
		A8: BlackQueenSideCastle,
		H8: BlackKingSideCastle,
	}
)

// rookHome returns the rook's starting corner for a castle.
func rookHome(c Color, kingSide bool) Square {
	rank := 0
	if c == Black {
		rank = 7
	}
	if kingSide {
		return NewSquare(7, rank)
	}
	return NewSquare(0, rank)
}

// castleRookSquares returns where the rook comes from and goes to when the
// king of color c castles onto kingTo.
func castleRookSquares(c Color, kingTo Square) (from, to Square) {
	if kingTo.File() == 6 {
		return rookHome(c, true), kingTo - 1
	}
	return rookHome(c, false), kingTo + 1
}

// Board is a mutable chess position with its move history.
//
// A Board is not safe for concurrent use. It is changed only by MakeMove and
// UnmakeMove, which must nest in strict stack order; give each goroutine its
// own board with Clone.
type Board struct {
	table *HashTable

	squares    [64]Piece
	sideToMove Color
	castling   CastlingRights
	castled    [2]bool
	enPassant  Square // Target square for en passant, NoSquare if none

	halfMoveClock  int // Moves since last pawn move or capture
	fullMoveNumber int // Full move counter, starts at 1

	hash uint64

	history     []MoveRecord
	hashHistory []uint64 // hash after each ply, parallel to history

	// FEN of the position the history starts from, "" for the standard
	// initial position.
	rootFEN string
}

// NewBoard creates a board in the standard initial position. The hash table
// is shared, never copied.
func NewBoard(table *HashTable) *Board {
	if table == nil {
		panic("board: nil hash table")
	}
	b := &Board{table: table}
	b.Reset()
	return b
}

// Reset restores the standard initial position and clears all history.
func (b *Board) Reset() {
	b.clear()
	back := [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for file := 0; file < 8; file++ {
		b.squares[NewSquare(file, 0)] = NewPiece(back[file], White)
		b.squares[NewSquare(file, 1)] = WhitePawn
		b.squares[NewSquare(file, 6)] = BlackPawn
		b.squares[NewSquare(file, 7)] = NewPiece(back[file], Black)
	}
	b.castling = AllCastling
	b.hash = b.FullHash()
}

// clear empties the board and its history.
func (b *Board) clear() {
	for sq := range b.squares {
		b.squares[sq] = NoPiece
	}
	b.sideToMove = White
	b.castling = NoCastling
	b.castled = [2]bool{}
	b.enPassant = NoSquare
	b.halfMoveClock = 0
	b.fullMoveNumber = 1
	b.history = b.history[:0]
	b.hashHistory = b.hashHistory[:0]
	b.rootFEN = ""
}

// Clone returns an independent copy of the board, including its history,
// sharing the same hash table.
func (b *Board) Clone() *Board {
	nb := *b
	nb.history = append([]MoveRecord(nil), b.history...)
	nb.hashHistory = append([]uint64(nil), b.hashHistory...)
	return &nb
}

// Table returns the hash table the board was built with.
func (b *Board) Table() *HashTable {
	return b.table
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (b *Board) PieceAt(sq Square) Piece {
	return b.squares[sq]
}

// IsEmpty returns true if the square is empty.
func (b *Board) IsEmpty(sq Square) bool {
	return b.squares[sq] == NoPiece
}

// SideToMove returns the color whose turn it is.
func (b *Board) SideToMove() Color {
	return b.sideToMove
}

// CastlingRights returns the castling rights still held.
func (b *Board) CastlingRights() CastlingRights {
	return b.castling
}

// HasCastled reports whether the given side has castled in this game.
func (b *Board) HasCastled(c Color) bool {
	return b.castled[c]
}

// EnPassant returns the en passant target square, or NoSquare.
func (b *Board) EnPassant() Square {
	return b.enPassant
}

// Hash returns the incrementally maintained Zobrist hash.
func (b *Board) Hash() uint64 {
	return b.hash
}

// Ply returns the number of moves made on this board.
func (b *Board) Ply() int {
	return len(b.history)
}

// History returns the move records, oldest first. The slice is owned by the
// board and must not be modified.
func (b *Board) History() []MoveRecord {
	return b.history
}

// HashHistory returns the hash after each ply, oldest first. The slice is
// owned by the board and must not be modified.
func (b *Board) HashHistory() []uint64 {
	return b.hashHistory
}

// LastMove returns the most recent move record and false if no move was made.
func (b *Board) LastMove() (MoveRecord, bool) {
	if len(b.history) == 0 {
		return MoveRecord{}, false
	}
	return b.history[len(b.history)-1], true
}

// KingSquare returns the square of the king of color c, or NoSquare.
func (b *Board) KingSquare(c Color) Square {
	king := NewPiece(King, c)
	for sq := A1; sq <= H8; sq++ {
		if b.squares[sq] == king {
			return sq
		}
	}
	return NoSquare
}

// FullHash computes the Zobrist hash of the current position from scratch.
func (b *Board) FullHash() uint64 {
	var hash uint64

	for sq := A1; sq <= H8; sq++ {
		if p := b.squares[sq]; p != NoPiece {
			hash ^= b.table.Piece(p, sq)
		}
	}

	if b.sideToMove == Black {
		hash ^= b.table.BlackToMove()
	}

	hash ^= b.table.Castling(b.castling)

	if b.enPassant != NoSquare {
		hash ^= b.table.EnPassant(b.enPassant.File())
	}

	return hash
}

// Placement returns the piece placement field of the FEN: ranks 8 to 1
// separated by '/', runs of empty squares written as digits.
func (b *Board) Placement() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := b.squares[NewSquare(file, rank)]
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// String returns the full board state. It is the dump attached to
// CorruptionError.
func (b *Board) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			sb.WriteString(b.squares[NewSquare(file, rank)].String())
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", b.sideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", b.castling)
	fmt.Fprintf(&sb, "Castled: white=%t black=%t\n", b.castled[White], b.castled[Black])
	fmt.Fprintf(&sb, "En passant: %s\n", b.enPassant)
	fmt.Fprintf(&sb, "Half-move clock: %d\n", b.halfMoveClock)
	fmt.Fprintf(&sb, "Full move: %d\n", b.fullMoveNumber)
	fmt.Fprintf(&sb, "Hash: %016x (recomputed %016x)\n", b.hash, b.FullHash())
	sb.WriteString("Move history:")
	for _, rec := range b.history {
		sb.WriteByte(' ')
		sb.WriteString(rec.String())
	}
	sb.WriteString("\nHash history:")
	for _, h := range b.hashHistory {
		fmt.Fprintf(&sb, " %016x", h)
	}
	sb.WriteByte('\n')
	return sb.String()
}

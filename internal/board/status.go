package board

// StatusKind classifies the state of a position.
type StatusKind uint8

const (
	Ongoing StatusKind = iota
	Checkmate
	Stalemate
	DrawInsufficientMaterial
	DrawRepetition
)

// String returns a human readable name.
func (k StatusKind) String() string {
	switch k {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case DrawInsufficientMaterial:
		return "insufficient material"
	case DrawRepetition:
		return "threefold repetition"
	default:
		return "ongoing"
	}
}

// Status is the result of CheckTerminalState.
type Status struct {
	Over     bool
	Kind     StatusKind
	Winner   Color // NoColor unless checkmate
	Checking Color // side giving check in an ongoing game, NoColor if none
}

// IsDraw reports whether the game ended without a winner.
func (s Status) IsDraw() bool {
	return s.Over && s.Kind != Checkmate
}

// Result returns the game result in PGN form.
func (s Status) Result() string {
	switch {
	case !s.Over:
		return "*"
	case s.Winner == White:
		return "1-0"
	case s.Winner == Black:
		return "0-1"
	default:
		return "1/2-1/2"
	}
}

// Suffix returns the annotation appended to the notation of the move that
// produced this status: "#" for mate, "+" for check.
func (s Status) Suffix() string {
	switch {
	case s.Kind == Checkmate:
		return "#"
	case !s.Over && s.Checking != NoColor:
		return "+"
	default:
		return ""
	}
}

// CheckTerminalState classifies the position. anyValidMoves must tell
// whether the side to move has a legal move, typically from
// ComputeAllValidMoves().Any().
func (b *Board) CheckTerminalState(anyValidMoves bool) Status {
	if b.InsufficientMaterial() {
		return Status{Over: true, Kind: DrawInsufficientMaterial, Winner: NoColor, Checking: NoColor}
	}
	if b.Repetitions() >= 3 {
		return Status{Over: true, Kind: DrawRepetition, Winner: NoColor, Checking: NoColor}
	}

	us := b.sideToMove
	inCheck := b.IsKingInCheck(us)
	if !anyValidMoves {
		if !inCheck {
			return Status{Over: true, Kind: Stalemate, Winner: NoColor, Checking: NoColor}
		}
		return Status{Over: true, Kind: Checkmate, Winner: us.Other(), Checking: us.Other()}
	}

	checking := NoColor
	if inCheck {
		checking = us.Other()
	}
	return Status{Kind: Ongoing, Winner: NoColor, Checking: checking}
}

// InsufficientMaterial returns true if there are no queens, rooks or pawns
// and each side has at most one knight or bishop.
func (b *Board) InsufficientMaterial() bool {
	var minors [2]int
	for _, p := range b.squares {
		switch p.Type() {
		case Pawn, Rook, Queen:
			return false
		case Knight, Bishop:
			minors[p.Color()]++
		}
	}
	return minors[White] <= 1 && minors[Black] <= 1
}

// Repetitions counts the entries of the hash history, one per move made,
// that match the current position with the same side to move. Only every
// other entry can match, so the walk steps back two plies at a time. The
// position the history starts from is not an entry.
func (b *Board) Repetitions() int {
	count := 0
	for i := len(b.hashHistory) - 1; i >= 0; i -= 2 {
		if b.hashHistory[i] == b.hash {
			count++
		}
	}
	return count
}

package board

import "fmt"

// CorruptionError is the panic value raised when the board detects that its
// own state has been broken: a move for the wrong side, an unmake with no
// history, or a promotion record that does not match the board. These are
// programming errors in the caller and are never returned as error values.
type CorruptionError struct {
	Reason string
	Dump   string // Board.String() at the time of detection
}

func (e *CorruptionError) Error() string {
	return "board state corrupted: " + e.Reason
}

func (b *Board) corrupt(format string, args ...any) {
	panic(&CorruptionError{
		Reason: fmt.Sprintf(format, args...),
		Dump:   b.String(),
	})
}

package board

import "errors"

var (
	// ErrInvalidFEN indicates a malformed position string.
	ErrInvalidFEN = errors.New("invalid FEN")

	// ErrIllegalMove indicates a move that is not legal in the position.
	ErrIllegalMove = errors.New("illegal move")

	// ErrInconsistent indicates a position whose derived state disagrees
	// with its board array.
	ErrInconsistent = errors.New("inconsistent position")
)

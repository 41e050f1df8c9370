package engine

import (
	"github.com/hailam/chessnet/internal/board"
)

// Evaluator scores a position in centipawns from White's point of view.
type Evaluator interface {
	Evaluate(pos *board.Position) int
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(pos *board.Position) int

// Evaluate calls f(pos).
func (f EvaluatorFunc) Evaluate(pos *board.Position) int {
	return f(pos)
}

// MaterialEvaluator sums fixed piece values: pawn 100, knight 320,
// bishop 330, rook 500, queen 900, king 0.
type MaterialEvaluator struct{}

// Evaluate returns the material balance.
func (MaterialEvaluator) Evaluate(pos *board.Position) int {
	return pos.Material()
}

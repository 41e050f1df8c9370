package engine

import (
	"time"

	"github.com/hailam/chessnet/internal/board"
)

// ClockLimits carries clock-based time control parameters.
type ClockLimits struct {
	Time      [2]time.Duration // remaining time per color
	Inc       [2]time.Duration // increment per move per color
	MovesToGo int              // moves until next time control (0 = sudden death)
}

// IsZero reports whether no clock was given.
func (c ClockLimits) IsZero() bool {
	return c.Time[board.White] == 0 && c.Time[board.Black] == 0
}

// AllocateTime returns how long the side us should think on this move.
// ply is the game ply used to estimate moves remaining in sudden death.
func AllocateTime(c ClockLimits, us board.Color, ply int) time.Duration {
	timeLeft := c.Time[us]
	if timeLeft <= 0 {
		return 0
	}
	inc := c.Inc[us]

	mtg := c.MovesToGo
	if mtg <= 0 {
		// Sudden death: expect fewer remaining moves as the game goes on.
		mtg = min(50, max(10, 50-ply/4))
	}

	budget := timeLeft/time.Duration(mtg) + inc*9/10
	if ply < 8 {
		budget = budget * 85 / 100
	}

	// Never use more than 80% of what is left.
	budget = min(budget, timeLeft*8/10)
	return max(budget, 10*time.Millisecond)
}

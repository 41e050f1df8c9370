package engine

import (
	"github.com/hailam/chessnet/internal/board"
)

// Move ordering priorities
const (
	TTMoveScore         = 30000
	QueenPromotionScore = 20000
	CaptureBase         = 10000
	PromotionBase       = 9000
	KillerScore1        = 8000
	KillerScore2        = 7500
	HistoryScoreMax     = 7000
	QuietMoveScore      = 0
	CastlingBonus       = 50

	// HistoryMax triggers a global halving of the history table.
	HistoryMax = 400000
)

// mvvLvaValues are the piece values used for capture ordering.
var mvvLvaValues = [6]int{100, 300, 300, 500, 900, 10000}

// MoveOrderer scores moves for the search. Each engine owns one; nothing
// here is shared between searches.
type MoveOrderer struct {
	// mvvLva[victim][attacker] = victim*10 - attacker
	mvvLva [6][6]int

	// Killer moves (quiet moves that caused cutoffs), most recent first
	killers [MaxPly][2]board.Move

	// History heuristic (indexed by [from][to])
	history [64][64]int
}

// NewMoveOrderer creates a new move orderer.
func NewMoveOrderer() *MoveOrderer {
	mo := &MoveOrderer{}
	for victim := range mo.mvvLva {
		for attacker := range mo.mvvLva[victim] {
			mo.mvvLva[victim][attacker] = mvvLvaValues[victim]*10 - mvvLvaValues[attacker]
		}
	}
	mo.Clear()
	return mo
}

// Clear resets killers and history for a new top-level search.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
	mo.history = [64][64]int{}
}

// MVVLVA returns the capture score for victim taken by attacker.
func (mo *MoveOrderer) MVVLVA(victim, attacker board.PieceType) int {
	if victim > board.King || attacker > board.King {
		return 0
	}
	return mo.mvvLva[victim][attacker]
}

// ScoreMoves writes an ordering score into every move of the list.
func (mo *MoveOrderer) ScoreMoves(moves *board.MoveList, ply int, ttFrom, ttTo board.Square) {
	for i := 0; i < moves.Len(); i++ {
		m := moves.At(i)
		m.Score = int32(mo.scoreMove(*m, ply, ttFrom, ttTo))
	}
}

// scoreMove returns the ordering score for a single move.
func (mo *MoveOrderer) scoreMove(m board.Move, ply int, ttFrom, ttTo board.Square) int {
	if ttFrom != board.NoSquare && m.From == ttFrom && m.To == ttTo {
		return TTMoveScore
	}

	if m.IsPromotion() {
		score := PromotionBase + int(m.Promotion)*10
		if m.Promotion == board.Queen {
			score = QueenPromotionScore
		}
		if m.IsCapture() {
			score += mo.MVVLVA(m.Captured.Type(), board.Pawn)
		}
		return score
	}

	if m.IsCapture() {
		return CaptureBase + mo.MVVLVA(m.Captured.Type(), m.Piece.Type())
	}

	score := QuietMoveScore
	switch {
	case mo.isKiller(m, ply, 0):
		return KillerScore1
	case mo.isKiller(m, ply, 1):
		return KillerScore2
	default:
		if h := mo.history[m.From][m.To]; h > 0 {
			score = min(HistoryScoreMax, h/10)
		}
	}
	if m.IsCastling() {
		score += CastlingBonus
	}
	return score
}

func (mo *MoveOrderer) isKiller(m board.Move, ply, slot int) bool {
	if ply >= MaxPly {
		return false
	}
	k := mo.killers[ply][slot]
	return !k.IsNull() && k.From == m.From && k.To == m.To
}

// SortMoves orders the list by descending score. Insertion sort keeps
// equal scores in generation order.
func SortMoves(moves *board.MoveList) {
	n := moves.Len()
	for i := 1; i < n; i++ {
		for j := i; j > 0 && moves.At(j).Score > moves.At(j-1).Score; j-- {
			moves.Swap(j, j-1)
		}
	}
}

// UpdateKillers records a quiet cutoff move at the given ply.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly {
		return
	}
	if first := mo.killers[ply][0]; first.From == m.From && first.To == m.To {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// Killers returns the two killer moves stored for ply.
func (mo *MoveOrderer) Killers(ply int) [2]board.Move {
	if ply >= MaxPly {
		return [2]board.Move{board.NoMove, board.NoMove}
	}
	return mo.killers[ply]
}

// UpdateHistory adds depth² to the history of a quiet cutoff move and
// halves the whole table once any cell passes HistoryMax.
func (mo *MoveOrderer) UpdateHistory(m board.Move, depth int) {
	if m.From >= board.NoSquare || m.To >= board.NoSquare {
		return
	}
	mo.history[m.From][m.To] += depth * depth
	if mo.history[m.From][m.To] > HistoryMax {
		for i := range mo.history {
			for j := range mo.history[i] {
				mo.history[i][j] /= 2
			}
		}
	}
}

// HistoryScore returns the raw history counter for a move.
func (mo *MoveOrderer) HistoryScore(m board.Move) int {
	return mo.history[m.From][m.To]
}

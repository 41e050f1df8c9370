package board

import (
	"errors"
	"fmt"
)

// MoveResult is the outcome of Game.AttemptMove.
type MoveResult uint8

const (
	MoveFailed MoveResult = iota
	MoveSuccess
	MovePromotionPending
)

func (r MoveResult) String() string {
	switch r {
	case MoveSuccess:
		return "success"
	case MovePromotionPending:
		return "promotion pending"
	default:
		return "failed"
	}
}

// ErrPromotionPending is returned by ApplyUCI while a two-phase promotion
// is waiting for CommitPromotion.
var ErrPromotionPending = errors.New("promotion pending")

// Game wraps a Position with move history and the two-phase promotion
// protocol used by interactive hosts.
type Game struct {
	pos      *Position
	startFEN string
	history  []MoveRecord

	pending     bool
	pendingFrom Square
	pendingTo   Square
}

// NewGame starts a game from the standard position.
func NewGame() *Game {
	g := &Game{}
	g.Setup(StartFEN)
	return g
}

// Setup resets the game to fen, or to the starting position if fen is
// malformed.
func (g *Game) Setup(fen string) {
	g.pos = Setup(fen)
	g.startFEN = g.pos.ToFEN()
	g.history = g.history[:0]
	g.pending = false
}

// FEN returns the current position as FEN.
func (g *Game) FEN() string {
	return g.pos.ToFEN()
}

// Position returns the live position. Callers must not mutate it; use
// Copy for anything that makes moves.
func (g *Game) Position() *Position {
	return g.pos
}

// SideToMove returns the color to move.
func (g *Game) SideToMove() Color {
	return g.pos.SideToMove
}

// AttemptMove tries to play from→to for the side to move. A pawn reaching
// the last rank is not played; the game waits for CommitPromotion.
func (g *Game) AttemptMove(from, to Square) MoveResult {
	if g.pending || from >= NoSquare || to >= NoSquare {
		return MoveFailed
	}
	piece := g.pos.Board[from]
	if piece == NoPiece || piece.Color() != g.pos.SideToMove {
		return MoveFailed
	}

	for _, m := range g.pos.LegalMovesFrom(from) {
		if m.To != to {
			continue
		}
		if m.IsPromotion() {
			g.pending = true
			g.pendingFrom = from
			g.pendingTo = to
			return MovePromotionPending
		}
		g.play(m)
		return MoveSuccess
	}
	return MoveFailed
}

// CommitPromotion finalizes a pending promotion. Anything other than a
// knight, bishop or rook promotes to a queen. No-op when nothing is pending.
func (g *Game) CommitPromotion(pt PieceType) {
	if !g.pending {
		return
	}
	if pt != Knight && pt != Bishop && pt != Rook {
		pt = Queen
	}
	for _, m := range g.pos.LegalMovesFrom(g.pendingFrom) {
		if m.To == g.pendingTo && m.Promotion == pt {
			g.play(m)
			break
		}
	}
	g.pending = false
}

// CommitPromotionChar is CommitPromotion keyed by q, r, b or n.
func (g *Game) CommitPromotionChar(c byte) {
	g.CommitPromotion(PromotionFromChar(c))
}

// PendingPromotion reports the squares of a promotion awaiting a choice.
func (g *Game) PendingPromotion() (from, to Square, ok bool) {
	if !g.pending {
		return NoSquare, NoSquare, false
	}
	return g.pendingFrom, g.pendingTo, true
}

// CancelPromotion drops a pending promotion without playing it.
func (g *Game) CancelPromotion() {
	g.pending = false
}

// RevertMove undoes the last played move. A pending promotion counts as the
// last move and is cancelled instead.
func (g *Game) RevertMove() {
	if g.pending {
		g.pending = false
		return
	}
	if len(g.history) == 0 {
		return
	}
	last := g.history[len(g.history)-1]
	g.history = g.history[:len(g.history)-1]
	g.pos.UnmakeMove(last.Move, last.Undo)
}

// ApplyUCI plays a move given in coordinate notation. Promotions are
// completed in one step.
func (g *Game) ApplyUCI(s string) error {
	if g.pending {
		return ErrPromotionPending
	}
	m, err := ParseMove(s, g.pos)
	if err != nil {
		return err
	}
	g.play(m)
	return nil
}

func (g *Game) play(m Move) {
	undo := g.pos.MakeMove(m)
	g.history = append(g.history, MoveRecord{Move: m, Undo: undo})
}

// History returns the played moves in coordinate notation.
func (g *Game) History() []string {
	out := make([]string, len(g.history))
	for i, rec := range g.history {
		out[i] = rec.Move.String()
	}
	return out
}

// SANHistory returns the played moves in Standard Algebraic Notation.
func (g *Game) SANHistory() []string {
	moves := make([]Move, len(g.history))
	for i, rec := range g.history {
		moves[i] = rec.Move
	}
	start, err := ParseFEN(g.startFEN)
	if err != nil {
		return g.History()
	}
	return MovesToSAN(start, moves)
}

// Records returns a copy of the move history with restoration snapshots.
func (g *Game) Records() []MoveRecord {
	return append([]MoveRecord(nil), g.history...)
}

// LegalMovesFrom returns the distinct destination squares of the piece on sq.
func (g *Game) LegalMovesFrom(sq Square) []Square {
	var targets []Square
	seen := uint64(0)
	for _, m := range g.pos.LegalMovesFrom(sq) {
		bit := uint64(1) << m.To
		if seen&bit != 0 {
			continue
		}
		seen |= bit
		targets = append(targets, m.To)
	}
	return targets
}

// AllLegalMoves returns every legal move of color c, promotions included once
// per piece choice.
func (g *Game) AllLegalMoves(c Color) []Move {
	var moves []Move
	for _, sq := range g.pos.PieceSquares(c) {
		moves = append(moves, g.pos.LegalMovesFrom(sq)...)
	}
	return moves
}

// IsCheck reports whether color c is in check.
func (g *Game) IsCheck(c Color) bool { return g.pos.InCheck(c) }

// IsCheckmate reports whether color c is checkmated.
func (g *Game) IsCheckmate(c Color) bool { return g.pos.IsCheckmate(c) }

// IsStalemate reports whether color c is stalemated.
func (g *Game) IsStalemate(c Color) bool { return g.pos.IsStalemate(c) }

// IsGameOver reports whether the game has ended.
func (g *Game) IsGameOver() bool { return g.pos.IsGameOver() }

// Result returns the game outcome so far.
func (g *Game) Result() GameResult { return g.pos.Result() }

// Perft runs a perft count on the current position.
func (g *Game) Perft(depth int) uint64 { return g.pos.Perft(depth) }

// Divide runs a per-move perft breakdown on the current position.
func (g *Game) Divide(depth int) map[string]uint64 { return g.pos.Divide(depth) }

// String renders the board and the move list.
func (g *Game) String() string {
	return fmt.Sprintf("%s\nMoves: %v\n", g.pos, g.History())
}

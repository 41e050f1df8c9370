package board

// GameResult is the outcome of a game.
type GameResult uint8

const (
	Ongoing GameResult = iota
	WhiteWins
	BlackWins
	Draw
)

func (r GameResult) String() string {
	switch r {
	case WhiteWins:
		return "1-0"
	case BlackWins:
		return "0-1"
	case Draw:
		return "1/2-1/2"
	default:
		return "*"
	}
}

// FiftyMoveLimit is the half-move clock value at which the game is drawn.
const FiftyMoveLimit = 100

// IsCheckmate reports whether color c is in check with no legal move.
func (p *Position) IsCheckmate(c Color) bool {
	return p.InCheck(c) && !p.hasLegalMoves(c)
}

// IsStalemate reports whether color c is not in check and has no legal move.
func (p *Position) IsStalemate(c Color) bool {
	return !p.InCheck(c) && !p.hasLegalMoves(c)
}

// IsGameOver reports checkmate or stalemate of the side to move, or an
// exhausted fifty-move counter.
func (p *Position) IsGameOver() bool {
	if !p.HasLegalMoves() {
		return true
	}
	return p.HalfMoveClock >= FiftyMoveLimit
}

// Result classifies the position.
func (p *Position) Result() GameResult {
	if p.IsCheckmate(White) {
		return BlackWins
	}
	if p.IsCheckmate(Black) {
		return WhiteWins
	}
	if p.IsStalemate(p.SideToMove) || p.HalfMoveClock >= FiftyMoveLimit {
		return Draw
	}
	return Ongoing
}

// Perft counts the leaf nodes of the legal move tree to the given depth.
func (p *Position) Perft(depth int) uint64 {
	if depth == 0 {
		return 1
	}

	ml := NewMoveList()
	p.GeneratePseudoLegal(ml)
	us := p.SideToMove

	var nodes uint64
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		undo := p.MakeMove(m)
		if !p.InCheck(us) {
			if depth == 1 {
				nodes++
			} else {
				nodes += p.Perft(depth - 1)
			}
		}
		p.UnmakeMove(m, undo)
	}
	return nodes
}

// Divide returns the perft count below each legal root move, keyed by move
// notation.
func (p *Position) Divide(depth int) map[string]uint64 {
	result := make(map[string]uint64)
	if depth < 1 {
		return result
	}

	legal := p.GenerateLegalMoves()
	for i := 0; i < legal.Len(); i++ {
		m := legal.Get(i)
		undo := p.MakeMove(m)
		result[m.String()] = p.Perft(depth - 1)
		p.UnmakeMove(m, undo)
	}
	return result
}

package engine

import (
	"context"

	"github.com/hailam/chessnet/internal/board"
)

// Search constants
const (
	CheckmateScore = 100000
	StalemateScore = 0
	Infinity       = 1000000
	MaxPly         = 128

	// MateThreshold marks scores that encode a forced mate.
	MateThreshold = CheckmateScore - 100

	// nodeCheckInterval is how often, in nodes, the context is polled.
	nodeCheckInterval = 2048
)

// Searcher runs the alpha-beta search. Scores are from White's point of
// view: White nodes maximize and Black nodes minimize.
type Searcher struct {
	tt      *TranspositionTable
	orderer *MoveOrderer
	eval    Evaluator

	ctx     context.Context
	nodes   uint64
	stopped bool

	// One move list per ply so the recursion does not allocate.
	moveLists [MaxPly]board.MoveList
}

// NewSearcher creates a searcher over the given table, orderer and evaluator.
func NewSearcher(tt *TranspositionTable, orderer *MoveOrderer, eval Evaluator) *Searcher {
	if eval == nil {
		eval = MaterialEvaluator{}
	}
	return &Searcher{
		tt:      tt,
		orderer: orderer,
		eval:    eval,
		ctx:     context.Background(),
	}
}

// Reset clears the node counter for a new top-level search.
func (s *Searcher) Reset() {
	s.nodes = 0
	s.stopped = false
}

// Nodes returns the number of nodes searched since the last Reset.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Stopped reports whether the last search was interrupted.
func (s *Searcher) Stopped() bool {
	return s.stopped
}

// SearchRoot searches every legal root move to depth. It returns false when
// the side to move has no legal move or the search was interrupted; in the
// first case score is the terminal score.
func (s *Searcher) SearchRoot(ctx context.Context, pos *board.Position, depth int) (board.Move, int, bool) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx = ctx
	s.stopped = false
	depth = max(1, min(depth, MaxPly-1))

	s.nodes++
	hash := pos.Hash
	us := pos.SideToMove
	maximizing := us == board.White

	ttFrom, ttTo := board.NoSquare, board.NoSquare
	if entry, ok := s.tt.Probe(hash); ok {
		ttFrom, ttTo = entry.BestFrom, entry.BestTo
	}

	ml := &s.moveLists[0]
	ml.Clear()
	pos.GeneratePseudoLegal(ml)
	s.orderer.ScoreMoves(ml, 0, ttFrom, ttTo)
	SortMoves(ml)

	alpha, beta := -Infinity, Infinity
	best := Infinity
	if maximizing {
		best = -Infinity
	}
	bestMove := board.NoMove

	for i := 0; i < ml.Len(); i++ {
		if ctx.Err() != nil {
			s.stopped = true
			return board.NoMove, 0, false
		}
		m := ml.Get(i)
		undo := pos.MakeMove(m)
		if pos.InCheck(us) {
			pos.UnmakeMove(m, undo)
			continue
		}
		score := s.minimax(pos, depth-1, 1, alpha, beta)
		pos.UnmakeMove(m, undo)

		if s.stopped {
			return board.NoMove, 0, false
		}

		if maximizing {
			if score > best {
				best, bestMove = score, m
			}
			alpha = max(alpha, score)
		} else {
			if score < best {
				best, bestMove = score, m
			}
			beta = min(beta, score)
		}
	}

	if bestMove.IsNull() {
		return board.NoMove, s.terminalScore(pos, 0), false
	}

	s.tt.Store(hash, depth, AdjustScoreToTT(best, 0), TTExact, bestMove.From, bestMove.To)
	return bestMove, best, true
}

// terminalScore scores a position without legal moves.
func (s *Searcher) terminalScore(pos *board.Position, ply int) int {
	us := pos.SideToMove
	if !pos.InCheck(us) {
		return StalemateScore
	}
	if us == board.White {
		return -CheckmateScore + ply
	}
	return CheckmateScore - ply
}

func (s *Searcher) minimax(pos *board.Position, depth, ply, alpha, beta int) int {
	s.nodes++
	if s.nodes%nodeCheckInterval == 0 && s.ctx.Err() != nil {
		s.stopped = true
	}
	if s.stopped {
		return 0
	}

	hash := pos.Hash
	ttFrom, ttTo := board.NoSquare, board.NoSquare
	if entry, ok := s.tt.Probe(hash); ok {
		ttFrom, ttTo = entry.BestFrom, entry.BestTo
		if int(entry.Depth) >= depth {
			score := AdjustScoreFromTT(int(entry.Score), ply)
			switch entry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				if score >= beta {
					return score
				}
				alpha = max(alpha, score)
			case TTUpperBound:
				if score <= alpha {
					return score
				}
				beta = min(beta, score)
			}
		}
	}

	if !pos.HasLegalMoves() {
		return s.terminalScore(pos, ply)
	}

	if depth <= 0 || ply >= MaxPly-1 {
		score := s.eval.Evaluate(pos)
		s.tt.Store(hash, 0, score, TTExact, board.NoSquare, board.NoSquare)
		return score
	}

	// Bounds after any narrowing by the table decide the stored flag.
	origAlpha, origBeta := alpha, beta

	us := pos.SideToMove
	maximizing := us == board.White

	ml := &s.moveLists[ply]
	ml.Clear()
	pos.GeneratePseudoLegal(ml)
	s.orderer.ScoreMoves(ml, ply, ttFrom, ttTo)
	SortMoves(ml)

	best := Infinity
	if maximizing {
		best = -Infinity
	}
	bestMove := board.NoMove

	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		undo := pos.MakeMove(m)
		if pos.InCheck(us) {
			pos.UnmakeMove(m, undo)
			continue
		}
		score := s.minimax(pos, depth-1, ply+1, alpha, beta)
		pos.UnmakeMove(m, undo)

		if s.stopped {
			return 0
		}

		if maximizing {
			if score > best {
				best, bestMove = score, m
			}
			alpha = max(alpha, score)
		} else {
			if score < best {
				best, bestMove = score, m
			}
			beta = min(beta, score)
		}

		if alpha >= beta {
			if m.IsQuiet() {
				s.orderer.UpdateKillers(m, ply)
				s.orderer.UpdateHistory(m, depth)
			}
			flag := TTUpperBound
			if maximizing {
				flag = TTLowerBound
			}
			s.tt.Store(hash, depth, AdjustScoreToTT(best, ply), flag, m.From, m.To)
			return best
		}
	}

	flag := TTExact
	switch {
	case maximizing && best <= origAlpha:
		flag = TTUpperBound
	case !maximizing && best >= origBeta:
		flag = TTLowerBound
	}
	s.tt.Store(hash, depth, AdjustScoreToTT(best, ply), flag, bestMove.From, bestMove.To)
	return best
}

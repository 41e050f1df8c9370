package engine

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chessnet/internal/board"
)

// ErrNoLegalMoves is returned when a search is requested in a position
// where the side to move is checkmated or stalemated.
var ErrNoLegalMoves = errors.New("no legal moves")

// SearchInfo reports progress after each completed iteration.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	Move     board.Move
	HashFull int // Permille of hash table used
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           // Maximum depth (0 = no limit)
	MoveTime time.Duration // Time for this move (0 = no limit)
	Clock    ClockLimits   // Used when MoveTime is zero
	Ply      int           // Game ply, for clock allocation
	Infinite bool          // Search until cancelled
}

// Result is the outcome of a search. Found is false when no legal move
// exists or the search was cancelled before completing a depth.
type Result struct {
	Move  board.Move
	Score int // centipawns, White-positive
	Depth int // deepest completed iteration
	Nodes uint64
	Found bool
}

// Engine composes a transposition table, move orderer, searcher and a
// pluggable evaluator. One search runs at a time; concurrent calls are
// serialized.
type Engine struct {
	mu       sync.Mutex
	tt       *TranspositionTable
	orderer  *MoveOrderer
	searcher *Searcher
	eval     Evaluator
	log      zerolog.Logger

	// OnInfo is called after every completed iteration.
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine with a transposition table of ttSizeMB and
// the material evaluator.
func NewEngine(ttSizeMB int) *Engine {
	tt := NewTranspositionTable(ttSizeMB)
	orderer := NewMoveOrderer()
	eval := Evaluator(MaterialEvaluator{})
	return &Engine{
		tt:       tt,
		orderer:  orderer,
		searcher: NewSearcher(tt, orderer, eval),
		eval:     eval,
		log:      zerolog.Nop(),
	}
}

// SetEvaluator swaps the leaf evaluator. nil restores material evaluation.
func (e *Engine) SetEvaluator(ev Evaluator) {
	if ev == nil {
		ev = MaterialEvaluator{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.eval = ev
	e.searcher.eval = ev
}

// Evaluator returns the current leaf evaluator.
func (e *Engine) Evaluator() Evaluator {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.eval
}

// SetLogger sets the logger used for search diagnostics.
func (e *Engine) SetLogger(l zerolog.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = l.With().Str("component", "engine").Logger()
}

// TT exposes the transposition table for statistics.
func (e *Engine) TT() *TranspositionTable {
	return e.tt
}

// prepare resets per-search state. Caller holds e.mu.
func (e *Engine) prepare() {
	e.orderer.Clear()
	e.tt.NewSearch()
	e.searcher.Reset()
}

// BestMove searches pos to a fixed depth.
func (e *Engine) BestMove(ctx context.Context, pos *board.Position, depth int) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.prepare()
	work := pos.Copy()
	move, score, ok := e.searcher.SearchRoot(ctx, work, depth)
	res := Result{Nodes: e.searcher.Nodes()}

	switch {
	case e.searcher.Stopped():
		return res, ctx.Err()
	case !ok:
		res.Score = score
		return res, ErrNoLegalMoves
	}

	res.Move, res.Score, res.Depth, res.Found = move, score, depth, true
	return res, nil
}

// IterativeDeepening searches depth 1..maxDepth and returns the result of
// the deepest completed iteration. It stops early once a forced mate is
// found. Cancellation after at least one iteration is not an error.
func (e *Engine) IterativeDeepening(ctx context.Context, pos *board.Position, maxDepth int) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.iterate(ctx, pos, maxDepth)
}

func (e *Engine) iterate(ctx context.Context, pos *board.Position, maxDepth int) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	maxDepth = max(1, min(maxDepth, MaxPly-1))

	e.prepare()
	work := pos.Copy()
	start := time.Now()

	var best Result
	for depth := 1; depth <= maxDepth; depth++ {
		move, score, ok := e.searcher.SearchRoot(ctx, work, depth)
		if e.searcher.Stopped() {
			break
		}
		if !ok {
			best.Score = score
			best.Nodes = e.searcher.Nodes()
			return best, ErrNoLegalMoves
		}

		best = Result{
			Move:  move,
			Score: score,
			Depth: depth,
			Nodes: e.searcher.Nodes(),
			Found: true,
		}

		elapsed := time.Since(start)
		e.log.Debug().
			Int("depth", depth).
			Int("score", score).
			Str("move", move.String()).
			Uint64("nodes", best.Nodes).
			Dur("elapsed", elapsed).
			Msg("iteration complete")

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    score,
				Nodes:    best.Nodes,
				Time:     elapsed,
				Move:     move,
				HashFull: e.tt.HashFull(),
			})
		}

		if score >= MateThreshold || score <= -MateThreshold {
			break
		}
	}

	best.Nodes = e.searcher.Nodes()
	if !best.Found {
		if err := ctx.Err(); err != nil {
			return best, err
		}
	}
	return best, nil
}

// SearchWithLimits runs iterative deepening bounded by depth and time.
// A clock is converted to a move time with AllocateTime.
func (e *Engine) SearchWithLimits(ctx context.Context, pos *board.Position, limits SearchLimits) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	maxDepth := MaxPly - 1
	if limits.Depth > 0 {
		maxDepth = limits.Depth
	}

	moveTime := limits.MoveTime
	if moveTime == 0 && !limits.Infinite && !limits.Clock.IsZero() {
		moveTime = AllocateTime(limits.Clock, pos.SideToMove, limits.Ply)
	}
	if moveTime > 0 && !limits.Infinite {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, moveTime)
		defer cancel()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	res, err := e.iterate(ctx, pos, maxDepth)
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		// Stopped before depth 1 finished: fall back to any legal move.
		legal := pos.Copy().GenerateLegalMoves()
		if legal.Len() > 0 {
			res.Move, res.Found = legal.Get(0), true
			return res, nil
		}
	}
	return res, err
}

// Clear wipes the transposition table and ordering heuristics.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tt.Clear()
	e.orderer.Clear()
}

// Perft counts leaf nodes of the legal move tree (for debugging move
// generation).
func (e *Engine) Perft(pos *board.Position, depth int) uint64 {
	return pos.Copy().Perft(depth)
}

// Evaluate returns the static evaluation of a position.
func (e *Engine) Evaluate(pos *board.Position) int {
	return e.Evaluator().Evaluate(pos)
}

// ScoreToString renders a score for humans: "Mate in N", "Mated in N" or
// pawns with two decimals.
func ScoreToString(score int) string {
	if score >= MateThreshold {
		return "Mate in " + strconv.Itoa((CheckmateScore-score+1)/2)
	}
	if score <= -MateThreshold {
		return "Mated in " + strconv.Itoa((CheckmateScore+score+1)/2)
	}

	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	cents := strconv.Itoa(score % 100)
	if len(cents) == 1 {
		cents = "0" + cents
	}
	return sign + strconv.Itoa(score/100) + "." + cents
}

package train

import (
	"context"
	"errors"
	"fmt"

	"github.com/freeeve/uci"

	"github.com/hailam/chessnet/internal/board"
	"github.com/hailam/chessnet/internal/engine"
)

// Labeler produces a training target for the side to move of a position.
type Labeler interface {
	Label(ctx context.Context, pos *board.Position) (float32, error)
}

// MaterialLabeler targets the material balance.
type MaterialLabeler struct{}

func (MaterialLabeler) Label(_ context.Context, pos *board.Position) (float32, error) {
	return ScoreToTarget(relative(pos.Material(), pos.SideToMove)), nil
}

// SearchLabeler targets the score of a fixed-depth search. An engine
// serializes its searches, so each worker needs its own labeler.
type SearchLabeler struct {
	Engine *engine.Engine
	Depth  int
}

// NewSearchLabeler creates a labeler with a private engine.
func NewSearchLabeler(hashMB, depth int, eval engine.Evaluator) *SearchLabeler {
	eng := engine.NewEngine(hashMB)
	eng.SetEvaluator(eval)
	return &SearchLabeler{Engine: eng, Depth: depth}
}

func (l *SearchLabeler) Label(ctx context.Context, pos *board.Position) (float32, error) {
	depth := l.Depth
	if depth < 1 {
		depth = DefaultDistillDepth
	}
	res, err := l.Engine.BestMove(ctx, pos, depth)
	if err != nil && !errors.Is(err, engine.ErrNoLegalMoves) {
		return 0, err
	}
	return ScoreToTarget(relative(res.Score, pos.SideToMove)), nil
}

// OracleConfig configures an external UCI engine used as a labeler.
type OracleConfig struct {
	Path    string
	Depth   int
	HashMB  int
	Threads int
}

// OracleLabeler targets the evaluation of an external UCI engine such as
// Stockfish.
type OracleLabeler struct {
	eng   *uci.Engine
	depth int
}

// NewOracleLabeler starts the engine binary at cfg.Path.
func NewOracleLabeler(cfg OracleConfig) (*OracleLabeler, error) {
	eng, err := uci.NewEngine(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("start oracle %s: %w", cfg.Path, err)
	}
	opts := uci.Options{
		Hash:    max(cfg.HashMB, 16),
		Threads: max(cfg.Threads, 1),
		MultiPV: 1,
		Ponder:  false,
		OwnBook: false,
	}
	if err := eng.SetOptions(opts); err != nil {
		eng.Close()
		return nil, fmt.Errorf("set oracle options: %w", err)
	}
	return &OracleLabeler{eng: eng, depth: max(cfg.Depth, 1)}, nil
}

// Label scores pos from the side to move. Mates map to the clamped
// probability extremes.
func (l *OracleLabeler) Label(ctx context.Context, pos *board.Position) (float32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := l.eng.SetFEN(pos.ToFEN()); err != nil {
		return 0, fmt.Errorf("set FEN: %w", err)
	}
	results, err := l.eng.GoDepth(l.depth, uci.HighestDepthOnly)
	if err != nil {
		return 0, fmt.Errorf("oracle eval: %w", err)
	}
	if len(results.Results) == 0 {
		return 0, errors.New("no results from oracle")
	}

	best := results.Results[0]
	for _, r := range results.Results {
		if r.Depth > best.Depth {
			best = r
		}
	}

	score := int(best.Score)
	if best.Mate {
		if score > 0 {
			score = engine.CheckmateScore
		} else {
			score = -engine.CheckmateScore
		}
	}
	return ScoreToTarget(score), nil
}

// Close shuts the engine process down.
func (l *OracleLabeler) Close() error {
	l.eng.Close()
	return nil
}

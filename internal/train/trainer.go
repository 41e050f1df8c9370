// Package train fits the evaluation network to targets derived from
// material counts, the engine's own search, or an external UCI engine.
package train

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/hailam/chessnet/internal/board"
	"github.com/hailam/chessnet/internal/engine"
	"github.com/hailam/chessnet/internal/nn"
)

// DefaultDistillDepth is the search depth used to label positions in
// TrainWithSearch.
const DefaultDistillDepth = 2

// ScoreToTarget converts a centipawn score for the perspective side into a
// win probability in [0.01, 0.99].
func ScoreToTarget(cp int) float32 {
	return nn.ScoreToProbability(cp)
}

// Stats are running training statistics.
type Stats struct {
	Examples          int64
	HeuristicExamples int64
	SearchExamples    int64
	Batches           int64
	LastLoss          float32
	AvgLoss           float32
}

// Trainer updates a network one example or batch at a time. It is not safe
// for concurrent use.
type Trainer struct {
	net *nn.Network
	eng *engine.Engine
	log zerolog.Logger

	// DistillDepth is the search depth for TrainWithSearch.
	DistillDepth int

	buf     []float32
	stats   Stats
	lossSum float64
}

// NewTrainer trains net. eng labels positions for TrainWithSearch and may
// be nil when search distillation is not used.
func NewTrainer(net *nn.Network, eng *engine.Engine, log zerolog.Logger) *Trainer {
	return &Trainer{
		net:          net,
		eng:          eng,
		log:          log.With().Str("component", "trainer").Logger(),
		DistillDepth: DefaultDistillDepth,
		buf:          make([]float32, nn.FeatureCount),
	}
}

// Network returns the network being trained.
func (t *Trainer) Network() *nn.Network {
	return t.net
}

// Stats returns a snapshot of the running statistics.
func (t *Trainer) Stats() Stats {
	return t.stats
}

func (t *Trainer) record(loss float32) {
	t.stats.Examples++
	t.stats.LastLoss = loss
	t.lossSum += float64(loss)
	t.stats.AvgLoss = float32(t.lossSum / float64(t.stats.Examples))
}

// relative converts a White-positive score to the perspective side.
func relative(cp int, perspective board.Color) int {
	if perspective == board.Black {
		return -cp
	}
	return cp
}

// TrainOnPosition trains towards the material balance of pos as seen by
// perspective and returns the loss.
func (t *Trainer) TrainOnPosition(pos *board.Position, perspective board.Color, lr float32) float32 {
	target := ScoreToTarget(relative(pos.Material(), perspective))
	t.buf = nn.ExtractFeatures(pos, perspective, t.buf)
	loss := t.net.Train(t.buf, target, lr)
	t.stats.HeuristicExamples++
	t.record(loss)
	return loss
}

// TrainWithSearch labels pos with a DistillDepth search and trains towards
// that score. The network should be bootstrapped with TrainOnPosition
// first; otherwise a warning is logged and training proceeds.
func (t *Trainer) TrainWithSearch(ctx context.Context, pos *board.Position, perspective board.Color, lr float32) (float32, error) {
	if t.eng == nil {
		return 0, errors.New("trainer has no search engine")
	}
	if t.stats.HeuristicExamples == 0 {
		t.log.Warn().Msg("search distillation before any heuristic training")
	}

	depth := t.DistillDepth
	if depth < 1 {
		depth = DefaultDistillDepth
	}
	res, err := t.eng.BestMove(ctx, pos, depth)
	if err != nil && !errors.Is(err, engine.ErrNoLegalMoves) {
		return 0, fmt.Errorf("distillation search: %w", err)
	}

	target := ScoreToTarget(relative(res.Score, perspective))
	t.buf = nn.ExtractFeatures(pos, perspective, t.buf)
	loss := t.net.Train(t.buf, target, lr)
	t.stats.SearchExamples++
	t.record(loss)
	return loss, nil
}

// TrainOnBatch trains on each input/target pair in order and returns the
// average loss. An empty batch is a no-op.
func (t *Trainer) TrainOnBatch(inputs [][]float32, targets []float32, lr float32) (float32, error) {
	if len(inputs) != len(targets) {
		t.log.Warn().Int("inputs", len(inputs)).Int("targets", len(targets)).Msg("batch size mismatch")
		return 0, fmt.Errorf("%d inputs for %d targets: %w", len(inputs), len(targets), nn.ErrDimensionMismatch)
	}
	if len(inputs) == 0 {
		return 0, nil
	}

	var sum float64
	for i, in := range inputs {
		loss := t.net.Train(in, targets[i], lr)
		t.record(loss)
		sum += float64(loss)
	}
	t.stats.Batches++
	return float32(sum / float64(len(inputs))), nil
}

// TrainEpoch shuffles samples with seed and trains on them in batches of
// batchSize. It returns the average loss over the epoch.
func (t *Trainer) TrainEpoch(ctx context.Context, samples []Sample, batchSize int, lr float32, seed uint64) (float32, error) {
	if len(samples) == 0 {
		return 0, nil
	}
	if batchSize < 1 {
		batchSize = 1
	}

	order := make([]int, len(samples))
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewPCG(seed, seed+1))
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	inputs := make([][]float32, 0, batchSize)
	targets := make([]float32, 0, batchSize)
	var sum float64
	for start := 0; start < len(order); start += batchSize {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		inputs, targets = inputs[:0], targets[:0]
		for _, idx := range order[start:min(start+batchSize, len(order))] {
			inputs = append(inputs, samples[idx].Features)
			targets = append(targets, samples[idx].Target)
		}
		avg, err := t.TrainOnBatch(inputs, targets, lr)
		if err != nil {
			return 0, err
		}
		sum += float64(avg) * float64(len(inputs))
	}
	return float32(sum / float64(len(samples))), nil
}

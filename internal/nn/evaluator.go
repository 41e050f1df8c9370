package nn

import (
	"math"

	"github.com/rs/zerolog"

	"github.com/hailam/chessnet/internal/board"
)

// Probability scale: a 600 centipawn edge maps to logistic(1).
const (
	ScoreScale = 600.0
	MinProb    = 0.01
	MaxProb    = 0.99
)

// Evaluator scores positions with a network. It satisfies engine.Evaluator.
type Evaluator struct {
	net    *Network
	buf    []float32
	log    zerolog.Logger
	warned bool
}

// NewEvaluator wraps net and logs through its logger. The evaluator owns a
// feature buffer and must not be shared between goroutines.
func NewEvaluator(net *Network) *Evaluator {
	e := &Evaluator{net: net, buf: make([]float32, FeatureCount), log: zerolog.Nop()}
	if net != nil {
		net.mu.Lock()
		e.log = net.log
		net.mu.Unlock()
	}
	return e
}

// SetLogger sets the logger used for fallback warnings.
func (e *Evaluator) SetLogger(log zerolog.Logger) {
	e.log = log
}

// Network returns the wrapped network.
func (e *Evaluator) Network() *Network {
	return e.net
}

// Evaluate returns a White-positive centipawn score. The network predicts
// the win probability of the side to move.
func (e *Evaluator) Evaluate(pos *board.Position) int {
	if !e.net.Initialized() || e.net.InputSize() != FeatureCount {
		// Once per evaluator; this runs at every leaf.
		if !e.warned {
			e.warned = true
			e.log.Warn().Int("want", FeatureCount).Msg("network unusable for evaluation, scoring 0")
		}
		return 0
	}
	e.buf = ExtractFeatures(pos, pos.SideToMove, e.buf)
	cp := ProbabilityToScore(e.net.Predict(e.buf))
	if pos.SideToMove == board.Black {
		return -cp
	}
	return cp
}

// ProbabilityToScore inverts the logistic mapping, clamping p to
// [MinProb, MaxProb].
func ProbabilityToScore(p float32) int {
	q := math.Min(math.Max(float64(p), MinProb), MaxProb)
	return int(math.Round(ScoreScale * math.Log(q/(1-q))))
}

// ScoreToProbability maps a centipawn score to a clamped win probability.
func ScoreToProbability(cp int) float32 {
	p := 1 / (1 + math.Exp(-float64(cp)/ScoreScale))
	return float32(math.Min(math.Max(p, MinProb), MaxProb))
}

package train

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/hailam/chessnet/internal/board"
	"github.com/hailam/chessnet/internal/engine"
	"github.com/hailam/chessnet/internal/nn"
	"github.com/hailam/chessnet/internal/testutil"
)

func mustFEN(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func newNet(t *testing.T) *nn.Network {
	t.Helper()
	net, err := nn.NewChessNetwork([]int{16}, nn.ReLU, 42)
	testutil.AssertNoError(t, err)
	return net
}

func TestScoreToTarget(t *testing.T) {
	testutil.AssertEqual(t, ScoreToTarget(0), float32(0.5))
	testutil.AssertTrue(t, ScoreToTarget(300) > 0.5)
	testutil.AssertTrue(t, ScoreToTarget(-300) < 0.5)
	testutil.AssertInDelta(t, float64(ScoreToTarget(600)), 1/(1+0.36787944117), 1e-6)
	testutil.AssertEqual(t, ScoreToTarget(engine.CheckmateScore), float32(0.99))
	testutil.AssertEqual(t, ScoreToTarget(-engine.CheckmateScore), float32(0.01))
}

func TestTrainOnPosition(t *testing.T) {
	// White is a queen up.
	pos := mustFEN(t, "4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	tr := NewTrainer(newNet(t), nil, zerolog.Nop())

	first := tr.TrainOnPosition(pos, board.White, 0.05)
	var last float32
	for i := 0; i < 100; i++ {
		last = tr.TrainOnPosition(pos, board.White, 0.05)
	}
	testutil.AssertTrue(t, last < first, "loss %f should drop below %f", last, first)

	stats := tr.Stats()
	testutil.AssertEqual(t, stats.Examples, int64(101))
	testutil.AssertEqual(t, stats.HeuristicExamples, int64(101))
	testutil.AssertEqual(t, stats.LastLoss, last)

	feats := nn.ExtractFeatures(pos, board.White, nil)
	testutil.AssertTrue(t, tr.Network().Predict(feats) > 0.5, "white perspective learns a winning score")
}

func TestTrainOnPositionBlackPerspective(t *testing.T) {
	pos := mustFEN(t, "4k3/8/8/8/8/8/8/3QK3 b - - 0 1")
	tr := NewTrainer(newNet(t), nil, zerolog.Nop())
	for i := 0; i < 100; i++ {
		tr.TrainOnPosition(pos, board.Black, 0.05)
	}
	feats := nn.ExtractFeatures(pos, board.Black, nil)
	testutil.AssertTrue(t, tr.Network().Predict(feats) < 0.5, "black perspective learns a losing score")
}

func TestTrainWithSearch(t *testing.T) {
	// Ra8 mates; the distillation target saturates at 0.99.
	pos := mustFEN(t, "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1")
	eng := engine.NewEngine(1)
	tr := NewTrainer(newNet(t), eng, zerolog.Nop())

	before := tr.Network().Predict(nn.ExtractFeatures(pos, board.White, nil))
	for i := 0; i < 30; i++ {
		_, err := tr.TrainWithSearch(context.Background(), pos, board.White, 0.05)
		testutil.AssertNoError(t, err)
	}
	after := tr.Network().Predict(nn.ExtractFeatures(pos, board.White, nil))
	testutil.AssertTrue(t, after > before, "prediction moves towards the mate score: %f -> %f", before, after)
	testutil.AssertEqual(t, tr.Stats().SearchExamples, int64(30))
	testutil.AssertEqual(t, pos.ToFEN(), "6k1/5ppp/8/8/8/8/5PPP/R5K1 w - - 0 1", "position untouched")

	// A mated position still trains, from the terminal score.
	mated := mustFEN(t, "R5k1/5ppp/8/8/8/8/5PPP/6K1 b - - 1 1")
	loss, err := tr.TrainWithSearch(context.Background(), mated, board.Black, 0.05)
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, loss >= 0)

	noEngine := NewTrainer(newNet(t), nil, zerolog.Nop())
	_, err = noEngine.TrainWithSearch(context.Background(), pos, board.White, 0.05)
	testutil.AssertError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.TrainWithSearch(ctx, pos, board.White, 0.05)
	testutil.AssertErrorIs(t, err, context.Canceled)
}

func TestTrainOnBatch(t *testing.T) {
	net, err := nn.NewNetwork([]int{2, 3, 1}, nn.Tanh, 1)
	testutil.AssertNoError(t, err)
	tr := NewTrainer(net, nil, zerolog.Nop())

	avg, err := tr.TrainOnBatch(nil, nil, 0.1)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, avg, float32(0))

	_, err = tr.TrainOnBatch([][]float32{{1, 0}}, []float32{0.5, 0.5}, 0.1)
	testutil.AssertErrorIs(t, err, nn.ErrDimensionMismatch)
	testutil.AssertEqual(t, tr.Stats().Examples, int64(0))

	inputs := [][]float32{{1, 0}, {0, 1}, {1, 1}}
	targets := []float32{0.9, 0.1, 0.5}
	first, err := tr.TrainOnBatch(inputs, targets, 0.5)
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, first > 0)

	var last float32
	for i := 0; i < 300; i++ {
		last, _ = tr.TrainOnBatch(inputs, targets, 0.5)
	}
	testutil.AssertTrue(t, last < first, "batch loss %f should drop below %f", last, first)

	stats := tr.Stats()
	testutil.AssertEqual(t, stats.Examples, int64(3*301))
	testutil.AssertEqual(t, stats.Batches, int64(301))
	testutil.AssertTrue(t, stats.AvgLoss > 0)
}

func TestTrainEpoch(t *testing.T) {
	fens := []string{
		"4k3/8/8/8/8/8/8/3QK3 w - - 0 1",
		"3qk3/8/8/8/8/8/8/4K3 w - - 0 1",
		"4k3/8/8/8/8/8/8/R3K3 b - - 0 1",
	}
	samples, err := BuildSamples(context.Background(), fens, func() (Labeler, error) { return MaterialLabeler{}, nil }, 2)
	testutil.AssertNoError(t, err)

	tr := NewTrainer(newNet(t), nil, zerolog.Nop())
	first, err := tr.TrainEpoch(context.Background(), samples, 2, 0.05, 1)
	testutil.AssertNoError(t, err)
	var last float32
	for epoch := 0; epoch < 50; epoch++ {
		last, err = tr.TrainEpoch(context.Background(), samples, 2, 0.05, uint64(epoch))
		testutil.AssertNoError(t, err)
	}
	testutil.AssertTrue(t, last < first, "epoch loss %f should drop below %f", last, first)

	avg, err := tr.TrainEpoch(context.Background(), nil, 2, 0.05, 1)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, avg, float32(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tr.TrainEpoch(ctx, samples, 2, 0.05, 1)
	testutil.AssertErrorIs(t, err, context.Canceled)
}

package engine

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hailam/chessnet/internal/board"
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

func TestSearchBasic(t *testing.T) {
	pos := board.NewPosition()
	eng := NewEngine(16)

	res, err := eng.IterativeDeepening(context.Background(), pos, 3)
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, res.Found, "search found a move")
	testutil.AssertEqual(t, res.Depth, 3)
	testutil.AssertTrue(t, res.Nodes > 0, "nodes counted")

	_, err = board.ParseMove(res.Move.String(), pos)
	testutil.AssertNoError(t, err, "best move %s is legal", res.Move)
	testutil.AssertEqual(t, pos.ToFEN(), board.StartFEN, "search does not mutate the caller's position")
}

func TestMateInOne(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		move  string
		score int
	}{
		{"white back rank", "6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "a1a8", CheckmateScore - 1},
		{"black back rank", "r5k1/8/8/8/8/8/5PPP/6K1 b - - 0 1", "a8a1", -CheckmateScore + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := NewEngine(4)
			res, err := eng.IterativeDeepening(context.Background(), mustFEN(t, tt.fen), 6)
			testutil.AssertNoError(t, err)
			testutil.AssertEqual(t, res.Move.String(), tt.move)
			testutil.AssertEqual(t, res.Score, tt.score)
			testutil.AssertEqual(t, res.Depth, 1, "deepening stops once mate is found")
		})
	}
}

func TestWinsHangingQueen(t *testing.T) {
	eng := NewEngine(4)
	res, err := eng.BestMove(context.Background(), mustFEN(t, "4k3/8/8/3q4/4P3/8/8/4K3 w - - 0 1"), 2)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, res.Move.String(), "e4d5")
	testutil.AssertEqual(t, res.Score, 100)
}

func TestNoLegalMoves(t *testing.T) {
	eng := NewEngine(4)

	res, err := eng.BestMove(context.Background(), mustFEN(t, "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1"), 3)
	testutil.AssertErrorIs(t, err, ErrNoLegalMoves)
	testutil.AssertFalse(t, res.Found)
	testutil.AssertEqual(t, res.Score, StalemateScore)

	res, err = eng.IterativeDeepening(context.Background(), mustFEN(t, "R6k/6pp/8/8/8/8/8/K7 b - - 0 1"), 3)
	testutil.AssertErrorIs(t, err, ErrNoLegalMoves)
	testutil.AssertFalse(t, res.Found)
	testutil.AssertEqual(t, res.Score, CheckmateScore)
}

func TestSetEvaluator(t *testing.T) {
	eng := NewEngine(1)
	pos := board.NewPosition()
	testutil.AssertEqual(t, eng.Evaluate(pos), 0)

	eng.SetEvaluator(EvaluatorFunc(func(*board.Position) int { return 42 }))
	testutil.AssertEqual(t, eng.Evaluate(pos), 42)

	res, err := eng.BestMove(context.Background(), pos, 2)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, res.Score, 42)

	eng.SetEvaluator(nil)
	testutil.AssertEqual(t, eng.Evaluate(pos), 0)
}

func TestOnInfoPerIteration(t *testing.T) {
	eng := NewEngine(4)
	var depths []int
	eng.OnInfo = func(info SearchInfo) {
		depths = append(depths, info.Depth)
	}
	_, err := eng.IterativeDeepening(context.Background(), board.NewPosition(), 3)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, depths, []int{1, 2, 3})
}

func TestTaskCancel(t *testing.T) {
	eng := NewEngine(16)
	task := eng.Start(board.NewPosition(), SearchLimits{Infinite: true})

	time.Sleep(50 * time.Millisecond)
	task.Cancel()

	select {
	case <-task.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("task did not stop after Cancel")
	}

	res, err := task.Wait()
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, res.Found, "a move is returned after cancellation")
}

func TestSetLoggerDuringTask(t *testing.T) {
	eng := NewEngine(16)
	task := eng.Start(board.NewPosition(), SearchLimits{Infinite: true})
	time.Sleep(20 * time.Millisecond)

	var buf bytes.Buffer
	set := make(chan struct{})
	go func() {
		eng.SetLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
		close(set)
	}()

	task.Cancel()
	_, err := task.Wait()
	testutil.AssertNoError(t, err)
	<-set

	_, err = eng.IterativeDeepening(context.Background(), board.NewPosition(), 2)
	testutil.AssertNoError(t, err)
	testutil.AssertContains(t, buf.String(), "iteration complete")
}

func TestSearchWithMoveTime(t *testing.T) {
	eng := NewEngine(16)
	start := time.Now()
	res, err := eng.SearchWithLimits(context.Background(), board.NewPosition(), SearchLimits{MoveTime: 100 * time.Millisecond})
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, res.Found)
	testutil.AssertTrue(t, time.Since(start) < 5*time.Second, "move time respected")
}

func TestCancelledContextBeforeSearch(t *testing.T) {
	eng := NewEngine(4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := eng.IterativeDeepening(ctx, board.NewPosition(), 20)
	testutil.AssertErrorIs(t, err, context.Canceled)
	testutil.AssertFalse(t, res.Found)

	_, err = eng.BestMove(ctx, board.NewPosition(), 3)
	testutil.AssertErrorIs(t, err, context.Canceled)

	// With limits a legal move is still produced.
	res, err = eng.SearchWithLimits(ctx, board.NewPosition(), SearchLimits{Depth: 3})
	testutil.AssertNoError(t, err)
	testutil.AssertTrue(t, res.Found)
}

func TestScoreToString(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{0, "0.00"},
		{150, "1.50"},
		{-5, "-0.05"},
		{CheckmateScore - 1, "Mate in 1"},
		{CheckmateScore - 3, "Mate in 2"},
		{-CheckmateScore + 2, "Mated in 1"},
	}
	for _, tt := range tests {
		testutil.AssertEqual(t, ScoreToString(tt.score), tt.want, "score %d", tt.score)
	}
}

func TestAllocateTime(t *testing.T) {
	c := ClockLimits{
		Time:      [2]time.Duration{10 * time.Second, 10 * time.Second},
		Inc:       [2]time.Duration{time.Second, 0},
		MovesToGo: 10,
	}
	testutil.AssertEqual(t, AllocateTime(c, board.White, 20), 1900*time.Millisecond)
	testutil.AssertEqual(t, AllocateTime(c, board.Black, 20), time.Second)
	testutil.AssertEqual(t, AllocateTime(ClockLimits{}, board.White, 0), time.Duration(0))
	testutil.AssertTrue(t, ClockLimits{}.IsZero())
}

func TestEnginePerft(t *testing.T) {
	eng := NewEngine(1)
	testutil.AssertEqual(t, eng.Perft(board.NewPosition(), 3), uint64(8902))
}

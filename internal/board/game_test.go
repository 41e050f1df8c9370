package board_test

import (
	"slices"
	"testing"

	"github.com/hailam/chessnet/internal/board"
	"github.com/hailam/chessnet/internal/testutil"
)

func TestAttemptMoveDoublePush(t *testing.T) {
	g := board.NewGame()

	res := g.AttemptMove(board.E2, board.E4)
	testutil.AssertEqual(t, res, board.MoveSuccess)
	testutil.AssertEqual(t, g.FEN(), "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	testutil.AssertEqual(t, g.SideToMove(), board.Black)
	testutil.AssertEqual(t, g.Position().EnPassant, board.E3)
	testutil.AssertEqual(t, g.History(), []string{"e2e4"})
}

func TestAttemptMoveFailures(t *testing.T) {
	tests := []struct {
		name     string
		from, to board.Square
	}{
		{"empty square", board.E4, board.E5},
		{"opponent piece", board.E7, board.E5},
		{"illegal target", board.E2, board.E5},
		{"off board", board.NoSquare, board.E4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := board.NewGame()
			testutil.AssertEqual(t, g.AttemptMove(tt.from, tt.to), board.MoveFailed)
			testutil.AssertEqual(t, g.FEN(), board.StartFEN)
			testutil.AssertEqual(t, len(g.History()), 0)
		})
	}
}

func TestPromotionIsTwoPhase(t *testing.T) {
	const start = "8/4P3/8/8/8/8/k7/4K3 w - - 0 1"
	g := board.NewGame()
	g.Setup(start)

	testutil.AssertEqual(t, g.AttemptMove(board.E7, board.E8), board.MovePromotionPending)
	testutil.AssertEqual(t, g.FEN(), start, "nothing is played while pending")

	from, to, ok := g.PendingPromotion()
	testutil.AssertTrue(t, ok)
	testutil.AssertEqual(t, from, board.E7)
	testutil.AssertEqual(t, to, board.E8)

	testutil.AssertEqual(t, g.AttemptMove(board.E1, board.D1), board.MoveFailed, "moves are refused while pending")
	testutil.AssertErrorIs(t, g.ApplyUCI("e1d1"), board.ErrPromotionPending)

	g.CommitPromotion(board.Knight)
	testutil.AssertEqual(t, g.FEN(), "4N3/8/8/8/8/8/k7/4K3 b - - 0 1")
	testutil.AssertEqual(t, g.History(), []string{"e7e8n"})
	_, _, ok = g.PendingPromotion()
	testutil.AssertFalse(t, ok)

	g.RevertMove()
	testutil.AssertEqual(t, g.FEN(), start)
	testutil.AssertNoError(t, g.Position().Validate())
}

func TestCommitPromotionDefaultsToQueen(t *testing.T) {
	g := board.NewGame()
	g.Setup("8/4P3/8/8/8/8/k7/4K3 w - - 0 1")

	testutil.AssertEqual(t, g.AttemptMove(board.E7, board.E8), board.MovePromotionPending)
	g.CommitPromotionChar('x')
	testutil.AssertEqual(t, g.History(), []string{"e7e8q"})
	testutil.AssertEqual(t, g.Position().PieceAt(board.E8), board.WhiteQueen)
}

func TestCommitPromotionWithoutPendingIsNoop(t *testing.T) {
	g := board.NewGame()
	g.CommitPromotion(board.Queen)
	testutil.AssertEqual(t, g.FEN(), board.StartFEN)
	testutil.AssertEqual(t, len(g.History()), 0)
}

func TestRevertMove(t *testing.T) {
	g := board.NewGame()
	g.RevertMove()
	testutil.AssertEqual(t, g.FEN(), board.StartFEN, "revert on empty history")

	for _, mv := range []string{"e2e4", "d7d5", "e4d5", "d8d5", "b1c3"} {
		testutil.AssertNoError(t, g.ApplyUCI(mv), mv)
	}
	for range 5 {
		g.RevertMove()
		testutil.AssertNoError(t, g.Position().Validate())
	}
	testutil.AssertEqual(t, g.FEN(), board.StartFEN)
}

func TestApplyUCIErrors(t *testing.T) {
	g := board.NewGame()
	testutil.AssertErrorIs(t, g.ApplyUCI("e2e5"), board.ErrIllegalMove)
	testutil.AssertErrorIs(t, g.ApplyUCI("e7e5"), board.ErrIllegalMove)
	testutil.AssertErrorIs(t, g.ApplyUCI("zz"), board.ErrIllegalMove)
	testutil.AssertEqual(t, g.FEN(), board.StartFEN)
}

func TestLegalMovesFrom(t *testing.T) {
	g := board.NewGame()

	targets := g.LegalMovesFrom(board.E2)
	slices.Sort(targets)
	testutil.AssertEqual(t, targets, []board.Square{board.E3, board.E4})

	targets = g.LegalMovesFrom(board.G1)
	slices.Sort(targets)
	testutil.AssertEqual(t, targets, []board.Square{board.F3, board.H3})

	testutil.AssertEqual(t, len(g.LegalMovesFrom(board.E4)), 0)
	testutil.AssertEqual(t, len(g.AllLegalMoves(board.White)), 20)
	testutil.AssertEqual(t, len(g.AllLegalMoves(board.Black)), 20)
}

func TestPromotionTargetsAreDistinct(t *testing.T) {
	g := board.NewGame()
	g.Setup("3r4/4P3/8/8/8/8/k7/4K3 w - - 0 1")
	targets := g.LegalMovesFrom(board.E7)
	slices.Sort(targets)
	testutil.AssertEqual(t, targets, []board.Square{board.D8, board.E8})
}

func TestSANHistory(t *testing.T) {
	g := board.NewGame()
	for _, mv := range []string{"e2e4", "e7e5", "f1c4", "b8c6", "d1h5", "g8f6", "h5f7"} {
		testutil.AssertNoError(t, g.ApplyUCI(mv), mv)
	}
	testutil.AssertEqual(t, g.SANHistory(), []string{"e4", "e5", "Bc4", "Nc6", "Qh5", "Nf6", "Qxf7#"})
	testutil.AssertTrue(t, g.IsCheckmate(board.Black))
	testutil.AssertTrue(t, g.IsGameOver())
	testutil.AssertEqual(t, g.Result(), board.WhiteWins)
}

func TestSANDisambiguationAndCastling(t *testing.T) {
	pos, err := board.ParseFEN("7k/8/8/8/8/8/8/R4RK1 w - - 0 1")
	testutil.AssertNoError(t, err)
	m, err := board.ParseMove("a1c1", pos)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, m.ToSAN(pos), "Rac1")

	pos, err = board.ParseFEN("r3k3/8/8/8/8/8/8/4K2R w Kq - 0 1")
	testutil.AssertNoError(t, err)
	m, err = board.ParseMove("e1g1", pos)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, m.ToSAN(pos), "O-O")
}

func TestGameStatus(t *testing.T) {
	g := board.NewGame()
	g.Setup("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	testutil.AssertTrue(t, g.IsStalemate(board.Black))
	testutil.AssertFalse(t, g.IsCheck(board.Black))
	testutil.AssertTrue(t, g.IsGameOver())
	testutil.AssertEqual(t, g.Result(), board.Draw)

	g.Setup(board.StartFEN)
	testutil.AssertFalse(t, g.IsGameOver())
	testutil.AssertEqual(t, g.Result(), board.Ongoing)
	testutil.AssertEqual(t, g.Perft(2), uint64(400))
	testutil.AssertEqual(t, len(g.Divide(1)), 20)
}

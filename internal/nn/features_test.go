package nn

import (
	"testing"

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

func countSet(f []float32) int {
	n := 0
	for _, v := range f {
		if v != 0 {
			n++
		}
	}
	return n
}

func TestExtractFeaturesStartPosition(t *testing.T) {
	pos := board.NewPosition()
	f := ExtractFeatures(pos, board.White, nil)

	testutil.AssertEqual(t, len(f), FeatureCount)
	testutil.AssertEqual(t, countSet(f), 32+4+1, "pieces, castling and side to move")
	testutil.AssertEqual(t, f[int(board.Pawn)*64+int(board.E2)], float32(1))
	testutil.AssertEqual(t, f[int(board.King)*64+int(board.E1)], float32(1))
	testutil.AssertEqual(t, f[(6+int(board.King))*64+int(board.E8)], float32(1))
	testutil.AssertEqual(t, f[(6+int(board.Queen))*64+int(board.D8)], float32(1))
	testutil.AssertEqual(t, f[SideToMoveOffset], float32(1))
}

func TestExtractFeaturesBlackMirrors(t *testing.T) {
	pos := board.NewPosition()
	white := ExtractFeatures(pos, board.White, nil)
	black := ExtractFeatures(pos, board.Black, nil)

	// The start position is symmetric: only the side-to-move bit differs.
	testutil.AssertEqual(t, black[SideToMoveOffset], float32(0))
	black[SideToMoveOffset] = 1
	testutil.AssertEqual(t, black, white)

	// After 1.e4 Black sees the white pawn as an enemy pawn on e5.
	pos = mustFEN(t, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	f := ExtractFeatures(pos, board.Black, nil)
	testutil.AssertEqual(t, f[(6+int(board.Pawn))*64+int(board.E5)], float32(1))
	testutil.AssertEqual(t, f[(6+int(board.Pawn))*64+int(board.E7)], float32(0))
	testutil.AssertEqual(t, f[int(board.Pawn)*64+int(board.E2)], float32(1), "own e7 pawn mirrored to e2")
	testutil.AssertEqual(t, f[SideToMoveOffset], float32(1))
	testutil.AssertEqual(t, f[EnPassantOffset+4], float32(1), "en passant on the e-file")
}

func TestExtractFeaturesCastlingIsRelative(t *testing.T) {
	pos := mustFEN(t, "r3k2r/8/8/8/8/8/8/R3K2R w Kq - 0 1")

	w := ExtractFeatures(pos, board.White, nil)
	testutil.AssertEqual(t, w[CastlingOffset:CastlingOffset+4], []float32{1, 0, 0, 1})

	b := ExtractFeatures(pos, board.Black, nil)
	testutil.AssertEqual(t, b[CastlingOffset:CastlingOffset+4], []float32{0, 1, 1, 0})
	testutil.AssertEqual(t, b[SideToMoveOffset], float32(0))
}

func TestExtractFeaturesReusesBuffer(t *testing.T) {
	buf := make([]float32, FeatureCount+10)
	for i := range buf {
		buf[i] = 7
	}
	pos := mustFEN(t, "4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	f := ExtractFeatures(pos, board.White, buf)

	testutil.AssertEqual(t, len(f), FeatureCount)
	testutil.AssertTrue(t, &f[0] == &buf[0], "buffer reused")
	testutil.AssertEqual(t, countSet(f), 3, "two kings and side to move")
}

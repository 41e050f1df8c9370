package board

import "testing"

// perftFast counts leaves using the in-place legality probe instead of
// make/unmake, so both legality paths are checked against the same numbers.
func perftFast(p *Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	var moves []Move
	for _, sq := range p.PieceSquares(p.SideToMove) {
		moves = append(moves, p.LegalMovesFrom(sq)...)
	}
	if depth == 1 {
		return uint64(len(moves))
	}

	var nodes uint64
	for _, m := range moves {
		undo := p.MakeMove(m)
		nodes += perftFast(p, depth-1)
		p.UnmakeMove(m, undo)
	}
	return nodes
}

type perftCase struct {
	depth    int
	expected uint64
}

func runPerft(t *testing.T, fen string, cases []perftCase) {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("Failed to parse FEN: %v", err)
	}
	before := pos.ToFEN()

	for _, tc := range cases {
		if got := pos.Perft(tc.depth); got != tc.expected {
			t.Errorf("Perft(%d) = %d, want %d", tc.depth, got, tc.expected)
		}
		if got := perftFast(pos, tc.depth); got != tc.expected {
			t.Errorf("perftFast(%d) = %d, want %d", tc.depth, got, tc.expected)
		}
	}

	if after := pos.ToFEN(); after != before {
		t.Errorf("position changed by perft: %s, want %s", after, before)
	}
	if err := pos.Validate(); err != nil {
		t.Errorf("Validate after perft: %v", err)
	}
}

// TestPerftStartingPosition tests move generation from the starting position.
func TestPerftStartingPosition(t *testing.T) {
	runPerft(t, StartFEN, []perftCase{
		{1, 20},
		{2, 400},
		{3, 8902},
		{4, 197281},
		// {5, 4865609},
	})
}

// TestPerftKiwipete covers castling, pins and promotions in one position.
func TestPerftKiwipete(t *testing.T) {
	runPerft(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", []perftCase{
		{1, 48},
		{2, 2039},
		{3, 97862},
	})
}

// TestPerftPosition3 tests en passant edge cases.
func TestPerftPosition3(t *testing.T) {
	runPerft(t, "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", []perftCase{
		{1, 14},
		{2, 191},
		{3, 2812},
		{4, 43238},
	})
}

// TestPerftEnPassantPin: exd3 would expose the black king on a4 to the rook
// on h4 along the fourth rank.
func TestPerftEnPassantPin(t *testing.T) {
	pos, err := ParseFEN("8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")
	if err != nil {
		t.Fatalf("Failed to parse FEN: %v", err)
	}

	moves := pos.GenerateLegalMoves()
	for i := 0; i < moves.Len(); i++ {
		if m := moves.Get(i); m.IsEnPassant() {
			t.Errorf("En passant move %v should be illegal (horizontal pin)", m)
		}
	}
	for _, m := range pos.LegalMovesFrom(E4) {
		if m.IsEnPassant() {
			t.Errorf("fast path allowed pinned en passant %v", m)
		}
	}

	runPerft(t, "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", []perftCase{
		{1, 6},
		{2, 94},
	})
}

func TestDivide(t *testing.T) {
	pos := NewPosition()
	div := pos.Divide(2)
	if len(div) != 20 {
		t.Fatalf("Divide(2) has %d root moves, want 20", len(div))
	}

	var total uint64
	for mv, n := range div {
		if n != 20 {
			t.Errorf("Divide(2)[%s] = %d, want 20", mv, n)
		}
		total += n
	}
	if total != 400 {
		t.Errorf("Divide(2) total = %d, want 400", total)
	}
	if got := pos.Divide(0); len(got) != 0 {
		t.Errorf("Divide(0) = %v, want empty", got)
	}
}

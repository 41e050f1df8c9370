package board

import (
	"testing"
)

func TestCheckmate(t *testing.T) {
	// Back rank mate: Ra8 against Kh8 boxed in by its own pawns.
	pos, err := ParseFEN("R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	if !pos.InCheck(Black) {
		t.Error("Expected Black to be in check")
	}
	if pos.HasLegalMoves() {
		t.Errorf("Expected no legal moves, got %d", pos.GenerateLegalMoves().Len())
	}
	if !pos.IsCheckmate(Black) {
		t.Error("Expected checkmate but got false")
	}
	if pos.IsStalemate(Black) {
		t.Error("Checkmate must not be reported as stalemate")
	}
	if got := pos.Result(); got != WhiteWins {
		t.Errorf("Result() = %v, want %v", got, WhiteWins)
	}
}

func TestNotCheckmate(t *testing.T) {
	// The king can take the unprotected rook on g8.
	pos, err := ParseFEN("6Rk/8/8/8/8/8/8/K7 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	if !pos.InCheck(Black) {
		t.Error("Expected Black to be in check")
	}
	if pos.IsCheckmate(Black) {
		t.Error("Expected NOT checkmate (king can capture rook)")
	}
	if got := pos.Result(); got != Ongoing {
		t.Errorf("Result() = %v, want %v", got, Ongoing)
	}
}

func TestStalemate(t *testing.T) {
	pos, err := ParseFEN("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}

	if !pos.IsStalemate(Black) {
		t.Error("Expected stalemate")
	}
	if pos.IsCheckmate(Black) {
		t.Error("Stalemate must not be reported as checkmate")
	}
	if !pos.IsGameOver() {
		t.Error("Expected game over")
	}
	if got := pos.Result(); got != Draw {
		t.Errorf("Result() = %v, want %v", got, Draw)
	}
}

func TestKingsOnlyIsNotStalemate(t *testing.T) {
	pos, err := ParseFEN("8/8/8/8/8/8/4K2k/8 w - - 0 1")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}
	if pos.IsStalemate(White) || pos.IsStalemate(Black) {
		t.Error("bare kings in the open both have moves")
	}
}

func TestFiftyMoveRule(t *testing.T) {
	pos, err := ParseFEN("4k3/8/8/8/8/8/8/R3K3 w - - 100 80")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}
	if !pos.IsGameOver() {
		t.Error("Expected game over at half-move clock 100")
	}
	if got := pos.Result(); got != Draw {
		t.Errorf("Result() = %v, want %v", got, Draw)
	}
}

func TestWhiteCheckmated(t *testing.T) {
	// Fool's mate.
	pos, err := ParseFEN("rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	if err != nil {
		t.Fatal("Error parsing FEN:", err)
	}
	if !pos.IsCheckmate(White) {
		t.Error("Expected White to be checkmated")
	}
	if got := pos.Result(); got != BlackWins {
		t.Errorf("Result() = %v, want %v", got, BlackWins)
	}
}

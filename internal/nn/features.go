package nn

import "github.com/hailam/chessnet/internal/board"

// Input layout. Piece planes are ordered P,N,B,R,Q,K for the perspective
// side followed by the same for the opponent, 64 squares each.
const (
	PieceFeatures    = 12 * 64
	CastlingOffset   = PieceFeatures
	SideToMoveOffset = CastlingOffset + 4
	EnPassantOffset  = SideToMoveOffset + 1
	FeatureCount     = EnPassantOffset + 8 // 781
)

// ExtractFeatures encodes pos as seen by perspective into dst, allocating
// when dst is too small, and returns the filled slice. For Black the board
// is mirrored vertically and colors are swapped, so the network always sees
// its own pieces moving up the board.
func ExtractFeatures(pos *board.Position, perspective board.Color, dst []float32) []float32 {
	if cap(dst) < FeatureCount {
		dst = make([]float32, FeatureCount)
	}
	dst = dst[:FeatureCount]
	clear(dst)

	for _, c := range [2]board.Color{board.White, board.Black} {
		side := 0
		if c != perspective {
			side = 6
		}
		for _, sq := range pos.PieceSquares(c) {
			pt := pos.Board[sq].Type()
			if perspective == board.Black {
				sq = sq.Mirror()
			}
			dst[(side+int(pt))*64+int(sq)] = 1
		}
	}

	cr := pos.CastlingRights
	them := perspective.Other()
	if cr.CanCastle(perspective, true) {
		dst[CastlingOffset] = 1
	}
	if cr.CanCastle(perspective, false) {
		dst[CastlingOffset+1] = 1
	}
	if cr.CanCastle(them, true) {
		dst[CastlingOffset+2] = 1
	}
	if cr.CanCastle(them, false) {
		dst[CastlingOffset+3] = 1
	}

	if pos.SideToMove == perspective {
		dst[SideToMoveOffset] = 1
	}
	if pos.EnPassant != board.NoSquare {
		dst[EnPassantOffset+pos.EnPassant.File()] = 1
	}
	return dst
}

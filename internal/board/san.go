package board

import (
	"strings"
)

// ToSAN renders a legal move of pos in Standard Algebraic Notation.
func (m Move) ToSAN(pos *Position) string {
	if m.IsNull() {
		return "-"
	}

	piece := pos.Board[m.From]
	if piece == NoPiece {
		return m.String()
	}

	var sb strings.Builder

	if m.IsCastling() {
		if m.To > m.From {
			sb.WriteString("O-O")
		} else {
			sb.WriteString("O-O-O")
		}
	} else {
		pt := piece.Type()
		if pt != Pawn {
			sb.WriteByte("PNBRQK"[pt])
			sb.WriteString(disambiguation(pos, m, piece))
		}

		if m.IsCapture() {
			if pt == Pawn {
				sb.WriteByte('a' + byte(m.From.File()))
			}
			sb.WriteByte('x')
		}

		sb.WriteString(m.To.String())

		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte("PNBRQK"[m.Promotion])
		}
	}

	after := pos.Copy()
	after.MakeMove(m)
	if after.IsCheckmate(after.SideToMove) {
		sb.WriteByte('#')
	} else if after.SideInCheck() {
		sb.WriteByte('+')
	}

	return sb.String()
}

// disambiguation returns the origin file, rank or square needed when another
// piece of the same kind can reach the same destination.
func disambiguation(pos *Position, m Move, piece Piece) string {
	var candidates []Square
	for _, sq := range pos.PieceSquares(piece.Color()) {
		if sq == m.From || pos.Board[sq] != piece {
			continue
		}
		for _, other := range pos.LegalMovesFrom(sq) {
			if other.To == m.To {
				candidates = append(candidates, sq)
				break
			}
		}
	}

	if len(candidates) == 0 {
		return ""
	}

	sameFile, sameRank := false, false
	for _, sq := range candidates {
		if sq.File() == m.From.File() {
			sameFile = true
		}
		if sq.Rank() == m.From.Rank() {
			sameRank = true
		}
	}

	if !sameFile {
		return string(rune('a' + m.From.File()))
	}
	if !sameRank {
		return string(rune('1' + m.From.Rank()))
	}
	return m.From.String()
}

// MovesToSAN renders a sequence of moves played from pos. pos is not modified.
func MovesToSAN(pos *Position, moves []Move) []string {
	p := pos.Copy()
	out := make([]string, 0, len(moves))
	for _, m := range moves {
		out = append(out, m.ToSAN(p))
		p.MakeMove(m)
	}
	return out
}

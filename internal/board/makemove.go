package board

// rookHomeRights maps each corner square to the castling right that dies
// when a piece leaves or arrives there.
var rookHomeRights = [64]CastlingRights{
	A1: WhiteQueenSideCastle,
	H1: WhiteKingSideCastle,
	A8: BlackQueenSideCastle,
	H8: BlackKingSideCastle,
}

// castlingRookSquares returns where the rook starts and lands for a castling
// king move.
func castlingRookSquares(from, to Square) (rookFrom, rookTo Square) {
	if to > from {
		return from + 3, from + 1
	}
	return from - 4, from - 1
}

// MakeMove plays a pseudo-legal move and returns the state needed to undo it.
// The hash is updated incrementally.
func (p *Position) MakeMove(m Move) Undo {
	undo := Undo{
		EnPassant:      p.EnPassant,
		CastlingRights: p.CastlingRights,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
	}

	piece := p.Board[m.From]
	us := piece.Color()
	moverType := piece.Type()

	p.hashEnPassant(p.EnPassant)
	p.EnPassant = NoSquare

	captured := false
	if m.IsEnPassant() {
		victimSq := enPassantVictim(m.To, us)
		p.hashPiece(p.Board[victimSq], victimSq)
		p.removePiece(victimSq)
		captured = true
	} else if target := p.Board[m.To]; target != NoPiece {
		p.hashPiece(target, m.To)
		p.removePiece(m.To)
		captured = true
	}

	if m.IsCastling() {
		rookFrom, rookTo := castlingRookSquares(m.From, m.To)
		rook := p.Board[rookFrom]
		p.hashPiece(rook, rookFrom)
		p.movePiece(rookFrom, rookTo)
		p.hashPiece(rook, rookTo)
	}

	p.hashPiece(piece, m.From)
	p.movePiece(m.From, m.To)
	if m.IsPromotion() {
		piece = NewPiece(m.Promotion, us)
		p.Board[m.To] = piece
	}
	p.hashPiece(piece, m.To)

	if m.Flags&FlagDoublePush != 0 {
		p.EnPassant = (m.From + m.To) / 2
		p.hashEnPassant(p.EnPassant)
	}

	if moverType == King {
		if us == White {
			p.revokeCastling(WhiteKingSideCastle | WhiteQueenSideCastle)
		} else {
			p.revokeCastling(BlackKingSideCastle | BlackQueenSideCastle)
		}
	}
	p.revokeCastling(rookHomeRights[m.From] | rookHomeRights[m.To])

	if moverType == Pawn || captured {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}

	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = us.Other()
	p.Hash ^= zobristSideToMove

	return undo
}

// UnmakeMove reverts a move made by MakeMove with its Undo.
func (p *Position) UnmakeMove(m Move, undo Undo) {
	p.SideToMove = p.SideToMove.Other()
	us := p.SideToMove

	if us == Black {
		p.FullMoveNumber--
	}

	if m.IsPromotion() {
		p.Board[m.To] = NewPiece(Pawn, us)
	}
	p.movePiece(m.To, m.From)

	if m.IsCastling() {
		rookFrom, rookTo := castlingRookSquares(m.From, m.To)
		p.movePiece(rookTo, rookFrom)
	}

	if m.IsEnPassant() {
		p.addPiece(NewPiece(Pawn, us.Other()), enPassantVictim(m.To, us))
	} else if m.Captured != NoPiece {
		p.addPiece(m.Captured, m.To)
	}

	p.EnPassant = undo.EnPassant
	p.CastlingRights = undo.CastlingRights
	p.HalfMoveClock = undo.HalfMoveClock
	p.Hash = undo.Hash
}

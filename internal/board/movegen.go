package board

// GeneratePseudoLegal appends every pseudo-legal move of the side to move.
// Moves may leave the mover's king attacked.
func (p *Position) GeneratePseudoLegal(ml *MoveList) {
	for _, from := range p.PieceSquares(p.SideToMove) {
		p.generatePieceMoves(from, ml)
	}
}

// GenerateLegalMoves returns all legal moves of the side to move.
func (p *Position) GenerateLegalMoves() *MoveList {
	pseudo := NewMoveList()
	p.GeneratePseudoLegal(pseudo)

	us := p.SideToMove
	legal := NewMoveList()
	for i := 0; i < pseudo.Len(); i++ {
		m := pseudo.Get(i)
		undo := p.MakeMove(m)
		if !p.InCheck(us) {
			legal.Add(m)
		}
		p.UnmakeMove(m, undo)
	}
	return legal
}

// LegalMovesFrom returns the legal moves of the piece on sq. The piece may
// belong to either side; pawn double steps and castling are judged against
// the current board.
func (p *Position) LegalMovesFrom(sq Square) []Move {
	if sq >= NoSquare || p.Board[sq] == NoPiece {
		return nil
	}
	ml := NewMoveList()
	p.generatePieceMoves(sq, ml)

	var moves []Move
	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if !p.WouldLeaveKingInCheck(m) {
			moves = append(moves, m)
		}
	}
	return moves
}

// HasLegalMoves reports whether the side to move has any legal move.
func (p *Position) HasLegalMoves() bool {
	return p.hasLegalMoves(p.SideToMove)
}

func (p *Position) hasLegalMoves(c Color) bool {
	ml := NewMoveList()
	for _, from := range p.PieceSquares(c) {
		ml.Clear()
		p.generatePieceMoves(from, ml)
		for i := 0; i < ml.Len(); i++ {
			if !p.WouldLeaveKingInCheck(ml.Get(i)) {
				return true
			}
		}
	}
	return false
}

// WouldLeaveKingInCheck probes a move by swapping squares in place, checking
// the mover's king and restoring the board. Piece lists and hash are not
// touched.
func (p *Position) WouldLeaveKingInCheck(m Move) bool {
	mover := p.Board[m.From]
	us := mover.Color()

	savedTo := p.Board[m.To]
	p.Board[m.To] = mover
	p.Board[m.From] = NoPiece

	epSq := NoSquare
	var epPawn Piece
	if m.IsEnPassant() {
		epSq = enPassantVictim(m.To, us)
		epPawn = p.Board[epSq]
		p.Board[epSq] = NoPiece
	}

	ksq := p.KingSquare[us]
	if mover.Type() == King {
		ksq = m.To
	}
	attacked := ksq != NoSquare && p.IsSquareAttacked(ksq, us.Other())

	if epSq != NoSquare {
		p.Board[epSq] = epPawn
	}
	p.Board[m.From] = mover
	p.Board[m.To] = savedTo

	return attacked
}

// enPassantVictim returns the square of the pawn captured en passant.
func enPassantVictim(to Square, us Color) Square {
	if us == White {
		return to - 8
	}
	return to + 8
}

func (p *Position) generatePieceMoves(from Square, ml *MoveList) {
	switch p.Board[from].Type() {
	case Pawn:
		p.generatePawnMoves(from, ml)
	case Knight:
		p.generateLeaperMoves(from, &knightTargets[from], knightCount[from], ml)
	case Bishop:
		p.generateSliderMoves(from, NorthEast, SouthWest, ml)
	case Rook:
		p.generateSliderMoves(from, North, West, ml)
	case Queen:
		p.generateSliderMoves(from, North, SouthWest, ml)
	case King:
		p.generateLeaperMoves(from, &kingTargets[from], kingCount[from], ml)
		p.generateCastlingMoves(from, ml)
	}
}

func (p *Position) addMove(ml *MoveList, from, to Square, flags MoveFlag) {
	captured := p.Board[to]
	if captured != NoPiece {
		flags |= FlagCapture
	}
	ml.Add(Move{
		From:      from,
		To:        to,
		Piece:     p.Board[from],
		Captured:  captured,
		Promotion: NoPieceType,
		Flags:     flags,
	})
}

// addPromotions adds the four promotion choices, queen first.
func (p *Position) addPromotions(ml *MoveList, from, to Square) {
	captured := p.Board[to]
	flags := MoveFlag(0)
	if captured != NoPiece {
		flags = FlagCapture
	}
	for _, promo := range [4]PieceType{Queen, Rook, Bishop, Knight} {
		ml.Add(Move{
			From:      from,
			To:        to,
			Piece:     p.Board[from],
			Captured:  captured,
			Promotion: promo,
			Flags:     flags,
		})
	}
}

func (p *Position) generatePawnMoves(from Square, ml *MoveList) {
	pawn := p.Board[from]
	us := pawn.Color()

	dir, startRank, lastRank := 8, 1, 7
	if us == Black {
		dir, startRank, lastRank = -8, 6, 0
	}

	one := Square(int(from) + dir)
	if p.Board[one] == NoPiece {
		if one.Rank() == lastRank {
			p.addPromotions(ml, from, one)
		} else {
			p.addMove(ml, from, one, 0)
			two := Square(int(one) + dir)
			if from.Rank() == startRank && p.Board[two] == NoPiece {
				p.addMove(ml, from, two, FlagDoublePush)
			}
		}
	}

	for _, df := range [2]int{-1, 1} {
		f := from.File() + df
		if f < 0 || f > 7 {
			continue
		}
		to := Square(int(one) + df)
		target := p.Board[to]
		switch {
		case target != NoPiece && target.Color() != us:
			if to.Rank() == lastRank {
				p.addPromotions(ml, from, to)
			} else {
				p.addMove(ml, from, to, 0)
			}
		case target == NoPiece && to == p.EnPassant:
			victim := p.Board[enPassantVictim(to, us)]
			if victim == NewPiece(Pawn, us.Other()) {
				ml.Add(Move{
					From:      from,
					To:        to,
					Piece:     pawn,
					Captured:  victim,
					Promotion: NoPieceType,
					Flags:     FlagCapture | FlagEnPassant,
				})
			}
		}
	}
}

func (p *Position) generateLeaperMoves(from Square, targets *[8]Square, n int, ml *MoveList) {
	us := p.Board[from].Color()
	for i := 0; i < n; i++ {
		to := targets[i]
		target := p.Board[to]
		if target == NoPiece || target.Color() != us {
			p.addMove(ml, from, to, 0)
		}
	}
}

// generateSliderMoves walks directions first..last inclusive.
func (p *Position) generateSliderMoves(from Square, first, last int, ml *MoveList) {
	us := p.Board[from].Color()
	for dir := first; dir <= last; dir++ {
		offset := directionOffsets[dir]
		to := int(from)
		for n := 0; n < squaresToEdge[from][dir]; n++ {
			to += offset
			target := p.Board[to]
			if target == NoPiece {
				p.addMove(ml, from, Square(to), 0)
				continue
			}
			if target.Color() != us {
				p.addMove(ml, from, Square(to), 0)
			}
			break
		}
	}
}

func (p *Position) generateCastlingMoves(from Square, ml *MoveList) {
	us := p.Board[from].Color()
	them := us.Other()

	home, kingSide, queenSide := E1, WhiteKingSideCastle, WhiteQueenSideCastle
	if us == Black {
		home, kingSide, queenSide = E8, BlackKingSideCastle, BlackQueenSideCastle
	}
	if from != home || p.CastlingRights&(kingSide|queenSide) == 0 {
		return
	}
	rook := NewPiece(Rook, us)

	// King side: f and g empty, rook on h, e/f/g not attacked.
	if p.CastlingRights&kingSide != 0 &&
		p.Board[home+1] == NoPiece && p.Board[home+2] == NoPiece && p.Board[home+3] == rook &&
		!p.IsSquareAttacked(home, them) && !p.IsSquareAttacked(home+1, them) && !p.IsSquareAttacked(home+2, them) {
		p.addMove(ml, home, home+2, FlagCastling)
	}

	// Queen side: b, c and d empty, rook on a, e/d/c not attacked.
	if p.CastlingRights&queenSide != 0 &&
		p.Board[home-1] == NoPiece && p.Board[home-2] == NoPiece && p.Board[home-3] == NoPiece && p.Board[home-4] == rook &&
		!p.IsSquareAttacked(home, them) && !p.IsSquareAttacked(home-1, them) && !p.IsSquareAttacked(home-2, them) {
		p.addMove(ml, home, home-2, FlagCastling)
	}
}

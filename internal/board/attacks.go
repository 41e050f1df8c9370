package board

// Ray directions. The first four are orthogonal, the last four diagonal.
const (
	North = iota
	South
	East
	West
	NorthEast
	NorthWest
	SouthEast
	SouthWest
)

// directionOffsets holds the square delta of one step along each direction.
var directionOffsets = [8]int{8, -8, 1, -1, 9, 7, -7, -9}

// Precomputed per-square tables. Built once in init and read-only afterwards.
var (
	knightTargets [64][8]Square
	knightCount   [64]int
	kingTargets   [64][8]Square
	kingCount     [64]int
	squaresToEdge [64][8]int
)

func init() {
	initLeaperTables()
	initEdgeDistances()
}

func initLeaperTables() {
	knightSteps := [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps := [8][2]int{{0, 1}, {0, -1}, {1, 0}, {-1, 0}, {1, 1}, {-1, 1}, {1, -1}, {-1, -1}}

	for sq := A1; sq <= H8; sq++ {
		f, r := sq.File(), sq.Rank()
		for _, d := range knightSteps {
			nf, nr := f+d[0], r+d[1]
			if nf >= 0 && nf < 8 && nr >= 0 && nr < 8 {
				knightTargets[sq][knightCount[sq]] = NewSquare(nf, nr)
				knightCount[sq]++
			}
		}
		for _, d := range kingSteps {
			nf, nr := f+d[0], r+d[1]
			if nf >= 0 && nf < 8 && nr >= 0 && nr < 8 {
				kingTargets[sq][kingCount[sq]] = NewSquare(nf, nr)
				kingCount[sq]++
			}
		}
	}
}

func initEdgeDistances() {
	for sq := A1; sq <= H8; sq++ {
		f, r := sq.File(), sq.Rank()
		north := 7 - r
		south := r
		east := 7 - f
		west := f

		squaresToEdge[sq][North] = north
		squaresToEdge[sq][South] = south
		squaresToEdge[sq][East] = east
		squaresToEdge[sq][West] = west
		squaresToEdge[sq][NorthEast] = min(north, east)
		squaresToEdge[sq][NorthWest] = min(north, west)
		squaresToEdge[sq][SouthEast] = min(south, east)
		squaresToEdge[sq][SouthWest] = min(south, west)
	}
}

// IsSquareAttacked reports whether any piece of color by attacks sq.
// Each ray stops at its first occupied square.
func (p *Position) IsSquareAttacked(sq Square, by Color) bool {
	// Pawns: look one rank back from the attacker's point of view.
	if by == White {
		if sq.Rank() > 0 {
			if sq.File() > 0 && p.Board[sq-9] == WhitePawn {
				return true
			}
			if sq.File() < 7 && p.Board[sq-7] == WhitePawn {
				return true
			}
		}
	} else {
		if sq.Rank() < 7 {
			if sq.File() > 0 && p.Board[sq+7] == BlackPawn {
				return true
			}
			if sq.File() < 7 && p.Board[sq+9] == BlackPawn {
				return true
			}
		}
	}

	knight := NewPiece(Knight, by)
	for i := 0; i < knightCount[sq]; i++ {
		if p.Board[knightTargets[sq][i]] == knight {
			return true
		}
	}

	king := NewPiece(King, by)
	for i := 0; i < kingCount[sq]; i++ {
		if p.Board[kingTargets[sq][i]] == king {
			return true
		}
	}

	queen := NewPiece(Queen, by)
	rook := NewPiece(Rook, by)
	bishop := NewPiece(Bishop, by)

	for dir := 0; dir < 8; dir++ {
		slider := rook
		if dir >= NorthEast {
			slider = bishop
		}
		offset := directionOffsets[dir]
		target := int(sq)
		for n := 0; n < squaresToEdge[sq][dir]; n++ {
			target += offset
			piece := p.Board[target]
			if piece == NoPiece {
				continue
			}
			if piece == slider || piece == queen {
				return true
			}
			break
		}
	}

	return false
}

// InCheck reports whether the king of color c is attacked.
func (p *Position) InCheck(c Color) bool {
	ksq := p.KingSquare[c]
	if ksq == NoSquare {
		return false
	}
	return p.IsSquareAttacked(ksq, c.Other())
}

// SideInCheck reports whether the side to move is in check.
func (p *Position) SideInCheck() bool {
	return p.InCheck(p.SideToMove)
}

package board

import (
	"fmt"
	"strings"
)

// CastlingRights holds the four independent castling permissions.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// castlingRightList orders the rights the way their Zobrist keys are indexed.
var castlingRightList = [4]CastlingRights{
	WhiteKingSideCastle, WhiteQueenSideCastle, BlackKingSideCastle, BlackQueenSideCastle,
}

// String returns the FEN castling field.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, right := range castlingRightList {
		if cr&right != 0 {
			sb.WriteByte("KQkq"[i])
		}
	}
	return sb.String()
}

// CanCastle reports whether c still holds the given castling right.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	if c == White {
		if kingSide {
			return cr&WhiteKingSideCastle != 0
		}
		return cr&WhiteQueenSideCastle != 0
	}
	if kingSide {
		return cr&BlackKingSideCastle != 0
	}
	return cr&BlackQueenSideCastle != 0
}

// maxPiecesPerSide bounds the piece lists.
const maxPiecesPerSide = 16

// Position is a mailbox chess position. The piece lists, king squares and
// hash are derived from Board and kept in step by every mutation.
type Position struct {
	Board [64]Piece

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // NoSquare if none
	HalfMoveClock  int
	FullMoveNumber int

	Hash       uint64
	KingSquare [2]Square

	pieceList  [2][maxPiecesPerSide]Square
	pieceCount [2]int
	listIndex  [64]int8
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	pos, _ := ParseFEN(StartFEN)
	return pos
}

// Copy returns a deep copy of the position.
func (p *Position) Copy() *Position {
	newPos := *p
	return &newPos
}

// Clear resets the position to an empty board.
func (p *Position) Clear() {
	*p = Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
	for sq := range p.Board {
		p.Board[sq] = NoPiece
		p.listIndex[sq] = -1
	}
	p.KingSquare[White] = NoSquare
	p.KingSquare[Black] = NoSquare
}

// PieceAt returns the piece on sq, NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	if sq >= NoSquare {
		return NoPiece
	}
	return p.Board[sq]
}

// IsEmpty reports whether sq holds no piece.
func (p *Position) IsEmpty(sq Square) bool {
	return p.Board[sq] == NoPiece
}

// PieceSquares returns the occupied squares of color c. The slice aliases
// internal storage and is only valid until the next mutation.
func (p *Position) PieceSquares(c Color) []Square {
	return p.pieceList[c][:p.pieceCount[c]]
}

// PieceCount returns the number of pieces color c has on the board.
func (p *Position) PieceCount(c Color) int {
	return p.pieceCount[c]
}

// addPiece places piece on an empty square (does not update hash).
func (p *Position) addPiece(piece Piece, sq Square) {
	c := piece.Color()
	n := p.pieceCount[c]
	p.Board[sq] = piece
	p.pieceList[c][n] = sq
	p.listIndex[sq] = int8(n)
	p.pieceCount[c] = n + 1
	if piece.Type() == King {
		p.KingSquare[c] = sq
	}
}

// removePiece clears sq and returns what was there (does not update hash).
func (p *Position) removePiece(sq Square) Piece {
	piece := p.Board[sq]
	if piece == NoPiece {
		return NoPiece
	}
	c := piece.Color()
	idx := p.listIndex[sq]
	last := p.pieceCount[c] - 1
	moved := p.pieceList[c][last]
	p.pieceList[c][idx] = moved
	p.listIndex[moved] = idx
	p.pieceCount[c] = last

	p.listIndex[sq] = -1
	p.Board[sq] = NoPiece
	if piece.Type() == King {
		p.KingSquare[c] = NoSquare
	}
	return piece
}

// movePiece moves the piece on from to the empty square to (does not update hash).
func (p *Position) movePiece(from, to Square) {
	piece := p.Board[from]
	if piece == NoPiece {
		return
	}
	idx := p.listIndex[from]
	p.pieceList[piece.Color()][idx] = to
	p.listIndex[to] = idx
	p.listIndex[from] = -1
	p.Board[to] = piece
	p.Board[from] = NoPiece
	if piece.Type() == King {
		p.KingSquare[piece.Color()] = to
	}
}

// Material returns the material balance in centipawns, positive favors White.
func (p *Position) Material() int {
	score := 0
	for _, sq := range p.PieceSquares(White) {
		score += p.Board[sq].Value()
	}
	for _, sq := range p.PieceSquares(Black) {
		score -= p.Board[sq].Value()
	}
	return score
}

// Validate checks the derived state against the board array: piece lists,
// king squares and the incremental hash.
func (p *Position) Validate() error {
	var seen [64]bool
	for c := White; c <= Black; c++ {
		for i, sq := range p.PieceSquares(c) {
			if p.Board[sq].Color() != c {
				return fmt.Errorf("%w: %s list holds %s with %q", ErrInconsistent, c, sq, p.Board[sq])
			}
			if int(p.listIndex[sq]) != i {
				return fmt.Errorf("%w: index of %s is %d, want %d", ErrInconsistent, sq, p.listIndex[sq], i)
			}
			seen[sq] = true
		}
	}

	kings := [2]int{}
	for sq := A1; sq <= H8; sq++ {
		piece := p.Board[sq]
		if piece == NoPiece {
			continue
		}
		if !seen[sq] {
			return fmt.Errorf("%w: %s on %s missing from piece list", ErrInconsistent, piece, sq)
		}
		if piece.Type() == King {
			kings[piece.Color()]++
			if p.KingSquare[piece.Color()] != sq {
				return fmt.Errorf("%w: king cache %s, king on %s", ErrInconsistent, p.KingSquare[piece.Color()], sq)
			}
		}
	}
	for c := White; c <= Black; c++ {
		if kings[c] == 0 && p.KingSquare[c] != NoSquare {
			return fmt.Errorf("%w: %s king cached on %s but absent", ErrInconsistent, c, p.KingSquare[c])
		}
	}

	if h := p.ComputeHash(); h != p.Hash {
		return fmt.Errorf("%w: hash %016x, recomputed %016x", ErrInconsistent, p.Hash, h)
	}
	return nil
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := p.Board[NewSquare(file, rank)]
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", p.SideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", p.CastlingRights)
	fmt.Fprintf(&sb, "En passant: %s\n", p.EnPassant)
	fmt.Fprintf(&sb, "Half-move clock: %d\n", p.HalfMoveClock)
	fmt.Fprintf(&sb, "Full move: %d\n", p.FullMoveNumber)
	fmt.Fprintf(&sb, "Hash: %016x\n", p.Hash)
	return sb.String()
}

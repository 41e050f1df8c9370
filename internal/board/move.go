package board

import "fmt"

// MoveFlag marks the special properties of a move.
type MoveFlag uint8

const (
	FlagCapture MoveFlag = 1 << iota
	FlagEnPassant
	FlagCastling
	FlagDoublePush
)

// Move is the compact move used by generation and search. Score is
// scratch space for move ordering and is not part of the move identity.
type Move struct {
	From      Square
	To        Square
	Piece     Piece     // moving piece
	Captured  Piece     // NoPiece unless a capture; the pawn for en passant
	Promotion PieceType // NoPieceType unless a promotion
	Flags     MoveFlag
	Score     int32
}

// NoMove is the null move.
var NoMove = Move{From: NoSquare, To: NoSquare, Piece: NoPiece, Captured: NoPiece, Promotion: NoPieceType}

// IsNull reports whether m is the null move.
func (m Move) IsNull() bool {
	return m.From >= NoSquare || m.To >= NoSquare
}

// Same reports whether two moves have the same squares and promotion.
func (m Move) Same(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

// IsCapture is true for captures, including en passant.
func (m Move) IsCapture() bool {
	return m.Flags&FlagCapture != 0
}

// IsEnPassant is true for en passant captures.
func (m Move) IsEnPassant() bool {
	return m.Flags&FlagEnPassant != 0
}

// IsCastling is true for castling (encoded as the king's two-square move).
func (m Move) IsCastling() bool {
	return m.Flags&FlagCastling != 0
}

// IsPromotion is true when a pawn promotes.
func (m Move) IsPromotion() bool {
	return m.Promotion != NoPieceType
}

// IsQuiet is true for moves that neither capture nor promote.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// String returns the move in coordinate notation, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	if m.IsNull() {
		return "0000"
	}
	s := m.From.String() + m.To.String()
	if m.IsPromotion() {
		s += string(m.Promotion.Char())
	}
	return s
}

// ParseMove resolves coordinate notation against the legal moves of pos.
// A missing promotion letter on a promoting move selects the queen.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("invalid move string %q: %w", s, ErrIllegalMove)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, fmt.Errorf("%v: %w", err, ErrIllegalMove)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, fmt.Errorf("%v: %w", err, ErrIllegalMove)
	}

	promo := NoPieceType
	if len(s) == 5 {
		promo = PromotionFromChar(s[4])
		if promo == NoPieceType {
			return NoMove, fmt.Errorf("invalid promotion piece %q: %w", s[4], ErrIllegalMove)
		}
	}

	if piece := pos.PieceAt(from); piece == NoPiece || piece.Color() != pos.SideToMove {
		return NoMove, fmt.Errorf("no %s piece on %s: %w", pos.SideToMove, from, ErrIllegalMove)
	}

	for _, m := range pos.LegalMovesFrom(from) {
		if m.To != to {
			continue
		}
		if !m.IsPromotion() {
			if promo == NoPieceType {
				return m, nil
			}
			continue
		}
		if m.Promotion == promo || (promo == NoPieceType && m.Promotion == Queen) {
			return m, nil
		}
	}

	return NoMove, fmt.Errorf("move %s in %s: %w", s, pos.ToFEN(), ErrIllegalMove)
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add appends a move.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// At returns a pointer to the move at index i, for in-place scoring.
func (ml *MoveList) At(i int) *Move {
	return &ml.moves[i]
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear empties the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Slice returns the moves as a slice backed by the list.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// Undo is the pre-move state that MakeMove cannot recompute on the way back.
type Undo struct {
	EnPassant      Square
	CastlingRights CastlingRights
	HalfMoveClock  int
	Hash           uint64
}

// MoveRecord is a played move together with its restoration snapshot.
type MoveRecord struct {
	Move Move
	Undo Undo
}

package board

// Zobrist keys. Generated from a fixed seed so hashes are reproducible
// across runs and processes.
var (
	zobristPiece      [12][64]uint64 // [Piece][Square]
	zobristCastling   [4]uint64      // one per right, indexed like castlingRightList
	zobristEnPassant  [8]uint64      // one per file
	zobristSideToMove uint64         // XOR when black to move
)

func init() {
	initZobrist()
}

type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64*
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x98F107A2BEEF1234)

	for piece := WhitePawn; piece < NoPiece; piece++ {
		for sq := A1; sq <= H8; sq++ {
			zobristPiece[piece][sq] = rng.next()
		}
	}
	for i := range zobristCastling {
		zobristCastling[i] = rng.next()
	}
	for file := range zobristEnPassant {
		zobristEnPassant[file] = rng.next()
	}
	zobristSideToMove = rng.next()
}

func (p *Position) hashPiece(piece Piece, sq Square) {
	p.Hash ^= zobristPiece[piece][sq]
}

func (p *Position) hashEnPassant(sq Square) {
	if sq != NoSquare {
		p.Hash ^= zobristEnPassant[sq.File()]
	}
}

// revokeCastling clears the given rights, XORing out the key of each one
// that was actually held.
func (p *Position) revokeCastling(rights CastlingRights) {
	lost := p.CastlingRights & rights
	if lost == 0 {
		return
	}
	for i, right := range castlingRightList {
		if lost&right != 0 {
			p.Hash ^= zobristCastling[i]
		}
	}
	p.CastlingRights &^= rights
}

// ComputeHash computes the Zobrist hash of the position from scratch.
func (p *Position) ComputeHash() uint64 {
	var hash uint64

	for sq := A1; sq <= H8; sq++ {
		if piece := p.Board[sq]; piece != NoPiece {
			hash ^= zobristPiece[piece][sq]
		}
	}

	for i, right := range castlingRightList {
		if p.CastlingRights&right != 0 {
			hash ^= zobristCastling[i]
		}
	}

	if p.EnPassant != NoSquare {
		hash ^= zobristEnPassant[p.EnPassant.File()]
	}

	if p.SideToMove == Black {
		hash ^= zobristSideToMove
	}

	return hash
}

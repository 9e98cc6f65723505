package board

// DefaultSeed is the PRNG seed used when NewHashTable is given zero.
const DefaultSeed uint64 = 0x98F107A2BEEF1234

// HashTable holds the random Zobrist features for every hashed aspect of a
// position. A table is filled once by NewHashTable and never written again,
// so one table may be shared by any number of boards and goroutines.
type HashTable struct {
	pieces    [64][12]uint64 // [Square][Piece]
	castling  [4]uint64      // one per CastlingRights bit
	blackMove uint64         // XOR when black to move
	enPassant [8]uint64      // one per file
}

// xorshift64* PRNG for reproducible keys.
type prng struct {
	state uint64
}

func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

// NewHashTable builds a table from the given seed. Equal seeds give equal
// tables. A zero seed selects DefaultSeed (xorshift cannot leave zero).
func NewHashTable(seed uint64) *HashTable {
	if seed == 0 {
		seed = DefaultSeed
	}
	rng := &prng{state: seed}
	ht := &HashTable{}

	for sq := A1; sq <= H8; sq++ {
		for p := WhitePawn; p < NoPiece; p++ {
			ht.pieces[sq][p] = rng.next()
		}
	}
	for i := range ht.castling {
		ht.castling[i] = rng.next()
	}
	ht.blackMove = rng.next()
	for file := range ht.enPassant {
		ht.enPassant[file] = rng.next()
	}

	return ht
}

// Piece returns the feature for a piece standing on a square.
func (ht *HashTable) Piece(p Piece, sq Square) uint64 {
	return ht.pieces[sq][p]
}

// Castling returns the XOR of the features of every right set in cr.
func (ht *HashTable) Castling(cr CastlingRights) uint64 {
	var h uint64
	for i := range ht.castling {
		if cr&(1<<i) != 0 {
			h ^= ht.castling[i]
		}
	}
	return h
}

// BlackToMove returns the side-to-move feature.
func (ht *HashTable) BlackToMove() uint64 {
	return ht.blackMove
}

// EnPassant returns the feature for an en passant target on the given file.
func (ht *HashTable) EnPassant(file int) uint64 {
	return ht.enPassant[file]
}

package engine

import (
	"sync/atomic"

	"github.com/hailam/chessnet/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTNone       TTFlag = iota // Empty slot
	TTExact                    // Score is the minimax value
	TTLowerBound               // Failed high: value >= score
	TTUpperBound               // Failed low: value <= score
)

func (f TTFlag) String() string {
	switch f {
	case TTExact:
		return "exact"
	case TTLowerBound:
		return "lower"
	case TTUpperBound:
		return "upper"
	default:
		return "none"
	}
}

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	Key      uint64 // Full Zobrist hash, guards against index aliasing
	Score    int32
	Depth    int8
	Flag     TTFlag
	BestFrom board.Square
	BestTo   board.Square
	Age      uint8
}

// ttEntrySize is the in-memory size of a TTEntry including padding.
const ttEntrySize = 24

// DefaultHashMB gives 2^20 entries.
const DefaultHashMB = 24

// TranspositionTable is a fixed-capacity hash table of search results,
// indexed by hash modulo capacity. It is owned by one engine and is not
// safe for concurrent searches; the statistics counters may be read from
// other goroutines.
type TranspositionTable struct {
	entries []TTEntry
	size    uint64
	mask    uint64
	age     uint8

	hits   atomic.Uint64
	probes atomic.Uint64
}

// NewTranspositionTable creates a transposition table with the given size in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	numEntries := (uint64(sizeMB) * 1024 * 1024) / ttEntrySize

	// Round down to power of 2 for fast modulo
	numEntries = roundDownToPowerOf2(numEntries)

	return &TranspositionTable{
		entries: make([]TTEntry, numEntries),
		size:    numEntries,
		mask:    numEntries - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// Probe looks up a position. A hit needs the full key to match.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes.Add(1)

	entry := tt.entries[hash&tt.mask]
	if entry.Flag != TTNone && entry.Key == hash {
		tt.hits.Add(1)
		return entry, true
	}
	return TTEntry{}, false
}

// Store saves a search result. The slot is overwritten when it is empty,
// holds the same position, was written by an older search, or holds a
// result no deeper than the new one. Otherwise the old entry is kept.
func (tt *TranspositionTable) Store(hash uint64, depth, score int, flag TTFlag, from, to board.Square) {
	entry := &tt.entries[hash&tt.mask]

	if entry.Flag != TTNone && entry.Key != hash && entry.Age == tt.age && int(entry.Depth) > depth {
		return
	}

	*entry = TTEntry{
		Key:      hash,
		Score:    int32(score),
		Depth:    int8(depth),
		Flag:     flag,
		BestFrom: from,
		BestTo:   to,
		Age:      tt.age,
	}
}

// NewSearch bumps the age so entries of earlier searches become
// replaceable.
func (tt *TranspositionTable) NewSearch() {
	tt.age++
}

// Age returns the current search generation.
func (tt *TranspositionTable) Age() uint8 {
	return tt.age
}

// Clear physically wipes the table.
func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
	tt.age = 0
	tt.hits.Store(0)
	tt.probes.Store(0)
}

// HashFull returns the permille of sampled slots written by the current
// search.
func (tt *TranspositionTable) HashFull() int {
	sampleSize := 1000
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}

	used := 0
	for i := 0; i < sampleSize; i++ {
		if tt.entries[i].Flag != TTNone && tt.entries[i].Age == tt.age {
			used++
		}
	}
	return (used * 1000) / sampleSize
}

// HitRate returns the probe hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	probes := tt.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(tt.hits.Load()) / float64(probes) * 100
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}

// AdjustScoreFromTT converts a stored mate score back to distance from the
// current node.
func AdjustScoreFromTT(score, ply int) int {
	if score > CheckmateScore-MaxPly {
		return score - ply
	}
	if score < -CheckmateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT rebases a mate score from the root to the current node.
func AdjustScoreToTT(score, ply int) int {
	if score > CheckmateScore-MaxPly {
		return score + ply
	}
	if score < -CheckmateScore+MaxPly {
		return score - ply
	}
	return score
}

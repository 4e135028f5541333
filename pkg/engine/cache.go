package engine

import (
	"sync"

	"github.com/SamraT-Hacking/Ludo-Baji-sub001/internal/positionid"
)

// Cache constants
const (
	DefaultCacheSize = 1 << 16 // 64K entries
)

// CacheEntry stores a cached best-move decision
type CacheEntry struct {
	Key     positionid.PositionKey // Board key
	Context int32                  // Mover, die and eligible order, see MakeMoveContext
	Piece   PieceID                // Chosen piece
	Score   float64                // Its heuristic score
	valid   bool
}

// MoveCache is a thread-safe best-move cache.
// Uses a two-way associative table with MurmurHash3-based indexing
type MoveCache struct {
	entries  []cacheNode
	size     uint32
	hashMask uint32

	// Statistics
	lookups uint64
	hits    uint64
	adds    uint64

	mu sync.RWMutex
}

// cacheNode holds primary and secondary entries for two-way associative cache
type cacheNode struct {
	primary   CacheEntry
	secondary CacheEntry
}

// NewMoveCache creates a cache with room for size entries.
// Size is rounded up to a power of 2
func NewMoveCache(size uint32) *MoveCache {
	if size < 2 {
		size = 2
	}
	if size > 1<<24 {
		size = 1 << 24
	}
	p := uint32(1)
	for p < size {
		p <<= 1
	}
	size = p

	return &MoveCache{
		entries:  make([]cacheNode, size/2),
		size:     size,
		hashMask: (size / 2) - 1,
	}
}

// Flush clears all entries from the cache
func (c *MoveCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.entries {
		c.entries[i] = cacheNode{}
	}
	c.lookups = 0
	c.hits = 0
	c.adds = 0
}

// hash computes the slot for a key using MurmurHash3-style mixing
func (c *MoveCache) hash(key positionid.PositionKey, moveContext int32) uint32 {
	const c1 = 0xcc9e2d51
	const c2 = 0x1b873593

	h := uint32(0)
	for _, k := range key.Data {
		k *= c1
		k = (k << 15) | (k >> 17)
		k *= c2

		h ^= k
		h = (h << 13) | (h >> 19)
		h = h*5 + 0xe6546b64
	}

	k := uint32(moveContext)
	k *= c1
	k = (k << 15) | (k >> 17)
	k *= c2
	h ^= k

	// Finalization
	h ^= 20
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16

	return h & c.hashMask
}

// Lookup returns the cached entry for key and context
func (c *MoveCache) Lookup(key positionid.PositionKey, moveContext int32) (CacheEntry, bool) {
	slot := c.hash(key, moveContext)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lookups++
	node := &c.entries[slot]
	for _, e := range [2]CacheEntry{node.primary, node.secondary} {
		if e.valid && e.Context == moveContext && positionid.EqualKeys(e.Key, key) {
			c.hits++
			return e, true
		}
	}
	return CacheEntry{}, false
}

// Add stores a decision, demoting the slot's primary entry
func (c *MoveCache) Add(key positionid.PositionKey, moveContext int32, piece PieceID, score float64) {
	slot := c.hash(key, moveContext)

	c.mu.Lock()
	defer c.mu.Unlock()

	node := &c.entries[slot]
	node.secondary = node.primary
	node.primary = CacheEntry{Key: key, Context: moveContext, Piece: piece, Score: score, valid: true}
	c.adds++
}

// Stats returns cache statistics
func (c *MoveCache) Stats() (lookups, hits, adds uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookups, c.hits, c.adds
}

// HitRate returns the cache hit rate as a percentage
func (c *MoveCache) HitRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.lookups == 0 {
		return 0
	}
	return float64(c.hits) / float64(c.lookups) * 100
}

// MakeMoveContext packs the mover, die and ordered eligible set into a
// cache context. Bits 0-2: die, bits 3-4: colour, bits 5-7: number of
// eligible pieces, bits 8-15: their slots in order, two bits each. The order
// is part of the key because ties go to the first eligible piece. It reports
// false when the set cannot be packed: more than four ids, or an id the
// mover does not own.
func MakeMoveContext(c Color, die int, eligible []PieceID) (int32, bool) {
	if len(eligible) > PiecesPerPlayer {
		return 0, false
	}
	ctx := int32(die&0x7) | int32(c&0x3)<<3 | int32(len(eligible))<<5
	for i, id := range eligible {
		if !id.Valid() || id.Color() != c {
			return 0, false
		}
		ctx |= int32(id.Slot()) << (8 + 2*i)
	}
	return ctx, true
}

package wsi

import (
	"image"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// TileKey identifies one decoded tile: the owning Area's stable identity
// plus its column and row within that Area's directory. AreaID is the
// Area's own pointer value, taken once at construction, so it stays equal
// across calls without a separate identity allocation.
type TileKey struct {
	AreaID uintptr
	Col    int
	Row    int
}

// TileEntry is a reference-counted cache entry. Callers obtained one from
// TileCache.Get or TileCache.Put must call Release exactly once when done
// drawing from Img.
type TileEntry struct {
	Img  *image.RGBA
	refs atomic.Int32
}

func newTileEntry(img *image.RGBA) *TileEntry {
	e := &TileEntry{Img: img}
	e.refs.Store(1)
	return e
}

func (e *TileEntry) retain() *TileEntry {
	e.refs.Add(1)
	return e
}

// Release drops a reference. The cache itself holds one reference for as
// long as an entry occupies a slot; Release is also what the LRU's eviction
// callback calls to drop that slot's reference. Once the last reference
// (cache slot or caller) is dropped, the backing buffer is returned to
// wsi's RGBA pool for reuse instead of left for the garbage collector.
func (e *TileEntry) Release() {
	if e.refs.Add(-1) == 0 {
		PutRGBA(e.Img)
	}
}

// TileCache is the shared, thread-safe tile store of spec's Tile Cache
// Protocol: concurrent callers may race to populate the same key; the cache
// keeps exactly one winner and discards the rest.
type TileCache struct {
	lru *lru.Cache[TileKey, *TileEntry]
}

// NewTileCache builds a tile cache holding at most maxTiles decoded tiles.
// Eviction drops the cache's own reference on the evicted entry, so a tile
// that no in-flight caller still holds returns its buffer to the pool
// immediately instead of waiting for the garbage collector.
func NewTileCache(maxTiles int) *TileCache {
	c, _ := lru.NewWithEvict[TileKey, *TileEntry](maxTiles, func(_ TileKey, e *TileEntry) {
		e.Release()
	})
	return &TileCache{lru: c}
}

// Get returns the cached entry for key, retaining a reference on the
// caller's behalf, or (nil, false) on a miss.
func (tc *TileCache) Get(key TileKey) (*TileEntry, bool) {
	e, ok := tc.lru.Get(key)
	if !ok {
		return nil, false
	}
	return e.retain(), true
}

// Put inserts img under key and returns a retained entry for the caller.
// If another goroutine already populated key, that entry keeps the cache
// slot, img is discarded, and the caller receives the existing entry
// retained on its behalf — spec's "single populator wins" discipline.
func (tc *TileCache) Put(key TileKey, img *image.RGBA) *TileEntry {
	entry := newTileEntry(img)
	// PeekOrAdd checks and inserts under one lock, so racing Puts for the
	// same key all end up with the first inserted entry.
	if existing, ok, _ := tc.lru.PeekOrAdd(key, entry); ok {
		return existing.retain()
	}
	return entry.retain()
}

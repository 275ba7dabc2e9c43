package wsi

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/openscn/scnslide/internal/bigtiff"
)

// TiffCache is a bounded pool of bigtiff.Handle values sharing one
// underlying Reader. Get blocks until a slot is available (or a new handle
// is created, up to capacity); Put returns a handle to the pool. A painter
// call holds one handle across all the areas it paints and never shares it
// with a concurrent painter.
type TiffCache struct {
	reader *bigtiff.Reader
	sem    *semaphore.Weighted

	mu      sync.Mutex
	handles []*bigtiff.Handle
}

// NewTiffCache builds a pool over reader with room for capacity concurrently
// checked-out handles.
func NewTiffCache(reader *bigtiff.Reader, capacity int) *TiffCache {
	return &TiffCache{
		reader: reader,
		sem:    semaphore.NewWeighted(int64(capacity)),
	}
}

// Get acquires a handle, blocking until one is available. ctx may carry a
// deadline; a background context never times out and only returns an error
// if ctx is itself already cancelled.
func (tc *TiffCache) Get(ctx context.Context) (*bigtiff.Handle, error) {
	if err := tc.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquiring TIFF handle: %w", err)
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()
	n := len(tc.handles)
	if n == 0 {
		return bigtiff.NewHandle(tc.reader), nil
	}
	h := tc.handles[n-1]
	tc.handles = tc.handles[:n-1]
	return h, nil
}

// Put returns h to the pool for reuse.
func (tc *TiffCache) Put(h *bigtiff.Handle) {
	tc.mu.Lock()
	tc.handles = append(tc.handles, h)
	tc.mu.Unlock()
	tc.sem.Release(1)
}

// Close releases the underlying Reader. Callers must ensure no Get/Put is
// in flight.
func (tc *TiffCache) Close() error {
	return tc.reader.Close()
}

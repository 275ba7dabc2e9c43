package wsi

import (
	"image"
	"sync"
	"testing"
)

func TestTileCache_MissThenHit(t *testing.T) {
	tc := NewTileCache(8)
	key := TileKey{AreaID: 1, Col: 0, Row: 0}

	if _, ok := tc.Get(key); ok {
		t.Fatal("Get on empty cache returned a hit")
	}

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	entry := tc.Put(key, img)
	if entry.Img != img {
		t.Fatal("Put did not return an entry wrapping the given image")
	}
	entry.Release()

	got, ok := tc.Get(key)
	if !ok {
		t.Fatal("Get after Put missed")
	}
	if got.Img != img {
		t.Error("Get returned a different image than was Put")
	}
	got.Release()
}

func TestTileCache_DistinctAreasDoNotCollide(t *testing.T) {
	tc := NewTileCache(8)
	k1 := TileKey{AreaID: 1, Col: 0, Row: 0}
	k2 := TileKey{AreaID: 2, Col: 0, Row: 0}

	img1 := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img2 := image.NewRGBA(image.Rect(0, 0, 1, 1))
	tc.Put(k1, img1).Release()
	tc.Put(k2, img2).Release()

	e1, _ := tc.Get(k1)
	e2, _ := tc.Get(k2)
	defer e1.Release()
	defer e2.Release()

	if e1.Img != img1 || e2.Img != img2 {
		t.Error("distinct AreaIDs with identical col/row collided in the cache")
	}
}

func TestTileCache_ConcurrentPutSinglePopulatorWins(t *testing.T) {
	tc := NewTileCache(8)
	key := TileKey{AreaID: 9, Col: 3, Row: 3}

	const n = 32
	entries := make([]*TileEntry, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			img := image.NewRGBA(image.Rect(0, 0, 2, 2))
			entries[i] = tc.Put(key, img)
		}()
	}
	wg.Wait()

	first := entries[0].Img
	for i, e := range entries {
		if e.Img != first {
			t.Errorf("entry %d got a different winning image than entry 0; single-populator discipline violated", i)
		}
		e.Release()
	}
}

func TestTileEntry_RefcountSurvivesMultipleRetains(t *testing.T) {
	tc := NewTileCache(8)
	key := TileKey{AreaID: 5, Col: 0, Row: 0}
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))

	e := tc.Put(key, img)
	e2, _ := tc.Get(key)
	e3, _ := tc.Get(key)

	if e2.Img != e.Img || e3.Img != e.Img {
		t.Fatal("repeated Get did not return the same underlying image")
	}
	e.Release()
	e2.Release()
	e3.Release()
}

package wsi

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"

	"github.com/openscn/scnslide/internal/bigtiff"
)

// TileReadFunc decodes and returns the tile at (col, row) using the given
// TIFF handle, already clipped to the directory's declared image size at
// its edges. The handle is passed per call rather than captured by the
// closure, because the caller checks out a fresh handle from the pool for
// every PaintRegion call and handles are never shared across concurrent
// painters — see PaintArgs.
type TileReadFunc func(h PaintArgs, col, row int) (*image.RGBA, error)

// PaintArgs carries the per-call context a tile read needs: which TIFF
// handle is checked out for this painter call. Passed by value into
// PaintRegion and down into the TileReadFunc instead of being stashed as a
// back-pointer on the Grid, so Grids stay immutable after construction and
// concurrent painters never contend over who "owns" a grid.
type PaintArgs struct {
	Handle *bigtiff.Handle
}

// Grid is a simple tile grid: it knows its tile geometry and a callback to
// fetch any given tile, and paints an arbitrary pixel rectangle onto a
// gg.Context by iterating the tiles that rectangle intersects.
type Grid struct {
	cols, rows   int
	tileW, tileH int
	readTile     TileReadFunc
}

// NewSimpleGrid builds a Grid over a cols x rows tile array of tileW x tileH
// tiles, reading tiles through readTile.
func NewSimpleGrid(cols, rows, tileW, tileH int, readTile TileReadFunc) *Grid {
	return &Grid{cols: cols, rows: rows, tileW: tileW, tileH: tileH, readTile: readTile}
}

// PaintRegion draws the rectangle (x, y, w, h), in this grid's pixel space,
// onto dc at destination origin (dstX, dstY), using args.Handle for any tile
// decodes this call needs. Tiles are visited in raster order; the grid's
// choice of order is not otherwise significant, per spec's "within one
// area, tile painting order is the grid's choice".
func (g *Grid) PaintRegion(dc *gg.Context, args PaintArgs, dstX, dstY, x, y, w, h int) error {
	if w <= 0 || h <= 0 {
		return nil
	}

	colStart := divFloor(x, g.tileW)
	colEnd := divFloor(x+w-1, g.tileW)
	rowStart := divFloor(y, g.tileH)
	rowEnd := divFloor(y+h-1, g.tileH)

	for row := max(rowStart, 0); row <= rowEnd && row < g.rows; row++ {
		for col := max(colStart, 0); col <= colEnd && col < g.cols; col++ {
			tile, err := g.readTile(args, col, row)
			if err != nil {
				return fmt.Errorf("reading tile (%d,%d): %w", col, row, err)
			}
			if tile == nil {
				continue
			}

			tileMinX := col * g.tileW
			tileMinY := row * g.tileH

			dc.DrawImage(tile, dstX+tileMinX-x, dstY+tileMinY-y)
		}
	}

	return nil
}

func divFloor(a, b int) int {
	if b == 0 {
		return 0
	}
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

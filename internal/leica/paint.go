package leica

import (
	"context"
	"fmt"
	"image"
	"reflect"

	"github.com/fogleman/gg"

	"github.com/openscn/scnslide/internal/leicaerr"
	"github.com/openscn/scnslide/internal/wsi"
)

// bindGrid builds area's Grid, closing the tile-read callback over the
// Area's own identity (its pointer, used as the cache's stable AreaID) and
// the shared tile cache. The callback is invoked later with whichever TIFF
// handle the active painter call checked out — see wsi.PaintArgs.
func bindGrid(area *Area, across, down int, tileCache *wsi.TileCache) {
	areaID := reflect.ValueOf(area).Pointer()
	dir := area.Tiffl.Dir
	tw, th := area.Tiffl.TileWidth, area.Tiffl.TileHeight
	imgW, imgH := area.Tiffl.Width, area.Tiffl.Height

	readTile := func(args wsi.PaintArgs, col, row int) (*image.RGBA, error) {
		key := wsi.TileKey{AreaID: areaID, Col: col, Row: row}
		if entry, ok := tileCache.Get(key); ok {
			defer entry.Release()
			return entry.Img, nil
		}

		if err := args.Handle.SetDirectory(dir); err != nil {
			return nil, leicaerr.Wrap(leicaerr.BadData, "setting TIFF directory for tile read", err)
		}

		clipW, clipH := tw, th
		if (col+1)*tw > imgW {
			clipW = imgW - col*tw
		}
		if (row+1)*th > imgH {
			clipH = imgH - row*th
		}
		if clipW <= 0 || clipH <= 0 {
			return nil, nil
		}

		tile, err := args.Handle.ClipTile(col, row, 0, 0, clipW, clipH)
		if err != nil {
			return nil, leicaerr.Wrap(leicaerr.Io, "decoding tile", err)
		}

		rgba := wsi.GetRGBA(tw, th)
		for y := 0; y < clipH; y++ {
			for x := 0; x < clipW; x++ {
				rgba.Set(x, y, tile.At(x, y))
			}
		}

		entry := tileCache.Put(key, rgba)
		defer entry.Release()
		return entry.Img, nil
	}

	area.grid = wsi.NewSimpleGrid(across, down, tw, th, readTile)
}

// PaintRegion implements spec's Region Painter: (x, y) are pixel coordinates
// in level-0 pixels; w, h are pixel dimensions in the target level. It
// acquires a TIFF handle from the pool, paints every area of level in
// declaration order, and returns the handle regardless of outcome.
func (r *Reader) PaintRegion(ctx context.Context, dc *gg.Context, x, y int, level *Level, w, h int) error {
	handle, err := r.tiffCache.Get(ctx)
	if err != nil {
		return leicaerr.Wrap(leicaerr.Io, "acquiring TIFF handle", err)
	}
	defer r.tiffCache.Put(handle)

	args := wsi.PaintArgs{Handle: handle}

	for _, area := range level.Areas {
		if err := handle.SetDirectory(area.Tiffl.Dir); err != nil {
			return leicaerr.Wrap(leicaerr.BadData, "setting TIFF directory for area", err)
		}

		ax := int(float64(x)/level.Base.Downsample) - int(float64(area.ClicksOffsetX)/level.ClicksPerPixel)
		ay := int(float64(y)/level.Base.Downsample) - int(float64(area.ClicksOffsetY)/level.ClicksPerPixel)

		if err := area.grid.PaintRegion(dc, args, 0, 0, ax, ay, w, h); err != nil {
			return fmt.Errorf("painting area (dir=%d): %w", area.Tiffl.Dir, err)
		}
	}

	return nil
}

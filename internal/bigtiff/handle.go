package bigtiff

import (
	"fmt"
	"image"
)

// Handle is a stateful view onto a Reader, mirroring libtiff's directory
// cursor: SetDirectory moves the cursor, and GetField/ReadTile/ClipTile
// operate against whichever directory was last selected. The underlying
// Reader's mmap'd bytes are shared and read-only, so many Handles can be
// opened against one Reader, but a single Handle is not safe for concurrent
// use — callers that need concurrent tile reads acquire one Handle per
// goroutine from a Handle pool.
type Handle struct {
	r   *Reader
	dir int
}

// NewHandle returns a Handle positioned at directory 0.
func NewHandle(r *Reader) *Handle {
	return &Handle{r: r, dir: 0}
}

// SetDirectory moves the cursor to the given directory index.
func (h *Handle) SetDirectory(dir int) error {
	if dir < 0 || dir >= h.r.DirectoryCount() {
		return fmt.Errorf("set directory %d: out of range (have %d)", dir, h.r.DirectoryCount())
	}
	h.dir = dir
	return nil
}

// Directory returns the currently selected directory index.
func (h *Handle) Directory() int { return h.dir }

// Reader returns the underlying shared Reader.
func (h *Handle) Reader() *Reader { return h.r }

// IsTiled reports whether the current directory is tiled. Open only rejects
// files whose directory 0 is strip-based, so other directories can still
// report false here; the format recognizer queries directory 0 and the level
// synthesizer queries every directory it builds an area from.
func (h *Handle) IsTiled() bool {
	ifd, err := h.r.Directory(h.dir)
	if err != nil {
		return false
	}
	return ifd.IsTiled()
}

// Field identifiers for GetField, named after the TIFF tags they expose.
type Field int

const (
	FieldImageWidth Field = iota
	FieldImageLength
	FieldTileWidth
	FieldTileLength
	FieldCompression
	FieldImageDescription
	FieldXResolution
	FieldYResolution
	FieldResolutionUnit
)

// GetField reads a single field from the current directory.
func (h *Handle) GetField(f Field) (any, error) {
	ifd, err := h.r.Directory(h.dir)
	if err != nil {
		return nil, err
	}
	switch f {
	case FieldImageWidth:
		return ifd.Width, nil
	case FieldImageLength:
		return ifd.Height, nil
	case FieldTileWidth:
		return ifd.TileWidth, nil
	case FieldTileLength:
		return ifd.TileHeight, nil
	case FieldCompression:
		return ifd.Compression, nil
	case FieldImageDescription:
		return ifd.ImageDescription, nil
	case FieldXResolution:
		return ifd.XResolution, nil
	case FieldYResolution:
		return ifd.YResolution, nil
	case FieldResolutionUnit:
		return ifd.ResolutionUnit, nil
	default:
		return nil, fmt.Errorf("unknown field %d", f)
	}
}

// TileSize returns the current directory's tile width and height.
func (h *Handle) TileSize() (width, height int) {
	ifd, err := h.r.Directory(h.dir)
	if err != nil {
		return 0, 0
	}
	return int(ifd.TileWidth), int(ifd.TileHeight)
}

// TilesAcrossDown returns the tile grid dimensions of the current directory.
func (h *Handle) TilesAcrossDown() (across, down int) {
	ifd, err := h.r.Directory(h.dir)
	if err != nil {
		return 0, 0
	}
	return ifd.TilesAcross(), ifd.TilesDown()
}

// ReadTile decodes the tile at (col, row) in the current directory.
func (h *Handle) ReadTile(col, row int) (image.Image, error) {
	return h.r.ReadTile(h.dir, col, row)
}

// ClipTile reads the tile at (col, row) and clips it to the sub-rectangle
// (x, y, w, h) expressed in tile-local pixel coordinates, returning a new
// image holding just that sub-rectangle. Used by the tile cache populator to
// crop a decoded edge tile down to the directory's declared image size.
func (h *Handle) ClipTile(col, row, x, y, w, hgt int) (image.Image, error) {
	tile, err := h.ReadTile(col, row)
	if err != nil {
		return nil, err
	}
	b := tile.Bounds()
	rect := image.Rect(b.Min.X+x, b.Min.Y+y, b.Min.X+x+w, b.Min.Y+y+hgt).Intersect(b)
	if rect.Empty() {
		return image.NewRGBA(image.Rect(0, 0, w, hgt)), nil
	}

	out := image.NewRGBA(image.Rect(0, 0, w, hgt))
	for yy := rect.Min.Y; yy < rect.Max.Y; yy++ {
		for xx := rect.Min.X; xx < rect.Max.X; xx++ {
			out.Set(xx-b.Min.X-x, yy-b.Min.Y-y, tile.At(xx, yy))
		}
	}
	return out, nil
}

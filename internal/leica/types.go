// Package leica implements the Leica .scn vendor format: manifest-driven
// level synthesis, the tile cache protocol, region painting, and format
// recognition, wired on top of internal/bigtiff and internal/wsi.
package leica

import "github.com/openscn/scnslide/internal/wsi"

// TileLevel is the tile geometry and directory index an Area was built
// from, as supplied by the BigTIFF collaborator.
type TileLevel struct {
	Dir         int
	Width       int
	Height      int
	TileWidth   int
	TileHeight  int
}

// TilesAcross returns the tile grid width.
func (tl TileLevel) TilesAcross() int {
	if tl.TileWidth == 0 {
		return 0
	}
	return (tl.Width + tl.TileWidth - 1) / tl.TileWidth
}

// TilesDown returns the tile grid height.
func (tl TileLevel) TilesDown() int {
	if tl.TileHeight == 0 {
		return 0
	}
	return (tl.Height + tl.TileHeight - 1) / tl.TileHeight
}

// Area is one image's contribution to one output Level: its IFD geometry
// plus its canvas offset in clicks. Area exclusively owns its Grid.
type Area struct {
	Tiffl         TileLevel
	ClicksOffsetX int64
	ClicksOffsetY int64

	grid *wsi.Grid // bound by bindGrid once the Area is fully built; see paint.go
}

// LevelBase is a Level's canvas geometry: pixel size at that level, and its
// downsample relative to level 0.
type LevelBase struct {
	W, H       int64
	Downsample float64
}

// Level is one output pyramid resolution spanning the whole canvas,
// composed of one or more Areas painted in declaration order.
type Level struct {
	Base           LevelBase
	ClicksPerPixel float64
	Areas          []*Area
}

// AssociatedImage is a non-pyramid image attached to the slide, e.g. the
// macro overview.
type AssociatedImage struct {
	Name string
	Dir  int
	TileLevel
}

package leica

import (
	"fmt"

	"github.com/openscn/scnslide/internal/bigtiff"
	"github.com/openscn/scnslide/internal/leicaerr"
	"github.com/openscn/scnslide/internal/manifest"
	"github.com/openscn/scnslide/internal/wsi"
)

const handlePoolCapacity = 8
const tileCacheCapacity = 256

// Reader is an opened Leica slide: the synthesized level stack, the shared
// tile cache, the bounded TIFF handle pool, and the sealed property bag.
// Levels/Areas/Grids are immutable after Open returns; safe to read
// concurrently from multiple PaintRegion calls.
type Reader struct {
	levels      []*Level
	macro       *AssociatedImage
	quickhash   string
	properties  *wsi.Properties
	tiffCache   *wsi.TiffCache
	tileCache   *wsi.TileCache
}

// Levels returns the synthesized pyramid, widest first.
func (r *Reader) Levels() []*Level { return r.levels }

// Macro returns the associated macro image, or nil if the slide has none.
func (r *Reader) Macro() *AssociatedImage { return r.macro }

// Quickhash returns the reproducible short identifier computed at open.
func (r *Reader) Quickhash() string { return r.quickhash }

// Property returns a single property by name.
func (r *Reader) Property(key string) (string, bool) { return r.properties.Get(key) }

// Properties returns every property emitted during open.
func (r *Reader) Properties() map[string]string { return r.properties.All() }

// Close releases the TIFF handle pool and its underlying file.
func (r *Reader) Close() error {
	return r.tiffCache.Close()
}

// Open recognizes and opens a Leica .scn file: verifies the TIFF is tiled,
// confirms the Leica namespace, parses the manifest, synthesizes levels,
// and seeds properties/quickhash — spec's Format Recognizer, all-or-nothing.
func Open(path string) (*Reader, error) {
	tiffReader, err := bigtiff.Open(path)
	if err != nil {
		return nil, leicaerr.Wrap(leicaerr.FormatNotSupported, fmt.Sprintf("opening %s", path), err)
	}

	h := bigtiff.NewHandle(tiffReader)
	if !h.IsTiled() {
		tiffReader.Close()
		return nil, leicaerr.New(leicaerr.FormatNotSupported, "TIFF is not tiled")
	}

	descField, err := h.GetField(bigtiff.FieldImageDescription)
	if err != nil {
		tiffReader.Close()
		return nil, leicaerr.Wrap(leicaerr.Io, "reading ImageDescription", err)
	}
	desc, _ := descField.(string)
	if desc == "" {
		tiffReader.Close()
		return nil, leicaerr.New(leicaerr.FormatNotSupported, "missing ImageDescription")
	}

	collection, err := manifest.Parse(desc)
	if err != nil {
		tiffReader.Close()
		return nil, err
	}

	props := wsi.NewProperties()
	tileCache := wsi.NewTileCache(tileCacheCapacity)

	result, err := synthesize(h, collection, props, tileCache)
	if err != nil {
		tiffReader.Close()
		return nil, err
	}

	quickhash, err := computeQuickhash(h, result.QuickhashDir)
	if err != nil {
		tiffReader.Close()
		return nil, err
	}

	if err := setResolutionProperties(h, result.PropertyDir, props); err != nil {
		tiffReader.Close()
		return nil, err
	}

	// The raw XML is not exposed once extracted.
	props.Delete("openslide.comment")
	props.Delete("tiff.ImageDescription")
	props.Seal()

	r := &Reader{
		levels:     result.Levels,
		macro:      result.Macro,
		quickhash:  quickhash,
		properties: props,
		tiffCache:  wsi.NewTiffCache(tiffReader, handlePoolCapacity),
		tileCache:  tileCache,
	}
	return r, nil
}

// setResolutionProperties sets openslide.mpp-x/y from the property
// directory's XResolution/YResolution when ResolutionUnit is Centimeter:
// micrometers-per-pixel = 10000 / resolution.
func setResolutionProperties(h *bigtiff.Handle, propertyDir int, props *wsi.Properties) error {
	if err := h.SetDirectory(propertyDir); err != nil {
		return leicaerr.Wrap(leicaerr.BadData, "locating property directory", err)
	}

	unitField, err := h.GetField(bigtiff.FieldResolutionUnit)
	if err != nil {
		return nil // absent is fine, MPP properties are simply not set
	}
	unit, _ := unitField.(uint16)
	if unit != bigtiff.ResUnitCentimeter {
		return nil
	}

	if xField, err := h.GetField(bigtiff.FieldXResolution); err == nil {
		if x, ok := xField.(float64); ok && x != 0 {
			props.Set("openslide.mpp-x", fmt.Sprintf("%g", 10000.0/x))
		}
	}
	if yField, err := h.GetField(bigtiff.FieldYResolution); err == nil {
		if y, ok := yField.(float64); ok && y != 0 {
			props.Set("openslide.mpp-y", fmt.Sprintf("%g", 10000.0/y))
		}
	}
	return nil
}

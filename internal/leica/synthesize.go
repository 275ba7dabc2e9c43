package leica

import (
	"math"
	"strconv"
	"strings"

	"github.com/openscn/scnslide/internal/bigtiff"
	"github.com/openscn/scnslide/internal/leicaerr"
	"github.com/openscn/scnslide/internal/manifest"
	"github.com/openscn/scnslide/internal/wsi"
)

const brightfield = "brightfield"

// synthResult is everything Level Synthesizer computes, handed back to the
// Format Recognizer to finish seeding the reader.
type synthResult struct {
	Levels       []*Level
	QuickhashDir int
	PropertyDir  int
	Macro        *AssociatedImage
}

// synthesize implements spec's 11-step Level Synthesizer algorithm: it
// validates the manifest against the opened BigTIFF, assembles the level
// stack, and selects the quickhash directory. tileCache is bound into every
// Area's Grid so PaintRegion can later serve tiles through it.
func synthesize(h *bigtiff.Handle, c *manifest.Collection, props *wsi.Properties, tileCache *wsi.TileCache) (*synthResult, error) {
	quickhashDir := -1

	// Step 1: barcode property.
	if c.HasBarcode {
		props.Set("leica.barcode", c.Barcode)
	}

	// Step 2: determine legacy_quickhash.
	legacyQuickhash, err := shouldUseLegacyQuickhash(c)
	if err != nil {
		return nil, err
	}

	var firstMain *manifest.Image
	var levels []*Level

	// Steps 3-6: walk main (non-macro, brightfield) images in order.
	for _, img := range c.Images {
		if img.IsMacro(c) || img.IlluminationSource != brightfield {
			continue
		}

		if firstMain == nil {
			firstMain = img
			setMainImageProperties(props, img)
		} else {
			if img.IlluminationSource != firstMain.IlluminationSource || img.Objective != firstMain.Objective {
				return nil, leicaerr.New(leicaerr.BadData, "dissimilar main images")
			}
			if len(img.Dimensions) != len(firstMain.Dimensions) {
				return nil, leicaerr.New(leicaerr.BadData, "dissimilar main images")
			}
		}

		for k, dim := range img.Dimensions {
			area, err := buildArea(h, img, dim, tileCache)
			if err != nil {
				return nil, err
			}

			if img == firstMain {
				levels = append(levels, &Level{
					ClicksPerPixel: dim.ClicksPerPixel,
					Areas:          []*Area{area},
				})
				continue
			}

			if k >= len(levels) {
				return nil, leicaerr.New(leicaerr.BadData, "dissimilar main images")
			}
			lvl := levels[k]
			firstDimCPP := firstMain.Dimensions[k].ClicksPerPixel
			if !resolutionSimilar(dim.ClicksPerPixel, firstDimCPP) {
				return nil, leicaerr.New(leicaerr.BadData, "inconsistent resolutions")
			}
			if dim.ClicksPerPixel < lvl.ClicksPerPixel {
				lvl.ClicksPerPixel = dim.ClicksPerPixel
			}
			lvl.Areas = append(lvl.Areas, area)
		}

		if legacyQuickhash && img == firstMain {
			last := img.Dimensions[len(img.Dimensions)-1]
			quickhashDir = int(last.Dir)
		}
	}

	if firstMain == nil {
		return nil, leicaerr.New(leicaerr.BadData, "no main image")
	}

	// Step 9: set each level's base pixel geometry.
	for _, lvl := range levels {
		lvl.Base.W = ceilDiv(c.ClicksAcross, lvl.ClicksPerPixel)
		lvl.Base.H = ceilDiv(c.ClicksDown, lvl.ClicksPerPixel)
	}
	if len(levels) > 0 {
		for _, lvl := range levels {
			lvl.Base.Downsample = float64(levels[0].Base.W) / float64(lvl.Base.W)
		}
	}

	// Step 10: macro processing.
	var macro *AssociatedImage
	macroCount := 0
	for _, img := range c.Images {
		if !img.IsMacro(c) {
			continue
		}
		if img.IlluminationSource != brightfield {
			continue // skip non-brightfield macros silently
		}
		macroCount++
		if macroCount > 1 {
			return nil, leicaerr.New(leicaerr.BadData, "more than one macro image")
		}
		largest := img.Dimensions[0]
		ifd, err := getIFD(h, int(largest.Dir))
		if err != nil {
			return nil, leicaerr.Wrap(leicaerr.BadData, "opening macro directory", err)
		}
		macro = &AssociatedImage{
			Name: "macro",
			Dir:  int(largest.Dir),
			TileLevel: TileLevel{
				Dir: int(largest.Dir), Width: int(ifd.Width), Height: int(ifd.Height),
				TileWidth: int(ifd.TileWidth), TileHeight: int(ifd.TileHeight),
			},
		}
		if !legacyQuickhash {
			smallest := img.Dimensions[len(img.Dimensions)-1]
			quickhashDir = int(smallest.Dir)
		}
	}

	if quickhashDir < 0 {
		return nil, leicaerr.New(leicaerr.BadData, "no quickhash directory")
	}

	propertyDir := levels[0].Areas[0].Tiffl.Dir

	return &synthResult{Levels: levels, QuickhashDir: quickhashDir, PropertyDir: propertyDir, Macro: macro}, nil
}

func buildArea(h *bigtiff.Handle, img *manifest.Image, dim *manifest.Dimension, tileCache *wsi.TileCache) (*Area, error) {
	if err := h.SetDirectory(int(dim.Dir)); err != nil {
		return nil, leicaerr.Wrap(leicaerr.BadData, "locating TIFF directory for dimension", err)
	}
	if !h.IsTiled() {
		return nil, leicaerr.Newf(leicaerr.BadData, "directory %d is not tiled", dim.Dir)
	}

	compressionField, err := h.GetField(bigtiff.FieldCompression)
	if err != nil {
		return nil, leicaerr.Wrap(leicaerr.Io, "reading compression tag", err)
	}
	if !compressionSupported(compressionField) {
		return nil, leicaerr.Newf(leicaerr.BadData, "unsupported compression: %v", compressionField)
	}

	tw, th := h.TileSize()
	across, down := h.TilesAcrossDown()

	area := &Area{
		Tiffl: TileLevel{
			Dir:        int(dim.Dir),
			Width:      int(dim.Width),
			Height:     int(dim.Height),
			TileWidth:  tw,
			TileHeight: th,
		},
		ClicksOffsetX: img.ClicksOffsetX,
		ClicksOffsetY: img.ClicksOffsetY,
	}
	bindGrid(area, across, down, tileCache)
	return area, nil
}

func getIFD(h *bigtiff.Handle, dir int) (*bigtiff.IFD, error) {
	if err := h.SetDirectory(dir); err != nil {
		return nil, err
	}
	return h.Reader().Directory(dir)
}

func compressionSupported(v any) bool {
	code, ok := v.(uint16)
	if !ok {
		return false
	}
	switch code {
	case 1, 5, 7, 8, 32946:
		return true
	default:
		return false
	}
}

// shouldUseLegacyQuickhash implements spec's should_use_legacy_quickhash:
// true iff the collection has exactly one non-macro brightfield image and
// at most one macro image, with every non-macro image brightfield. Preserved
// verbatim per spec's Open Question: this returns false immediately upon the
// first non-brightfield, non-macro image, regardless of other mains.
func shouldUseLegacyQuickhash(c *manifest.Collection) (bool, error) {
	mainCount := 0
	macroCount := 0
	for _, img := range c.Images {
		if img.IsMacro(c) {
			macroCount++
			continue
		}
		if img.IlluminationSource != brightfield {
			return false, nil
		}
		mainCount++
	}
	return mainCount == 1 && macroCount <= 1, nil
}

func setMainImageProperties(props *wsi.Properties, img *manifest.Image) {
	props.Set("leica.aperture", img.Aperture)
	props.Set("leica.creation-date", img.CreationDate)
	props.Set("leica.device-model", img.DeviceModel)
	props.Set("leica.device-version", img.DeviceVersion)
	props.Set("leica.illumination-source", img.IlluminationSource)
	props.Set("leica.objective", img.Objective)

	if power := leadingInt(img.Objective); power != "" {
		props.Set("openslide.objective-power", power)
	}
}

// leadingInt extracts the leading run of ASCII digits from s, e.g. "20" from
// "20X" or "40x water".
func leadingInt(s string) string {
	s = strings.TrimSpace(s)
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return ""
	}
	if _, err := strconv.Atoi(s[:i]); err != nil {
		return ""
	}
	return s[:i]
}

// resolutionSimilar implements spec's relative-tolerance resolution check:
// 1 - |a - b| / b >= 0.98. Never uses exact float equality.
func resolutionSimilar(a, b float64) bool {
	if b == 0 {
		return a == 0
	}
	return 1-math.Abs(a-b)/b >= 0.98
}

func ceilDiv(clicks int64, clicksPerPixel float64) int64 {
	return int64(math.Ceil(float64(clicks) / clicksPerPixel))
}

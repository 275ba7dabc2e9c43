package leica

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/openscn/scnslide/internal/bigtiff"
	"github.com/openscn/scnslide/internal/leicaerr"
)

// computeQuickhash derives a short, reproducible identifier from the
// designated directory's header fields and its first tile's decoded bytes —
// the Go-native stand-in for the original's libtiff-internal directory hash,
// preserving the glossary's "short stable identifier ... used to deduplicate
// slides" property without access to libtiff's private hash source.
func computeQuickhash(h *bigtiff.Handle, dir int) (string, error) {
	if err := h.SetDirectory(dir); err != nil {
		return "", leicaerr.Wrap(leicaerr.BadData, "couldn't locate TIFF directory for quickhash", err)
	}

	digest := xxhash.New()

	var header [12]byte
	width, _ := h.GetField(bigtiff.FieldImageWidth)
	height, _ := h.GetField(bigtiff.FieldImageLength)
	compression, _ := h.GetField(bigtiff.FieldCompression)
	binary.LittleEndian.PutUint32(header[0:4], toUint32(width))
	binary.LittleEndian.PutUint32(header[4:8], toUint32(height))
	binary.LittleEndian.PutUint32(header[8:12], toUint32(compression))
	digest.Write(header[:12])

	tile, err := h.ReadTile(0, 0)
	if err != nil {
		return "", leicaerr.Wrap(leicaerr.Io, "reading directory for quickhash", err)
	}
	b := tile.Bounds()
	row := make([]byte, 0, b.Dx()*4)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row = row[:0]
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, a := tile.At(x, y).RGBA()
			row = append(row, byte(r>>8), byte(g>>8), byte(bl>>8), byte(a>>8))
		}
		digest.Write(row)
	}

	return formatHash(digest.Sum64()), nil
}

func toUint32(v any) uint32 {
	switch n := v.(type) {
	case uint32:
		return n
	case uint16:
		return uint32(n)
	default:
		return 0
	}
}

func formatHash(h uint64) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[h&0xf]
		h >>= 4
	}
	return string(buf)
}

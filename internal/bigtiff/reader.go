// Package bigtiff reads the BigTIFF container that a Leica SCN file is built
// on: tiled directories, JPEG/Deflate/LZW tile compression, and the
// ImageDescription tag carrying the scanner's XML manifest. It intentionally
// does not support strip-based layouts — every directory written by a Leica
// scanner is tiled, and the SCN format recognizer rejects anything else
// before this package is asked to read tiles from it.
package bigtiff

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"os"

	"github.com/klauspost/compress/zlib"
)

// Reader provides directory- and tile-level access to a BigTIFF file. The
// file is memory-mapped, so reads are lock-free and safe for concurrent use
// by multiple Handles once opened.
type Reader struct {
	data []byte
	ifds []IFD
	path string
}

// Open memory-maps path and parses every IFD in the file. Only the main
// directory (0) must be tiled; a strip-based associated directory this
// reader never reads doesn't fail Open by itself. Per-directory tiling and
// compression checks for directories the Level Synthesizer actually uses
// happen there instead, as spec's BadData errors.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.Size() == 0 {
		return nil, fmt.Errorf("%s: empty file", path)
	}

	data, err := mmapFile(f.Fd(), int(fi.Size()))
	if err != nil {
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}

	ifds, _, err := parseTIFF(bytes.NewReader(data))
	if err != nil {
		munmapFile(data)
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(ifds) == 0 {
		munmapFile(data)
		return nil, fmt.Errorf("%s: no directories found", path)
	}

	// Only the main directory is checked here, matching the original's
	// recognition-time TIFFIsTiled check. Per-area tiling and compression
	// validation for every directory the synthesizer actually uses happens
	// in internal/leica's Level Synthesizer (BadData, not FormatNotSupported),
	// since a directory this reader never reads (e.g. an unused associated
	// image) shouldn't fail Open by itself.
	if !ifds[0].IsTiled() {
		munmapFile(data)
		return nil, fmt.Errorf("%s: directory 0 is not tiled", path)
	}

	return &Reader{data: data, ifds: ifds, path: path}, nil
}

// Close unmaps the underlying file.
func (r *Reader) Close() error {
	if r.data != nil {
		err := munmapFile(r.data)
		r.data = nil
		return err
	}
	return nil
}

// Path returns the file path the reader was opened from.
func (r *Reader) Path() string { return r.path }

// DirectoryCount returns the number of IFDs (directories) in the file.
func (r *Reader) DirectoryCount() int { return len(r.ifds) }

// Directory returns the parsed IFD at the given index.
func (r *Reader) Directory(dir int) (*IFD, error) {
	if dir < 0 || dir >= len(r.ifds) {
		return nil, fmt.Errorf("directory %d out of range (have %d)", dir, len(r.ifds))
	}
	return &r.ifds[dir], nil
}

// ReadTile decodes the tile at (col, row) in the given directory into an
// image.Image. Safe for concurrent use across Handles sharing this Reader.
func (r *Reader) ReadTile(dir, col, row int) (image.Image, error) {
	ifd, err := r.Directory(dir)
	if err != nil {
		return nil, err
	}

	tilesAcross := ifd.TilesAcross()
	tilesDown := ifd.TilesDown()
	if col < 0 || col >= tilesAcross || row < 0 || row >= tilesDown {
		return nil, fmt.Errorf("tile (%d,%d) out of range (%dx%d)", col, row, tilesAcross, tilesDown)
	}

	tileIdx := row*tilesAcross + col
	if tileIdx >= len(ifd.TileOffsets) || tileIdx >= len(ifd.TileByteCounts) {
		return nil, fmt.Errorf("tile index %d out of range", tileIdx)
	}

	offset := ifd.TileOffsets[tileIdx]
	size := ifd.TileByteCounts[tileIdx]
	if size == 0 {
		return image.NewRGBA(image.Rect(0, 0, int(ifd.TileWidth), int(ifd.TileHeight))), nil
	}

	end := offset + size
	if end > uint64(len(r.data)) {
		return nil, fmt.Errorf("tile data [%d:%d] exceeds file size %d", offset, end, len(r.data))
	}
	data := r.data[offset:end]

	switch ifd.Compression {
	case 7: // JPEG
		return decodeJPEGTile(ifd, data)
	case 1: // none
		if ifd.Predictor == 2 {
			buf := make([]byte, len(data))
			copy(buf, data)
			undoHorizontalDifferencing(buf, int(ifd.TileWidth), int(ifd.SamplesPerPixel))
			return decodeRawTile(ifd, buf)
		}
		return decodeRawTile(ifd, data)
	case 8, 32946: // deflate/zlib
		decompressed, err := decompressDeflate(data)
		if err != nil {
			return nil, fmt.Errorf("decompressing deflate tile: %w", err)
		}
		if ifd.Predictor == 2 {
			undoHorizontalDifferencing(decompressed, int(ifd.TileWidth), int(ifd.SamplesPerPixel))
		}
		return decodeRawTile(ifd, decompressed)
	case 5: // LZW
		decompressed, err := decompressLZW(data)
		if err != nil {
			return nil, fmt.Errorf("decompressing LZW tile: %w", err)
		}
		if ifd.Predictor == 2 {
			undoHorizontalDifferencing(decompressed, int(ifd.TileWidth), int(ifd.SamplesPerPixel))
		}
		return decodeRawTile(ifd, decompressed)
	default:
		return nil, fmt.Errorf("unsupported compression: %d", ifd.Compression)
	}
}

// undoHorizontalDifferencing reverses TIFF predictor=2 (horizontal
// differencing): each sample is stored as the delta from the previous sample
// in the row, so this accumulates deltas back into absolute values.
func undoHorizontalDifferencing(data []byte, width, samplesPerPixel int) {
	rowBytes := width * samplesPerPixel
	for off := 0; off+rowBytes <= len(data); off += rowBytes {
		row := data[off : off+rowBytes]
		for x := samplesPerPixel; x < rowBytes; x++ {
			row[x] += row[x-samplesPerPixel]
		}
	}
}

// decompressDeflate decompresses zlib-framed data (TIFF compression 8).
// klauspost/compress's zlib reader is a drop-in replacement for the
// standard library's, with a measurably faster inflate path.
func decompressDeflate(data []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

func decompressLZW(data []byte) ([]byte, error) {
	return decompressTIFFLZW(data)
}

// decodeJPEGTile decodes a JPEG-compressed tile, prepending the directory's
// shared JPEGTables (abbreviated-format JPEG tiles omit their own
// quantization/Huffman tables).
func decodeJPEGTile(ifd *IFD, data []byte) (image.Image, error) {
	jpegData := data
	if len(ifd.JPEGTables) > 0 {
		tables := ifd.JPEGTables
		if len(tables) >= 2 && tables[len(tables)-2] == 0xFF && tables[len(tables)-1] == 0xD9 {
			tables = tables[:len(tables)-2]
		}
		tileData := data
		if len(tileData) >= 2 && tileData[0] == 0xFF && tileData[1] == 0xD8 {
			tileData = tileData[2:]
		}
		jpegData = make([]byte, len(tables)+len(tileData))
		copy(jpegData, tables)
		copy(jpegData[len(tables):], tileData)
	}

	img, err := jpeg.Decode(bytes.NewReader(jpegData))
	if err != nil {
		return nil, fmt.Errorf("decoding JPEG tile: %w", err)
	}
	return img, nil
}

// decodeRawTile decodes uncompressed (post-predictor) pixel data into an RGBA
// image. Leica tiles are RGB or RGBA; anything else is reported as-is with
// channels repeated/defaulted the same way libtiff's RGBA interface does.
func decodeRawTile(ifd *IFD, data []byte) (image.Image, error) {
	w := int(ifd.TileWidth)
	h := int(ifd.TileHeight)
	spp := int(ifd.SamplesPerPixel)

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := (y*w + x) * spp
			if idx+spp > len(data) {
				break
			}
			var c color.RGBA
			switch spp {
			case 1:
				v := data[idx]
				c = color.RGBA{R: v, G: v, B: v, A: 255}
			case 3:
				c = color.RGBA{R: data[idx], G: data[idx+1], B: data[idx+2], A: 255}
			case 4:
				c = color.RGBA{R: data[idx], G: data[idx+1], B: data[idx+2], A: data[idx+3]}
			default:
				c.R = data[idx]
				if spp > 1 {
					c.G = data[idx+1]
				}
				if spp > 2 {
					c.B = data[idx+2]
				}
				c.A = 255
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img, nil
}

package bigtiff

import (
	"bytes"
	"image"
	"image/color"
	"compress/zlib"
	"testing"
)

func TestUndoHorizontalDifferencing(t *testing.T) {
	// width=4, spp=1: original row [10, 12, 15, 15] stored as
	// [10, 2, 3, 0] (each sample minus its predecessor).
	data := []byte{10, 2, 3, 0}
	undoHorizontalDifferencing(data, 4, 1)
	want := []byte{10, 12, 15, 15}
	if !bytes.Equal(data, want) {
		t.Errorf("undoHorizontalDifferencing() = %v, want %v", data, want)
	}
}

func TestUndoHorizontalDifferencing_MultiSample(t *testing.T) {
	// width=2, spp=3 (RGB): two pixels, deltas within each sample channel.
	data := []byte{
		100, 50, 25, // pixel 0: R=100 G=50 B=25 (absolute)
		5, 5, 5, // pixel 1 deltas: R=+5 G=+5 B=+5
	}
	undoHorizontalDifferencing(data, 2, 3)
	want := []byte{100, 50, 25, 105, 55, 30}
	if !bytes.Equal(data, want) {
		t.Errorf("undoHorizontalDifferencing() = %v, want %v", data, want)
	}
}

func TestDecompressDeflate(t *testing.T) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	original := []byte("leica scn tile payload, repeated repeated repeated")
	if _, err := zw.Write(original); err != nil {
		t.Fatalf("zlib.Write: %v", err)
	}
	zw.Close()

	got, err := decompressDeflate(buf.Bytes())
	if err != nil {
		t.Fatalf("decompressDeflate: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("decompressDeflate() = %q, want %q", got, original)
	}
}

func TestDecodeRawTile_RGB(t *testing.T) {
	ifd := &IFD{TileWidth: 2, TileHeight: 1, SamplesPerPixel: 3}
	data := []byte{255, 0, 0, 0, 255, 0} // red pixel, green pixel
	img, err := decodeRawTile(ifd, data)
	if err != nil {
		t.Fatalf("decodeRawTile: %v", err)
	}
	if got := img.At(0, 0); got != (color.RGBA{255, 0, 0, 255}) {
		t.Errorf("pixel(0,0) = %v, want red", got)
	}
	if got := img.At(1, 0); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("pixel(1,0) = %v, want green", got)
	}
}

func TestDecodeRawTile_Grayscale(t *testing.T) {
	ifd := &IFD{TileWidth: 1, TileHeight: 1, SamplesPerPixel: 1}
	data := []byte{128}
	img, err := decodeRawTile(ifd, data)
	if err != nil {
		t.Fatalf("decodeRawTile: %v", err)
	}
	want := color.RGBA{128, 128, 128, 255}
	if got := img.At(0, 0); got != want {
		t.Errorf("pixel(0,0) = %v, want %v", got, want)
	}
}

func TestDecodeRawTile_RGBA(t *testing.T) {
	ifd := &IFD{TileWidth: 1, TileHeight: 1, SamplesPerPixel: 4}
	data := []byte{10, 20, 30, 40}
	img, err := decodeRawTile(ifd, data)
	if err != nil {
		t.Fatalf("decodeRawTile: %v", err)
	}
	want := color.RGBA{10, 20, 30, 40}
	if got := img.At(0, 0); got != want {
		t.Errorf("pixel(0,0) = %v, want %v", got, want)
	}
}

func TestDecodeRawTile_TruncatedDataStopsCleanly(t *testing.T) {
	ifd := &IFD{TileWidth: 4, TileHeight: 4, SamplesPerPixel: 3}
	data := make([]byte, 3) // only enough for one pixel, not the whole tile
	img, err := decodeRawTile(ifd, data)
	if err != nil {
		t.Fatalf("decodeRawTile with truncated data: %v", err)
	}
	if img.Bounds() != (image.Rectangle{Max: image.Point{X: 4, Y: 4}}) {
		t.Errorf("image bounds = %v, want 4x4 even when underlying data is short", img.Bounds())
	}
}

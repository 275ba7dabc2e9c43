package encode

import (
	"bytes"
	"image"

	"github.com/gen2brain/webp"
)

// WebPEncoder encodes tiles as WebP using gen2brain/webp's pure-Go (WASM)
// codec — the same module decode.go already uses for decoding, so the
// package never links against libwebp via cgo.
type WebPEncoder struct {
	Quality int // 1-100, default 80
}

func (e *WebPEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	quality := e.Quality
	if quality <= 0 {
		quality = 80
	}
	if err := webp.Encode(&buf, img, webp.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *WebPEncoder) Format() string       { return "webp" }
func (e *WebPEncoder) FileExtension() string { return ".webp" }

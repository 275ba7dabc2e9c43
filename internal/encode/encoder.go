package encode

import (
	"fmt"
	"image"
)

// Encoder encodes a rendered region or tile into bytes for one output
// format.
type Encoder interface {
	// Encode encodes img to bytes in this encoder's format.
	Encode(img image.Image) ([]byte, error)

	// Format returns the format name (e.g. "jpeg", "png", "webp").
	Format() string

	// FileExtension returns the appropriate file extension, including
	// the leading dot.
	FileExtension() string
}

// NewEncoder creates an encoder for the given format and quality. quality is
// only meaningful for lossy formats (jpeg, webp) and ignored otherwise.
func NewEncoder(format string, quality int) (Encoder, error) {
	switch format {
	case "jpeg", "jpg":
		return &JPEGEncoder{Quality: quality}, nil
	case "png":
		return &PNGEncoder{}, nil
	case "webp":
		return &WebPEncoder{Quality: quality}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %q (supported: jpeg, png, webp)", format)
	}
}

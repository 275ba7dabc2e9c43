// Command scnthumbnail renders a rectangular region of a Leica .scn slide
// at a chosen pyramid level to an image file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fogleman/gg"
	"golang.org/x/sync/errgroup"

	"github.com/openscn/scnslide/internal/encode"
	"github.com/openscn/scnslide/internal/leica"
	"github.com/openscn/scnslide/internal/wsi"
)

func main() {
	var (
		level   = flag.Int("level", -1, "pyramid level to read from (default: coarsest)")
		x       = flag.Int("x", 0, "region x offset, in level-0 pixels")
		y       = flag.Int("y", 0, "region y offset, in level-0 pixels")
		w       = flag.Int("w", 0, "region width, in target-level pixels (default: whole level)")
		h       = flag.Int("h", 0, "region height, in target-level pixels (default: whole level)")
		format  = flag.String("format", "png", "output format: jpeg, png, webp")
		quality = flag.Int("quality", 85, "encode quality for lossy formats")
		out     = flag.String("out", "thumbnail.png", "output file path")
		tiles   = flag.Int("tiles", 1, "split the region into this many horizontal strips, rendered concurrently")
	)
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: scnthumbnail [flags] <file.scn>\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	path := flag.Arg(0)

	start := time.Now()
	r, err := leica.Open(path)
	if err != nil {
		log.Fatalf("opening %s: %v", path, err)
	}
	defer r.Close()

	levels := r.Levels()
	if len(levels) == 0 {
		log.Fatalf("%s: no levels recognized", path)
	}
	idx := *level
	if idx < 0 {
		idx = len(levels) - 1
	}
	if idx >= len(levels) {
		log.Fatalf("level %d out of range (have %d levels)", idx, len(levels))
	}
	lvl := levels[idx]

	width, height := *w, *h
	if width <= 0 {
		width = int(lvl.Base.W)
	}
	if height <= 0 {
		height = int(lvl.Base.H)
	}

	dc := gg.NewContext(width, height)

	strips := *tiles
	if strips < 1 {
		strips = 1
	}
	if strips > height {
		strips = height
	}

	pb := wsi.NewProgressBar("rendering", int64(strips))

	g, ctx := errgroup.WithContext(context.Background())
	stripHeight := (height + strips - 1) / strips
	stripImages := make([]*gg.Context, strips)
	stripTops := make([]int, strips)
	for s := 0; s < strips; s++ {
		s := s
		top := s * stripHeight
		bottom := top + stripHeight
		if bottom > height {
			bottom = height
		}
		if top >= bottom {
			continue
		}
		stripTops[s] = top
		g.Go(func() error {
			strip := gg.NewContext(width, bottom-top)
			// top is a target-level pixel offset; PaintRegion's y is in
			// level-0 pixels (spec §4.4), so it must be scaled by the
			// level's downsample before being combined with *y.
			level0Top := int(float64(top) * lvl.Base.Downsample)
			if err := r.PaintRegion(ctx, strip, *x, *y+level0Top, lvl, width, bottom-top); err != nil {
				return fmt.Errorf("painting strip [%d,%d): %w", top, bottom, err)
			}
			stripImages[s] = strip
			pb.Increment()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("rendering region: %v", err)
	}
	pb.Finish()
	// Strips are painted concurrently but composited onto dc sequentially,
	// since gg.Context is not safe for concurrent drawing.
	for s, strip := range stripImages {
		if strip == nil {
			continue
		}
		dc.DrawImage(strip.Image(), 0, stripTops[s])
	}

	enc, err := encode.NewEncoder(*format, *quality)
	if err != nil {
		log.Fatalf("%v", err)
	}
	data, err := enc.Encode(dc.Image())
	if err != nil {
		log.Fatalf("encoding %s: %v", *format, err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatalf("writing %s: %v", *out, err)
	}

	fmt.Printf("wrote %s: %dx%d, %s, level %d, %s\n",
		*out, width, height, humanize.Bytes(uint64(len(data))), idx, time.Since(start).Round(time.Millisecond))
}

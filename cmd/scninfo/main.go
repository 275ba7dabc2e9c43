// Command scninfo opens a Leica .scn slide and prints its recognized
// levels, macro image, and metadata properties.
package main

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/openscn/scnslide/internal/leica"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: scninfo <file.scn>\n")
		os.Exit(1)
	}

	path := os.Args[1]
	r, err := leica.Open(path)
	if err != nil {
		log.Fatalf("opening %s: %v", path, err)
	}
	defer r.Close()

	fi, err := os.Stat(path)
	if err == nil {
		fmt.Printf("File: %s (%s)\n", path, humanize.Bytes(uint64(fi.Size())))
	} else {
		fmt.Printf("File: %s\n", path)
	}
	fmt.Printf("Quickhash: %s\n", r.Quickhash())

	fmt.Printf("\nLevels:\n")
	for i, lvl := range r.Levels() {
		fmt.Printf("  %d: %dx%d, clicks/px=%.4f, downsample=%.3f, %d area(s)\n",
			i, lvl.Base.W, lvl.Base.H, lvl.ClicksPerPixel, lvl.Base.Downsample, len(lvl.Areas))
		for _, area := range lvl.Areas {
			fmt.Printf("      area dir=%d %dx%d tile=%dx%d offset=(%d,%d)\n",
				area.Tiffl.Dir, area.Tiffl.Width, area.Tiffl.Height,
				area.Tiffl.TileWidth, area.Tiffl.TileHeight,
				area.ClicksOffsetX, area.ClicksOffsetY)
		}
	}

	if macro := r.Macro(); macro != nil {
		fmt.Printf("\nMacro: dir=%d %dx%d\n", macro.Dir, macro.Width, macro.Height)
	}

	fmt.Printf("\nProperties:\n")
	props := r.Properties()
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s = %s\n", k, props[k])
	}
}

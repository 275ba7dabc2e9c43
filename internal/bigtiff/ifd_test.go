package bigtiff

import "testing"

func TestIFD_TilesAcrossDown(t *testing.T) {
	ifd := &IFD{Width: 10000, Height: 8000, TileWidth: 256, TileHeight: 256}
	if got := ifd.TilesAcross(); got != 40 { // ceil(10000/256) = 40
		t.Errorf("TilesAcross() = %d, want 40", got)
	}
	if got := ifd.TilesDown(); got != 32 { // ceil(8000/256) = 32
		t.Errorf("TilesDown() = %d, want 32", got)
	}
}

func TestIFD_TilesAcrossDown_ZeroTileSize(t *testing.T) {
	ifd := &IFD{Width: 100, Height: 100}
	if got := ifd.TilesAcross(); got != 0 {
		t.Errorf("TilesAcross() with TileWidth=0 = %d, want 0", got)
	}
	if got := ifd.TilesDown(); got != 0 {
		t.Errorf("TilesDown() with TileHeight=0 = %d, want 0", got)
	}
}

func TestIFD_IsTiled(t *testing.T) {
	tests := []struct {
		name string
		ifd  *IFD
		want bool
	}{
		{"tiled", &IFD{TileWidth: 256, TileHeight: 256, TileOffsets: []uint64{0}}, true},
		{"no offsets", &IFD{TileWidth: 256, TileHeight: 256}, false},
		{"strip-based", &IFD{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ifd.IsTiled(); got != tt.want {
				t.Errorf("IsTiled() = %v, want %v", got, tt.want)
			}
		})
	}
}

package cqtscope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMagnitudeSource produces a deterministic column from its
// logical index alone, so a tile's recovered pixels can be checked
// against what Column(i) would currently return.
type fakeMagnitudeSource struct {
	numBins int
}

func (f *fakeMagnitudeSource) NumBins() int { return f.numBins }

func (f *fakeMagnitudeSource) Column(logicalIndex uint64) []float32 {
	col := make([]float32, f.numBins)
	for y := range col {
		col[y] = float32((logicalIndex+uint64(y))%997) / 997
	}
	return col
}

// T8 (Tile ring wrap): after writing tile_count*tile_width + delta
// columns, the physical tile holding the most recent tile_width
// columns equals what Column() currently reports for those indices.
func Test_TileRing_wrapAroundT8(t *testing.T) {
	const tileWidth = 16
	const tileCount = 4
	const numBins = 10
	const delta = 5

	src := &fakeMagnitudeSource{numBins: numBins}
	tr := NewTileRing(TileConfig{TileWidth: tileWidth, TileCount: tileCount}, nil)
	tr.Configure(src, numBins, tileCount*tileWidth*4)

	total := uint64(tileCount*tileWidth + delta)
	tr.Update(0, total)

	assert.Equal(t, total, tr.WritePosition())

	// The most recently written tile_width columns must still be
	// readable through whichever physical tile they landed in -
	// verifying the ring reconstructs exactly the source's current
	// output after wrapping around the ring more than once.
	start := total - tileWidth
	for i := 0; i < tileWidth; i++ {
		logical := start + uint64(i)
		tile, x := tr.Tile(logical)
		want := src.Column(logical)
		for y := 0; y < numBins; y++ {
			color := tr.colormap(want[y])
			idx := (y*tile.Width + x) * 4
			assert.Equal(t, color, [4]byte{tile.Pixels[idx], tile.Pixels[idx+1], tile.Pixels[idx+2], tile.Pixels[idx+3]})
		}
	}
}

func Test_TileRing_unusedRowsLeftZero(t *testing.T) {
	const tileWidth = 8
	const tileCount = 2
	const numBins = 5 // next power of two is 8; rows 5..7 unused

	src := &fakeMagnitudeSource{numBins: numBins}
	tr := NewTileRing(TileConfig{TileWidth: tileWidth, TileCount: tileCount}, nil)
	tr.Configure(src, numBins, tileCount*tileWidth)

	require.Equal(t, 8, tr.TileHeight())
	tr.Update(0, uint64(tileWidth))

	tile, _ := tr.Tile(0)
	for y := numBins; y < tr.TileHeight(); y++ {
		for x := 0; x < tileWidth; x++ {
			idx := (y*tile.Width + x) * 4
			assert.Equal(t, []byte{0, 0, 0, 0}, tile.Pixels[idx:idx+4])
		}
	}
}

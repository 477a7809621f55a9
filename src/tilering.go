package cqtscope

import (
	"sync/atomic"
)

/*------------------------------------------------------------------
 *
 * Purpose:	Spectrogram Tile Ring (spec section 4.5, component C5).
 *		Distributes magnitude columns pulled from a
 *		MagnitudeSource across a ring of RGBA8 tiles, advancing
 *		a published write_position that a renderer uses to know
 *		which tiles are safe to read (spec section 5: single-
 *		writer / many-reader).
 *
 *------------------------------------------------------------------*/

// Tile is one fixed-size RGBA8 surface in the ring.
type Tile struct {
	Pixels []byte // len == Width*Height*4
	Width  int
	Height int
}

// TileRing implements component C5.
type TileRing struct {
	tiles    []Tile
	colormap Colormap

	tileWidth int
	tileCount int

	numBins           int
	tileHeight        int
	maxFramesInSource int
	input             MagnitudeSource

	writePosition atomic.Uint64 // logical column index, published
}

// NewTileRing allocates tileCount tiles of tileWidth columns each.
// The colormap is applied once per written cell; pass nil for
// HotColormap.
func NewTileRing(cfg TileConfig, colormap Colormap) *TileRing {
	Assert(cfg.TileWidth > 0, "TileWidth must be positive")
	Assert(cfg.TileCount >= 2, "TileCount must be at least 2")

	if colormap == nil {
		colormap = HotColormap
	}

	return &TileRing{
		tileWidth: cfg.TileWidth,
		tileCount: cfg.TileCount,
		colormap:  colormap,
	}
}

// Configure binds the ring to a backing MagnitudeSource and allocates
// tile pixel storage. tileHeight is next_power_of_two(numBins); pixel
// rows numBins..tileHeight-1 are allocated but never written (spec
// section 4.5's "Pixel columns with index >= num_bins vertically are
// unused").
func (tr *TileRing) Configure(input MagnitudeSource, numBins, maxFramesInSource int) {
	Assert(numBins > 0, "numBins must be positive")
	Assert(maxFramesInSource > 0, "maxFramesInSource must be positive")

	tr.input = input
	tr.numBins = numBins
	tr.tileHeight = NextPowerOfTwo(numBins)
	tr.maxFramesInSource = maxFramesInSource

	tr.tiles = make([]Tile, tr.tileCount)
	for i := range tr.tiles {
		tr.tiles[i] = Tile{
			Pixels: make([]byte, tr.tileWidth*tr.tileHeight*4),
			Width:  tr.tileWidth,
			Height: tr.tileHeight,
		}
	}
	tr.writePosition.Store(0)
}

// TileWidth, TileHeight, TileCount, NumBins report the ring's fixed
// geometry.
func (tr *TileRing) TileWidth() int { return tr.tileWidth }
func (tr *TileRing) TileHeight() int { return tr.tileHeight }
func (tr *TileRing) TileCount() int { return tr.tileCount }
func (tr *TileRing) NumBins() int   { return tr.numBins }

// WritePosition returns the published, monotonically increasing
// logical column index. A renderer may safely read tiles covering
// [WritePosition()-k, WritePosition()) for any k <= tileWidth*tileCount.
func (tr *TileRing) WritePosition() uint64 { return tr.writePosition.Load() }

// Tile returns the physical tile holding a given logical column's
// data, along with that column's x offset within it.
func (tr *TileRing) Tile(logicalColumn uint64) (*Tile, int) {
	w := uint64(tr.tileWidth)
	physical := int((logicalColumn / w) % uint64(tr.tileCount))
	x := int(logicalColumn % w)
	return &tr.tiles[physical], x
}

// Update absorbs magnitude columns [startFrame, endFrame) - logical,
// monotonically increasing - pulling each from the bound
// MagnitudeSource and painting it into the tile ring, advancing
// write_position as each step fills. Per spec section 4.5 it walks
// the tile ring from the current write position, copying up to
// tile_width - intra_tile_x columns per step before a tile rolls
// over; MagnitudeSource.Column already wraps logical indices onto
// its own physical storage by modulo, so (unlike the tile-side walk)
// no separate sub-range split is needed on the source side.
func (tr *TileRing) Update(startFrame, endFrame uint64) {
	Assert(tr.input != nil, "Configure must be called before Update")
	if endFrame <= startFrame {
		return
	}

	cur := startFrame
	for cur < endFrame {
		tile, intraX := tr.Tile(cur)
		batch := int(endFrame - cur)
		if room := tr.tileWidth - intraX; batch > room {
			batch = room
		}

		for i := 0; i < batch; i++ {
			col := tr.input.Column(cur + uint64(i))
			writeColumn(tile, intraX+i, col, tr.numBins, tr.colormap)
		}

		cur += uint64(batch)
		tr.writePosition.Store(cur)
	}
}

// writeColumn paints one magnitude column into tile at x, covering
// rows [0, numBins); rows [numBins, tile.Height) are left untouched.
func writeColumn(tile *Tile, x int, mag []float32, numBins int, cm Colormap) {
	for y := 0; y < numBins; y++ {
		color := cm(mag[y])
		idx := (y*tile.Width + x) * 4
		tile.Pixels[idx+0] = color[0]
		tile.Pixels[idx+1] = color[1]
		tile.Pixels[idx+2] = color[2]
		tile.Pixels[idx+3] = color[3]
	}
}

// Reset zeroes write_position; tile pixel storage is left untouched,
// matching spec section 4.5's reset semantics.
func (tr *TileRing) Reset() {
	tr.writePosition.Store(0)
}

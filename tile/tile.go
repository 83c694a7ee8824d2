/*
Package tile implements assembly of the game's 64 by 48 pixel tiles.

Each tile is built from six consecutive subtiles in the tile blob, laid out
in two columns of three:

	0 3
	1 4
	2 5

Subtiles can be shared between tiles. A standard HBLK01.DAT holds 256 tiles.
*/
package tile

import (
	"fmt"

	"github.com/bodgit/isomap/format"
	"github.com/bodgit/isomap/subtile"
)

const (
	subtileX = 2
	subtileY = 3
	// SubtilesPerTile is the number of subtiles that make up a tile
	SubtilesPerTile = subtileX * subtileY
	// Width is the width of a tile in pixels
	Width = subtile.Width * subtileX
	// Height is the height of a tile in pixels
	Height = subtile.Height * subtileY
	// NumPixels is the number of pixels in a tile
	NumPixels = Width * Height
	// NumTiles is the number of tiles in a standard HBLK01.DAT
	NumTiles = subtile.NumSubtiles / SubtilesPerTile
)

// Tile is a grid of pixels in display order; left to right, top to bottom.
type Tile [NumPixels]subtile.Pixel

// At returns the pixel at column x, row y.
func (t *Tile) At(x, y int) subtile.Pixel {
	return t[y*Width+x]
}

// Slot n is placed at column n / 3, row n % 3
func slot(n int) (int, int) {
	return n / subtileY, n % subtileY
}

// Assemble joins exactly six subtiles into a tile.
func Assemble(subtiles []subtile.Subtile) (*Tile, error) {
	if len(subtiles) != SubtilesPerTile {
		return nil, fmt.Errorf("%w: tile: expected %d subtiles, got %d", format.ErrFormat, SubtilesPerTile, len(subtiles))
	}

	t := new(Tile)
	for n := range subtiles {
		sx, sy := slot(n)
		for y := 0; y < subtile.Height; y++ {
			dy := sy*subtile.Height + y
			copy(t[dy*Width+sx*subtile.Width:dy*Width+sx*subtile.Width+subtile.Width], subtiles[n][y*subtile.Width:(y+1)*subtile.Width])
		}
	}
	return t, nil
}

// Read decodes the six subtiles of tile n from blob and assembles them.
func Read(n int, table subtile.OffsetTable, blob []byte) (*Tile, error) {
	numTiles := table.Len() / SubtilesPerTile
	if n < 0 || n >= numTiles {
		return nil, fmt.Errorf("%w: tile %d, expected < %d", format.ErrIndex, n, numTiles)
	}

	subtiles := make([]subtile.Subtile, SubtilesPerTile)
	for i := range subtiles {
		s, err := subtile.Decode(n*SubtilesPerTile+i, table, blob)
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", n, err)
		}
		subtiles[i] = s
	}

	return Assemble(subtiles)
}

/*
Package iso composites a decoded map into a single isometric image.

Each map column (x, z) is projected onto the canvas at subtile granularity;
moving one step along x moves a tile half its width right and a subtile
height down, moving one step along z moves it the same amount left and down,
and each stacking level raises it by a subtile height. Columns are painted
in increasing z, then x, then level, so that nearer and higher tiles cover
farther and lower ones where they overlap.
*/
package iso

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io/ioutil"
	"log"

	"github.com/bodgit/isomap/format"
	"github.com/bodgit/isomap/level"
	"github.com/bodgit/isomap/subtile"
	"github.com/bodgit/isomap/tile"
)

const (
	stepX = subtile.Width
	stepY = subtile.Height

	// MaxCanvasPixels is the largest canvas Render allocates
	MaxCanvasPixels = 1 << 28
)

// TileSource provides the assembled tiles a map refers to. *tile.Atlas
// satisfies it.
type TileSource interface {
	Tile(n int) (*tile.Tile, error)
}

// Stats summarises a composition.
type Stats struct {
	Blits   int
	Skipped int
	Clipped int
}

// Compositor draws maps using a palette and a set of tiles.
type Compositor struct {
	palette color.Palette
	tiles   TileSource
	logger  *log.Logger
}

// New returns a Compositor. A nil logger discards all messages.
func New(p color.Palette, tiles TileSource, logger *log.Logger) *Compositor {
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Compositor{
		palette: p,
		tiles:   tiles,
		logger:  logger,
	}
}

// Bounds returns the size of the canvas needed to draw m.
func Bounds(m *level.Map) image.Rectangle {
	return image.Rect(0, 0, stepX*m.X+stepX*m.Z, stepY*2*m.Z+stepY*3*m.Y)
}

// fits reports whether the canvas for m has no more than MaxCanvasPixels
func fits(m *level.Map) bool {
	if m.X <= 0 || m.Y <= 0 || m.Z <= 0 {
		return false
	}
	w := (uint64(m.X) + uint64(m.Z)) * stepX
	h := (2*uint64(m.Z) + 3*uint64(m.Y)) * stepY
	return w <= MaxCanvasPixels && h <= MaxCanvasPixels && w*h <= MaxCanvasPixels
}

// Origin returns the canvas position of the top-left corner of the tile at
// level l of column (x, z) in m.
func Origin(m *level.Map, x, l, z int) image.Point {
	return image.Point{
		X: (x-z)*stepX + stepX*m.Z,
		Y: (x+z)*stepY - l*stepY,
	}
}

// checkColors makes sure every opaque pixel of t has a palette entry
func (c *Compositor) checkColors(t *tile.Tile) error {
	for _, px := range t {
		if !px.Transparent && int(px.Index) >= len(c.palette) {
			return fmt.Errorf("%w: color %d, palette has %d colors", format.ErrIndex, px.Index, len(c.palette))
		}
	}
	return nil
}

// blit draws the opaque pixels of t at origin o, returning the number of
// pixels that fell outside dst. Nothing is drawn if any pixel lacks a color.
func (c *Compositor) blit(dst draw.Image, t *tile.Tile, o image.Point) (int, error) {
	if err := c.checkColors(t); err != nil {
		return 0, err
	}

	r := dst.Bounds()
	var clipped int
	for y := 0; y < tile.Height; y++ {
		for x := 0; x < tile.Width; x++ {
			px := t[y*tile.Width+x]
			if px.Transparent {
				continue
			}
			pt := image.Pt(o.X+x, o.Y+y)
			if !pt.In(r) {
				clipped++
				continue
			}
			dst.Set(pt.X, pt.Y, c.palette[px.Index])
		}
	}
	return clipped, nil
}

// Compose draws m onto dst. Problems with individual tiles are logged and
// skipped rather than stopping the whole map.
func (c *Compositor) Compose(dst draw.Image, m *level.Map) (Stats, error) {
	var stats Stats
	if m == nil || c.tiles == nil {
		return stats, fmt.Errorf("%w: iso: nothing to compose", format.ErrFormat)
	}

	for z := 0; z < m.Z; z++ {
		for x := 0; x < m.X; x++ {
			stack, err := m.Column(x, z)
			if err != nil {
				return stats, err
			}

			var clipped int
			for l, n := range stack {
				t, err := c.tiles.Tile(int(n))
				if err != nil {
					c.logger.Printf("Skipping level %d of column (%d, %d): %v\n", l, x, z, err)
					stats.Skipped++
					continue
				}

				o := Origin(m, x, l, z)
				nc, err := c.blit(dst, t, o)
				clipped += nc
				if err != nil {
					c.logger.Printf("Skipping tile %d at level %d of column (%d, %d): %v\n", n, l, x, z, err)
					stats.Skipped++
					continue
				}
				stats.Blits++
			}

			if clipped > 0 {
				c.logger.Printf("Clipped %d pixels of column (%d, %d)\n", clipped, x, z)
				stats.Clipped += clipped
			}
		}
	}

	return stats, nil
}

// Render draws m onto a new transparent canvas sized by Bounds. Empty maps
// and maps needing more than MaxCanvasPixels are rejected.
func (c *Compositor) Render(m *level.Map) (*image.RGBA, Stats, error) {
	if m == nil {
		return nil, Stats{}, fmt.Errorf("%w: iso: nothing to compose", format.ErrFormat)
	}
	if !fits(m) {
		return nil, Stats{}, fmt.Errorf("%w: iso: can't render a %dx%dx%d map", format.ErrFormat, m.X, m.Y, m.Z)
	}
	canvas := image.NewRGBA(Bounds(m))
	stats, err := c.Compose(canvas, m)
	if err != nil {
		return nil, stats, err
	}
	return canvas, stats, nil
}

package tile

import (
	"image"
	"image/color"
)

// Transparent is the image palette index used for transparent pixels.
const Transparent = 0

// ImagePalette returns p shifted up by one with a transparent color at index
// 0, the palette used by Image.
func ImagePalette(p color.Palette) color.Palette {
	dup := make(color.Palette, 0, len(p)+1)
	dup = append(dup, color.RGBA{0, 0, 0, 0})
	return append(dup, p...)
}

// Image renders t using the 16 colors in p. Pixel indices beyond the end of
// p are drawn as transparent.
func (t *Tile) Image(p color.Palette) *image.Paletted {
	m := image.NewPaletted(image.Rect(0, 0, Width, Height), ImagePalette(p))
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			px := t[y*Width+x]
			if px.Transparent || int(px.Index) >= len(p) {
				continue
			}
			m.SetColorIndex(x, y, px.Index+1)
		}
	}
	return m
}

package subtile

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"
)

const colorsPerSubtile = 1 << colorBits

func setBit(block []byte, row, col, chunk int) {
	block[row*bytesPerRow+chunk*chunkSize+col>>3] |= 1 << uint(7-col%8)
}

// Encode packs s into its 320 byte on-disk form.
func Encode(s Subtile) []byte {
	block := make([]byte, BlockSize)
	for y := 0; y < Height; y++ {
		row := storedRow(y)
		for x := 0; x < Width; x++ {
			p := s[y*Width+x]
			if p.Transparent {
				setBit(block, row, x, transparencyChunk)
			}
			for bit := 0; bit < colorBits; bit++ {
				if p.Index&(1<<uint(bit)) != 0 {
					setBit(block, row, x, colorChunk+bit)
				}
			}
		}
	}
	return block
}

// EncodeImage packs the 32 by 16 image m into its on-disk form, returning the
// 16 color palette the indices refer to. Images that aren't already using a
// palette of 16 colors or fewer are quantized first. Any pixel that is more
// than half transparent is stored as transparent.
func EncodeImage(m image.Image) ([]byte, color.Palette, error) {
	b := m.Bounds()
	if b.Dx() != Width || b.Dy() != Height {
		return nil, nil, errors.New("subtile: image is wrong size")
	}

	pm, _ := m.(*image.Paletted)
	if pm == nil {
		if cp, ok := m.ColorModel().(color.Palette); ok {
			pm = image.NewPaletted(b, cp)
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					pm.Set(x, y, cp.Convert(m.At(x, y)))
				}
			}
		}
	}
	if pm == nil || len(pm.Palette) > colorsPerSubtile {
		q := quantize.MedianCutQuantizer{}
		pm = image.NewPaletted(b, q.Quantize(make(color.Palette, 0, colorsPerSubtile), m))
		draw.Draw(pm, b, m, b.Min, draw.Src)
	}

	var s Subtile
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			_, _, _, a := m.At(b.Min.X+x, b.Min.Y+y).RGBA()
			s[y*Width+x] = Pixel{
				Index:       pm.ColorIndexAt(b.Min.X+x, b.Min.Y+y) & 0x0f,
				Transparent: a < 0x8000,
			}
		}
	}

	return Encode(s), pm.Palette, nil
}

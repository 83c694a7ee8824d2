/*
Package palette implements a decoder for the game's HPALxx palette files.

A palette file is exactly 768 bytes; 256 colors each stored as three
consecutive red, green, and blue bytes. Each component only uses the range
[0, 63]. In missions the game only ever draws with the first 16 colors so
that is all the decoder returns, scaled up to the usual [0, 255] range.
*/
package palette

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/bodgit/isomap/format"
)

const (
	numColors     = 256
	bytesPerColor = 3
	// FileSize is the exact size in bytes of a palette file
	FileSize = numColors * bytesPerColor
	// NumColors is the number of colors used in-game
	NumColors = 16
)

// Component bytes are 6-bit, anything above 63 is masked off
func scale(b byte) uint8 {
	return (b & 0x3f) << 2
}

// Decode returns the in-game colors from the palette file contents in b.
func Decode(b []byte) (color.Palette, error) {
	if len(b) != FileSize {
		return nil, fmt.Errorf("%w: palette: expected %d bytes, got %d", format.ErrFormat, FileSize, len(b))
	}

	p := make(color.Palette, NumColors)
	for i := range p {
		c := b[i*bytesPerColor : i*bytesPerColor+bytesPerColor]
		p[i] = color.RGBA{scale(c[0]), scale(c[1]), scale(c[2]), 0xff}
	}
	return p, nil
}

// DecodeReader reads a palette file from r. Short or trailing data is
// reported as a format error.
func DecodeReader(r io.Reader) (color.Palette, error) {
	var tmp [FileSize + 1]byte
	n, err := io.ReadFull(r, tmp[:])
	switch err {
	case io.ErrUnexpectedEOF, io.EOF:
	case nil:
		return nil, fmt.Errorf("%w: palette: too much data", format.ErrFormat)
	default:
		return nil, err
	}
	return Decode(tmp[:n])
}

// Sample renders p as a strip of 1 pixel per color.
func Sample(p color.Palette) *image.Paletted {
	m := image.NewPaletted(image.Rect(0, 0, len(p), 1), p)
	for i := range p {
		m.SetColorIndex(i, 0, uint8(i))
	}
	return m
}

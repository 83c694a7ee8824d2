/*
Package subtile implements a decoder and encoder for the 32 by 16 pixel
subtiles stored in the game's HBLKxx tile blobs.

A blob starts with an offset table of 4-byte little endian values, one per
subtile, giving the absolute position of that subtile's data within the blob.
An offset that points inside the table itself means the subtile has no art and
is entirely transparent.

Each subtile is 320 bytes; 16 rows of 20 bytes, stored bottom row first. A row
is split into five 4 byte chunks. The first chunk holds the transparency bit
for all 32 pixels, the remaining four hold one color bit each, least
significant first. Chunks run left to right but within each byte the leftmost
pixel is bit 7.
*/
package subtile

const (
	// Width is the width of a subtile in pixels
	Width = 32
	// Height is the height of a subtile in pixels
	Height = 16
	// NumPixels is the number of pixels in a subtile
	NumPixels = Width * Height
	// BlockSize is the size in bytes of an encoded subtile
	BlockSize = bytesPerRow * Height
	// NumSubtiles is the number of subtiles in a standard HBLK01.DAT,
	// 256 tiles of 6 subtiles each
	NumSubtiles = 1536
)

const (
	chunkSize         = Width >> 3
	numChunks         = 5
	bytesPerRow       = chunkSize * numChunks
	transparencyChunk = 0
	colorChunk        = 1
	colorBits         = numChunks - colorChunk
)

// Pixel is a single 4-bit color index plus a transparency flag.
type Pixel struct {
	Index       uint8
	Transparent bool
}

// Subtile is a grid of pixels in display order; left to right, top to bottom.
type Subtile [NumPixels]Pixel

// At returns the pixel at column x, row y.
func (s *Subtile) At(x, y int) Pixel {
	return s[y*Width+x]
}

// Empty returns a fully transparent subtile.
func Empty() Subtile {
	var s Subtile
	for i := range s {
		s[i].Transparent = true
	}
	return s
}

// Fill returns a fully opaque subtile of a single color index.
func Fill(index uint8) Subtile {
	var s Subtile
	for i := range s {
		s[i].Index = index & 0x0f
	}
	return s
}

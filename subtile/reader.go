package subtile

import (
	"fmt"

	"github.com/bodgit/isomap/format"
)

// extractBit returns the bit for pixel col of a stored row from one of the
// five chunks in that row.
func extractBit(block []byte, row, col, chunk int) bool {
	b := block[row*bytesPerRow+chunk*chunkSize+col>>3]
	return b&(1<<uint(7-col%8)) != 0
}

// Rows are stored bottom to top
func storedRow(y int) int {
	return Height - 1 - y
}

func decodeBlock(block []byte) Subtile {
	var s Subtile
	for y := 0; y < Height; y++ {
		row := storedRow(y)
		for x := 0; x < Width; x++ {
			var index uint8
			for bit := 0; bit < colorBits; bit++ {
				if extractBit(block, row, x, colorChunk+bit) {
					index |= 1 << uint(bit)
				}
			}
			s[y*Width+x] = Pixel{
				Index:       index,
				Transparent: extractBit(block, row, x, transparencyChunk),
			}
		}
	}
	return s
}

// Decode returns subtile i from blob using its offset table t.
func Decode(i int, t OffsetTable, blob []byte) (Subtile, error) {
	if i < 0 || i >= t.Len() {
		return Subtile{}, fmt.Errorf("%w: subtile %d, expected < %d", format.ErrIndex, i, t.Len())
	}

	if t.Empty(i) {
		return Empty(), nil
	}

	offset := int(t[i])
	if offset+BlockSize > len(blob) {
		return Subtile{}, fmt.Errorf("%w: subtile %d: offset %d exceeds blob of %d bytes", format.ErrCorruptOffset, i, offset, len(blob))
	}

	return decodeBlock(blob[offset : offset+BlockSize]), nil
}

package subtile

import (
	"encoding/binary"
	"fmt"

	"github.com/bodgit/isomap/format"
)

// EmptyOffset marks a subtile with no art.
const EmptyOffset uint32 = 0

// OffsetTable maps a subtile index to the position of its data in a blob.
// Every entry is either EmptyOffset or lies beyond the table.
type OffsetTable []uint32

// Len returns the number of subtiles in the table.
func (t OffsetTable) Len() int {
	return len(t)
}

// Empty reports whether subtile i has no art.
func (t OffsetTable) Empty(i int) bool {
	return t[i] == EmptyOffset
}

// ReadOffsetTable reads the offset table for n subtiles from the start of
// blob b. Offsets that point inside the table are normalised to EmptyOffset.
// Under the lenient policy an offset with a truncated block behind it is
// also treated as empty, under the strict policy it is kept so that decoding
// that subtile fails with ErrCorruptOffset.
func ReadOffsetTable(b []byte, n int, policy format.Policy) (OffsetTable, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: subtile: invalid subtile count %d", format.ErrFormat, n)
	}

	threshold := uint64(n) * 4
	if uint64(len(b)) < threshold {
		return nil, fmt.Errorf("%w: subtile: offset table needs %d bytes, got %d", format.ErrFormat, threshold, len(b))
	}

	t := make(OffsetTable, n)
	for i := range t {
		offset := binary.LittleEndian.Uint32(b[i*4:])
		switch {
		case uint64(offset) <= threshold:
			offset = EmptyOffset
		case policy != format.Strict && uint64(offset)+BlockSize > uint64(len(b)):
			offset = EmptyOffset
		}
		t[i] = offset
	}

	return t, nil
}

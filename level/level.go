/*
Package level implements a decoder for the game's MAPxx map files.

Maps use a left-handed coordinate system; x runs horizontally, y is the
altitude or stacking level, and z runs towards the viewer. Each (x, z)
position holds a column of y tile indices, bottom to top.

A map file starts with a 12 byte header of three 4-byte little endian
values. On disk these are x, then z, then y. This is followed by x * z
4-byte little endian offsets, one per column in row-major order with x
varying fastest. The offsets are relative to the end of the header. Each
offset points to y bytes, the tile indices for that column.
*/
package level

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/bodgit/isomap/format"
)

// HeaderSize is the size in bytes of the map header
const HeaderSize = 12

// header mirrors the on-disk field order
type header struct {
	X uint32
	Z uint32
	Y uint32
}

// Map is a decoded map.
type Map struct {
	X, Y, Z int
	stacks  [][]byte
}

// New returns an empty map, every column filled with tile 0.
func New(x, y, z int) *Map {
	m := &Map{
		X:      x,
		Y:      y,
		Z:      z,
		stacks: make([][]byte, x*z),
	}
	for i := range m.stacks {
		m.stacks[i] = make([]byte, y)
	}
	return m
}

// Decode parses the map file contents in b.
func Decode(b []byte) (*Map, error) {
	var h header
	if err := binary.Read(bytes.NewReader(b), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: map: reading header: %v", format.ErrFormat, err)
	}

	if h.X == 0 || h.Z == 0 || h.Y == 0 {
		return nil, fmt.Errorf("%w: map: empty %dx%dx%d map", format.ErrFormat, h.X, h.Y, h.Z)
	}

	columns := uint64(h.X) * uint64(h.Z)
	if columns > uint64(len(b))/4 || HeaderSize+columns*4 > uint64(len(b)) {
		return nil, fmt.Errorf("%w: map: %dx%d offset table exceeds file of %d bytes", format.ErrFormat, h.X, h.Z, len(b))
	}

	m := &Map{
		X:      int(h.X),
		Y:      int(h.Y),
		Z:      int(h.Z),
		stacks: make([][]byte, columns),
	}

	// Columns may share or overlap data so they all slice one copy of the
	// file rather than each getting their own
	data := make([]byte, len(b))
	copy(data, b)

	for i := range m.stacks {
		offset := HeaderSize + uint64(binary.LittleEndian.Uint32(b[HeaderSize+i*4:]))
		if offset+uint64(h.Y) > uint64(len(b)) {
			return nil, fmt.Errorf("%w: map: column (%d, %d) at offset %d exceeds file of %d bytes", format.ErrFormat, i%m.X, i/m.X, offset, len(b))
		}
		m.stacks[i] = data[offset : offset+uint64(h.Y) : offset+uint64(h.Y)]
	}

	return m, nil
}

func (m *Map) column(x, z int) (int, error) {
	if x < 0 || x >= m.X || z < 0 || z >= m.Z {
		return 0, fmt.Errorf("%w: map: column (%d, %d) outside %dx%d", format.ErrIndex, x, z, m.X, m.Z)
	}
	return z*m.X + x, nil
}

// Column returns the tile indices of column (x, z), bottom to top. The
// returned slice must not be modified.
func (m *Map) Column(x, z int) ([]byte, error) {
	i, err := m.column(x, z)
	if err != nil {
		return nil, err
	}
	return m.stacks[i], nil
}

// At returns the tile index at (x, y, z).
func (m *Map) At(x, y, z int) (int, error) {
	stack, err := m.Column(x, z)
	if err != nil {
		return 0, err
	}
	if y < 0 || y >= m.Y {
		return 0, fmt.Errorf("%w: map: level %d outside %d", format.ErrIndex, y, m.Y)
	}
	return int(stack[y]), nil
}

// Set sets the tile index at (x, y, z).
func (m *Map) Set(x, y, z int, tile byte) error {
	i, err := m.column(x, z)
	if err != nil {
		return err
	}
	if y < 0 || y >= m.Y {
		return fmt.Errorf("%w: map: level %d outside %d", format.ErrIndex, y, m.Y)
	}
	// Copy first as the column may be shared with others
	stack := make([]byte, m.Y)
	copy(stack, m.stacks[i])
	stack[y] = tile
	m.stacks[i] = stack
	return nil
}

// Validate checks that every tile index in the map is less than numTiles.
func (m *Map) Validate(numTiles int) error {
	for i, stack := range m.stacks {
		for y, t := range stack {
			if int(t) >= numTiles {
				return fmt.Errorf("%w: map: tile %d at (%d, %d, %d), expected < %d", format.ErrIndex, t, i%m.X, y, i/m.X, numTiles)
			}
		}
	}
	return nil
}

// MarshalBinary encodes the map into the on-disk form, one column after
// another in the same order as the offset table.
func (m *Map) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)

	h := header{X: uint32(m.X), Z: uint32(m.Z), Y: uint32(m.Y)}
	if err := binary.Write(b, binary.LittleEndian, &h); err != nil {
		return nil, err
	}

	// Offsets are relative to the end of the header
	for i := range m.stacks {
		offset := uint32(len(m.stacks)*4 + i*m.Y)
		if err := binary.Write(b, binary.LittleEndian, &offset); err != nil {
			return nil, err
		}
	}

	for _, stack := range m.stacks {
		if _, err := b.Write(stack); err != nil {
			return nil, err
		}
	}

	return b.Bytes(), nil
}

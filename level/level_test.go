package level

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/bodgit/isomap/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func putUint32(b []byte, v ...uint32) []byte {
	for _, x := range v {
		var tmp [4]byte
		binary.LittleEndian.PutUint32(tmp[:], x)
		b = append(b, tmp[:]...)
	}
	return b
}

func TestDecode(t *testing.T) {
	// X=2, Z=2, Y=1 with the columns stored out of order and (1, 1) sharing
	// the data of (0, 0)
	var b []byte
	b = putUint32(b, 2, 2, 1)
	b = putUint32(b, 18, 16, 17, 18)
	b = append(b, 7, 9, 4)

	m, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, 2, m.X)
	assert.Equal(t, 1, m.Y)
	assert.Equal(t, 2, m.Z)

	tables := []struct {
		x, z int
		want []byte
	}{
		{0, 0, []byte{4}},
		{1, 0, []byte{7}},
		{0, 1, []byte{9}},
		{1, 1, []byte{4}},
	}

	for _, table := range tables {
		stack, err := m.Column(table.x, table.z)
		require.NoError(t, err)
		assert.Equal(t, table.want, stack, "column (%d, %d)", table.x, table.z)
	}
}

func TestDecodeFieldOrder(t *testing.T) {
	// X=1, Z=2, Y=3
	var b []byte
	b = putUint32(b, 1, 2, 3)
	b = putUint32(b, 8, 11)
	b = append(b, 1, 2, 3, 4, 5, 6)

	m, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, 1, m.X)
	assert.Equal(t, 3, m.Y)
	assert.Equal(t, 2, m.Z)

	top, err := m.At(0, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 6, top)

	bottom, err := m.At(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, bottom)

	_, err = m.At(0, 3, 0)
	assert.True(t, errors.Is(err, format.ErrIndex))
	_, err = m.At(1, 0, 0)
	assert.True(t, errors.Is(err, format.ErrIndex))
	_, err = m.Column(0, -1)
	assert.True(t, errors.Is(err, format.ErrIndex))
}

func TestDecodeErrors(t *testing.T) {
	tables := []struct {
		name string
		b    []byte
	}{
		{"empty", nil},
		{"short header", putUint32(nil, 1, 1)},
		{"missing offsets", putUint32(nil, 2, 2, 1, 0, 0)},
		{"huge dimensions", putUint32(nil, 0xffffffff, 0xffffffff, 1)},
		{"column past end", append(putUint32(nil, 1, 1, 2, 4), 0)},
		{"offset past end", append(putUint32(nil, 1, 1, 1, 100), 0)},
		{"header only", putUint32(nil, 0xffffffff, 0, 0xffffffff)},
		{"no levels", putUint32(nil, 1, 1, 0, 4)},
		{"no columns", putUint32(nil, 0, 5, 1)},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			_, err := Decode(table.b)
			assert.True(t, errors.Is(err, format.ErrFormat), "%v", err)
		})
	}
}

func TestSetSharedColumn(t *testing.T) {
	// Every column points at the same data
	var b []byte
	b = putUint32(b, 2, 2, 2)
	b = putUint32(b, 16, 16, 16, 16)
	b = append(b, 1, 2)

	m, err := Decode(b)
	require.NoError(t, err)
	require.NoError(t, m.Set(1, 0, 1, 9))

	for _, c := range [][2]int{{0, 0}, {1, 0}, {0, 1}} {
		stack, err := m.Column(c[0], c[1])
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2}, stack, "column (%d, %d)", c[0], c[1])
	}
	stack, err := m.Column(1, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{9, 2}, stack)

	// Decoding doesn't alias the caller's buffer
	b[len(b)-2] = 7
	top, err := m.At(0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, top)
}

func TestValidate(t *testing.T) {
	m := New(2, 3, 2)
	require.NoError(t, m.Set(1, 2, 1, 255))
	assert.NoError(t, m.Validate(256))
	assert.True(t, errors.Is(m.Validate(255), format.ErrIndex))

	assert.True(t, errors.Is(m.Set(2, 0, 0, 1), format.ErrIndex))
	assert.True(t, errors.Is(m.Set(0, 3, 0, 1), format.ErrIndex))
}

func TestMarshalBinary(t *testing.T) {
	m := New(3, 2, 2)
	for z := 0; z < m.Z; z++ {
		for x := 0; x < m.X; x++ {
			for y := 0; y < m.Y; y++ {
				require.NoError(t, m.Set(x, y, z, byte(x+y*10+z*100)))
			}
		}
	}

	b, err := m.MarshalBinary()
	require.NoError(t, err)
	assert.Len(t, b, HeaderSize+3*2*4+3*2*2)

	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, m, got)
}

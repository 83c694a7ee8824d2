package palette

import (
	"bytes"
	"errors"
	"image/color"
	"testing"

	"github.com/bodgit/isomap/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPalette() []byte {
	b := make([]byte, FileSize)
	for i := range b {
		b[i] = byte(i % 64)
	}
	return b
}

func TestDecode(t *testing.T) {
	b := testPalette()

	p, err := Decode(b)
	require.NoError(t, err)
	require.Len(t, p, NumColors)

	for i, c := range p {
		rgba, ok := c.(color.RGBA)
		require.True(t, ok)
		assert.Equal(t, b[i*3]*4, rgba.R)
		assert.Equal(t, b[i*3+1]*4, rgba.G)
		assert.Equal(t, b[i*3+2]*4, rgba.B)
		assert.Equal(t, uint8(0xff), rgba.A)
		assert.LessOrEqual(t, rgba.R, uint8(252))
		assert.LessOrEqual(t, rgba.G, uint8(252))
		assert.LessOrEqual(t, rgba.B, uint8(252))
	}
}

func TestDecodeMasksHighBits(t *testing.T) {
	b := make([]byte, FileSize)
	b[0], b[1], b[2] = 63, 0xff, 0x40

	p, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{252, 252, 0, 0xff}, p[0])
}

func TestDecodeLength(t *testing.T) {
	tables := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"short", FileSize - 1},
		{"long", FileSize + 1},
		{"16 colors only", NumColors * 3},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			_, err := Decode(make([]byte, table.size))
			assert.True(t, errors.Is(err, format.ErrFormat))
		})
	}
}

func TestDecodeReader(t *testing.T) {
	b := testPalette()

	p, err := DecodeReader(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Len(t, p, NumColors)

	_, err = DecodeReader(bytes.NewReader(b[:100]))
	assert.True(t, errors.Is(err, format.ErrFormat))

	_, err = DecodeReader(bytes.NewReader(append(b, 0)))
	assert.True(t, errors.Is(err, format.ErrFormat))
}

func TestSample(t *testing.T) {
	p, err := Decode(testPalette())
	require.NoError(t, err)

	m := Sample(p)
	assert.Equal(t, NumColors, m.Bounds().Dx())
	assert.Equal(t, 1, m.Bounds().Dy())
	for i := range p {
		assert.Equal(t, p[i], m.At(i, 0))
	}
}

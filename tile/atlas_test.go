package tile

import (
	"errors"
	"testing"

	"github.com/bodgit/isomap/format"
	"github.com/bodgit/isomap/subtile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeAtlas(t *testing.T) {
	const numTiles = 4

	blocks := make([][]byte, numTiles*SubtilesPerTile)
	for n := 0; n < numTiles; n++ {
		blocks[n*SubtilesPerTile] = subtile.Encode(subtile.Fill(uint8(n)))
	}
	blob := newBlob(blocks...)

	a, err := DecodeAtlas(blob, WithSubtiles(len(blocks)), WithWorkers(3))
	require.NoError(t, err)
	require.NoError(t, a.Err())
	assert.Equal(t, numTiles, a.Len())

	for n := 0; n < numTiles; n++ {
		tile, err := a.Tile(n)
		require.NoError(t, err)
		assert.Equal(t, subtile.Pixel{Index: uint8(n)}, tile.At(0, 0))
		assert.True(t, tile.At(32, 0).Transparent)
	}

	_, err = a.Tile(numTiles)
	assert.True(t, errors.Is(err, format.ErrIndex))
	_, err = a.Tile(-1)
	assert.True(t, errors.Is(err, format.ErrIndex))
}

func TestDecodeAtlasCorruptTile(t *testing.T) {
	blocks := make([][]byte, 2*SubtilesPerTile)
	blocks[0] = subtile.Encode(subtile.Fill(3))
	blocks[SubtilesPerTile+5] = subtile.Encode(subtile.Fill(4))
	blob := newBlob(blocks...)
	// Truncate the last block belonging to tile 1
	blob = blob[:len(blob)-1]

	a, err := DecodeAtlas(blob, WithSubtiles(len(blocks)), WithPolicy(format.Strict))
	require.NoError(t, err)

	tile, err := a.Tile(0)
	require.NoError(t, err)
	assert.Equal(t, subtile.Pixel{Index: 3}, tile.At(0, 0))

	_, err = a.Tile(1)
	assert.True(t, errors.Is(err, format.ErrCorruptOffset))

	err = a.Err()
	require.Error(t, err)
	var batch *format.BatchError
	require.True(t, errors.As(err, &batch))
	assert.Len(t, batch.Errs, 1)

	a, err = DecodeAtlas(blob, WithSubtiles(len(blocks)))
	require.NoError(t, err)
	require.NoError(t, a.Err())
	tile, err = a.Tile(1)
	require.NoError(t, err)
	assert.True(t, tile.At(63, 47).Transparent)
}

func TestDecodeAtlasErrors(t *testing.T) {
	_, err := DecodeAtlas(make([]byte, 64), WithSubtiles(7))
	assert.True(t, errors.Is(err, format.ErrFormat))

	_, err = DecodeAtlas(make([]byte, 10))
	assert.True(t, errors.Is(err, format.ErrFormat))
}

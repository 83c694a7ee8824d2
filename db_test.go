package isomap

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *AssetDB {
	db, err := NewAssetDB(filepath.Join(t.TempDir(), "isomap.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAddTileDeduplicates(t *testing.T) {
	db := newTestDB(t)

	m := image.NewRGBA(image.Rect(0, 0, 4, 4))
	m.Set(1, 1, color.RGBA{0xff, 0, 0, 0xff})

	id1, err := db.AddTile("HPAL01.DAT", 0, m)
	require.NoError(t, err)
	id2, err := db.AddTile("HPAL01.DAT", 1, m)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	m.Set(2, 2, color.RGBA{0, 0xff, 0, 0xff})
	id3, err := db.AddTile("HPAL02.DAT", 0, m)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id3)

	n, err := db.CountImages()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := db.FindTile("HPAL02.DAT", 0)
	require.NoError(t, err)
	r, g, _, _ := got.At(2, 2).RGBA()
	assert.Equal(t, []uint32{0, 0xffff}, []uint32{r, g})
}

func TestAddRender(t *testing.T) {
	db := newTestDB(t)

	// Mostly empty so it compresses
	m := image.NewRGBA(image.Rect(0, 0, 64, 64))
	m.Set(10, 20, color.RGBA{1, 2, 3, 0xff})
	require.NoError(t, db.AddRender("MAP01.DAT", "HPAL01.DAT", m))

	got, err := db.FindRender("MAP01.DAT", "HPAL01.DAT")
	require.NoError(t, err)
	assert.Equal(t, m.Bounds(), got.Bounds())
	assert.Equal(t, m.Pix, got.Pix)

	// Noise won't compress and is stored as-is
	noise := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range noise.Pix {
		noise.Pix[i] = byte(i*97 + 13)
	}
	require.NoError(t, db.AddRender("MAP02.DAT", "HPAL01.DAT", noise))
	got, err = db.FindRender("MAP02.DAT", "HPAL01.DAT")
	require.NoError(t, err)
	assert.Equal(t, noise.Pix, got.Pix)

	missing, err := db.FindRender("MAP03.DAT", "HPAL01.DAT")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAddRenderSubImage(t *testing.T) {
	db := newTestDB(t)

	m := image.NewRGBA(image.Rect(0, 0, 8, 8))
	m.Set(5, 6, color.RGBA{9, 9, 9, 0xff})
	sub := m.SubImage(image.Rect(4, 4, 8, 8)).(*image.RGBA)
	require.NoError(t, db.AddRender("MAP01.DAT", "HPAL01.DAT", sub))

	got, err := db.FindRender("MAP01.DAT", "HPAL01.DAT")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 4), got.Bounds())
	assert.Equal(t, color.RGBA{9, 9, 9, 0xff}, got.RGBAAt(1, 2))
}

package isomap

import (
	"bytes"
	"context"
	"crypto/sha1"
	"database/sql"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/bodgit/isomap/format"
	"github.com/bodgit/isomap/tile"
	_ "github.com/mattn/go-sqlite3" // register driver
	"github.com/pierrec/lz4/v4"
)

// AssetDB is a catalog of exported tile images and map renders.
type AssetDB struct {
	db *sql.DB
	mu sync.Mutex
}

// NewAssetDB opens, creating if necessary, the catalog in file.
func NewAssetDB(file string) (*AssetDB, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS image (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, png BLOB NOT NULL)"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS tile (palette TEXT NOT NULL, number INTEGER NOT NULL, image_id INTEGER NOT NULL, UNIQUE(palette, number), FOREIGN KEY(image_id) REFERENCES image(id))"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS render (map TEXT NOT NULL, palette TEXT NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, size INTEGER NOT NULL, pixels BLOB NOT NULL, UNIQUE(map, palette))"); err != nil {
		return nil, err
	}

	return &AssetDB{
		db: db,
	}, nil
}

// Close closes the catalog.
func (db *AssetDB) Close() error {
	return db.db.Close()
}

// Identical images are only stored once
func (db *AssetDB) addImage(m image.Image) (int64, error) {
	b := new(bytes.Buffer)
	if err := png.Encode(b, m); err != nil {
		return 0, err
	}
	h := sha1.Sum(b.Bytes())
	sha := fmt.Sprintf("%X", h[:])

	var id int64
	switch err := db.db.QueryRow("SELECT id FROM image WHERE sha1 = ?", sha).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := db.db.Exec("INSERT INTO image (sha1, png) VALUES (?, ?)", sha, b.Bytes())
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

// AddTile stores the image of tile n as rendered with the named palette,
// returning the id of the stored image.
func (db *AssetDB) AddTile(paletteName string, n int, m image.Image) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	id, err := db.addImage(m)
	if err != nil {
		return 0, err
	}
	if _, err := db.db.Exec("INSERT OR REPLACE INTO tile (palette, number, image_id) VALUES (?, ?, ?)", paletteName, n, id); err != nil {
		return 0, err
	}
	return id, nil
}

// FindTile returns the image of tile n rendered with the named palette, or
// nil if there isn't one.
func (db *AssetDB) FindTile(paletteName string, n int) (image.Image, error) {
	var b []byte
	switch err := db.db.QueryRow("SELECT i.png FROM tile AS t JOIN image AS i ON t.image_id = i.id WHERE t.palette = ? AND t.number = ?", paletteName, n).Scan(&b); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return png.Decode(bytes.NewReader(b))
	default:
		return nil, err
	}
}

// CountImages returns the number of distinct images stored.
func (db *AssetDB) CountImages() (int, error) {
	var n int
	err := db.db.QueryRow("SELECT COUNT(*) FROM image").Scan(&n)
	return n, err
}

// Pixels are stored as an lz4 block, a size of 0 means they were
// incompressible and stored as-is
func compressPixels(pix []byte) ([]byte, int, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(pix)))
	n, err := lz4.CompressBlockHC(pix, dst, 0, nil, nil)
	if err != nil {
		return nil, 0, err
	}
	if n == 0 || n >= len(pix) {
		return pix, 0, nil
	}
	return dst[:n], len(pix), nil
}

func uncompressPixels(b []byte, size int) ([]byte, error) {
	if size == 0 {
		return b, nil
	}
	pix := make([]byte, size)
	n, err := lz4.UncompressBlock(b, pix)
	if err != nil {
		return nil, err
	}
	if n != size {
		return nil, errors.New("render: decompressed size mismatch")
	}
	return pix, nil
}

// AddRender stores the render of the named map with the named palette,
// replacing any existing render.
func (db *AssetDB) AddRender(mapName, paletteName string, m *image.RGBA) error {
	// Normalise so that Pix starts at the top-left corner with no padding
	if m.Rect.Min != (image.Point{}) || m.Stride != m.Rect.Dx()*4 {
		dup := image.NewRGBA(image.Rect(0, 0, m.Rect.Dx(), m.Rect.Dy()))
		for y := 0; y < m.Rect.Dy(); y++ {
			for x := 0; x < m.Rect.Dx(); x++ {
				dup.SetRGBA(x, y, m.RGBAAt(m.Rect.Min.X+x, m.Rect.Min.Y+y))
			}
		}
		m = dup
	}

	b, size, err := compressPixels(m.Pix)
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	_, err = db.db.Exec("INSERT OR REPLACE INTO render (map, palette, width, height, size, pixels) VALUES (?, ?, ?, ?, ?, ?)", mapName, paletteName, m.Rect.Dx(), m.Rect.Dy(), size, b)
	return err
}

// FindRender returns the render of the named map with the named palette, or
// nil if there isn't one.
func (db *AssetDB) FindRender(mapName, paletteName string) (*image.RGBA, error) {
	var width, height, size int
	var b []byte
	switch err := db.db.QueryRow("SELECT width, height, size, pixels FROM render WHERE map = ? AND palette = ?", mapName, paletteName).Scan(&width, &height, &size, &b); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		pix, err := uncompressPixels(b, size)
		if err != nil {
			return nil, err
		}
		if len(pix) != width*height*4 {
			return nil, errors.New("render: pixel data doesn't match dimensions")
		}
		return &image.RGBA{
			Pix:    pix,
			Stride: width * 4,
			Rect:   image.Rect(0, 0, width, height),
		}, nil
	default:
		return nil, err
	}
}

// Catalog stores every tile of the named blob rendered with the named
// palette, along with a render of the named map, in db. Tiles that fail are
// collected and the map is still rendered and stored.
func (e *Exporter) Catalog(ctx context.Context, db *AssetDB, mapName, paletteName, blobName string) error {
	p, err := e.ReadPalette(paletteName)
	if err != nil {
		return err
	}
	a, err := e.ReadAtlas(blobName)
	if err != nil {
		return err
	}

	batch := new(format.BatchError)

	key := assetName(paletteName)
	if err := e.eachTile(ctx, a, []color.Palette{p}, func(job tileJob, t *tile.Tile) error {
		_, err := db.AddTile(key, job.tile, t.Image(p))
		return err
	}); err != nil {
		var tiles *format.BatchError
		if !errors.As(err, &tiles) {
			return err
		}
		batch.Errs = append(batch.Errs, tiles.Errs...)
	}

	canvas, err := e.renderMap(mapName, p, a)
	if err != nil {
		batch.Add(err)
		return batch.ErrOrNil()
	}
	if err := db.AddRender(assetName(mapName), key, canvas); err != nil {
		batch.Add(err)
		return batch.ErrOrNil()
	}

	n, err := db.CountImages()
	if err != nil {
		batch.Add(err)
		return batch.ErrOrNil()
	}
	e.logger.Printf("Catalogued %d tiles (%d distinct images) with %d failures and \"%s\"\n", a.Len(), n, len(batch.Errs), assetName(mapName))

	return batch.ErrOrNil()
}

// ExportCatalogTile writes the stored image of tile n rendered with the named
// palette to the sink.
func (e *Exporter) ExportCatalogTile(db *AssetDB, paletteName string, n int, out string) error {
	m, err := db.FindTile(assetName(paletteName), n)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("%w: catalog: no tile %d for \"%s\"", format.ErrIndex, n, assetName(paletteName))
	}
	return e.writePNG(out, m)
}

// ExportCatalogRender writes the stored render of the named map with the
// named palette to the sink.
func (e *Exporter) ExportCatalogRender(db *AssetDB, mapName, paletteName, out string) error {
	m, err := db.FindRender(assetName(mapName), assetName(paletteName))
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("%w: catalog: no render of \"%s\" with \"%s\"", format.ErrIndex, assetName(mapName), assetName(paletteName))
	}
	return e.writePNG(out, m)
}

/*
Package isomap is a library for exporting the tiles, palettes, and maps of the
game's data directory as ordinary images.

The decoding itself lives in the palette, subtile, tile, level, and iso
packages which never touch the filesystem. An Exporter reads the raw files
from an fs.FS, hands the bytes to those packages, and writes the resulting
images as PNG files to a Sink.
*/
package isomap

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"io/ioutil"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bodgit/isomap/format"
	"github.com/bodgit/isomap/iso"
	"github.com/bodgit/isomap/level"
	"github.com/bodgit/isomap/palette"
	"github.com/bodgit/isomap/subtile"
	"github.com/bodgit/isomap/tile"
)

const defaultExt = ".DAT"

// Sink receives the exported images.
type Sink interface {
	Create(name string) (io.WriteCloser, error)
}

// DirSink is a Sink that creates files in a directory, creating the
// directory if necessary.
type DirSink string

// Create creates the named file in the directory.
func (d DirSink) Create(name string) (io.WriteCloser, error) {
	if err := os.MkdirAll(string(d), 0777); err != nil {
		return nil, err
	}
	return os.Create(filepath.Join(string(d), name))
}

// Options controls how assets are decoded.
type Options struct {
	// Policy controls handling of corrupt subtile offsets
	Policy format.Policy
	// Subtiles is the number of subtiles in a tile blob, defaults to
	// subtile.NumSubtiles
	Subtiles int
	// Workers is the number of concurrent decode and export workers,
	// defaults to 1
	Workers int
}

// Exporter reads assets from a data directory and writes images to a Sink.
type Exporter struct {
	fsys   fs.FS
	sink   Sink
	opts   Options
	logger *log.Logger
}

// New returns an Exporter reading from fsys and writing to sink. A nil logger
// discards all messages.
func New(fsys fs.FS, sink Sink, opts Options, logger *log.Logger) *Exporter {
	if opts.Subtiles == 0 {
		opts.Subtiles = subtile.NumSubtiles
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}
	return &Exporter{
		fsys:   fsys,
		sink:   sink,
		opts:   opts,
		logger: logger,
	}
}

// Names without an extension refer to the game's upper case .DAT files
func assetName(name string) string {
	if path.Ext(name) == "" {
		return strings.ToUpper(name) + defaultExt
	}
	return name
}

func (e *Exporter) readFile(name string) ([]byte, error) {
	b, err := fs.ReadFile(e.fsys, assetName(name))
	if err != nil {
		return nil, err
	}
	e.logger.Printf("Read %d bytes from \"%s\"\n", len(b), assetName(name))
	return b, nil
}

// ReadPalette reads and decodes the named palette file.
func (e *Exporter) ReadPalette(name string) (color.Palette, error) {
	f, err := e.fsys.Open(assetName(name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := palette.DecodeReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", assetName(name), err)
	}
	e.logger.Printf("Read palette \"%s\"\n", assetName(name))
	return p, nil
}

// ReadAtlas reads and decodes every tile in the named tile blob. Tiles that
// fail to decode are logged.
func (e *Exporter) ReadAtlas(name string) (*tile.Atlas, error) {
	b, err := e.readFile(name)
	if err != nil {
		return nil, err
	}
	a, err := tile.DecodeAtlas(b, tile.WithSubtiles(e.opts.Subtiles), tile.WithPolicy(e.opts.Policy), tile.WithWorkers(e.opts.Workers))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", assetName(name), err)
	}
	if err := a.Err(); err != nil {
		e.logger.Printf("Some tiles in \"%s\" could not be decoded: %v\n", assetName(name), err)
	}
	return a, nil
}

// ReadMap reads and decodes the named map file.
func (e *Exporter) ReadMap(name string) (*level.Map, error) {
	b, err := e.readFile(name)
	if err != nil {
		return nil, err
	}
	m, err := level.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", assetName(name), err)
	}
	return m, nil
}

func (e *Exporter) writeFile(name string, b []byte) (err error) {
	w, err := e.sink.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err = w.Write(b); err != nil {
		return err
	}
	e.logger.Printf("Wrote \"%s\"\n", name)
	return nil
}

func (e *Exporter) writePNG(name string, m image.Image) error {
	b := new(bytes.Buffer)
	if err := png.Encode(b, m); err != nil {
		return err
	}
	return e.writeFile(name, b.Bytes())
}

// ExportPalette writes a 16 by 1 swatch of the named palette to out.
func (e *Exporter) ExportPalette(name, out string) error {
	p, err := e.ReadPalette(name)
	if err != nil {
		return err
	}
	return e.writePNG(out, palette.Sample(p))
}

// RenderMap composites the named map using the named palette and tile blob.
func (e *Exporter) RenderMap(mapName, paletteName, blobName string) (*image.RGBA, error) {
	p, err := e.ReadPalette(paletteName)
	if err != nil {
		return nil, err
	}
	a, err := e.ReadAtlas(blobName)
	if err != nil {
		return nil, err
	}
	return e.renderMap(mapName, p, a)
}

func (e *Exporter) renderMap(mapName string, p color.Palette, a *tile.Atlas) (*image.RGBA, error) {
	m, err := e.ReadMap(mapName)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(a.Len()); err != nil {
		e.logger.Printf("\"%s\": %v\n", assetName(mapName), err)
	}

	canvas, stats, err := iso.New(p, a, e.logger).Render(m)
	if err != nil {
		return nil, err
	}
	e.logger.Printf("Rendered \"%s\" at %dx%d; %d tiles drawn, %d skipped, %d pixels clipped\n", assetName(mapName), canvas.Bounds().Dx(), canvas.Bounds().Dy(), stats.Blits, stats.Skipped, stats.Clipped)
	return canvas, nil
}

// ExportMap composites the named map and writes it to out.
func (e *Exporter) ExportMap(mapName, paletteName, blobName, out string) error {
	canvas, err := e.RenderMap(mapName, paletteName, blobName)
	if err != nil {
		return err
	}
	return e.writePNG(out, canvas)
}

// PackSubtile encodes the named 32 by 16 image into the 320 byte subtile
// form and writes it to out. The returned palette is the one the encoded
// color indices refer to.
func (e *Exporter) PackSubtile(name, out string) (color.Palette, error) {
	f, err := e.fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	b, p, err := subtile.EncodeImage(m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	e.logger.Printf("Packed \"%s\" using %d colors\n", name, len(p))

	if err := e.writeFile(out, b); err != nil {
		return nil, err
	}
	return p, nil
}

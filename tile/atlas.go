package tile

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/bodgit/isomap/format"
	"github.com/bodgit/isomap/subtile"
)

// Atlas holds every tile decoded from a tile blob.
type Atlas struct {
	tiles []*Tile
	errs  []error
}

type options struct {
	subtiles int
	policy   format.Policy
	workers  int
}

// Option configures DecodeAtlas.
type Option func(*options)

// WithSubtiles sets the number of entries in the blob's offset table. The
// default is subtile.NumSubtiles.
func WithSubtiles(n int) Option {
	return func(o *options) {
		o.subtiles = n
	}
}

// WithPolicy sets how corrupt subtile offsets are handled.
func WithPolicy(p format.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithWorkers sets the number of tiles decoded concurrently. The default is
// runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

func generateTiles(n int) <-chan int {
	out := make(chan int)
	go func() {
		defer close(out)
		for i := 0; i < n; i++ {
			out <- i
		}
	}()
	return out
}

// DecodeAtlas reads the offset table of blob and decodes all of its tiles.
// A tile that fails to decode doesn't stop the others; its error is
// returned by Tile and included in Err.
func DecodeAtlas(blob []byte, opts ...Option) (*Atlas, error) {
	o := options{
		subtiles: subtile.NumSubtiles,
		policy:   format.Lenient,
		workers:  runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		o.workers = 1
	}

	if o.subtiles%SubtilesPerTile != 0 {
		return nil, fmt.Errorf("%w: tile: %d subtiles is not a whole number of tiles", format.ErrFormat, o.subtiles)
	}

	table, err := subtile.ReadOffsetTable(blob, o.subtiles, o.policy)
	if err != nil {
		return nil, err
	}

	numTiles := table.Len() / SubtilesPerTile
	a := &Atlas{
		tiles: make([]*Tile, numTiles),
		errs:  make([]error, numTiles),
	}

	// Each worker writes only to the slots of the tiles it receives
	in := generateTiles(numTiles)
	var wg sync.WaitGroup
	wg.Add(o.workers)
	for i := 0; i < o.workers; i++ {
		go func() {
			defer wg.Done()
			for n := range in {
				a.tiles[n], a.errs[n] = Read(n, table, blob)
			}
		}()
	}
	wg.Wait()

	return a, nil
}

// Len returns the number of tiles in the atlas.
func (a *Atlas) Len() int {
	return len(a.tiles)
}

// Tile returns tile n.
func (a *Atlas) Tile(n int) (*Tile, error) {
	if n < 0 || n >= len(a.tiles) {
		return nil, fmt.Errorf("%w: tile %d, expected < %d", format.ErrIndex, n, len(a.tiles))
	}
	if a.errs[n] != nil {
		return nil, a.errs[n]
	}
	return a.tiles[n], nil
}

// Err returns a *format.BatchError listing every tile that failed to decode,
// or nil.
func (a *Atlas) Err() error {
	var b format.BatchError
	for _, err := range a.errs {
		b.Add(err)
	}
	return b.ErrOrNil()
}

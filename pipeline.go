package isomap

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"sync"

	"github.com/bodgit/isomap/format"
	"github.com/bodgit/isomap/tile"
)

type tileJob struct {
	tile    int
	palette int
}

func tileFilename(n, p int) string {
	return fmt.Sprintf("tile-%d-%d.png", n, p)
}

func (e *Exporter) generateTileJobs(ctx context.Context, numTiles, numPalettes int) (<-chan tileJob, <-chan error) {
	out := make(chan tileJob)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for n := 0; n < numTiles; n++ {
			for p := 0; p < numPalettes; p++ {
				select {
				case out <- tileJob{n, p}:
				case <-ctx.Done():
					errc <- errors.New("export cancelled")
					return
				}
			}
		}
	}()
	return out, errc
}

// tileWorker exports each tile it receives, a failure is reported and the
// worker moves on to the next tile
func (e *Exporter) tileWorker(a *tile.Atlas, in <-chan tileJob, fn func(tileJob, *tile.Tile) error) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for job := range in {
			t, err := a.Tile(job.tile)
			if err == nil {
				err = fn(job, t)
			}
			if err != nil {
				e.logger.Printf("Unable to export tile %d with palette %d: %v\n", job.tile, job.palette, err)
				errc <- fmt.Errorf("tile %d, palette %d: %w", job.tile, job.palette, err)
			}
		}
	}()
	return errc
}

// waitForPipeline drains every error channel, collecting all of the failures
func waitForPipeline(errs ...<-chan error) error {
	var b format.BatchError
	for err := range mergeErrors(errs...) {
		b.Add(err)
	}
	return b.ErrOrNil()
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func (e *Exporter) eachTile(ctx context.Context, a *tile.Atlas, palettes []color.Palette, fn func(tileJob, *tile.Tile) error) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	jobs, errc := e.generateTileJobs(ctx, a.Len(), len(palettes))
	errcList = append(errcList, errc)

	for i := 0; i < e.opts.Workers; i++ {
		errcList = append(errcList, e.tileWorker(a, jobs, fn))
	}

	return waitForPipeline(errcList...)
}

// ExportTiles writes every tile in the named blob once for each of the named
// palettes, as tile-N-P.png where N is the tile number and P the position of
// the palette in paletteNames. Tiles that can't be exported are skipped and
// reported together in the returned *format.BatchError.
func (e *Exporter) ExportTiles(ctx context.Context, blobName string, paletteNames []string) error {
	if len(paletteNames) == 0 {
		return errors.New("no palettes")
	}

	palettes := make([]color.Palette, 0, len(paletteNames))
	for _, name := range paletteNames {
		p, err := e.ReadPalette(name)
		if err != nil {
			return err
		}
		palettes = append(palettes, p)
	}

	a, err := e.ReadAtlas(blobName)
	if err != nil {
		return err
	}

	return e.eachTile(ctx, a, palettes, func(job tileJob, t *tile.Tile) error {
		return e.writePNG(tileFilename(job.tile, job.palette), t.Image(palettes[job.palette]))
	})
}

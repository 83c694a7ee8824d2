package main

import (
	"context"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bodgit/isomap"
	"github.com/bodgit/isomap/format"
	"github.com/urfave/cli/v2"
)

const defaultDB = "isomap.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version, V",
		Usage: "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func newExporter(c *cli.Context, out string) *isomap.Exporter {
	opts := isomap.Options{
		Workers: c.Int("workers"),
	}
	if c.Bool("strict") {
		opts.Policy = format.Strict
	}
	return isomap.New(os.DirFS(c.String("data")), isomap.DirSink(out), opts, newLogger(c))
}

// Split an output file argument into the sink directory and file name
func splitOutput(file string) (string, string) {
	return filepath.Dir(file), filepath.Base(file)
}

func main() {
	app := cli.NewApp()

	app.Name = "isomap"
	app.Usage = "Isometric tile, palette, and map exporter"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "data",
			EnvVars: []string{"ISOMAP_DATA"},
			Value:   cwd,
			Usage:   "path to game data directory",
		},
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"ISOMAP_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to catalog database",
		},
		&cli.IntFlag{
			Name:  "workers",
			Value: 10,
			Usage: "number of concurrent workers",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "fail on corrupt subtile offsets instead of treating them as empty",
		},
		&cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "palette",
			Usage:       "Export a palette as a 16 color swatch",
			Description: "",
			ArgsUsage:   "PALETTE FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				dir, file := splitOutput(c.Args().Get(1))
				if err := newExporter(c, dir).ExportPalette(c.Args().First(), file); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "tiles",
			Usage:       "Export every tile once per palette",
			Description: "",
			ArgsUsage:   "BLOB DIRECTORY PALETTE...",
			Action: func(c *cli.Context) error {
				if c.NArg() < 3 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				args := c.Args().Slice()
				if err := newExporter(c, args[1]).ExportTiles(context.Background(), args[0], args[2:]); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "map",
			Usage:       "Export a map as a single isometric image",
			Description: "",
			ArgsUsage:   "MAP PALETTE BLOB FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 4 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				dir, file := splitOutput(c.Args().Get(3))
				if err := newExporter(c, dir).ExportMap(c.Args().Get(0), c.Args().Get(1), c.Args().Get(2), file); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "catalog",
			Usage:       "Store tiles and a map render in the catalog database",
			Description: "",
			ArgsUsage:   "MAP PALETTE BLOB",
			Action: func(c *cli.Context) error {
				if c.NArg() < 3 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				db, err := isomap.NewAssetDB(c.String("db"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer db.Close()

				if err := newExporter(c, cwd).Catalog(context.Background(), db, c.Args().Get(0), c.Args().Get(1), c.Args().Get(2)); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "extract-tile",
			Usage:       "Export a tile image stored in the catalog database",
			Description: "",
			ArgsUsage:   "PALETTE TILE FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 3 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				n, err := strconv.Atoi(c.Args().Get(1))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				db, err := isomap.NewAssetDB(c.String("db"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer db.Close()

				dir, file := splitOutput(c.Args().Get(2))
				if err := newExporter(c, dir).ExportCatalogTile(db, c.Args().Get(0), n, file); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "extract-render",
			Usage:       "Export a map render stored in the catalog database",
			Description: "",
			ArgsUsage:   "MAP PALETTE FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 3 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				db, err := isomap.NewAssetDB(c.String("db"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer db.Close()

				dir, file := splitOutput(c.Args().Get(2))
				if err := newExporter(c, dir).ExportCatalogRender(db, c.Args().Get(0), c.Args().Get(1), file); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "pack",
			Usage:       "Encode a 32x16 image as a subtile block",
			Description: "",
			ArgsUsage:   "IMAGE FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				dir, file := splitOutput(c.Args().Get(1))
				if _, err := newExporter(c, dir).PackSubtile(c.Args().First(), file); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

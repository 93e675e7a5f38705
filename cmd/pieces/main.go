package main

import (
	"context"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"

	"github.com/bodgit/pieces"
	"github.com/bodgit/pieces/catalog"
	"github.com/urfave/cli/v2"
)

const defaultDB = "pieces.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(ioutil.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

func options(c *cli.Context) []pieces.Option {
	return []pieces.Option{
		pieces.WithLogger(newLogger(c)),
		pieces.WithBackground(c.Bool("background")),
		pieces.WithColors(c.Int("colors")),
	}
}

func split(c *cli.Context, dir, id string) (*pieces.Place, error) {
	s, err := pieces.SplitterFromDir(dir, options(c)...)
	if err != nil {
		return nil, err
	}

	place, err := s.Split(id)
	if err != nil {
		return nil, err
	}
	if place == nil {
		return nil, fmt.Errorf("no place %q in %s", id, dir)
	}
	return place, nil
}

func main() {
	app := cli.NewApp()

	app.Name = "pieces"
	app.Usage = "Precomputed lookup piece utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"PIECES_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to catalog database",
		},
		&cli.BoolFlag{
			Name:  "background",
			Usage: "drop the background piece when loading places",
		},
		&cli.IntFlag{
			Name:  "colors",
			Usage: "limit written images to this many colors, 0 for no limit",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "list",
			Usage:       "List the places in a directory",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				ids, err := pieces.PlaceIDsInDir(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				for _, id := range ids {
					fmt.Println(id)
				}

				return nil
			},
		},
		{
			Name:        "show",
			Usage:       "Show the pieces of a place",
			Description: "",
			ArgsUsage:   "DIRECTORY PLACE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				place, err := split(c, c.Args().Get(0), c.Args().Get(1))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				for _, p := range place.Pieces {
					b := p.BitmapImage
					fmt.Printf("%s\t%d,%d %dx%d\t%d,%d\n", p.ID, b.X, b.Y, b.Width, b.Height, b.SpriteOffset.X, b.SpriteOffset.Y)
				}

				return nil
			},
		},
		{
			Name:        "normalize",
			Usage:       "Rewrite every place under a directory tree",
			Description: "Legacy sprite_offset records are rewritten with a structured sprite offset.",
			ArgsUsage:   "SOURCE DESTINATION",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "workers",
					Value: 10,
					Usage: "number of directories to convert at once",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				opts := append(options(c), pieces.WithWorkers(c.Int("workers")))
				if err := pieces.Normalize(context.Background(), c.Args().Get(0), c.Args().Get(1), opts...); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "extract",
			Usage:       "Write each piece of a place as its own image",
			Description: "",
			ArgsUsage:   "DIRECTORY PLACE OUTPUT",
			Action: func(c *cli.Context) error {
				if c.NArg() < 3 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				place, err := split(c, c.Args().Get(0), c.Args().Get(1))
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if err := pieces.ExtractPieces(place, c.Args().Get(2), options(c)...); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "import",
			Usage:       "Add every place in a directory to the catalog",
			Description: "",
			ArgsUsage:   "DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				dir := c.Args().First()
				ids, err := pieces.PlaceIDsInDir(dir)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				db, err := catalog.Open(c.String("db"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer db.Close()

				logger := newLogger(c)
				s := pieces.NewSplitter(dir, ids, options(c)...)
				for _, id := range ids {
					place, err := s.Split(id)
					if err != nil {
						return cli.NewExitError(err, 1)
					}
					if err := db.AddPlace(place); err != nil {
						return cli.NewExitError(err, 1)
					}
					logger.Printf("imported %d pieces for %s\n", len(place.Pieces), id)
				}

				return nil
			},
		},
		{
			Name:        "export",
			Usage:       "Write a place from the catalog to a directory",
			Description: "",
			ArgsUsage:   "PLACE DIRECTORY",
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				db, err := catalog.Open(c.String("db"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer db.Close()

				id := c.Args().Get(0)
				place, err := db.Place(id)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				if place == nil {
					return cli.NewExitError(fmt.Sprintf("no place %q in catalog", id), 1)
				}

				if err := pieces.SaveToDir(place, c.Args().Get(1), options(c)...); err != nil {
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

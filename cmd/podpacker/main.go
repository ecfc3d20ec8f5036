package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bodgit/podpacker"
	"github.com/bodgit/podpacker/chunk"
	"github.com/bodgit/podpacker/csource"
	"github.com/bodgit/podpacker/ogmo"
	"github.com/bodgit/podpacker/tileset"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const defaultConfig = "podpacker.yml"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level := logrus.WarnLevel
	if c.Bool("verbose") {
		level = logrus.DebugLevel
	}
	if s, ok := os.LookupEnv("LOG_LEVEL"); ok {
		if l, err := logrus.ParseLevel(s); err == nil {
			level = l
		}
	}
	logger.SetLevel(level)

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}

func newPacker(c *cli.Context) (*podpacker.Packer, func() error, error) {
	logger := newLogger(c)

	if c.String("db") == "" {
		return podpacker.New(nil, logger), func() error { return nil }, nil
	}

	db, err := podpacker.NewChunkDB(c.String("db"))
	if err != nil {
		return nil, nil, err
	}

	return podpacker.New(db, logger), db.Close, nil
}

func outputFlags(name, symbol string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "output-format",
			Value: csource.C.String(),
			Usage: "write raw binary data or a C source and header (raw, c)",
		},
		&cli.StringFlag{
			Name:  "name",
			Value: name,
			Usage: "base file name of the output",
		},
		&cli.StringFlag{
			Name:  "symbol",
			Value: symbol,
			Usage: "name of the generated C array",
		},
		&cli.StringFlag{
			Name:  "suffix",
			Usage: "suffix appended to the C identifiers, e.g. 2 gives CHUNKS2 and CHUNK_COUNT2",
		},
	}
}

// Write width byte records to OUTPUT_DIR, or stdout when it's "-" and the
// format is raw
func writeOutput(c *cli.Context, p *podpacker.Packer, width int, b *podpacker.Batch) error {
	format, err := csource.ParseFormat(c.String("output-format"))
	if err != nil {
		return err
	}

	dir := c.Args().Get(1)
	if dir == "" {
		dir = "."
	}

	if dir == "-" {
		if format != csource.Raw {
			return fmt.Errorf("%s output can't be written to stdout", format)
		}
		return csource.WriteRaw(os.Stdout, b.Records)
	}

	names := csource.NewNames(c.String("symbol"), c.String("suffix"))

	return p.Write(filepath.Join(dir, c.String("name")), format, names, width, b)
}

func loadConfig(c *cli.Context) (*podpacker.Config, error) {
	file := c.Args().First()
	if file == "" {
		file = defaultConfig
	}
	return podpacker.LoadConfig(file)
}

func dump(w io.Writer, r io.Reader) error {
	var record [chunk.Size]byte
	for i := 0; ; i++ {
		if _, err := io.ReadFull(r, record[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var ch chunk.Chunk
		if err := ch.UnmarshalBinary(record[:]); err != nil {
			return err
		}

		fmt.Fprintf(w, "chunk %d: top_door=%t left_door=%t corner=%t clutter=%d\n", i, ch.TopDoor, ch.LeftDoor, ch.Corner, ch.Clutter)
		for row := 0; row < chunk.Height; row++ {
			for col := 0; col < chunk.Width; col++ {
				fmt.Fprintf(w, " %X", ch.Tiles[row*chunk.Width+col])
			}
			fmt.Fprintln(w)
		}
	}
}

func preview(dst, src string, perRow int) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	m, err := tileset.Decode(f, perRow)
	if err != nil {
		return err
	}

	b := new(bytes.Buffer)
	if err := png.Encode(b, m); err != nil {
		return err
	}

	return csource.WriteFiles(strings.TrimSuffix(dst, filepath.Ext(dst)), map[string][]byte{filepath.Ext(dst): b.Bytes()})
}

func main() {
	app := cli.NewApp()

	app.Name = "podpacker"
	app.Usage = "Pineapple of Doom map packer"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"PODPACKER_DB"},
			Usage:   "path to chunk catalog database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "pack",
			Usage:       "Pack a directory of Ogmo levels",
			Description: "Converts Ogmo Editor 3 JSON levels to the packed chunk format. Use - as OUTPUT_DIR with --output-format raw to write to stdout.",
			ArgsUsage:   "JSON_DIR [OUTPUT_DIR]",
			Flags:       outputFlags(podpacker.DefaultName, podpacker.DefaultSymbol),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				p, closer, err := newPacker(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				b, err := p.Pack(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				if err := writeOutput(c, p, chunk.Size, b); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "build",
			Usage:       "Pack every bank in a project file",
			Description: "",
			ArgsUsage:   "[CONFIG]",
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				p, closer, err := newPacker(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				if err := p.BuildConfig(cfg); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "watch",
			Usage:       "Rebuild a project whenever a level changes",
			Description: "",
			ArgsUsage:   "[CONFIG]",
			Action: func(c *cli.Context) error {
				cfg, err := loadConfig(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				p, closer, err := newPacker(c)
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer closer()

				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
				defer stop()

				if err := p.Watch(ctx, cfg.Inputs(), func() error { return p.BuildConfig(cfg) }); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "dump",
			Usage:       "Print the chunks in a raw file",
			Description: "",
			ArgsUsage:   "FILE",
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				f, err := os.Open(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer f.Close()

				if err := dump(os.Stdout, f); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "catalog",
			Usage:       "List the chunks recorded in the database",
			Description: "With --level, print the recorded chunk for that level file instead.",
			ArgsUsage:   "[BANK]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "level",
					Usage: "look up the chunk packed from this level file",
				},
			},
			Action: func(c *cli.Context) error {
				if c.String("db") == "" {
					return cli.NewExitError("no database given, use --db", 1)
				}

				db, err := podpacker.NewChunkDB(c.String("db"))
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer db.Close()

				if file := c.String("level"); file != "" {
					f, err := ogmo.ReadFile(file)
					if err != nil {
						return cli.NewExitError(err, 1)
					}
					b, err := db.FindChunkBySHA1(podpacker.SHA1(f.Raw))
					if err != nil {
						return cli.NewExitError(err, 1)
					}
					if b == nil {
						return cli.NewExitError(fmt.Sprintf("no chunk recorded for %s", file), 1)
					}
					fmt.Printf("%X\n", b)
					return nil
				}

				entries, err := db.List(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				for _, e := range entries {
					fmt.Printf("%s\t%d\t%s\t%d\t%s\t%X\n", e.Bank, e.Position, e.Name, e.Clutter, e.SHA1, e.Chunk)
				}

				return nil
			},
		},
		{
			Name:        "tileset",
			Usage:       "Convert an image to Game Boy tile data",
			Description: "",
			ArgsUsage:   "IMAGE [OUTPUT_DIR]",
			Flags:       outputFlags("tileset", "TILESET"),
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				f, err := os.Open(c.Args().First())
				if err != nil {
					return cli.NewExitError(err, 1)
				}
				defer f.Close()

				m, _, err := image.Decode(f)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				tiles, err := tileset.Tiles(m)
				if err != nil {
					return cli.NewExitError(err, 1)
				}

				p := podpacker.New(nil, newLogger(c))
				if err := writeOutput(c, p, tileset.TileSize, &podpacker.Batch{Records: tiles}); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
		{
			Name:        "preview",
			Usage:       "Render raw Game Boy tile data as a PNG",
			Description: "",
			ArgsUsage:   "FILE OUTPUT",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "per-row",
					Value: 16,
					Usage: "number of tiles in each row of the image",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 2 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				if err := preview(c.Args().Get(1), c.Args().First(), c.Int("per-row")); err != nil {
					return cli.NewExitError(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

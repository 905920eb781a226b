package main

import (
	"fmt"
	"image/gif"
	"io"
	"io/ioutil"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/bodgit/gifstream"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
)

const defaultCache = ".gifstream.db"

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

func openCache(c *cli.Context) (*gifstream.FrameCache, error) {
	if c.String("cache") == "" {
		return nil, nil
	}
	return gifstream.NewFrameCache(c.String("cache"))
}

// Flags override the configuration file only when given
func loadConfig(c *cli.Context) (gifstream.Config, error) {
	cfg := gifstream.DefaultConfig()
	if file := c.String("config"); file != "" {
		var err error
		if cfg, err = gifstream.LoadConfig(file); err != nil {
			return cfg, err
		}
	}

	if c.IsSet("delay") {
		cfg.Delay = uint16(c.Uint("delay"))
	}
	if c.IsSet("fps") {
		fps := c.Float64("fps")
		if fps <= 0 {
			return cfg, fmt.Errorf("invalid fps %g", fps)
		}
		cfg.Delay = uint16(math.Round(100 / fps))
	}
	if c.IsSet("repeat") {
		cfg.Repeat = c.Int("repeat")
	}
	if c.IsSet("dispose") {
		cfg.Dispose = c.String("dispose")
	}
	if c.IsSet("colors") {
		cfg.Colors = c.Int("colors")
	}
	if c.IsSet("width") {
		cfg.Width = c.Int("width")
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("dither") {
		cfg.Dither = c.Bool("dither")
	}
	if c.IsSet("workers") {
		cfg.Workers = c.Int("workers")
	}

	return cfg, nil
}

func encode(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	logger := newLogger(c)

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	files, err := gifstream.Sources(c.Args().Slice())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	logger.Printf("Encoding %d frames\n", len(files))

	cache, err := openCache(c)
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	if cache != nil {
		defer cache.Close()
	}

	var progress func(int)
	if c.Bool("progress") {
		bar := progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("encoding"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionThrottle(100*time.Millisecond),
		)
		defer func() {
			_ = bar.Finish()
		}()
		progress = func(n int) {
			_ = bar.Set(n)
		}
	}

	output := c.String("output")
	tmp := output + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	if err := gifstream.New(cache, logger).Build(files, f, cfg, progress); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return cli.NewExitError(err, 1)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return cli.NewExitError(err, 1)
	}

	if err := os.Rename(tmp, output); err != nil {
		return cli.NewExitError(err, 1)
	}

	return nil
}

func transparentIndex(m *gif.GIF, i int) int {
	for j, c := range m.Image[i].Palette {
		if _, _, _, a := c.RGBA(); a == 0 {
			return j
		}
	}
	return -1
}

func printInfo(w io.Writer, m *gif.GIF) {
	fmt.Fprintf(w, "Canvas: %dx%d\n", m.Config.Width, m.Config.Height)
	switch m.LoopCount {
	case -1:
		fmt.Fprintln(w, "Loop: none")
	case 0:
		fmt.Fprintln(w, "Loop: forever")
	default:
		fmt.Fprintf(w, "Loop: %d\n", m.LoopCount)
	}
	fmt.Fprintf(w, "Frames: %d\n", len(m.Image))

	for i, f := range m.Image {
		var dispose gifstream.Dispose
		if i < len(m.Disposal) {
			dispose = gifstream.Dispose(m.Disposal[i])
		}
		fmt.Fprintf(w, "%4d: %v delay=%d dispose=%s colors=%d transparent=%d\n", i, f.Rect, m.Delay[i], dispose, len(f.Palette), transparentIndex(m, i))
	}
}

func info(c *cli.Context) error {
	if c.NArg() < 1 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	f, err := os.Open(c.Args().First())
	if err != nil {
		return cli.NewExitError(err, 1)
	}
	defer f.Close()

	m, err := gif.DecodeAll(f)
	if err != nil {
		return cli.NewExitError(err, 1)
	}

	printInfo(os.Stdout, m)

	return nil
}

func main() {
	app := cli.NewApp()

	app.Name = "gifstream"
	app.Usage = "Animated GIF encoder"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	cacheFlag := &cli.StringFlag{
		Name:    "cache",
		EnvVars: []string{"GIFSTREAM_CACHE"},
		Value:   filepath.Join(cwd, defaultCache),
		Usage:   "path to frame cache, empty to disable",
	}

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:        "encode",
			Usage:       "Encode images as an animated GIF",
			Description: "Each argument is an image, a directory of images or a cue sheet listing images.",
			ArgsUsage:   "FILE|DIRECTORY|SHEET...",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "output",
					Aliases: []string{"o"},
					Value:   "out.gif",
					Usage:   "output file",
				},
				&cli.StringFlag{
					Name:  "config",
					Usage: "YAML configuration file",
				},
				&cli.UintFlag{
					Name:  "delay",
					Usage: "delay between frames in 1/100s",
				},
				&cli.Float64Flag{
					Name:  "fps",
					Usage: "frames per second, overrides delay",
				},
				&cli.IntFlag{
					Name:  "repeat",
					Usage: "0 loops forever, otherwise number of extra plays",
				},
				&cli.StringFlag{
					Name:  "dispose",
					Usage: "disposal method: none, keep, background or previous",
				},
				&cli.IntFlag{
					Name:  "colors",
					Usage: "maximum colors per frame",
				},
				&cli.IntFlag{
					Name:  "width",
					Usage: "scale frames to width",
				},
				&cli.IntFlag{
					Name:  "height",
					Usage: "scale frames to height",
				},
				&cli.BoolFlag{
					Name:  "dither",
					Usage: "enable Floyd-Steinberg dithering",
				},
				&cli.IntFlag{
					Name:  "workers",
					Usage: "number of decoding workers",
				},
				&cli.BoolFlag{
					Name:  "progress",
					Usage: "show a progress bar",
				},
				cacheFlag,
			},
			Action: encode,
		},
		{
			Name:      "info",
			Usage:     "Print the frames of a GIF",
			ArgsUsage: "FILE",
			Action:    info,
		},
		{
			Name:  "cache",
			Usage: "Manage the frame cache",
			Subcommands: []*cli.Command{
				{
					Name:  "stats",
					Usage: "Print the number of cached frames",
					Flags: []cli.Flag{cacheFlag},
					Action: func(c *cli.Context) error {
						cache, err := openCache(c)
						if err != nil {
							return cli.NewExitError(err, 1)
						}
						if cache == nil {
							return nil
						}
						defer cache.Close()

						n, err := cache.Len()
						if err != nil {
							return cli.NewExitError(err, 1)
						}
						fmt.Printf("%d frames\n", n)

						return nil
					},
				},
				{
					Name:  "clear",
					Usage: "Remove all cached frames",
					Flags: []cli.Flag{cacheFlag},
					Action: func(c *cli.Context) error {
						cache, err := openCache(c)
						if err != nil {
							return cli.NewExitError(err, 1)
						}
						if cache == nil {
							return nil
						}
						defer cache.Close()

						if err := cache.Clear(); err != nil {
							return cli.NewExitError(err, 1)
						}
						newLogger(c).Println("Cache cleared")

						return nil
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

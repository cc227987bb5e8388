// Package main provides motionbench, which runs repeated detections over a
// range of worker counts and appends one results line per run.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/user/motionpipe/pkg/adapters/ggrenderer"
	"github.com/user/motionpipe/pkg/adapters/logger"
	"github.com/user/motionpipe/pkg/adapters/mp4probe"
	"github.com/user/motionpipe/pkg/adapters/osfilesystem"
	"github.com/user/motionpipe/pkg/motionpipe"
	"github.com/user/motionpipe/pkg/ports"
	"github.com/user/motionpipe/pkg/summarizer"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	common := []cli.Flag{
		&cli.IntFlag{Name: "k", Value: 12, Usage: "percentage of differing pixels that counts as movement"},
		&cli.StringFlag{Name: "preset", Value: string(motionpipe.PresetBalanced), Usage: "worker split preset (balanced, stream, data)"},
		&cli.IntFlag{Name: "synthetic", Usage: "generate N synthetic frames instead of reading the video"},
		&cli.StringFlag{Name: "decoder", Value: motionpipe.DecoderAuto, Usage: "frame decoder (auto, ffmpeg, gocv, images)"},
		&cli.StringFlag{Name: "results", Aliases: []string{"o"}, Usage: "results file (default: results/<video>.txt)"},
		&cli.BoolFlag{Name: "pin", Usage: "pin workers to CPU cores"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log pipeline progress"},
	}

	return &cli.App{
		Name:    "motionbench",
		Usage:   "benchmark movement detection across worker counts",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:      "sweep",
				Usage:     "run once for every total worker count in a range",
				ArgsUsage: "<video>",
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "from", Value: 1, Usage: "first total worker count"},
					&cli.IntFlag{Name: "to", Value: 8, Usage: "last total worker count"},
					&cli.BoolFlag{Name: "seq", Usage: "also run a single-worker baseline first"},
				}, common...),
				Action: sweep,
			},
			{
				Name:      "repeat",
				Usage:     "run the same worker count several times",
				ArgsUsage: "<video>",
				Flags: append([]cli.Flag{
					&cli.IntFlag{Name: "nw", Value: 4, Usage: "total worker count"},
					&cli.IntFlag{Name: "tries", Value: 5, Usage: "number of runs"},
				}, common...),
				Action: repeat,
			},
		},
	}
}

// bench carries what every run of one invocation shares.
type bench struct {
	runner *motionpipe.Runner
	base   *motionpipe.ConfigBuilder
	opts   motionpipe.RunOptions
}

func newBench(c *cli.Context) (*bench, error) {
	input := c.Args().First()
	synthetic := c.Int("synthetic")
	if input == "" && synthetic == 0 {
		return nil, cli.Exit("a video argument or --synthetic is required", 2)
	}

	preset, err := motionpipe.ParsePreset(c.String("preset"))
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}

	var log ports.Logger = logger.NewNoop()
	if c.Bool("verbose") {
		log = logger.NewConsole(ports.LevelInfo)
	}

	name := filepath.Base(input)
	if synthetic > 0 {
		name = "synthetic"
	}
	results := c.String("results")
	if results == "" {
		results = summarizer.ResultsPath("results", name)
	}

	return &bench{
		runner: motionpipe.NewRunner(osfilesystem.New(), ggrenderer.New(), mp4probe.New(), log),
		base: motionpipe.NewConfigBuilder().
			WithK(c.Int("k")).
			WithPreset(preset).
			WithPinning(c.Bool("pin")).
			WithProgram("motionbench"),
		opts: motionpipe.RunOptions{
			Input: input,
			Source: motionpipe.SourceOptions{
				Decoder:   c.String("decoder"),
				Synthetic: synthetic,
			},
			ResultsPath: results,
		},
	}, nil
}

// run performs one detection and prints its results line.
func (b *bench) run(ctx context.Context, cfg motionpipe.Config) error {
	summary, err := b.runner.Run(ctx, cfg, b.opts)
	if err != nil {
		return err
	}
	fmt.Print(summarizer.FormatRecord(summary))
	return nil
}

func sweep(c *cli.Context) error {
	b, err := newBench(c)
	if err != nil {
		return err
	}
	from, to := max(1, c.Int("from")), c.Int("to")
	if to < from {
		return cli.Exit(fmt.Sprintf("--to (%d) must not be below --from (%d)", to, from), 2)
	}

	if c.Bool("seq") {
		cfg := b.base.WithWorkers(motionpipe.Workers{Preprocess: 1, Classify: 1, PreprocessRowSplit: 1, ClassifyRowSplit: 1}).Build()
		if err := b.run(c.Context, cfg); err != nil {
			return err
		}
	}
	for n := from; n <= to; n++ {
		if err := b.run(c.Context, b.base.WithTotalWorkers(n).Build()); err != nil {
			return err
		}
	}
	return nil
}

func repeat(c *cli.Context) error {
	b, err := newBench(c)
	if err != nil {
		return err
	}
	cfg := b.base.WithTotalWorkers(c.Int("nw")).Build()
	for i := 0; i < c.Int("tries"); i++ {
		if err := b.run(c.Context, cfg); err != nil {
			return err
		}
	}
	return nil
}

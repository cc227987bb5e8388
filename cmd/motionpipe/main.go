// Package main provides the CLI entry point for motionpipe.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/ideamans/go-l10n"

	"github.com/user/motionpipe/pkg/adapters/ggrenderer"
	"github.com/user/motionpipe/pkg/adapters/logger"
	"github.com/user/motionpipe/pkg/adapters/mp4probe"
	"github.com/user/motionpipe/pkg/adapters/osfilesystem"
	"github.com/user/motionpipe/pkg/config"
	"github.com/user/motionpipe/pkg/motionpipe"
	"github.com/user/motionpipe/pkg/pipeline"
	"github.com/user/motionpipe/pkg/ports"
	"github.com/user/motionpipe/pkg/summarizer"
)

// CLI defines the command-line interface with subcommands.
type CLI struct {
	Detect  DetectCmd  `cmd:"" default:"withargs" help:"Detect movement in a video."`
	Probe   ProbeCmd   `cmd:"" help:"Show the video track of an MP4 file."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// DetectCmd defines the detect subcommand.
type DetectCmd struct {
	Input string `arg:"" optional:"" help:"Video file or directory of images."`

	// Configuration file, overridden by flags
	Config string `short:"c" help:"YAML configuration file."`

	// Detection
	K                *int     `short:"k" help:"Percentage of differing pixels that counts as movement (default: 12)."`
	ThresholdDivisor *float64 `help:"Divisor applied to the background intensity for the pixel threshold (default: 3)."`
	PixelCompare     string   `help:"Per-pixel comparison (gt or gte)."`
	MovementCompare  string   `help:"Per-frame comparison (gt or gte)."`

	// Workers
	Workers  *int   `short:"n" name:"nw" help:"Total number of workers, split by preset."`
	Preset   string `short:"p" help:"Worker split preset (balanced, stream, data)."`
	Stages   []int  `sep:"," help:"Explicit layout: preprocess,classify,preprocess-split,classify-split."`
	Pin      bool   `help:"Pin workers to CPU cores."`
	Capacity *int   `help:"Ingress queue capacity (default: 2 x workers)."`

	// Input
	Synthetic  int     `help:"Generate N synthetic frames instead of reading the input."`
	Decoder    string  `help:"Frame decoder (auto, ffmpeg, gocv, images)."`
	FFmpegPath *string `help:"Path to ffmpeg executable (default: search PATH)."`
	Width      *int    `short:"W" help:"Resize frames to this width."`
	Height     *int    `short:"H" help:"Resize frames to this height."`
	MaxFrames  *int    `help:"Stop after N frames (0 = all)."`

	// Output
	Results *string `short:"o" help:"Results file; one line is appended per run (default: results/<video>.txt)."`
	Summary *string `short:"s" help:"Write a Markdown summary to this file."`

	// Debug options
	Debug    bool    `short:"d" help:"Save the background and difference masks."`
	DebugDir *string `help:"Directory for debug output (default: ./debug)."`

	// Logging options
	LogLevel string `short:"l" help:"Log level (debug, info, warn, error)."`
	Quiet    bool   `short:"Q" help:"Suppress all log output."`
}

// ProbeCmd defines the probe subcommand.
type ProbeCmd struct {
	Input string `arg:"" type:"existingfile" help:"MP4 file to inspect."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

var version = "dev"

func main() {
	cli := CLI{}

	ctx := kong.Parse(&cli,
		kong.Name("motionpipe"),
		kong.Description(l10n.T("Detect movement in videos with a parallel frame pipeline.")),
		kong.UsageOnError(),
	)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

// Run executes the detect command.
func (cmd *DetectCmd) Run() error {
	file, err := cmd.loadConfig()
	if err != nil {
		return err
	}
	cfg, err := cmd.buildConfig(file)
	if err != nil {
		return err
	}
	if cmd.Input == "" && cmd.Synthetic == 0 {
		return errors.New(l10n.T("an input video or --synthetic is required"))
	}

	// Create logger
	var log ports.Logger
	level := file.LogLevel
	if cmd.LogLevel != "" {
		level = ports.ParseLogLevel(cmd.LogLevel)
	}
	if cmd.Quiet {
		log = logger.NewNoop()
	} else {
		log = logger.NewConsole(level)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Interrupted, shutting down...")
		cancel()
	}()

	runner := motionpipe.NewRunner(osfilesystem.New(), ggrenderer.New(), mp4probe.New(), log)

	opts := cmd.runOptions(file)
	log.Info("Detecting movement in %s (k=%d, %s)", displayName(opts), cfg.K, cfg.Workers)

	summary, err := runner.Run(ctx, cfg, opts)
	if err != nil {
		return err
	}

	if opts.ResultsPath != "" {
		log.Info("Results appended to %s", opts.ResultsPath)
	}
	fmt.Print(summarizer.FormatRecord(summary))
	return nil
}

func (cmd *DetectCmd) loadConfig() (config.Config, error) {
	if cmd.Config == "" {
		return config.Defaults(), nil
	}
	file, err := config.LoadFromFile(cmd.Config)
	if err != nil {
		return file, err
	}
	if err := file.Validate(); err != nil {
		return file, fmt.Errorf("%s: %w", cmd.Config, err)
	}
	return file, nil
}

// buildConfig applies CLI overrides on top of the configuration file.
func (cmd *DetectCmd) buildConfig(file config.Config) (motionpipe.Config, error) {
	builder := file.ToBuilder().WithProgram("motionpipe")

	if cmd.K != nil {
		builder.WithK(*cmd.K)
	}
	if cmd.ThresholdDivisor != nil {
		builder.WithThresholdDivisor(*cmd.ThresholdDivisor)
	}
	if cmd.PixelCompare != "" {
		c, err := pipeline.ParseComparison(cmd.PixelCompare)
		if err != nil {
			return motionpipe.Config{}, err
		}
		builder.WithPixelCompare(c)
	}
	if cmd.MovementCompare != "" {
		c, err := pipeline.ParseComparison(cmd.MovementCompare)
		if err != nil {
			return motionpipe.Config{}, err
		}
		builder.WithMovementCompare(c)
	}
	if cmd.Preset != "" {
		p, err := motionpipe.ParsePreset(cmd.Preset)
		if err != nil {
			return motionpipe.Config{}, err
		}
		builder.WithPreset(p)
	}
	if cmd.Workers != nil {
		builder.WithTotalWorkers(*cmd.Workers)
	}
	if len(cmd.Stages) > 0 {
		if len(cmd.Stages) != 4 {
			return motionpipe.Config{}, fmt.Errorf("--stages needs 4 values, got %d", len(cmd.Stages))
		}
		builder.WithWorkers(motionpipe.Workers{
			Preprocess:         cmd.Stages[0],
			Classify:           cmd.Stages[1],
			PreprocessRowSplit: cmd.Stages[2],
			ClassifyRowSplit:   cmd.Stages[3],
		})
	}
	if cmd.Pin {
		builder.WithPinning(true)
	}
	if cmd.Capacity != nil {
		builder.WithIngress(*cmd.Capacity, file.IngressTimeout)
	}
	if cmd.MaxFrames != nil {
		builder.WithMaxFrames(*cmd.MaxFrames)
	}

	return builder.Build(), nil
}

func (cmd *DetectCmd) runOptions(file config.Config) motionpipe.RunOptions {
	opts := motionpipe.RunOptions{
		Input: cmd.Input,
		Source: motionpipe.SourceOptions{
			Decoder:    file.Decoder,
			FFmpegPath: file.FFmpegPath,
			Width:      file.Resize.Width,
			Height:     file.Resize.Height,
			Synthetic:  cmd.Synthetic,
		},
		Debug:       file.Debug || cmd.Debug,
		DebugDir:    file.DebugDir,
		ResultsPath: file.Results,
		SummaryPath: file.Summary,
	}

	if cmd.Decoder != "" {
		opts.Source.Decoder = cmd.Decoder
	}
	if cmd.FFmpegPath != nil {
		opts.Source.FFmpegPath = *cmd.FFmpegPath
	}
	if cmd.Width != nil {
		opts.Source.Width = *cmd.Width
	}
	if cmd.Height != nil {
		opts.Source.Height = *cmd.Height
	}
	if cmd.DebugDir != nil {
		opts.DebugDir = *cmd.DebugDir
	}
	if cmd.Summary != nil {
		opts.SummaryPath = *cmd.Summary
	}

	switch {
	case cmd.Results != nil:
		opts.ResultsPath = *cmd.Results
	case opts.ResultsPath == "":
		opts.ResultsPath = summarizer.ResultsPath("results", displayName(opts))
	}
	return opts
}

func displayName(opts motionpipe.RunOptions) string {
	if opts.Source.Synthetic > 0 {
		return "synthetic"
	}
	return filepath.Base(opts.Input)
}

// Run executes the probe command.
func (cmd *ProbeCmd) Run() error {
	info, err := mp4probe.New().Probe(cmd.Input)
	if err != nil {
		return err
	}
	fmt.Println(l10n.F("Codec: %s", info.Codec))
	fmt.Println(l10n.F("Resolution: %d x %d", info.Width, info.Height))
	fmt.Println(l10n.F("Frames: %d", info.Frames))
	fmt.Println(l10n.F("Frame rate: %.2f fps", info.FPS))
	return nil
}

// Run executes the version command.
func (cmd *VersionCmd) Run() error {
	fmt.Println(l10n.F("motionpipe (Go) version %s", version))
	return nil
}
